package utils

import (
	"github.com/twmb/murmur3"
)

// HashTokens hashes a token sequence with a separator byte between tokens,
// so ["XY"] and ["X","Y"] get distinct digests.
func HashTokens(tokens []string) uint64 {
	hash := murmur3.New64()
	for _, token := range tokens {
		_, err := hash.Write([]byte(token))
		if err != nil {
			panic(err)
		}
		_, err = hash.Write([]byte{0})
		if err != nil {
			panic(err)
		}
	}
	return hash.Sum64()
}

// FingerprintRecords folds per-record digests into one dataset fingerprint.
// Order of records matters.
func FingerprintRecords(records [][]string) uint64 {
	hash := murmur3.New64()
	buf := make([]byte, 8)
	for _, record := range records {
		h := HashTokens(record)
		for i := 0; i < 8; i++ {
			buf[i] = byte(h >> (8 * i))
		}
		_, err := hash.Write(buf)
		if err != nil {
			panic(err)
		}
	}
	return hash.Sum64()
}
