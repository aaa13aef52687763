package trace

import "fmt"

// IndexOutOfRangeError reports a probe position whose expanded physical
// index (or its successor) does not exist in a record. Record < 0 means the
// probe set itself was invalid before any record was touched.
type IndexOutOfRangeError struct {
	Record   int
	Position int
	Length   int
}

func (e *IndexOutOfRangeError) Error() string {
	if e.Record < 0 {
		return fmt.Sprintf("probe position expands to physical index %d, which is not addressable", e.Position)
	}
	return fmt.Sprintf(
		"record %d has %d labels, probe position needs physical indices %d and %d",
		e.Record, e.Length, e.Position, e.Position+1,
	)
}
