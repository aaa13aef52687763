package pqp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteMeasurements renders records back into the snapshot file layout,
// one space-separated line per record.
func WriteMeasurements(w io.Writer, records [][]string) error {
	bw := bufio.NewWriter(w)
	for _, record := range records {
		if _, err := bw.WriteString(strings.Join(record, " ")); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteSubsystems renders the header file: system size first, then one line
// per subsystem with its size and positions.
func WriteSubsystems(w io.Writer, sys System) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d\n", sys.NumQubits); err != nil {
		return err
	}
	for _, positions := range sys.Subsystems {
		parts := make([]string, 0, len(positions)+1)
		parts = append(parts, strconv.Itoa(len(positions)))
		for _, pos := range positions {
			parts = append(parts, strconv.Itoa(pos))
		}
		if _, err := bw.WriteString(strings.Join(parts, " ")); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
