// Package pqp reads and writes the text format of "Predicting Properties of
// Quantum Many-Body Systems": a subsystems file listing qubit positions and
// a measurement file with one snapshot per line, each qubit contributing a
// random-basis label followed by its outcome bit.
package pqp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// System describes the measured register and the qubit subsets that
// estimates are requested for.
type System struct {
	NumQubits  int
	Subsystems [][]int
}

// ReadMeasurements parses snapshot records. Every line becomes one record
// of alternating basis/outcome tokens, so a record over Q qubits holds 2Q
// labels and qubit k occupies indices 2k and 2k+1.
func ReadMeasurements(r io.Reader) ([][]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var records [][]string
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields)%2 != 0 {
			return nil, fmt.Errorf(
				"line %d: %d tokens, want an even count of basis/outcome pairs",
				line, len(fields),
			)
		}
		records = append(records, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ReadSubsystems parses the header file: first line is the system size,
// each following line a subsystem size and that many qubit positions.
func ReadSubsystems(r io.Reader) (System, error) {
	scanner := bufio.NewScanner(r)

	var sys System
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if sys.NumQubits == 0 && sys.Subsystems == nil {
			if len(fields) != 1 {
				return System{}, fmt.Errorf("line %d: system size line must hold a single integer", line)
			}
			size, err := strconv.Atoi(fields[0])
			if err != nil || size <= 0 {
				return System{}, fmt.Errorf("line %d: invalid system size %q", line, fields[0])
			}
			sys.NumQubits = size
			continue
		}
		count, err := strconv.Atoi(fields[0])
		if err != nil || count < 0 {
			return System{}, fmt.Errorf("line %d: invalid subsystem size %q", line, fields[0])
		}
		if len(fields)-1 != count {
			return System{}, fmt.Errorf(
				"line %d: subsystem declares %d positions but lists %d",
				line, count, len(fields)-1,
			)
		}
		positions := make([]int, count)
		for i, f := range fields[1:] {
			pos, err := strconv.Atoi(f)
			if err != nil {
				return System{}, fmt.Errorf("line %d: invalid qubit position %q", line, f)
			}
			if pos < 0 || pos >= sys.NumQubits {
				return System{}, fmt.Errorf(
					"line %d: qubit position %d outside system of size %d",
					line, pos, sys.NumQubits,
				)
			}
			positions[i] = pos
		}
		sys.Subsystems = append(sys.Subsystems, positions)
	}
	if err := scanner.Err(); err != nil {
		return System{}, err
	}
	if sys.NumQubits == 0 {
		return System{}, fmt.Errorf("missing system size line")
	}
	return sys, nil
}
