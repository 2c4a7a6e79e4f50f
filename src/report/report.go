// Package report defines the on-disk layout of a stack trace report:
// environment header lines, a blank line, the "Stacktrace:" marker, then the raw trace.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// Marker separates the header from the trace.
const Marker = "Stacktrace:"

// ErrMalformed is returned by Read when a report has no marker line.
var ErrMalformed = errors.New("malformed report: missing " + Marker + " line")

// HeaderWriter writes the environment facts that precede the trace.
type HeaderWriter interface {
	WriteHeader(w io.Writer) error
}

// Report is a parsed report file.
type Report struct {
	Header []string
	Trace  []string
}

// Write renders a report to w. A nil header writes only the separator and trace.
func Write(w io.Writer, header HeaderWriter, lines []string) error {
	bw := bufio.NewWriter(w)

	if header != nil {
		if err := header.WriteHeader(bw); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	if _, err := bw.WriteString("\n" + Marker + "\n"); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Read parses a report. Trace holds every line after the first exact marker line.
func Read(r io.Reader) (Report, error) {
	var rep Report
	inTrace := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case inTrace:
			rep.Trace = append(rep.Trace, line)
		case line == Marker:
			inTrace = true
		default:
			rep.Header = append(rep.Header, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return Report{}, fmt.Errorf("failed to read report: %w", err)
	}

	if !inTrace {
		return Report{}, ErrMalformed
	}
	return rep, nil
}

// ReadFile opens and parses the report at path.
func ReadFile(path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// MalformedHint tells the user how to share a report that Read rejected.
func MalformedHint(program string, id uint64) string {
	return fmt.Sprintf("Malformed file. Run `%s publish %d` and send the link to the maintainers.", program, id)
}
