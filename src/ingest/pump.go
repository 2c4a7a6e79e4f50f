// Package ingest feeds console lines into the assembler, from a pipe or a growing log file.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"tracekeep/src/sanitize"
)

// MaxLineSize is the longest line Pump accepts. Longer lines fail the scan.
const MaxLineSize = 1024 * 1024

// LineSink consumes a line and reports whether it was claimed.
type LineSink interface {
	Ingest(line string) bool
}

// Pump reads r line by line, offering each cleaned line to sink. Lines the sink
// does not claim are written unchanged to passthrough, if set.
// Pump returns nil at EOF, ctx.Err() once ctx is done between lines.
func Pump(ctx context.Context, r io.Reader, sink LineSink, passthrough io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := offer(scanner.Text(), sink, passthrough); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func offer(raw string, sink LineSink, passthrough io.Writer) error {
	if sink.Ingest(sanitize.Clean(raw)) || passthrough == nil {
		return nil
	}
	if _, err := io.WriteString(passthrough, raw+"\n"); err != nil {
		return fmt.Errorf("failed to forward line: %w", err)
	}
	return nil
}
