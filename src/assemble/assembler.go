// Package assemble reassembles multi-line stack traces from a stream of
// console lines and seals each one into a numbered report file.
package assemble

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tracekeep/src/classify"
	"tracekeep/src/contracts"
	"tracekeep/src/frames"
	"tracekeep/src/logger"
	"tracekeep/src/patterns"
	"tracekeep/src/report"
	"tracekeep/src/timer"
)

// DefaultQuietPeriod is how long the stream must stay quiet before a trace is sealed.
const DefaultQuietPeriod = 10 * time.Millisecond

// DefaultEmitTimeout bounds a single Emit call.
const DefaultEmitTimeout = 5 * time.Second

// Allocator hands out new, exclusively created report files.
type Allocator interface {
	Allocate() (*os.File, error)
}

// Emitter receives a record for every report written to disk.
type Emitter interface {
	Emit(ctx context.Context, record contracts.ReportRecord) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, record contracts.ReportRecord) error

// Emit implements Emitter.
func (f EmitterFunc) Emit(ctx context.Context, record contracts.ReportRecord) error {
	return f(ctx, record)
}

// Options configures an Assembler. Zero values fall back to defaults.
type Options struct {
	QuietPeriod time.Duration
	EmitTimeout time.Duration
	Header      report.HeaderWriter
	Registry    frames.Registry
	Emitter     Emitter
	Logger      logger.Logger
}

// Assembler is Idle while its buffer is empty and Accumulating otherwise.
// Ingest and timer fires are serialized by mu.
type Assembler struct {
	files       Allocator
	header      report.HeaderWriter
	registry    frames.Registry
	emitter     Emitter
	logger      logger.Logger
	emitTimeout time.Duration
	timer       *timer.Timer

	mu     sync.Mutex
	lines  []string
	closed bool

	// Held across Emit so records leave in seal order.
	emitMu sync.Mutex
}

// New creates an Assembler writing reports through files.
func New(files Allocator, opts Options) *Assembler {
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = DefaultQuietPeriod
	}
	if opts.EmitTimeout <= 0 {
		opts.EmitTimeout = DefaultEmitTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewSilentLogger()
	}

	a := &Assembler{
		files:       files,
		header:      opts.Header,
		registry:    opts.Registry,
		emitter:     opts.Emitter,
		logger:      opts.Logger,
		emitTimeout: opts.EmitTimeout,
	}
	a.timer = timer.New(opts.QuietPeriod, a.onTimerFire)
	return a
}

// Ingest offers one line to the assembler. It returns true when the line was
// consumed into a report; false means the caller should forward it elsewhere.
func (a *Assembler) Ingest(line string) bool {
	line = strings.TrimSpace(line)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return false
	}

	var sealed *contracts.ReportRecord
	switch classify.Classify(line, len(a.lines) > 0) {
	case classify.StartOfReport:
		if len(a.lines) > 0 {
			sealed = a.sealLocked()
		}
		a.lines = append(a.lines[:0], line)
	case classify.ContinuationOfReport:
		a.lines = append(a.lines, line)
	default:
		a.mu.Unlock()
		return false
	}
	a.timer.Arm()

	a.emitAndUnlock(sealed)
	return true
}

// Pending reports whether a trace is buffered and not yet sealed.
func (a *Assembler) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.lines) > 0
}

// Flush seals the buffered trace now, as a timer fire would.
func (a *Assembler) Flush() {
	a.mu.Lock()
	a.emitAndUnlock(a.sealLocked())
}

// Close stops the timer and seals any buffered trace.
// Later Ingest calls return false.
func (a *Assembler) Close() {
	a.timer.Stop()

	a.mu.Lock()
	a.closed = true
	a.emitAndUnlock(a.sealLocked())
}

func (a *Assembler) onTimerFire() {
	a.mu.Lock()
	// A window armed while this fire waited on mu seals the buffer itself.
	if a.timer.Pending() {
		a.mu.Unlock()
		return
	}
	a.emitAndUnlock(a.sealLocked())
}

// emitAndUnlock releases mu and emits record, if any, in seal order.
func (a *Assembler) emitAndUnlock(record *contracts.ReportRecord) {
	if record == nil || a.emitter == nil {
		a.mu.Unlock()
		return
	}

	a.emitMu.Lock()
	a.mu.Unlock()
	defer a.emitMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), a.emitTimeout)
	defer cancel()
	if err := a.emitter.Emit(ctx, *record); err != nil {
		a.logger.Error("Failed to emit report %s: %v", record.FileName, err)
	}
}

// sealLocked persists the buffer and clears it. It returns nil when the buffer
// was empty or the report could not be written.
func (a *Assembler) sealLocked() *contracts.ReportRecord {
	if len(a.lines) == 0 {
		return nil
	}
	lines := a.lines
	a.lines = nil

	path, err := a.write(lines)
	if err != nil {
		a.logger.Error("Dropped stack trace report: %v", err)
		return nil
	}
	a.logger.Debug("Wrote %d-line report to %s", len(lines), path)

	component, _ := frames.ResolveComponent(lines, a.registry)
	return &contracts.ReportRecord{
		ID:          uuid.NewString(),
		Component:   component,
		FilePath:    path,
		FileName:    filepath.Base(path),
		Headline:    patterns.Headline(lines),
		Fingerprint: patterns.Fingerprint(lines),
		LineCount:   len(lines),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
}

func (a *Assembler) write(lines []string) (string, error) {
	f, err := a.files.Allocate()
	if err != nil {
		return "", fmt.Errorf("failed to allocate report file: %w", err)
	}
	path := f.Name()

	werr := report.Write(f, a.header, lines)
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write report %s: %w", path, werr)
	}
	return path, nil
}
