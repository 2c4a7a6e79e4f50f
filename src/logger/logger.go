package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger defines the interface for logging throughout the application.
// Different implementations can be used for different contexts (console, silent, structured, etc.)
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// ConsoleLogger writes human-readable logs to a single writer.
// The watch command keeps stdout for pass-through lines, so the default writer is stderr.
type ConsoleLogger struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

func NewConsoleLogger() *ConsoleLogger {
	return &ConsoleLogger{out: os.Stderr}
}

// NewConsoleLoggerTo creates a ConsoleLogger writing to w.
// Debug messages are only written when verbose is set.
func NewConsoleLoggerTo(w io.Writer, verbose bool) *ConsoleLogger {
	return &ConsoleLogger{out: w, verbose: verbose}
}

func (c *ConsoleLogger) Info(msg string, args ...interface{}) {
	c.write("INFO", msg, args...)
}

func (c *ConsoleLogger) Error(msg string, args ...interface{}) {
	c.write("ERROR", msg, args...)
}

func (c *ConsoleLogger) Debug(msg string, args ...interface{}) {
	if !c.verbose {
		return
	}
	c.write("DEBUG", msg, args...)
}

func (c *ConsoleLogger) write(level, msg string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "["+level+"] "+msg+"\n", args...)
}

// SilentLogger discards all log messages.
// Used when running in TUI or MCP stdio mode to keep the terminal and protocol stream clean.
type SilentLogger struct{}

func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

func (s *SilentLogger) Info(msg string, args ...interface{})  {}
func (s *SilentLogger) Error(msg string, args ...interface{}) {}
func (s *SilentLogger) Debug(msg string, args ...interface{}) {}
