// Package sanitize cleans raw console output before it reaches the classifier.
// Services that log through a colorizing terminal wrap stack traces in SGR
// codes, which would otherwise hide the "at " and "Caused by: " prefixes.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// CSI sequences: \x1b[31m, \x1b[2K, \x1b[1;32m
	csiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

	// OSC sequences terminated by BEL or ST: \x1b]0;title\x07, \x1b_bk;t=...\x07
	oscPattern = regexp.MustCompile(`\x1b[\]_][^\x07\x1b]*(\x07|\x1b\\)`)
)

// StripANSI removes terminal escape sequences.
func StripANSI(s string) string {
	s = oscPattern.ReplaceAllString(s, "")
	s = csiPattern.ReplaceAllString(s, "")
	return s
}

// Clean strips escape sequences and carriage returns, and trims trailing newlines.
func Clean(s string) string {
	s = StripANSI(s)
	s = strings.ReplaceAll(s, "\r", "")
	return strings.TrimRight(s, "\n")
}
