// Package patterns normalizes stack trace lines for two audiences:
// grouping (fingerprints that survive redeploys) and display (short, readable frames).
//
// The same regexes serve both, with different masking levels:
//   - MaskRecurrence: drops line numbers, generated class suffixes and numbers
//   - MaskPresentation: keeps line numbers, shortens paths and opaque ids
package patterns

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// MaskingLevel controls how aggressively trace lines are normalized.
type MaskingLevel int

const (
	// MaskPresentation preserves diagnostic details like line numbers.
	// Use for: MCP responses, TUI display.
	// Example: at a.B.c(/var/lib/app/build/classes/B.java:42) → at a.B.c(.../B.java:42)
	MaskPresentation MaskingLevel = iota

	// MaskRecurrence normalizes for grouping identical traces.
	// Use for: Fingerprint.
	// Example: at a.B.c(B.java:42) → at a.B.c(B.java)
	MaskRecurrence
)

// FingerprintLength is the number of hex characters kept from the digest.
const FingerprintLength = 16

// Compiled once at package init.
var (
	// 2024-05-21T10:00:05.123Z, 2024-05-21 10:00:05,123
	timestampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}([.,]\d+)?(Z|[+-]\d{2}:?\d{2})?`)

	uuidPattern = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)

	// 0x7fff5fbff8c0
	hexAddressPattern = regexp.MustCompile(`\b0x[0-9a-fA-F]+\b`)

	// Object@1b6d3586 identity hashes from default toString.
	identityHashPattern = regexp.MustCompile(`@[0-9a-f]{4,8}\b`)

	// Generated classes: $$Lambda$14/0x..., $Proxy12, $$EnhancerByCGLIB$$3f2a
	generatedClassPattern = regexp.MustCompile(`(\$\$?[A-Za-z]+)\$*[0-9][0-9a-f]*\b`)

	// (Foo.java:42) source positions in frames.
	sourceLinePattern = regexp.MustCompile(`\(([^():]+):\d+\)`)

	numberPattern = regexp.MustCompile(`\b\d+\b`)

	// Absolute paths with 3+ directories; captures the file name.
	longPathPattern = regexp.MustCompile(`/(?:[^/\s()]+/){3,}([^/\s:()]+(?::\d+)?)`)

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize applies pattern normalization to a single trace line.
func Normalize(line string, level MaskingLevel) string {
	line = strings.TrimSpace(line)

	switch level {
	case MaskPresentation:
		if loc := timestampPattern.FindStringIndex(line); loc != nil && loc[0] == 0 {
			line = strings.TrimSpace(line[loc[1]:])
		}
		line = uuidPattern.ReplaceAllString(line, "<UUID>")
		line = hexAddressPattern.ReplaceAllString(line, "<HEX>")
		line = longPathPattern.ReplaceAllString(line, ".../$1")
	case MaskRecurrence:
		line = timestampPattern.ReplaceAllString(line, "[TIMESTAMP]")
		line = uuidPattern.ReplaceAllString(line, "[UUID]")
		line = hexAddressPattern.ReplaceAllString(line, "[HEX]")
		line = identityHashPattern.ReplaceAllString(line, "@[HASH]")
		line = generatedClassPattern.ReplaceAllString(line, "$1")
		line = sourceLinePattern.ReplaceAllString(line, "($1)")
		line = longPathPattern.ReplaceAllString(line, "[PATH]")
		line = numberPattern.ReplaceAllString(line, "[NUM]")
	}

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(line, " "))
}

// NormalizeLines applies Normalize to every line.
func NormalizeLines(lines []string, level MaskingLevel) []string {
	result := make([]string, len(lines))
	for i, line := range lines {
		result[i] = Normalize(line, level)
	}
	return result
}

// Headline returns the first non-blank line of a trace, trimmed.
func Headline(lines []string) string {
	for _, line := range lines {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}

// Fingerprint hashes the shape of a trace: the headline's error type plus every
// "at" frame, normalized with MaskRecurrence. Two traces that differ only in
// messages, line numbers or addresses share a fingerprint.
func Fingerprint(lines []string) string {
	h := sha256.New()

	if headline := Headline(lines); headline != "" {
		errType, _, _ := strings.Cut(headline, ":")
		h.Write([]byte(Normalize(errType, MaskRecurrence)))
		h.Write([]byte{'\n'})
	}

	for _, line := range lines {
		s := strings.TrimSpace(line)
		if !strings.HasPrefix(s, "at ") && !strings.HasPrefix(s, "Caused by: ") {
			continue
		}
		if rest, ok := strings.CutPrefix(s, "Caused by: "); ok {
			errType, _, _ := strings.Cut(rest, ":")
			s = "Caused by: " + errType
		}
		h.Write([]byte(Normalize(s, MaskRecurrence)))
		h.Write([]byte{'\n'})
	}

	return hex.EncodeToString(h.Sum(nil))[:FingerprintLength]
}
