// Package classify decides whether a single line of diagnostic output starts
// a stack trace report, continues one, or has nothing to do with it.
//
// Classification is a pure function of the line. Whether a continuation line
// may actually be consumed depends on the caller holding an open report.
package classify

import "strings"

// Verdict is the result of classifying one line.
type Verdict int

const (
	// Unrelated lines are not part of any report.
	Unrelated Verdict = iota
	// StartOfReport lines open a new report (and seal any open one).
	StartOfReport
	// ContinuationOfReport lines extend the open report.
	ContinuationOfReport
)

func (v Verdict) String() string {
	switch v {
	case StartOfReport:
		return "start"
	case ContinuationOfReport:
		return "continuation"
	default:
		return "unrelated"
	}
}

const (
	// uncaughtPrefix opens the header the runtime prints for an uncaught error.
	uncaughtPrefix = `Exception in thread "`

	// errorTypeMarker is the naming convention for error types.
	errorTypeMarker = "Exception"

	causedByToken = "Caused by:"
	frameToken    = "at"
	elidedToken   = "..."
	moreToken     = "more"

	// maxIntegerDigits bounds IsPositiveInteger so absurd input cannot overflow.
	maxIntegerDigits = 10
)

// Classify returns the verdict for line. The line is expected to be trimmed.
//
// Continuation shapes are only checked when hasOpenReport is true; a line
// that looks like a frame is Unrelated when no report is open.
func Classify(line string, hasOpenReport bool) Verdict {
	if IsStart(line) {
		return StartOfReport
	}
	if hasOpenReport && IsContinuation(line) {
		return ContinuationOfReport
	}
	return Unrelated
}

// IsStart reports whether line opens a report: either the uncaught error
// header, or a first token ending in "Exception" or "Exception:".
func IsStart(line string) bool {
	if strings.HasPrefix(line, uncaughtPrefix) {
		return true
	}
	first, _, _ := strings.Cut(line, " ")
	return strings.HasSuffix(first, errorTypeMarker) || strings.HasSuffix(first, errorTypeMarker+":")
}

// IsContinuation reports whether line has one of the continuation shapes:
//
//	Caused by: <...Exception...>
//	at <frame(...)>
//	... <n> more
//
// The check ignores whether a report is open.
func IsContinuation(line string) bool {
	line = strings.TrimSpace(line)

	// "Caused by:" carries its own space, so it is matched as one token.
	if rest, ok := strings.CutPrefix(line, causedByToken+" "); ok {
		return !strings.Contains(rest, " ") && strings.Contains(rest, errorTypeMarker)
	}

	pieces := strings.Split(line, " ")
	switch len(pieces) {
	case 2:
		return pieces[0] == frameToken && strings.HasSuffix(pieces[1], ")")
	case 3:
		return pieces[0] == elidedToken && IsPositiveInteger(pieces[1]) && pieces[2] == moreToken
	}
	return false
}

// IsPositiveInteger reports whether s is 1 to 10 decimal digits.
func IsPositiveInteger(s string) bool {
	if len(s) == 0 || len(s) > maxIntegerDigits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
