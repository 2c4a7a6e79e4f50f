// Package contracts defines the messages tracekeep hands to the rest of the host application.
package contracts

// ReportRecord announces a stack trace report that has been fully written to disk.
// Published to: tracekeep.reports
// Key: {component} (or "unknown")
type ReportRecord struct {
	// Unique identifier for this announcement.
	ID string `json:"id"`

	// Component the trace was attributed to; empty when no frame resolved.
	Component string `json:"component,omitempty"`

	// Full path of the report file. The file is complete when the record is emitted.
	FilePath string `json:"file_path"`
	// Base name of the report file, e.g. "12.txt".
	FileName string `json:"file_name"`

	// First line of the trace (the error type and message).
	Headline string `json:"headline"`
	// Hash of the normalized trace, stable across line numbers and addresses.
	Fingerprint string `json:"fingerprint"`
	// Number of trace lines written below the Stacktrace: marker.
	LineCount int `json:"line_count"`

	// Time the report was sealed (RFC3339).
	CreatedAt string `json:"created_at"`
}

// HasComponent reports whether the trace was attributed to a known component.
func (r ReportRecord) HasComponent() bool {
	return r.Component != ""
}

// ComponentOrDefault returns the component name or the given fallback.
func (r ReportRecord) ComponentOrDefault(fallback string) string {
	if r.Component == "" {
		return fallback
	}
	return r.Component
}

// TopicReports carries ReportRecord messages.
const TopicReports = "tracekeep.reports"

// UnknownComponentKey is the partition key for records without a component.
const UnknownComponentKey = "unknown"
