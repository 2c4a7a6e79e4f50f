// Package mcp exposes captured stack trace reports over the Model Context Protocol.
package mcp

// ReportSummary is one entry of a list_reports page.
type ReportSummary struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	Modified  string `json:"modified"`
	SizeBytes int64  `json:"size_bytes"`

	// Filled from the report index when the record is known.
	Component   string `json:"component,omitempty"`
	Headline    string `json:"headline,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// ReportPage is the list_reports response.
type ReportPage struct {
	Page    int             `json:"page"`
	Reports []ReportSummary `json:"reports"`
}

// ReportDetail is the view_report and latest_report response.
type ReportDetail struct {
	ReportSummary
	Header     []string `json:"header"`
	Trace      []string `json:"trace"`
	Truncated  int      `json:"truncated_lines,omitempty"`
	Normalized bool     `json:"normalized"`
}
