package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tracekeep/src/contracts"
	"tracekeep/src/patterns"
	"tracekeep/src/report"
	"tracekeep/src/store"
)

// DefaultMaxLines caps trace lines returned by view_report.
const DefaultMaxLines = 200

// programName is the command users run to publish a malformed report.
const programName = "tracekeep"

// Server is the MCP server for tracekeep.
type Server struct {
	mcpServer *server.MCPServer
	files     *store.FileStore
	index     store.Index
}

// NewServer creates a new MCP server over a report directory.
// index may be nil; summaries then carry file facts only.
func NewServer(files *store.FileStore, index store.Index, version string) *Server {
	s := server.NewMCPServer(
		programName,
		version,
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		files:     files,
		index:     index,
	}
	srv.registerTools()

	return srv
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	listTool := mcp.NewTool("list_reports",
		mcp.WithDescription("List captured stack trace reports, newest first, 10 per page. Use view_report with an id to read one."),
		mcp.WithNumber("page",
			mcp.Description("Page number starting at 1 (default: 1)"),
		),
	)

	viewTool := mcp.NewTool("view_report",
		mcp.WithDescription("Read one stack trace report: environment header and the trace lines."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Report id from list_reports, or \"latest\""),
		),
		mcp.WithBoolean("raw",
			mcp.Description("Return trace lines exactly as written instead of normalized (default: false)"),
		),
		mcp.WithNumber("max_lines",
			mcp.Description("Maximum trace lines to return (default: 200)"),
		),
	)

	latestTool := mcp.NewTool("latest_report",
		mcp.WithDescription("Read the most recently captured stack trace report."),
	)

	componentTool := mcp.NewTool("reports_by_component",
		mcp.WithDescription("List indexed reports attributed to a component, oldest first."),
		mcp.WithString("component",
			mcp.Required(),
			mcp.Description("Component name from the tracekeep configuration"),
		),
	)

	s.mcpServer.AddTool(listTool, s.handleListReports)
	s.mcpServer.AddTool(viewTool, s.handleViewReport)
	s.mcpServer.AddTool(latestTool, s.handleLatestReport)
	s.mcpServer.AddTool(componentTool, s.handleReportsByComponent)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// handleListReports handles the list_reports tool call.
func (s *Server) handleListReports(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := request.GetInt("page", 1)
	if page < 1 {
		return mcp.NewToolResultError("page must be 1 or greater"), nil
	}

	entries, err := s.files.Page(page)
	if errors.Is(err, store.ErrNoPage) {
		return mcp.NewToolResultText(store.NoPageMessage(page)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reports: %v", err)), nil
	}

	resp := ReportPage{Page: page, Reports: make([]ReportSummary, 0, len(entries))}
	for _, e := range entries {
		resp.Reports = append(resp.Reports, s.summarize(ctx, e))
	}
	return jsonResult(resp)
}

// handleViewReport handles the view_report tool call.
func (s *Server) handleViewReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref := request.GetString("id", "")
	if ref == "" {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	return s.view(ctx, ref, request.GetBool("raw", false), request.GetInt("max_lines", DefaultMaxLines))
}

// handleLatestReport handles the latest_report tool call.
func (s *Server) handleLatestReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.view(ctx, store.LatestRef, false, DefaultMaxLines)
}

// handleReportsByComponent handles the reports_by_component tool call.
func (s *Server) handleReportsByComponent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	component := request.GetString("component", "")
	if component == "" {
		return mcp.NewToolResultError("component parameter is required"), nil
	}
	if s.index == nil {
		return mcp.NewToolResultError("no report index is configured"), nil
	}

	records, err := s.index.ListByComponent(ctx, component)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to query index: %v", err)), nil
	}
	if records == nil {
		records = []contracts.ReportRecord{}
	}
	return jsonResult(records)
}

func (s *Server) view(ctx context.Context, ref string, raw bool, maxLines int) (*mcp.CallToolResult, error) {
	entry, err := s.files.Resolve(ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rep, err := report.ReadFile(entry.Path)
	if errors.Is(err, report.ErrMalformed) {
		return mcp.NewToolResultError(report.MalformedHint(programName, entry.ID)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	detail := ReportDetail{
		ReportSummary: s.summarize(ctx, entry),
		Header:        rep.Header,
		Trace:         rep.Trace,
		Normalized:    !raw,
	}
	if !raw {
		detail.Trace = patterns.NormalizeLines(rep.Trace, patterns.MaskPresentation)
	}
	if maxLines > 0 && len(detail.Trace) > maxLines {
		detail.Truncated = len(detail.Trace) - maxLines
		detail.Trace = detail.Trace[:maxLines]
	}
	return jsonResult(detail)
}

func (s *Server) summarize(ctx context.Context, e store.Entry) ReportSummary {
	summary := ReportSummary{
		ID:        e.ID,
		Name:      e.Name,
		Modified:  e.ModTime.UTC().Format(time.RFC3339),
		SizeBytes: e.Size,
	}
	if s.index != nil {
		if rec, err := s.index.Get(ctx, e.Name); err == nil {
			summary.Component = rec.Component
			summary.Headline = rec.Headline
			summary.Fingerprint = rec.Fingerprint
		}
	}
	return summary
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
