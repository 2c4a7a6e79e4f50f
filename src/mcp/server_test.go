package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"tracekeep/src/contracts"
	"tracekeep/src/store"
)

func newTestServer(t *testing.T, reports map[string]string) (*Server, *store.InMemoryIndex) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range reports {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	idx := store.NewInMemoryIndex()
	return NewServer(files, idx, "test"), idx
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T", res.Content[0])
	}
	return text.Text
}

const sampleReport = "tracekeep version test\n\nStacktrace:\n" +
	"java.lang.IllegalStateException: closed\n" +
	"at com.app.Pool.get(/var/lib/app/build/classes/Pool.java:10)\n" +
	"at com.app.Main.run(Main.java:3)\n"

func TestListReports(t *testing.T) {
	srv, idx := newTestServer(t, map[string]string{
		"0.txt": sampleReport,
		"1.txt": sampleReport,
		"2.txt": sampleReport,
	})
	_ = idx.Save(context.Background(), contracts.ReportRecord{FileName: "1.txt", Component: "pool", Headline: "java.lang.IllegalStateException: closed"})

	res, err := srv.handleListReports(context.Background(), call(nil))
	if err != nil || res.IsError {
		t.Fatalf("handleListReports() = %v, %v", res, err)
	}

	var page ReportPage
	if err := json.Unmarshal([]byte(resultText(t, res)), &page); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if page.Page != 1 || len(page.Reports) != 3 {
		t.Fatalf("page = %+v", page)
	}
	if page.Reports[0].Name != "2.txt" || page.Reports[2].Name != "0.txt" {
		t.Errorf("order = %s..%s, want newest first", page.Reports[0].Name, page.Reports[2].Name)
	}
	if page.Reports[1].Component != "pool" {
		t.Errorf("indexed component missing: %+v", page.Reports[1])
	}
}

func TestListReports_NoSuchPage(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"0.txt": sampleReport})

	res, _ := srv.handleListReports(context.Background(), call(map[string]any{"page": 2}))
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	if got := resultText(t, res); got != "There aren't 2 pages of reports. Congratulations!" {
		t.Errorf("text = %q", got)
	}

	res, _ = srv.handleListReports(context.Background(), call(map[string]any{"page": 0}))
	if !res.IsError {
		t.Error("page 0 should be rejected")
	}
}

func TestViewReport(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"4.txt": sampleReport})

	res, _ := srv.handleViewReport(context.Background(), call(map[string]any{"id": "4"}))
	if res.IsError {
		t.Fatalf("error result: %s", resultText(t, res))
	}

	var detail ReportDetail
	if err := json.Unmarshal([]byte(resultText(t, res)), &detail); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if detail.ID != 4 || len(detail.Trace) != 3 || !detail.Normalized {
		t.Fatalf("detail = %+v", detail)
	}
	if detail.Trace[1] != "at com.app.Pool.get(.../Pool.java:10)" {
		t.Errorf("trace[1] = %q", detail.Trace[1])
	}
	if detail.Header[0] != "tracekeep version test" {
		t.Errorf("header = %q", detail.Header)
	}

	res, _ = srv.handleViewReport(context.Background(), call(map[string]any{"id": "4", "raw": true, "max_lines": 1}))
	if err := json.Unmarshal([]byte(resultText(t, res)), &detail); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(detail.Trace) != 1 || detail.Truncated != 2 || detail.Normalized {
		t.Errorf("raw detail = %+v", detail)
	}
}

func TestViewReport_Errors(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"7.txt": "no marker here\n"})

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing id", nil, "id parameter is required"},
		{"bad id", map[string]any{"id": "-3"}, "non-negative"},
		{"unknown id", map[string]any{"id": "8"}, "not found"},
		{"malformed", map[string]any{"id": "7"}, "Malformed file. Run `tracekeep publish 7`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := srv.handleViewReport(context.Background(), call(tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !res.IsError || !strings.Contains(resultText(t, res), tt.want) {
				t.Errorf("result = %q (error=%v), want containing %q", resultText(t, res), res.IsError, tt.want)
			}
		})
	}
}

func TestLatestReport(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"9.txt": sampleReport, "10.txt": sampleReport})

	res, _ := srv.handleLatestReport(context.Background(), call(nil))
	var detail ReportDetail
	if err := json.Unmarshal([]byte(resultText(t, res)), &detail); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if detail.Name != "10.txt" {
		t.Errorf("latest = %s, want 10.txt", detail.Name)
	}

	empty, _ := newTestServer(t, nil)
	res, _ = empty.handleLatestReport(context.Background(), call(nil))
	if !res.IsError {
		t.Error("latest on empty directory should be an error result")
	}
}

func TestReportsByComponent(t *testing.T) {
	srv, idx := newTestServer(t, nil)
	ctx := context.Background()
	_ = idx.Save(ctx, contracts.ReportRecord{FileName: "0.txt", Component: "web"})
	_ = idx.Save(ctx, contracts.ReportRecord{FileName: "1.txt", Component: "db"})

	res, _ := srv.handleReportsByComponent(ctx, call(map[string]any{"component": "web"}))
	var records []contracts.ReportRecord
	if err := json.Unmarshal([]byte(resultText(t, res)), &records); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(records) != 1 || records[0].FileName != "0.txt" {
		t.Errorf("records = %+v", records)
	}

	res, _ = srv.handleReportsByComponent(ctx, call(map[string]any{"component": "none"}))
	if resultText(t, res) != "[]" {
		t.Errorf("empty component = %q", resultText(t, res))
	}

	noIndex := NewServer(srv.files, nil, "test")
	res, _ = noIndex.handleReportsByComponent(ctx, call(map[string]any{"component": "web"}))
	if !res.IsError {
		t.Error("expected error without index")
	}
}
