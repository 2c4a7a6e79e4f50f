package publish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestGistPublisher_PublishFile(t *testing.T) {
	var got gistRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"html_url": "https://gist.github.com/abc123"}`))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "3.txt")
	if err := os.WriteFile(path, []byte("header\n\nStacktrace:\njava.lang.Error \"quoted\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewGistPublisher(GistOptions{Endpoint: server.URL, Token: "secret", Public: true})
	link, err := p.PublishFile(context.Background(), "", "", path)
	if err != nil {
		t.Fatalf("PublishFile() error = %v", err)
	}

	if link != "https://gist.github.com/abc123" {
		t.Errorf("link = %q", link)
	}
	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Description != DefaultDescription || !got.Public {
		t.Errorf("request = %+v", got)
	}
	if got.Files[DefaultTitle].Content != "header\n\nStacktrace:\njava.lang.Error \"quoted\"\n" {
		t.Errorf("content = %q", got.Files[DefaultTitle].Content)
	}
}

func TestGistPublisher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"message":"boom"}`},
		{"unauthorized", http.StatusUnauthorized, `{"message":"Bad credentials"}`},
		{"bad json", http.StatusCreated, `{not json`},
		{"missing url", http.StatusCreated, `{"id":"1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := NewGistPublisher(GistOptions{Endpoint: server.URL})
			if _, err := p.Publish(context.Background(), "t", "d", "content"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGistPublisher_MissingFile(t *testing.T) {
	p := NewGistPublisher(GistOptions{})
	if _, err := p.PublishFile(context.Background(), "", "", filepath.Join(t.TempDir(), "none.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
