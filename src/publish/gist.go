// Package publish uploads reports to a paste service so they can be shared as a link.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	// GistEndpoint is the GitHub API endpoint for creating gists.
	GistEndpoint = "https://api.github.com/gists"

	// DefaultTitle names the uploaded file.
	DefaultTitle = "Stacktrace"

	// DefaultDescription describes the uploaded gist.
	DefaultDescription = "Bug report captured by tracekeep"
)

// GistPublisher creates gists from report files.
type GistPublisher struct {
	endpoint   string
	token      string
	public     bool
	httpClient *http.Client
}

// GistOptions configures a GistPublisher.
type GistOptions struct {
	// Endpoint defaults to GistEndpoint.
	Endpoint string
	// Token is sent as a bearer token when set.
	Token  string
	Public bool
}

type gistFile struct {
	Content string `json:"content"`
}

type gistRequest struct {
	Description string              `json:"description"`
	Public      bool                `json:"public"`
	Files       map[string]gistFile `json:"files"`
}

type gistResponse struct {
	HTMLURL string `json:"html_url"`
}

// NewGistPublisher creates a new gist client.
func NewGistPublisher(opts GistOptions) *GistPublisher {
	if opts.Endpoint == "" {
		opts.Endpoint = GistEndpoint
	}
	return &GistPublisher{
		endpoint: opts.Endpoint,
		token:    opts.Token,
		public:   opts.Public,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// PublishFile uploads the file at path and returns the gist's HTML URL.
func (p *GistPublisher) PublishFile(ctx context.Context, title, description, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read report: %w", err)
	}
	return p.Publish(ctx, title, description, string(content))
}

// Publish uploads content as a single-file gist and returns its HTML URL.
func (p *GistPublisher) Publish(ctx context.Context, title, description, content string) (string, error) {
	if title == "" {
		title = DefaultTitle
	}
	if description == "" {
		description = DefaultDescription
	}

	body, err := json.Marshal(gistRequest{
		Description: description,
		Public:      p.public,
		Files:       map[string]gistFile{title: {Content: content}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.token))
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(msg))
	}

	var out gistResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	u, err := url.Parse(out.HTMLURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("response has no usable html_url: %q", out.HTMLURL)
	}
	return out.HTMLURL, nil
}
