// Package source fetches game definition documents from a URL, a file path,
// or an inline string.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultTimeout bounds a single HTTP fetch.
const DefaultTimeout = 30 * time.Second

// maxBody caps how much of a remote document is read.
const maxBody = 32 << 20

// Fetcher resolves a document location to its bytes.
//
// Resolution order:
//  1. http:// or https:// prefix: GET the URL
//  2. an existing regular file: read it
//  3. anything else: the input itself is the document text
type Fetcher struct {
	HTTPClient *http.Client
}

// New creates a Fetcher whose HTTP client uses the given timeout.
func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{HTTPClient: &http.Client{Timeout: timeout}}
}

// Fetch implements gamedef.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, input string) ([]byte, error) {
	switch {
	case IsURL(input):
		return f.get(ctx, input)
	case isFile(input):
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", input, err)
		}
		return data, nil
	default:
		return []byte(input), nil
	}
}

// IsURL reports whether input is fetched over HTTP.
func IsURL(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}

func (f *Fetcher) get(ctx context.Context, uri string) ([]byte, error) {
	shown := Redact(uri)
	client := f.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", shown, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		// url.Error carries the raw URL.
		return nil, fmt.Errorf("fetch %s: %s", shown, Redact(err.Error()))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", shown, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: HTTP %d: %s", shown, resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func isFile(input string) bool {
	if input == "" || strings.ContainsAny(input, "\n") {
		return false
	}
	info, err := os.Stat(input)
	return err == nil && !info.IsDir()
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
