// SPDX-License-Identifier: MPL-2.0

package pyruntime

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
)

type (
	// Fetcher downloads bootstrap artifacts over HTTPS. The zero options
	// are production-ready; tests swap the HTTP client or point the
	// configured URLs at an httptest server.
	Fetcher struct {
		httpClient *http.Client
		userAgent  string
	}

	// FetcherOption configures a Fetcher during construction.
	FetcherOption func(*Fetcher)
)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy
// configurations.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher creates a Fetcher with sensible defaults.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient: http.DefaultClient,
		userAgent:  "dashstrap/dev",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads the given URL and returns the response body as a
// streaming reader. The caller is responsible for closing it.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", redactURL(rawURL), err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("downloading %s: unexpected status %d", redactURL(rawURL), resp.StatusCode)
	}

	return resp.Body, nil
}

// FetchToFile downloads the given URL into a temp file in dir named after
// pattern (os.CreateTemp semantics, so a "*.zip" pattern keeps the
// extension). The caller is responsible for removing the file.
func (f *Fetcher) FetchToFile(ctx context.Context, rawURL, dir, pattern string) (path string, err error) {
	body, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }() // read-only HTTP response body

	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing temp file: %w", closeErr)
		}
		// The caller only cleans up on success; every failure, the
		// close above included, must not leave a partial file behind.
		if err != nil {
			_ = os.Remove(tmp.Name())
			path = ""
		}
	}()

	if _, copyErr := io.Copy(tmp, body); copyErr != nil {
		return "", fmt.Errorf("writing to temp file: %w", copyErr)
	}

	return tmp.Name(), nil
}

// redactURL strips query parameters and fragments from a URL for safe
// inclusion in error messages.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
