package pypi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultURL     = "https://pypi.org"
	DefaultTestURL = "https://test.pypi.org"
)

// ErrPackageNotFound is returned when the index has no such package (or version).
var ErrPackageNotFound = errors.New("package not found")

type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client

	// Services
	Packages PackagesService
}

// APIError represents a non-2xx response from the index JSON API.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

// Error returns a string representation of the APIError.
func (e *APIError) Error() string {
	return fmt.Sprintf("package index error (%d): %s -- %s", e.StatusCode, e.Message, truncate(string(e.Body), 200))
}

// IsNotFound reports whether err is a 404 from the index.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// NewClient creates a client for a PyPI-compatible JSON API rooted at baseURL.
// name identifies the index in logs and resolution reports ("pypi", "testpypi").
// A zero timeout falls back to 10s.
func NewClient(name, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("package index name must be set")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid package index URL %q: %w", baseURL, err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	c.Packages = &packagesService{client: c}
	return c, nil
}

// Name returns the index name given at construction.
func (c *Client) Name() string { return c.name }

// LatestVersion is shorthand for c.Packages.LatestVersion.
func (c *Client) LatestVersion(ctx context.Context, pkg string) (string, error) {
	return c.Packages.LatestVersion(ctx, pkg)
}

// HasVersion is shorthand for c.Packages.HasVersion.
func (c *Client) HasVersion(ctx context.Context, pkg, version string) (bool, error) {
	return c.Packages.HasVersion(ctx, pkg, version)
}

// DoRequest issues a GET against the index and returns the body.
// The 'path' is relative to the index root (e.g., "/pypi/requests/json").
func (c *Client) DoRequest(ctx context.Context, path string) ([]byte, error) {
	fullURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request [GET %s]: %w", fullURL, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed [GET %s]: %w", fullURL, err)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       respData,
		}
	}
	return respData, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
