package github

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v73/github"
)

// DefaultBaseURL is the public GitHub REST endpoint. GitHub Enterprise
// runners export their own through GITHUB_API_URL.
const DefaultBaseURL = "https://api.github.com"

type Client struct {
	api   *gh.Client
	owner string
	repo  string

	// Services
	Releases ReleasesService
}

// NewClient creates a client for repository ("owner/name") authenticated
// with token. baseURL empty means DefaultBaseURL; a zero timeout falls back
// to 10s.
func NewClient(baseURL, token, repository string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("GITHUB_TOKEN must be set")
	}
	owner, repo, ok := strings.Cut(strings.TrimSpace(repository), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("invalid repository %q, expected owner/name", repository)
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, errors.New("invalid GitHub API URL: " + err.Error())
	}
	// go-github resolves paths against BaseURL, which must end in a slash.
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, errors.New("invalid GitHub API URL: " + err.Error())
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	api := gh.NewClient(&http.Client{Timeout: timeout}).WithAuthToken(token)
	api.BaseURL = base

	c := &Client{
		api:   api,
		owner: owner,
		repo:  repo,
	}

	// Initialize services
	c.Releases = &releasesService{client: c}

	return c, nil
}

func isNotFound(err error) bool {
	var errResp *gh.ErrorResponse
	return errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound
}

// isAlreadyExists matches the 422 GitHub returns when a release for the tag
// already exists.
func isAlreadyExists(err error) bool {
	var errResp *gh.ErrorResponse
	if !errors.As(err, &errResp) {
		return false
	}
	for _, e := range errResp.Errors {
		if e.Code == "already_exists" {
			return true
		}
	}
	return false
}
