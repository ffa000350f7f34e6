// Package registry talks to the Node, Yarn and npm registries and keeps the
// on-disk cache of the Node version index.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tmwalaszek/weakcache"

	"nodekit/internal/apperr"
)

// FetchError reports a failed registry request for a tool.
type FetchError struct {
	Tool string
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: could not download %s index from %s: %v", apperr.CodeRegistryFetch, e.Tool, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Code() apperr.Code { return apperr.CodeRegistryFetch }

// Client performs registry requests. Package metadata is memoized for the
// life of the process.
type Client struct {
	http   *http.Client
	memo   *weakcache.WeakCache[[]byte]
	logger *log.Logger
}

func NewClient(httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Client{
		http:   httpClient,
		memo:   weakcache.NewWeakCache[[]byte](),
		logger: logger,
	}
}

// Get issues a GET and returns the response. The body is the caller's to
// close. Non-200 responses are reported as a FetchError.
func (c *Client) Get(ctx context.Context, tool, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Tool: tool, URL: url, Err: err}
	}
	c.logger.Debug("registry request", "tool", tool, "url", url)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Tool: tool, URL: url, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &FetchError{Tool: tool, URL: url, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return resp, nil
}

// GetBytes returns the full response body.
func (c *Client) GetBytes(ctx context.Context, tool, url string) ([]byte, error) {
	resp, err := c.Get(ctx, tool, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Tool: tool, URL: url, Err: err}
	}
	return body, nil
}

// GetText returns the response body as a string.
func (c *Client) GetText(ctx context.Context, tool, url string) (string, error) {
	body, err := c.GetBytes(ctx, tool, url)
	return string(body), err
}

// GetJSON decodes the response body into v.
func (c *Client) GetJSON(ctx context.Context, tool, url string, v any) error {
	body, err := c.GetBytes(ctx, tool, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperr.Wrap(apperr.CodeRegistryParse, err, "invalid %s metadata from %s", tool, url)
	}
	return nil
}

// PackageIndex fetches npm package metadata from url. Repeated requests for
// the same URL within a process share one download.
func (c *Client) PackageIndex(ctx context.Context, url string) (PackageIndex, error) {
	body, err := c.memo.Do(url, func() ([]byte, error) {
		return c.GetBytes(ctx, "package", url)
	})
	if err != nil {
		return PackageIndex{}, err
	}
	return ParsePackageIndex(body, url)
}

// YarnReleases fetches the Yarn release list from url.
func (c *Client) YarnReleases(ctx context.Context, url string) (YarnIndex, error) {
	var releases []yarnRelease
	if err := c.GetJSON(ctx, "Yarn", url, &releases); err != nil {
		return YarnIndex{}, err
	}
	return newYarnIndex(releases), nil
}
