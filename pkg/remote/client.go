package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hexrift/gitrip/pkg/gitpath"
)

// Status classifies the outcome of a single fetch.
type Status int

const (
	// StatusFound means the server answered 2xx and Data holds the body.
	StatusFound Status = iota

	// StatusAbsent means the server definitively answered that the path
	// does not exist (any non-2xx). It is never retried.
	StatusAbsent

	// StatusFailed means transport failed even after retries. Unlike
	// Absent, the path may well exist on the server.
	StatusFailed
)

// String returns a short label for logs.
func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusAbsent:
		return "absent"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of fetching one relative path.
type Result struct {
	Path   gitpath.RelPath
	Status Status
	Data   []byte
	Err    error
}

// Found reports whether the fetch succeeded.
func (r Result) Found() bool {
	return r.Status == StatusFound
}

const (
	// DefaultUserAgent imitates a browser, matching what hardened servers
	// expect to see before handing out static files.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// DefaultJobs is the bulk-fetch parallelism when none is configured.
	DefaultJobs = 8

	// DefaultRetries is the per-request retry budget for transport errors.
	DefaultRetries = 3

	defaultTimeout = 10 * time.Second
	initialBackoff = 500 * time.Millisecond
)

// Client fetches relative paths under a target's .git root.
type Client struct {
	target    Target
	http      *http.Client
	userAgent string
	retries   int
	jobs      int
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRetries sets the per-request attempt budget for transport failures.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithJobs sets the bulk-fetch parallelism.
func WithJobs(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.jobs = n
		}
	}
}

// WithHTTPClient swaps the underlying transport, mostly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient creates a fetcher for the given target.
func NewClient(target Target, opts ...Option) *Client {
	c := &Client{
		target:    target,
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: DefaultUserAgent,
		retries:   DefaultRetries,
		jobs:      DefaultJobs,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Target returns the client's normalized target.
func (c *Client) Target() Target {
	return c.target
}

// Fetch retrieves a single relative path. Non-2xx responses come back as
// StatusAbsent, not as errors; only exhausted transport failures yield
// StatusFailed. Retries back off exponentially and never apply to
// definitive server answers.
func (c *Client) Fetch(ctx context.Context, path gitpath.RelPath) Result {
	url := c.target.URL(path)

	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return Result{Path: path, Status: StatusFailed, Err: ctx.Err()}
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Result{Path: path, Status: StatusFailed, Err: fmt.Errorf("build request: %w", err)}
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return Result{Path: path, Status: StatusFailed, Err: ctx.Err()}
			}
			lastErr = err
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
				continue
			}
			return Result{Path: path, Status: StatusAbsent}
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read body: %w", err)
			continue
		}

		return Result{Path: path, Status: StatusFound, Data: data}
	}

	return Result{Path: path, Status: StatusFailed, Err: lastErr}
}

// FetchMany retrieves paths concurrently with bounded parallelism. The
// returned mapping is deterministic: one entry per distinct input path,
// regardless of completion order.
func (c *Client) FetchMany(ctx context.Context, paths []gitpath.RelPath) map[gitpath.RelPath]Result {
	results := make(map[gitpath.RelPath]Result, len(paths))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.jobs)

	seen := make(map[gitpath.RelPath]bool, len(paths))
	for _, path := range paths {
		if seen[path] {
			continue
		}
		seen[path] = true

		path := path
		g.Go(func() error {
			res := c.Fetch(ctx, path)
			mu.Lock()
			results[path] = res
			mu.Unlock()
			return nil
		})
	}

	g.Wait()
	return results
}

// isRetryableStatus reports whether a status code is worth retrying.
// 5xx and 429 are transient; every other non-2xx is a definitive answer.
func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
