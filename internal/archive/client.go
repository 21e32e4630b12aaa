// Package archive talks to the Argo GDAC over HTTP: the global profile
// index (with mirror fallback and retry) and individual NetCDF profile
// files (staged to a scoped temp file).
package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/floatchat/argo-data-service/internal/observability"
)

const attemptsPerURL = 3

// defaultMirrors are appended after the configured index URL pair. The
// GODAE mirror lags the primary by a few hours but survives Ifremer
// maintenance windows.
var defaultMirrors = []string{
	"https://usgodae.org/ftp/outgoing/argo/ar_index_global_prof.txt.gz",
	"https://usgodae.org/ftp/outgoing/argo/ar_index_global_prof.txt",
	"https://data-argo.ifremer.fr/ar_index_global_prof.txt",
}

// FetchError reports that every candidate URL and every attempt was
// exhausted. The last underlying failure is wrapped.
type FetchError struct {
	Attempts int
	Last     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("archive: all %d index fetch attempts failed: %v", e.Attempts, e.Last)
}

func (e *FetchError) Unwrap() error { return e.Last }

// Options configures a Client.
type Options struct {
	IndexURL string
	BaseURL  string // host relative profile paths are joined to

	ConnectTimeout     time.Duration
	IndexReadTimeout   time.Duration // short: the index is a text file
	ProfileReadTimeout time.Duration // long: profile files run to megabytes

	// BackoffBase scales the linear retry backoff (base x attempt
	// number). Defaults to 1.5s; tests shrink it.
	BackoffBase time.Duration

	// Mirrors overrides the fallback mirror list. nil means the default
	// GDAC mirrors; an empty non-nil slice disables fallback.
	Mirrors []string
}

// Client fetches the profile index and profile files.
type Client struct {
	candidates    []string
	baseURL       string
	indexClient   *http.Client
	profileClient *http.Client
	backoffBase   time.Duration
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewClient builds a Client with one HTTP client per payload class, so
// the index and profile read timeouts stay independent.
func NewClient(opts Options, logger *slog.Logger, metrics *observability.Metrics) *Client {
	backoff := opts.BackoffBase
	if backoff <= 0 {
		backoff = 1500 * time.Millisecond
	}
	mirrors := opts.Mirrors
	if mirrors == nil {
		mirrors = defaultMirrors
	}
	return &Client{
		candidates:    indexCandidates(opts.IndexURL, mirrors),
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		indexClient:   newHTTPClient(opts.ConnectTimeout, opts.IndexReadTimeout),
		profileClient: newHTTPClient(opts.ConnectTimeout, opts.ProfileReadTimeout),
		backoffBase:   backoff,
		logger:        logger,
		metrics:       metrics,
	}
}

// indexCandidates orders the URLs to try: gzip variant first (smaller),
// then the plain one, then the mirrors. A configured .gz URL is tried
// as-is before its uncompressed twin.
func indexCandidates(indexURL string, mirrors []string) []string {
	var candidates []string
	if indexURL != "" {
		if strings.HasSuffix(indexURL, ".gz") {
			candidates = append(candidates, indexURL, strings.TrimSuffix(indexURL, ".gz"))
		} else {
			candidates = append(candidates, indexURL+".gz", indexURL)
		}
	}
	for _, m := range mirrors {
		if m != indexURL {
			candidates = append(candidates, m)
		}
	}
	return candidates
}

// FetchIndex downloads the global profile index, trying each candidate
// URL in order with up to three attempts and linearly increasing backoff
// per URL. The body may be gzip-compressed; callers hand it to
// domain.DecodeIndex. Fails with *FetchError only after total exhaustion.
func (c *Client) FetchIndex(ctx context.Context) ([]byte, error) {
	start := time.Now()
	attempts := 0
	var lastErr error

	for _, url := range c.candidates {
		for attempt := 1; attempt <= attemptsPerURL; attempt++ {
			attempts++
			body, err := c.get(ctx, c.indexClient, url)
			if err == nil {
				c.metrics.IndexFetchAttempts.WithLabelValues("success").Inc()
				c.metrics.IndexFetchDuration.Observe(time.Since(start).Seconds())
				c.logger.Info("index fetched", "url", url, "bytes", len(body), "attempts", attempts)
				return body, nil
			}
			lastErr = err
			c.metrics.IndexFetchAttempts.WithLabelValues("error").Inc()
			c.logger.Warn("index fetch attempt failed", "url", url, "attempt", attempt, "error", err)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !sleepWithContext(ctx, c.backoffBase*time.Duration(attempt)) {
				return nil, ctx.Err()
			}
		}
	}
	return nil, &FetchError{Attempts: attempts, Last: lastErr}
}

// FetchProfileFile downloads the NetCDF file for an archive path into a
// temp file and returns its location plus a cleanup func. The cleanup
// must be called on every path, including errors during parsing; the
// file is already removed when FetchProfileFile itself fails.
func (c *Client) FetchProfileFile(ctx context.Context, path string) (string, func(), error) {
	url := c.ProfileURL(path)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, fmt.Errorf("archive: build profile request: %w", err)
	}
	resp, err := c.profileClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("archive: fetch profile file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", nil, fmt.Errorf("archive: fetch profile file %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp("", "argo-profile-*.nc")
	if err != nil {
		return "", nil, fmt.Errorf("archive: stage profile file: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("archive: stage profile file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("archive: stage profile file: %w", err)
	}

	c.metrics.ProfileFetchDuration.Observe(time.Since(start).Seconds())
	c.logger.Debug("profile file staged", "url", url, "file", tmp.Name())
	return tmp.Name(), cleanup, nil
}

// ProfileURL builds the absolute retrieval URL for an archive path.
// Absolute URLs pass through unchanged; relative paths join the base host.
func (c *Client) ProfileURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

func (c *Client) get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func newHTTPClient(connect, read time.Duration) *http.Client {
	return &http.Client{
		Timeout: read,
		Transport: &http.Transport{
			DialContext:         (&net.Dialer{Timeout: connect}).DialContext,
			TLSHandshakeTimeout: connect,
		},
	}
}

// sleepWithContext sleeps for d unless the context is cancelled first.
// Returns false on cancellation.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
