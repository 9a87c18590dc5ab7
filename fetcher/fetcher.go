// Package fetcher downloads raw XML feed documents over http/https.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds one feed download end to end.
	DefaultTimeout = 30 * time.Second
	// MaxBodyBytes caps how much of a feed body is read (same cap as the
	// interactive upload endpoint).
	MaxBodyBytes = 50 << 20
)

var (
	// ErrEmptyBody is returned when the remote responds 2xx with a zero-byte
	// body.
	ErrEmptyBody = errors.New("feed body is empty")
	// ErrBodyTooLarge is returned when the feed body exceeds the size cap.
	// A silently truncated document would fail parsing with a misleading
	// syntax error instead.
	ErrBodyTooLarge = errors.New("feed body exceeds the size cap")
)

// StatusError reports a non-2xx response from the feed host.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher retrieves feed documents. It applies a fixed request timeout and
// never retries; retry policy belongs to the caller.
type Fetcher struct {
	client   HTTPClient
	timeout  time.Duration
	maxBytes int64
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{client: client, timeout: DefaultTimeout, maxBytes: MaxBodyBytes}
}

// SetTimeout overrides the default 30-second request timeout.
func (f *Fetcher) SetTimeout(d time.Duration) {
	f.timeout = d
}

// SetMaxBytes overrides the default 50MB body cap.
func (f *Fetcher) SetMaxBytes(n int64) {
	f.maxBytes = n
}

// Fetch downloads the document at url and returns its raw bytes.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "catalog-feed-service/1.0")
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("fetch %s: %w", url, context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	// Read one byte past the cap so an oversized body is detected instead of
	// silently truncated.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("read body: %w", context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("fetch %s: %w", url, ErrBodyTooLarge)
	}
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}
	return body, nil
}
