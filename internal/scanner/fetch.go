package scanner

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	consts "github.com/ShadowStrikeHQ/vscan-form-field-analyzer/internal/shared/constants"
)

const defaultUserAgent = "vscan-form-field-analyzer"

// Page is a fetched document ready for extraction.
type Page struct {
	URL          string
	StatusCode   int
	Header       http.Header
	Body         []byte
	ContentType  string
	ResponseTime time.Duration
}

// Fetcher retrieves the HTML of a target URL.
type Fetcher interface {
	Fetch(ctx context.Context, target string) (*Page, error)
}

// FetchError wraps a transport or status failure for a target.
type FetchError struct {
	Target string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.Target, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Target, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPFetcher fetches pages over plain HTTP(S) without JavaScript execution.
// A single fetcher is shared across runner workers, so the client init must
// be race-free.
type HTTPFetcher struct {
	Timeout   time.Duration
	UserAgent string

	initClient sync.Once
	client     *http.Client
}

func (f *HTTPFetcher) httpClient() *http.Client {
	f.initClient.Do(func() {
		timeout := f.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		f.client = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: false,
					MinVersion:         tls.VersionTLS12,
				},
			},
		}
	})
	return f.client
}

// Fetch performs a GET against the normalized target and returns the body,
// capped at MaxBodyBytes. Non-2xx/3xx statuses are reported as FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, target string) (*Page, error) {
	u, err := NormalizeTarget(target)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{Target: target, Err: err}
	}
	ua := f.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	start := time.Now()
	resp, err := f.httpClient().Do(req)
	if err != nil {
		return nil, &FetchError{Target: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Target: target, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, consts.MaxBodyBytes))
	if err != nil {
		return nil, &FetchError{Target: target, Err: fmt.Errorf("read body: %w", err)}
	}

	return &Page{
		URL:          u,
		StatusCode:   resp.StatusCode,
		Header:       resp.Header,
		Body:         body,
		ContentType:  resp.Header.Get("Content-Type"),
		ResponseTime: time.Since(start),
	}, nil
}

// IsHTML reports whether a Content-Type is analyzable as HTML. An empty
// Content-Type is treated as HTML, matching lenient servers.
func IsHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
