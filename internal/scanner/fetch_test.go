package scanner

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPFetcher_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Server", "testd")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := &HTTPFetcher{Timeout: 5 * time.Second}
	page, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if page.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", page.StatusCode)
	}
	if !strings.Contains(string(page.Body), "ok") {
		t.Errorf("unexpected body %q", page.Body)
	}
	if page.Header.Get("Server") != "testd" {
		t.Errorf("expected server header to be captured, got %q", page.Header.Get("Server"))
	}
	if !IsHTML(page.ContentType) {
		t.Errorf("expected HTML content type, got %q", page.ContentType)
	}
}

func TestHTTPFetcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := &HTTPFetcher{Timeout: 5 * time.Second}
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %T", err)
	}
	if fetchErr.Status != http.StatusNotFound {
		t.Errorf("expected status 404 in error, got %d", fetchErr.Status)
	}
}

func TestHTTPFetcher_SetsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	f := &HTTPFetcher{Timeout: 5 * time.Second, UserAgent: "custom-agent/1.0"}
	if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotUA != "custom-agent/1.0" {
		t.Errorf("expected custom user agent, got %q", gotUA)
	}
}

func TestHTTPFetcher_SharedAcrossWorkers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><form><input name="a"></form></body></html>`))
	}))
	defer srv.Close()

	// one fetcher, many workers: the first fetches happen concurrently
	f := &HTTPFetcher{Timeout: 5 * time.Second}
	sc := &FormScanner{Fetcher: f}
	runner := &Runner{Concurrency: 8, RateLimit: 100, Timeout: 5 * time.Second}

	targets := make([]string, 8)
	for i := range targets {
		targets[i] = srv.URL + "/" + string(rune('a'+i))
	}

	results := runner.Run(context.Background(), targets, sc, nil)
	if len(results) != len(targets) {
		t.Fatalf("expected %d results, got %d", len(targets), len(results))
	}
	for _, res := range results {
		if res.Status != "ok" {
			t.Errorf("expected ok for %s, got %q (%s)", res.Target, res.Status, res.Error)
		}
	}
}

func TestHTTPFetcher_InvalidTarget(t *testing.T) {
	f := &HTTPFetcher{Timeout: time.Second}
	_, err := f.Fetch(context.Background(), "ftp://example.com")
	if err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

func TestIsHTML(t *testing.T) {
	cases := []struct {
		contentType string
		want        bool
	}{
		{"", true},
		{"text/html", true},
		{"text/html; charset=utf-8", true},
		{"application/xhtml+xml", true},
		{"application/json", false},
		{"image/png", false},
	}
	for _, tc := range cases {
		if got := IsHTML(tc.contentType); got != tc.want {
			t.Errorf("IsHTML(%q) = %v, want %v", tc.contentType, got, tc.want)
		}
	}
}
