package scanner

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newCrawlServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body>
			<a href="/about">About</a>
			<a href="/contact">Contact</a>
			<a href="/style.css">Styles</a>
			<a href="https://other.example.com/">External</a>
			<a href="mailto:x@example.com">Mail</a>
		</body></html>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><a href="/team">Team</a></body></html>`)
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body>contact</body></html>")
	})
	mux.HandleFunc("/team", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body>team</body></html>")
	})

	srv = httptest.NewServer(mux)
	return srv
}

func TestDiscoverInScopeLinks_SameHost(t *testing.T) {
	srv := newCrawlServer(t)
	defer srv.Close()

	links, err := DiscoverInScopeLinks(context.Background(), srv.URL, CrawlOptions{
		MaxDepth:     2,
		MaxPages:     10,
		SameHostOnly: true,
		Timeout:      5 * time.Second,
	})
	if err != nil {
		t.Fatalf("DiscoverInScopeLinks failed: %v", err)
	}

	got := make(map[string]bool, len(links))
	for _, l := range links {
		got[l] = true
	}

	if !got[srv.URL+"/about"] || !got[srv.URL+"/contact"] {
		t.Errorf("expected /about and /contact to be discovered, got %v", links)
	}
	if !got[srv.URL+"/team"] {
		t.Errorf("expected /team at depth 2, got %v", links)
	}
	for _, l := range links {
		if strings.Contains(l, "style.css") {
			t.Errorf("asset link should be filtered, got %v", links)
		}
		if strings.Contains(l, "other.example.com") {
			t.Errorf("external host should be filtered, got %v", links)
		}
	}
}

func TestDiscoverInScopeLinks_DepthLimit(t *testing.T) {
	srv := newCrawlServer(t)
	defer srv.Close()

	links, err := DiscoverInScopeLinks(context.Background(), srv.URL, CrawlOptions{
		MaxDepth:     1,
		MaxPages:     10,
		SameHostOnly: true,
		Timeout:      5 * time.Second,
	})
	if err != nil {
		t.Fatalf("DiscoverInScopeLinks failed: %v", err)
	}

	for _, l := range links {
		if strings.HasSuffix(l, "/team") {
			t.Errorf("depth 1 must not reach /team, got %v", links)
		}
	}
}

func TestDiscoverInScopeLinks_PageLimit(t *testing.T) {
	srv := newCrawlServer(t)
	defer srv.Close()

	links, err := DiscoverInScopeLinks(context.Background(), srv.URL, CrawlOptions{
		MaxDepth:     3,
		MaxPages:     1,
		SameHostOnly: true,
		Timeout:      5 * time.Second,
	})
	if err != nil {
		t.Fatalf("DiscoverInScopeLinks failed: %v", err)
	}
	if len(links) != 1 {
		t.Errorf("expected exactly one discovered page, got %d", len(links))
	}
}

func TestDiscoverInScopeLinks_DisabledByZeroLimits(t *testing.T) {
	links, err := DiscoverInScopeLinks(context.Background(), "http://example.com", CrawlOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if links != nil {
		t.Errorf("expected nil result when disabled, got %v", links)
	}
}

func TestExpandTargets_Deduplicates(t *testing.T) {
	srv := newCrawlServer(t)
	defer srv.Close()

	targets := scannerExpand(t, []string{srv.URL, srv.URL + "/"})
	count := 0
	for _, target := range targets {
		if target == srv.URL || target == srv.URL+"/" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected start URL to appear once, got %d in %v", count, targets)
	}
}

func scannerExpand(t *testing.T, targets []string) []string {
	t.Helper()
	return ExpandTargets(context.Background(), targets, CrawlOptions{
		MaxDepth:     1,
		MaxPages:     5,
		SameHostOnly: true,
		Timeout:      5 * time.Second,
	}, nil, nil)
}

func TestResolveLink_SkipsNonNavigable(t *testing.T) {
	base, err := url.Parse("https://example.com/")
	if err != nil {
		t.Fatalf("parse base: %v", err)
	}

	for _, href := range []string{"javascript:void(0)", "mailto:a@b.c", "tel:+123", "data:text/plain,hi"} {
		if got := resolveLink(base, href); got != nil {
			t.Errorf("expected %q to be skipped, got %v", href, got)
		}
	}

	if got := resolveLink(base, "/path"); got == nil || got.String() != "https://example.com/path" {
		t.Errorf("expected relative link to resolve, got %v", got)
	}
}
