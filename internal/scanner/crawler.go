package scanner

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CrawlOptions configures discovery of same-host pages whose forms should
// also be analyzed.
type CrawlOptions struct {
	MaxDepth     int
	MaxPages     int
	SameHostOnly bool
	Timeout      time.Duration
}

var assetExtensions = map[string]struct{}{
	".css":         {},
	".js":          {},
	".json":        {},
	".map":         {},
	".txt":         {},
	".png":         {},
	".jpg":         {},
	".jpeg":        {},
	".gif":         {},
	".svg":         {},
	".ico":         {},
	".webp":        {},
	".webmanifest": {},
	".mp4":         {},
	".mp3":         {},
	".woff":        {},
	".woff2":       {},
	".ttf":         {},
	".eot":         {},
	".pdf":         {},
	".zip":         {},
	".tar":         {},
}

// DiscoverInScopeLinks crawls from startURL and returns up to MaxPages
// canonical same-host URLs discovered within MaxDepth hops. The start URL
// itself is not included.
func DiscoverInScopeLinks(ctx context.Context, startURL string, opts CrawlOptions) ([]string, error) {
	if opts.MaxDepth <= 0 || opts.MaxPages <= 0 {
		return nil, nil
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	start, err := NormalizeTarget(startURL)
	if err != nil {
		return nil, err
	}
	root, err := url.Parse(start)
	if err != nil {
		return nil, err
	}

	fetcher := &HTTPFetcher{Timeout: opts.Timeout}

	type queueItem struct {
		url   *url.URL
		depth int
	}

	queue := []queueItem{{url: root, depth: 0}}
	seen := map[string]struct{}{canonicalURL(root): {}}
	discovered := make([]string, 0, opts.MaxPages)

	for len(queue) > 0 && len(discovered) < opts.MaxPages {
		if err := ctx.Err(); err != nil {
			return discovered, err
		}

		item := queue[0]
		queue = queue[1:]

		if item.depth >= opts.MaxDepth {
			continue
		}

		page, err := fetcher.Fetch(ctx, item.url.String())
		if err != nil || !IsHTML(page.ContentType) {
			continue
		}

		for _, link := range extractLinks(item.url, page.Body) {
			if opts.SameHostOnly && !hostsMatch(root, link) {
				continue
			}
			if looksLikeAsset(link.Path) {
				continue
			}
			key := canonicalURL(link)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			discovered = append(discovered, key)
			if len(discovered) >= opts.MaxPages {
				break
			}
			if item.depth+1 < opts.MaxDepth {
				queue = append(queue, queueItem{url: link, depth: item.depth + 1})
			}
		}
	}

	return discovered, nil
}

// extractLinks walks anchor elements and resolves their hrefs against base.
func extractLinks(base *url.URL, body []byte) []*url.URL {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var links []*url.URL
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.A || n.DataAtom == atom.Area) {
			if href := attrValue(n, "href"); href != "" {
				if resolved := resolveLink(base, href); resolved != nil {
					links = append(links, resolved)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

func resolveLink(base *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil
	}
	lower := strings.ToLower(href)
	switch {
	case strings.HasPrefix(lower, "javascript:"),
		strings.HasPrefix(lower, "mailto:"),
		strings.HasPrefix(lower, "tel:"),
		strings.HasPrefix(lower, "data:"):
		return nil
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	if ref.Scheme == "" {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return nil
	}

	// SPA-style "#/route" fragments address real pages
	if strings.HasPrefix(ref.Fragment, "/") {
		ref.Path = ref.Fragment
	}
	ref.Fragment = ""
	if ref.Path == "" {
		ref.Path = "/"
	}
	return ref
}

func canonicalURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	c.Fragment = ""
	if c.Path == "" {
		c.Path = "/"
	}
	return c.String()
}

func hostsMatch(a, b *url.URL) bool {
	if a == nil || b == nil || a.Hostname() == "" || b.Hostname() == "" {
		return false
	}
	return strings.EqualFold(a.Hostname(), b.Hostname())
}

func looksLikeAsset(p string) bool {
	if p == "" || p == "/" {
		return false
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return false
	}
	_, blocked := assetExtensions[ext]
	return blocked
}

// ExpandTargets prepends each target with the pages discovered under it,
// deduplicating by canonical URL across the whole set.
func ExpandTargets(ctx context.Context, targets []string, opts CrawlOptions, onDiscovered func(target string, count int), onError func(target string, err error)) []string {
	seen := make(map[string]struct{})
	expanded := make([]string, 0, len(targets))

	add := func(t string) bool {
		key := t
		if normalized, err := NormalizeTarget(t); err == nil {
			if parsed, err := url.Parse(normalized); err == nil {
				key = canonicalURL(parsed)
			}
		}
		if _, ok := seen[key]; ok {
			return false
		}
		seen[key] = struct{}{}
		return true
	}

	for _, target := range targets {
		if add(target) {
			expanded = append(expanded, target)
		}

		discovered, err := DiscoverInScopeLinks(ctx, target, opts)
		if err != nil {
			if onError != nil {
				onError(target, fmt.Errorf("crawl: %w", err))
			}
			continue
		}

		appended := 0
		for _, u := range discovered {
			if add(u) {
				expanded = append(expanded, u)
				appended++
			}
		}
		if appended > 0 && onDiscovered != nil {
			onDiscovered(target, appended)
		}
	}

	return expanded
}
