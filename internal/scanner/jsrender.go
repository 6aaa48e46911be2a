package scanner

import (
	"context"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeFetcher renders the page in headless Chrome before extraction, so
// forms injected by JavaScript are visible to the analyzer.
type ChromeFetcher struct {
	Timeout   time.Duration
	WaitTime  time.Duration
	UserAgent string
}

// Fetch navigates to the target, waits for scripts to settle, and returns the
// rendered DOM serialized back to HTML. Status and headers are not available
// through the DOM snapshot, so StatusCode is reported as 200 for pages that
// rendered at all.
func (f *ChromeFetcher) Fetch(ctx context.Context, target string) (*Page, error) {
	u, err := NormalizeTarget(target)
	if err != nil {
		return nil, err
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	wait := f.WaitTime
	if wait <= 0 {
		wait = 2 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
	)
	if f.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, timeout)
	defer cancelRun()

	start := time.Now()
	var renderedHTML string
	err = chromedp.Run(runCtx,
		chromedp.Navigate(u),
		chromedp.Sleep(wait),
		chromedp.OuterHTML("html", &renderedHTML),
	)
	if err != nil {
		return nil, &FetchError{Target: target, Err: err}
	}

	return &Page{
		URL:          u,
		StatusCode:   http.StatusOK,
		Header:       http.Header{},
		Body:         []byte(renderedHTML),
		ContentType:  "text/html",
		ResponseTime: time.Since(start),
	}, nil
}
