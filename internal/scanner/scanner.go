package scanner

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Severity levels used across findings, highest first.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"
)

// Finding is a single weakness detected on a form field or form.
type Finding struct {
	Code           string `json:"code"`
	Severity       string `json:"severity"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation,omitempty"`
}

// FormField describes one input-like element and the findings raised against it.
type FormField struct {
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	ID           string    `json:"id,omitempty"`
	Autocomplete string    `json:"autocomplete"`
	Required     bool      `json:"required"`
	Readonly     bool      `json:"readonly"`
	Disabled     bool      `json:"disabled"`
	Value        string    `json:"value,omitempty"`
	Placeholder  string    `json:"placeholder,omitempty"`
	MaxLength    string    `json:"maxlength,omitempty"`
	MinLength    string    `json:"minlength,omitempty"`
	Pattern      string    `json:"pattern,omitempty"`
	Findings     []Finding `json:"findings,omitempty"`
}

// FormInfo describes one <form> element and its fields. Index -1 is the
// synthetic group holding inputs found outside any form.
type FormInfo struct {
	Index          int         `json:"index"`
	Action         string      `json:"action,omitempty"`
	ResolvedAction string      `json:"resolved_action,omitempty"`
	Method         string      `json:"method"`
	Fields         []FormField `json:"fields"`
	Findings       []Finding   `json:"findings,omitempty"`
}

// PageResult is the outcome of scanning a single URL.
type PageResult struct {
	Target       string     `json:"target"`
	ScannedAt    time.Time  `json:"scanned_at"`
	Status       string     `json:"status"`
	HTTPStatus   int        `json:"http_status,omitempty"`
	ServerHeader string     `json:"server_header,omitempty"`
	ResponseTime float64    `json:"response_time_ms,omitempty"`
	Forms        []FormInfo `json:"forms,omitempty"`
	FieldCount   int        `json:"field_count"`
	FindingCount int        `json:"finding_count"`
	Score        int        `json:"score,omitempty"`
	Grade        string     `json:"grade,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// CountBySeverity tallies findings across all forms and fields of the page.
func (p *PageResult) CountBySeverity() map[string]int {
	counts := make(map[string]int)
	for _, form := range p.Forms {
		for _, f := range form.Findings {
			counts[f.Severity]++
		}
		for _, field := range form.Fields {
			for _, f := range field.Findings {
				counts[f.Severity]++
			}
		}
	}
	return counts
}

// Scanner is the interface a page scanner must satisfy.
type Scanner interface {
	// Scan fetches and analyzes a single target URL.
	Scan(ctx context.Context, target string) PageResult

	// Name identifies this scanner in progress output and run metadata.
	Name() string
}

// ProgressFunc is invoked after each target completes.
type ProgressFunc func(target string, result PageResult, duration float64) error

// Runner executes scans with bounded concurrency and a global rate limit.
type Runner struct {
	Concurrency int
	RateLimit   int
	Timeout     time.Duration
}

// Run scans the given targets using a worker pool. Results are returned in
// completion order; callers that need input order should re-index by Target.
func (r *Runner) Run(ctx context.Context, targets []string, sc Scanner, progressFn ProgressFunc) []PageResult {
	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	rps := r.RateLimit
	if rps <= 0 {
		rps = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), rps)

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	mu := sync.Mutex{}
	results := make([]PageResult, 0, len(targets))

	for _, target := range targets {
		wg.Add(1)
		go func(t string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			_ = limiter.Wait(ctx)

			start := time.Now()

			scanCtx, cancel := context.WithTimeout(ctx, r.Timeout)
			defer cancel()

			result := sc.Scan(scanCtx, t)

			duration := time.Since(start).Seconds()

			if progressFn != nil {
				_ = progressFn(t, result, duration)
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(target)
	}

	wg.Wait()
	return results
}
