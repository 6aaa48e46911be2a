// Package scanner implements the form-field analysis pipeline.
//
// Architecture overview:
//
//   - FormScanner fetches a page (plain HTTP or chromedp-rendered), extracts
//     <form>/<input> structure with the x/net/html tokenizer, and applies the
//     field heuristics in analyze.go to produce a PageResult.
//   - Runner coordinates concurrent execution with a global rate limiter,
//     invoking a ProgressFunc per target so the CLI can render live progress.
//   - Shared result structs (PageResult, FormInfo, FormField, Finding) model
//     what is stored in results JSON and consumed by reports.
//   - Helper utilities (ParseTarget, DiscoverInScopeLinks) are factored here
//     so cmd/ simply instantiates a scanner and feeds it to the runner.
package scanner
