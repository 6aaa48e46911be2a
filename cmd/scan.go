package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShadowStrikeHQ/vscan-form-field-analyzer/internal/scanner"
	consts "github.com/ShadowStrikeHQ/vscan-form-field-analyzer/internal/shared/constants"
	"github.com/ShadowStrikeHQ/vscan-form-field-analyzer/internal/store"
)

// RunMetadata describes one scan run in results output.
type RunMetadata struct {
	Tool         string    `json:"tool"`
	Version      string    `json:"version"`
	Scanner      string    `json:"scanner"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
	TotalTargets int       `json:"total_targets"`
	OKCount      int       `json:"ok_count"`
	ErrorCount   int       `json:"error_count"`
}

// RunOutput is the JSON document written by --output and fed to reports.
type RunOutput struct {
	Metadata RunMetadata          `json:"metadata"`
	Results  []scanner.PageResult `json:"results"`
}

var scanCmd = &cobra.Command{
	Use:   "scan <url> [url...]",
	Short: "Scan one or more URLs for weak form fields",
	Long: `Fetch each URL, locate HTML forms and input fields, and report missing
validation attributes, autocomplete enabled on sensitive fields, and
insecure submission patterns.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, args)
	},
}

func runScan(cmd *cobra.Command, args []string) error {
	runtimeCfg := cliConfig.Scan

	if runtimeCfg.Format != "text" && runtimeCfg.Format != "json" {
		return &UnsupportedFormatError{Format: runtimeCfg.Format, Allowed: []string{"text", "json"}}
	}

	// Reject unusable targets before any network activity.
	targets := make([]string, 0, len(args))
	for _, arg := range args {
		normalized, err := scanner.NormalizeTarget(arg)
		if err != nil {
			return err
		}
		targets = append(targets, normalized)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(os.Stderr, "\n%s Received %s, finalizing partial results...\n", colorWarn("!"), sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	startAll := time.Now().UTC()

	if runtimeCfg.Crawl.Enabled {
		targets = scanner.ExpandTargets(ctx, targets, scanner.CrawlOptions{
			MaxDepth:     runtimeCfg.Crawl.MaxDepth,
			MaxPages:     runtimeCfg.Crawl.MaxPages,
			SameHostOnly: true,
			Timeout:      time.Duration(runtimeCfg.TimeoutSecs) * time.Second,
		}, func(target string, count int) {
			fmt.Printf("%s discovered %d page(s) under %s\n", colorInfo("+"), count, target)
		}, func(target string, err error) {
			fmt.Fprintf(os.Stderr, "Warning: crawl failed for %s: %v\n", target, err)
		})
	}

	sc := &scanner.FormScanner{
		Fetcher: newFetcher(runtimeCfg),
		Logger:  logger,
	}

	var progress *progressPrinter
	var progressFn scanner.ProgressFunc
	if runtimeCfg.ProgressEnabled {
		progress = newProgressPrinter(len(targets), sc.Name())
		progress.Start()
		progressFn = func(target string, result scanner.PageResult, duration float64) error {
			progress.Increment(result.Status == "ok", result.FindingCount, duration)
			return nil
		}
	}

	runner := &scanner.Runner{
		Concurrency: runtimeCfg.Concurrency,
		RateLimit:   runtimeCfg.RateLimit,
		Timeout:     scanTimeout(runtimeCfg),
	}

	results := runWithRetries(ctx, runner, sc, targets, runtimeCfg.RetryCount, progressFn)

	if progress != nil {
		progress.Stop()
	}
	if ctx.Err() != nil {
		fmt.Fprintf(os.Stderr, "\n%s Run cancelled. Writing partial results...\n", colorWarn("!"))
	}

	okCount, errorCount := summarizeStatuses(results)
	output := RunOutput{
		Metadata: RunMetadata{
			Tool:         "vscan-form-field-analyzer",
			Version:      Version,
			Scanner:      sc.Name(),
			StartedAt:    startAll,
			CompletedAt:  time.Now().UTC(),
			TotalTargets: len(results),
			OKCount:      okCount,
			ErrorCount:   errorCount,
		},
		Results: results,
	}

	switch runtimeCfg.Format {
	case "json":
		if err := printRunJSON(&output); err != nil {
			return err
		}
	default:
		printRunText(&output)
	}

	if runtimeCfg.Output != "" {
		if err := writeRunOutput(runtimeCfg.Output, &output); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", colorInfo("Results saved:"), runtimeCfg.Output)
	}

	if runtimeCfg.SaveHistory {
		if id, err := saveRunHistory(&output); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to record run history: %v\n", err)
		} else {
			logger.Debugw("run recorded", "id", id)
		}
	}

	if okCount == 0 && len(results) > 0 {
		return &AllTargetsFailedError{Total: len(results)}
	}
	return nil
}

func newFetcher(cfg ScanRuntimeConfig) scanner.Fetcher {
	timeout := scanTimeout(cfg)
	if cfg.RenderJS {
		return &scanner.ChromeFetcher{
			Timeout:   timeout,
			WaitTime:  time.Duration(cfg.JSWaitSecs) * time.Second,
			UserAgent: cfg.UserAgent,
		}
	}
	return &scanner.HTTPFetcher{
		Timeout:   timeout,
		UserAgent: cfg.UserAgent,
	}
}

func scanTimeout(cfg ScanRuntimeConfig) time.Duration {
	secs := cfg.TimeoutSecs
	if secs <= 0 {
		secs = defaultTimeoutSeconds
	}
	timeout := time.Duration(secs) * time.Second
	if cfg.RenderJS {
		// rendering needs headroom for browser startup plus the settle wait
		timeout += time.Duration(cfg.JSWaitSecs)*time.Second + 10*time.Second
	}
	return timeout
}

// runWithRetries re-queues failed targets until retryCount is exhausted,
// keeping the first successful (or last failed) result per target in input
// order.
func runWithRetries(ctx context.Context, runner *scanner.Runner, sc scanner.Scanner, targets []string, retryCount int, progressFn scanner.ProgressFunc) []scanner.PageResult {
	if retryCount < 0 {
		retryCount = 0
	}
	maxAttempts := retryCount + 1

	pending := append([]string(nil), targets...)
	finalResults := make(map[string]scanner.PageResult, len(targets))

	for attempt := 1; attempt <= maxAttempts && len(pending) > 0; attempt++ {
		attemptResults := runner.Run(ctx, pending, sc, progressFn)

		resultMap := make(map[string]scanner.PageResult, len(attemptResults))
		for _, res := range attemptResults {
			resultMap[res.Target] = res
		}

		nextPending := make([]string, 0)
		for _, target := range pending {
			if res, ok := resultMap[target]; ok {
				finalResults[target] = res
				if ctx.Err() == nil && !strings.EqualFold(res.Status, "ok") && attempt < maxAttempts {
					nextPending = append(nextPending, target)
				}
			} else if ctx.Err() == nil && attempt < maxAttempts {
				nextPending = append(nextPending, target)
			}
		}

		if ctx.Err() != nil {
			break
		}
		if len(nextPending) > 0 && attempt < maxAttempts {
			fmt.Printf("%s retrying %d target(s) (attempt %d/%d)\n", colorWarn("Retrying"), len(nextPending), attempt+1, maxAttempts)
		}
		pending = nextPending
	}

	results := make([]scanner.PageResult, 0, len(finalResults))
	for _, target := range targets {
		if res, ok := finalResults[target]; ok {
			results = append(results, res)
		}
	}
	return results
}

func summarizeStatuses(results []scanner.PageResult) (okCount, errorCount int) {
	for _, r := range results {
		if r.Status == "ok" {
			okCount++
		} else {
			errorCount++
		}
	}
	return okCount, errorCount
}

func writeRunOutput(path string, output *RunOutput) error {
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, consts.DefaultFilePerm); err != nil {
		return fmt.Errorf("write results to %s: %w", path, err)
	}
	return nil
}

func saveRunHistory(output *RunOutput) (string, error) {
	st, err := openRunStore()
	if err != nil {
		return "", err
	}
	run := &store.Run{
		Scanner:     output.Metadata.Scanner,
		ToolVersion: output.Metadata.Version,
		StartedAt:   output.Metadata.StartedAt,
		CompletedAt: output.Metadata.CompletedAt,
		TargetCount: output.Metadata.TotalTargets,
		OKCount:     output.Metadata.OKCount,
		ErrorCount:  output.Metadata.ErrorCount,
		Results:     output.Results,
	}
	if err := st.Save(run); err != nil {
		return "", err
	}
	return run.ID, nil
}

func init() {
	scanCmd.Flags().StringVarP(&cliConfig.Scan.Output, "output", "o", "", "Output file to save the results as JSON")
	scanCmd.Flags().StringVar(&cliConfig.Scan.Format, "format", cliConfig.Scan.Format, "Terminal output format (text|json)")
	scanCmd.Flags().IntVarP(&cliConfig.Scan.TimeoutSecs, "timeout", "t", cliConfig.Scan.TimeoutSecs, "Request timeout in seconds")
	scanCmd.Flags().IntVarP(&cliConfig.Scan.Concurrency, "concurrency", "c", cliConfig.Scan.Concurrency, "Max concurrent requests")
	scanCmd.Flags().IntVarP(&cliConfig.Scan.RateLimit, "rate", "r", cliConfig.Scan.RateLimit, "Requests per second (global)")
	scanCmd.Flags().IntVar(&cliConfig.Scan.RetryCount, "retry", cliConfig.Scan.RetryCount, "Number of times to retry failed targets")
	scanCmd.Flags().BoolVar(&cliConfig.Scan.ProgressEnabled, "progress", cliConfig.Scan.ProgressEnabled, "Display live progress")
	scanCmd.Flags().StringVar(&cliConfig.Scan.UserAgent, "user-agent", cliConfig.Scan.UserAgent, "Override the request User-Agent")
	scanCmd.Flags().BoolVar(&cliConfig.Scan.SaveHistory, "save-history", cliConfig.Scan.SaveHistory, "Record the run in the local history store")
	scanCmd.Flags().BoolVar(&cliConfig.Scan.Crawl.Enabled, "crawl", cliConfig.Scan.Crawl.Enabled, "Discover and scan same-host pages linked from each target")
	scanCmd.Flags().IntVar(&cliConfig.Scan.Crawl.MaxDepth, "crawl-depth", cliConfig.Scan.Crawl.MaxDepth, "Maximum link depth to follow per target")
	scanCmd.Flags().IntVar(&cliConfig.Scan.Crawl.MaxPages, "crawl-max-pages", cliConfig.Scan.Crawl.MaxPages, "Maximum additional pages to discover per target")
	scanCmd.Flags().BoolVar(&cliConfig.Scan.RenderJS, "render-js", cliConfig.Scan.RenderJS, "Render pages in headless Chrome before extraction")
	scanCmd.Flags().IntVar(&cliConfig.Scan.JSWaitSecs, "js-wait", cliConfig.Scan.JSWaitSecs, "Seconds to wait for JavaScript to settle (with --render-js)")
}
