package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultTimeoutSeconds = 10
	defaultConcurrency    = 2
	defaultRateLimit      = 2
	defaultCrawlDepth     = 2
	defaultCrawlMaxPages  = 25
	defaultJSWaitSeconds  = 2
)

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	Scan ScanRuntimeConfig
}

// ScanRuntimeConfig consolidates flag-driven settings for the scan command.
type ScanRuntimeConfig struct {
	Concurrency     int
	RateLimit       int
	TimeoutSecs     int
	RetryCount      int
	ProgressEnabled bool
	Format          string
	Output          string
	UserAgent       string
	SaveHistory     bool
	RenderJS        bool
	JSWaitSecs      int
	Crawl           CrawlConfig
}

// CrawlConfig captures same-host discovery options.
type CrawlConfig struct {
	Enabled  bool
	MaxDepth int
	MaxPages int
}

var cliConfig = newCLIConfig()

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		Scan: ScanRuntimeConfig{
			Concurrency:     defaultConcurrency,
			RateLimit:       defaultRateLimit,
			TimeoutSecs:     defaultTimeoutSeconds,
			RetryCount:      0,
			ProgressEnabled: false,
			Format:          "text",
			SaveHistory:     true,
			JSWaitSecs:      defaultJSWaitSeconds,
			Crawl: CrawlConfig{
				Enabled:  false,
				MaxDepth: defaultCrawlDepth,
				MaxPages: defaultCrawlMaxPages,
			},
		},
	}
}

// applyConfigDefaults merges config file defaults into the runtime config when
// the user did not explicitly override the corresponding flag.
func applyConfigDefaults(cmd *cobra.Command) {
	if viper.IsSet("defaults.timeout_secs") {
		applyIntDefault(scanCmd.Flags(), "timeout", viper.GetInt("defaults.timeout_secs"), func(v int) {
			cliConfig.Scan.TimeoutSecs = v
		})
	}
	if viper.IsSet("defaults.concurrency") {
		applyIntDefault(scanCmd.Flags(), "concurrency", viper.GetInt("defaults.concurrency"), func(v int) {
			cliConfig.Scan.Concurrency = v
		})
	}
	if viper.IsSet("defaults.rate") {
		applyIntDefault(scanCmd.Flags(), "rate", viper.GetInt("defaults.rate"), func(v int) {
			cliConfig.Scan.RateLimit = v
		})
	}
	if viper.IsSet("defaults.user_agent") {
		setStringFlagIfUnset(scanCmd.Flags(), "user-agent", viper.GetString("defaults.user_agent"))
		cliConfig.Scan.UserAgent = viper.GetString("defaults.user_agent")
	}
	if viper.IsSet("defaults.save_history") {
		applyBoolDefault(scanCmd.Flags(), "save-history", viper.GetBool("defaults.save_history"), func(v bool) {
			cliConfig.Scan.SaveHistory = v
		})
	}
	if viper.IsSet("defaults.progress") {
		applyBoolDefault(scanCmd.Flags(), "progress", viper.GetBool("defaults.progress"), func(v bool) {
			cliConfig.Scan.ProgressEnabled = v
		})
	}
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyBoolDefault(flags *pflag.FlagSet, name string, value bool, setter func(bool)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func setStringFlagIfUnset(flags *pflag.FlagSet, name, value string) {
	if flags == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag == nil || flag.Changed {
		return
	}
	_ = flag.Value.Set(value)
}
