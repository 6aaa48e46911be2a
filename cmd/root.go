package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ShadowStrikeHQ/vscan-form-field-analyzer/internal/store"
)

var cfgFile string
var noColor bool
var verbose bool
var logger *zap.SugaredLogger
var dataDir string

var rootCmd = &cobra.Command{
	Use:   "vscan",
	Short: "Analyze HTML form fields for missing validation and insecure autocomplete",
	Long: `vscan-form-field-analyzer fetches web pages, locates HTML forms and their
input fields, and reports weaknesses: missing client-side validation,
autocomplete enabled on sensitive fields, insecure form submission, and
related field-level hygiene issues.

Only scan targets you are authorized to test.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init config
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath("$HOME")
			viper.SetConfigName(".vscan-form-field-analyzer")
			viper.SetConfigType("yaml")
		}
		_ = viper.ReadInConfig()

		applyConfigDefaults(cmd)

		if noColor {
			color.NoColor = true
		}

		// init logger; -v switches to debug-level development output
		var l *zap.Logger
		var err error
		if verbose {
			l, err = zap.NewDevelopment()
		} else {
			l, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		logger = l.Sugar()

		if dataDir == "" {
			dataDir, err = store.DefaultDir()
			if err != nil {
				return fmt.Errorf("resolve data directory: %w", err)
			}
		}

		logger.Debugw("initialized", "data_dir", dataDir, "config", viper.ConfigFileUsed())
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorError(err.Error()))
		os.Exit(1)
	}
}

func openRunStore() (*store.Store, error) {
	return store.Open(dataDir)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.vscan-form-field-analyzer.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override the data directory used for run history")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output for debugging")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
