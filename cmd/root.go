// Package cmd holds the salary-trends command line.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"salary-trends/config"
	"salary-trends/utils"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *utils.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	var logLevel, logFormat string

	root := &cobra.Command{
		Use:           "salary-trends",
		Short:         "Scrape league payrolls, summarize salaries per season and forecast the mean.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if logFormat != "" {
				cfg.LogFormat = logFormat
			}
			a.cfg = cfg
			a.logger = utils.NewLogger(
				utils.WithLevel(cfg.LogLevel),
				utils.WithFormat(cfg.LogFormat),
				utils.WithOutput(cmd.ErrOrStderr()),
			)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides SALARY_LOG_LEVEL)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "text or json (overrides SALARY_LOG_FORMAT)")

	root.AddCommand(newScrapeCmd(a), newForecastCmd(a), newLeaguesCmd(a))
	return root
}

// ExecuteContext runs the command line and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
