package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"slot-advisor/internal/app"
	"slot-advisor/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "slotadvisor",
	Short:         "Ranks slot units from scraped daily hall data",
	Long:          "slotadvisor ingests scraped per-unit daily data, scores each unit from its recent probability, ceiling and pattern behaviour, and publishes ranked recommendations.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
}

// getApp loads configuration and wires the application graph. The caller
// must Close the returned app.
func getApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}
