// Package cli implements the skydeck command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/abelbrown/skydeck/internal/app"
	"github.com/abelbrown/skydeck/internal/config"
	"github.com/abelbrown/skydeck/internal/otel"
)

var (
	cfgFile  string
	owner    string
	logLevel string
	trace    bool
)

// Replaced in tests.
var (
	loadConfig = config.Load
	newApp     = app.New
)

var rootCmd = &cobra.Command{
	Use:   "skydeck",
	Short: "Space dashboard for the terminal and the web",
	Long: `skydeck polls public space data feeds (station position, crew, launches,
near-earth objects, local sky conditions, space weather and the astronomy
calendar), derives dashboard metrics from them and serves the result as a
terminal dashboard or a JSON API. An astronomy tutor answers questions
through the configured generative providers.

Configuration is read from skydeck.yaml and SKYDECK_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./skydeck.yaml or the data dir)")
	rootCmd.PersistentFlags().StringVar(&owner, "owner", "", "user the session acts as; empty is anonymous")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
	rootCmd.PersistentFlags().BoolVar(&trace, "trace", false, "record every dashboard message in the event log")
}

// Execute runs the root command. Pass a context that is cancelled on
// interrupt so long-running commands shut down cleanly.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openApp loads config and builds the App for a command. Callers own Close.
func openApp(cmd *cobra.Command, opts app.Options) (*app.App, error) {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if opts.Owner == "" {
		opts.Owner = owner
	}
	if trace {
		otel.SetTrace(true)
	}
	return newApp(cmd.Context(), cfg, opts)
}
