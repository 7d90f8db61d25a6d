package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"resultscraper/internal/components/serviceutil"
	"resultscraper/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	cfg Config
	tel telemetry.API = telemetry.SlogAPI{}

	exporter telemetry.Telemetry
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The config file to read, <name>.local.json5 overrides it.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output.")
}

var rootCmd = &cobra.Command{
	Use:   "resultscraper",
	Short: "resultscraper fetches university results for a roster of students.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)

		var err error
		cfg, err = ReadConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		exporter, err = telemetry.SetupFromEnv(cmd.Context(), "resultscraper")
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("no telemetry.json5 found, telemetry export disabled")
			return
		}
		if err != nil {
			slog.Warn("telemetry export disabled", "err", err)
			return
		}
		telemetry.InstrumentPerfStats(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		flushTelemetry()
	},
}

var osExit = os.Exit

func flushTelemetry() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := exporter.Shutdown(ctx)
	if err != nil {
		slog.Warn("failed to flush telemetry", "err", err)
	}
}

// exit flushes pending spans and metrics before leaving, os.Exit would
// otherwise skip PersistentPostRun.
func exit(code int) {
	flushTelemetry()
	osExit(code)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exit(1)
	}
}
