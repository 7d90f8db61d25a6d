package commands

import (
	"log/slog"

	"resultscraper/internal/browser"
	"resultscraper/internal/components/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(installCmd)
}

var installCmd = &cobra.Command{
	Use:   "install [engine...]",
	Short: "Downloads the browser driver and browsers used by the scraper.",
	Run: func(cmd *cobra.Command, args []string) {
		names := args
		if len(names) == 0 {
			names = []string{cfg.Browser.Engine}
		}

		var engines []browser.Engine
		for _, name := range names {
			engine, err := browser.ParseEngine(name)
			if err != nil {
				serviceutil.Fatal("invalid engine", err)
			}
			engines = append(engines, engine)
		}

		slog.Info("installing browsers", "engines", engines)
		err := browser.Install(engines...)
		if err != nil {
			serviceutil.Fatal("failed to install browsers", err)
		}
	},
}
