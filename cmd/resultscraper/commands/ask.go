package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"resultscraper/internal/components/serviceutil"
	"resultscraper/internal/qa"
	"resultscraper/internal/spreadsheet"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var askShowSample bool

func init() {
	askCmd.Flags().BoolVar(&askShowSample, "sample", false, "Also print the rows the answer is based on.")
	rootCmd.AddCommand(askCmd)
}

var askCmd = &cobra.Command{
	Use:   "ask <results.xlsx> <question...>",
	Short: "Answers a question about an exported results workbook.",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to load .env", "err", err)
		}

		success, _, err := spreadsheet.LoadResults(args[0])
		if err != nil {
			serviceutil.Fatal("failed to load results", err)
		}

		client, err := qa.NewClient(cfg.QaOptions(), tel)
		if errors.Is(err, qa.ErrMissingAPIKey) {
			fmt.Fprintf(os.Stderr, "set %s in the environment or in .env\n", cfg.Qa.ApiKeyEnv)
			exit(1)
			return
		}
		if err != nil {
			serviceutil.Fatal("failed to create question answering client", err)
		}

		answer, err := client.Ask(cmd.Context(), success, strings.Join(args[1:], " "))
		if err != nil {
			serviceutil.Fatal("failed to answer question", err)
		}
		if askShowSample {
			fmt.Println(answer.Sample.Display().Render(table.StyleRounded))
			fmt.Println()
		}
		fmt.Println(answer.Text)
	},
}
