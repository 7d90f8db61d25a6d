package commands

import (
	"fmt"

	"resultscraper/internal/components/serviceutil"
	"resultscraper/internal/spreadsheet"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <results.xlsx>",
	Short: "Prints a previously exported results workbook.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		success, failure, err := spreadsheet.LoadResults(args[0])
		if err != nil {
			serviceutil.Fatal("failed to load results", err)
		}

		if success.Empty() {
			fmt.Println("No successful results.")
		} else {
			fmt.Printf("Successful results (%d)\n", len(success.Rows))
			fmt.Println(success.Display().Render(table.StyleRounded))
		}
		if !failure.Empty() {
			fmt.Printf("\nFailed results (%d)\n", len(failure.Rows))
			fmt.Println(failure.Render(table.StyleRounded))
		}
	},
}
