package commands

import (
	"fmt"

	"resultscraper/internal/components/serviceutil"
	"resultscraper/internal/spreadsheet"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(templateCmd)
}

var templateCmd = &cobra.Command{
	Use:   "template [path]",
	Short: "Writes an example roster to fill in.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := spreadsheet.TemplateName
		if len(args) > 0 {
			path = args[0]
		}
		err := spreadsheet.WriteTemplate(path)
		if err != nil {
			serviceutil.Fatal("failed to write template", err)
		}
		fmt.Printf("Template written to %s\n", path)
	},
}
