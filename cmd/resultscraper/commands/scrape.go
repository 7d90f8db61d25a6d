package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"resultscraper/internal/browser"
	"resultscraper/internal/components/chrono"
	"resultscraper/internal/components/serviceutil"
	"resultscraper/internal/diagnostics"
	"resultscraper/internal/notify"
	"resultscraper/internal/results"
	"resultscraper/internal/roster"
	"resultscraper/internal/scrapers/unom"
	"resultscraper/internal/spreadsheet"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var errNoStudents = errors.New("either --roster or --reg and --dob must be given")

var (
	scrapeRoster  string
	scrapeRegs    []string
	scrapeDobs    []string
	scrapeEngine  string
	scrapeVisible bool
	scrapeDebug   bool
	scrapeOut     string
	scrapeNotify  bool
)

func init() {
	f := scrapeCmd.Flags()
	f.StringVar(&scrapeRoster, "roster", "", "An .xlsx or .csv roster with 'Register Number' and 'Date of Birth' columns.")
	f.StringSliceVar(&scrapeRegs, "reg", nil, "Register numbers to fetch, paired in order with --dob.")
	f.StringSliceVar(&scrapeDobs, "dob", nil, "Dates of birth (DD/MM/YYYY), paired in order with --reg.")
	f.StringVar(&scrapeEngine, "engine", "", "Override the configured browser engine (chromium, firefox, http).")
	f.BoolVar(&scrapeVisible, "visible", false, "Show the browser window.")
	f.BoolVar(&scrapeDebug, "debug", false, "Capture every stage of every student, not only failures.")
	f.StringVarP(&scrapeOut, "out", "o", "student_results.xlsx", "The workbook to export results to.")
	f.BoolVar(&scrapeNotify, "notify", true, "Email a summary when notify is configured.")
	rootCmd.AddCommand(scrapeCmd)
}

func loadQueries() ([]roster.Query, error) {
	if scrapeRoster != "" {
		sheet, err := spreadsheet.ReadRoster(scrapeRoster)
		if err != nil {
			return nil, err
		}
		return sheet.Queries()
	}
	if len(scrapeRegs) == 0 && len(scrapeDobs) == 0 {
		return nil, errNoStudents
	}
	return roster.FromManual(
		strings.Join(scrapeRegs, "\n"),
		strings.Join(scrapeDobs, "\n"),
	)
}

func status(r results.Result) string {
	if r.Failed() {
		return "failed: " + r[results.KeyError]
	}
	return fmt.Sprintf("ok, %s (%d subjects)", r[results.KeyStudentName], len(r.Subjects()))
}

func printSummary(rs []results.Result, sink diagnostics.FilesystemSink) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Register Number", "Name", "Status"})

	var failed []results.Result
	for _, r := range rs {
		if r.Failed() {
			failed = append(failed, r)
			t.AppendRow(table.Row{r[results.KeyRegisterNumber], "", r[results.KeyError]})
			continue
		}
		t.AppendRow(table.Row{r[results.KeyRegisterNumber], r[results.KeyStudentName], "ok"})
	}
	t.AppendFooter(table.Row{"", "Succeeded", len(rs) - len(failed)})
	t.AppendFooter(table.Row{"", "Failed", len(failed)})
	t.Render()

	for _, r := range failed {
		regNo := r[results.KeyRegisterNumber]
		files, err := sink.Files(regNo)
		if err != nil {
			slog.Warn("failed to list diagnostics", "register_number", regNo, "err", err)
			continue
		}
		if len(files) == 0 {
			continue
		}
		fmt.Printf("\nDiagnostics for %s:\n", regNo)
		for _, f := range files {
			fmt.Printf("  %s\n", f)
		}
	}
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape (--roster <file> | --reg <no>... --dob <date>...)",
	Short: "Fetches the results of every student and exports them to a workbook.",
	Run: func(cmd *cobra.Command, args []string) {
		queries, err := loadQueries()
		var invalid *roster.ValidationError
		if errors.As(err, &invalid) {
			for _, problem := range invalid.Problems {
				fmt.Fprintln(os.Stderr, problem)
			}
			exit(1)
			return
		}
		if err != nil {
			serviceutil.Fatal("failed to read students", err)
		}
		if len(queries) == 0 {
			fmt.Fprintln(os.Stderr, "no students to process")
			return
		}

		if scrapeEngine != "" {
			cfg.Browser.Engine = scrapeEngine
		}
		if scrapeVisible {
			cfg.Browser.Visible = true
		}
		if scrapeDebug {
			cfg.Diagnostics.Debug = true
		}
		opts, err := cfg.ScraperOptions()
		if err != nil {
			serviceutil.Fatal("invalid scraper options", err)
		}

		clock := chrono.NewStandardImpl()
		sink, err := diagnostics.NewFilesystemSink(cfg.Diagnostics.Dir, cfg.Diagnostics.Debug, clock.Now(), tel)
		if err != nil {
			serviceutil.Fatal("failed to create diagnostics directory", err)
		}
		slog.Info("starting batch", "students", len(queries), "engine", opts.Browser.Engine, "diagnostics", sink.Dir())

		scraper := unom.NewScraper(browser.NewLauncher(tel), sink, clock, tel, opts)
		rs, batchErr := scraper.ScrapeAll(cmd.Context(), queries, func(i int, q roster.Query, r results.Result) {
			fmt.Printf("[%d/%d] %s: %s\n", i+1, len(queries), q.RegisterNumber, status(r))
		})
		if batchErr != nil {
			slog.Warn("batch interrupted", "completed", len(rs), "total", len(queries), "err", batchErr)
		}
		if len(rs) == 0 {
			exit(1)
			return
		}

		success, failure := results.Normalize(rs)
		err = spreadsheet.SaveResults(scrapeOut, success, failure)
		if err != nil {
			slog.Error("failed to export results", "err", err)
			exit(1)
			return
		}
		fmt.Println()
		printSummary(rs, sink)
		fmt.Printf("\nResults written to %s\n", scrapeOut)

		if scrapeNotify && cfg.Notify.Enabled() {
			err = notify.Send(cmd.Context(), cfg.Notify, notify.Summarize(rs, scrapeOut))
			if err != nil {
				slog.Warn("failed to send summary email", "err", err)
			} else {
				slog.Info("summary emailed", "to", cfg.Notify.To)
			}
		}

		if batchErr != nil {
			exit(1)
		}
	},
}
