package notify

import (
	"os"
	"path/filepath"
	"testing"

	"resultscraper/internal/results"

	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	summary := Summarize([]results.Result{
		{results.KeyRegisterNumber: "111", "ENG_0": "78"},
		results.Failure("222", "02/02/2000", "Website returned error: Invalid Register Number"),
	}, "")

	require.Equal(t, 2, summary.Total)
	require.Equal(t, 1, summary.Succeeded)
	require.Equal(t, []Failure{{RegisterNumber: "222", Error: "Website returned error: Invalid Register Number"}}, summary.Failures)
	require.Equal(t, `Processed 2 students: 1 succeeded, 1 failed.

Failed students:
- 222: Website returned error: Invalid Register Number
`, summary.Body())
}

func TestMessage(t *testing.T) {
	export := filepath.Join(t.TempDir(), "results.xlsx")
	require.NoError(t, os.WriteFile(export, []byte("xlsx"), 0600))

	config := SmtpConfig{
		Server:       "smtp.example.com",
		Port:         587,
		EmailAddress: "scraper@example.com",
		To:           []string{"hod@example.com"},
	}
	require.True(t, config.Enabled())
	require.False(t, SmtpConfig{Server: "smtp.example.com"}.Enabled())

	mail, err := config.message(Summary{Total: 3, Succeeded: 3, ExportPath: export})
	require.NoError(t, err)
	require.Equal(t, "Result Scraper <scraper@example.com>", mail.From)
	require.Equal(t, []string{"hod@example.com"}, mail.To)
	require.Equal(t, "Results batch: 3/3 succeeded", mail.Subject)
	require.Len(t, mail.Attachments, 1)
	require.Equal(t, "results.xlsx", mail.Attachments[0].Filename)

	_, err = config.message(Summary{ExportPath: filepath.Join(t.TempDir(), "missing.xlsx")})
	require.Error(t, err)
}
