package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	recorder := NewRecorderAPI()
	tel := NewScopedAPI("unom_scraper", recorder)

	tel.ReportBroken("scraper.extract", errors.New("no table"))
	tel.ReportWarning("scraper.scrape-one", "123")
	tel.ReportDebug("retrying", 2)
	tel.ReportCount("scraper.succeeded", 4)
	tel.ReportCount("scraper.succeeded", 5)

	broken := recorder.Reports("broken")
	require.Len(t, broken, 1)
	require.Equal(t, "unom_scraper: scraper.extract", broken[0].Id)

	require.Equal(t, "unom_scraper: scraper.scrape-one", recorder.Reports("warning")[0].Id)
	require.Equal(t, []any{2}, recorder.Reports("debug")[0].Params)
	require.Len(t, recorder.Reports(""), 3)
	require.Equal(t, int64(5), recorder.Count("unom_scraper: scraper.succeeded"))
}

func TestNestedScopes(t *testing.T) {
	recorder := NewRecorderAPI()
	NewScopedAPI("browser", NewScopedAPI("batch", recorder)).ReportWarning("browser.close")
	require.Equal(t, "batch: browser: browser.close", recorder.Reports("warning")[0].Id)
}
