package unom

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"resultscraper/internal/browser"
	"resultscraper/internal/components/chrono"
	"resultscraper/internal/components/telemetry"
	"resultscraper/internal/diagnostics"
	"resultscraper/internal/results"
	"resultscraper/internal/roster"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

// portal is a scripted stand-in for the results site, every session it
// opens shares its counters.
type portal struct {
	form    []byte
	gotoErr error
	launch  error
	// respond returns the page shown after submitting, called with the
	// values filled into the form.
	respond func(reg, dob string, submission int) (markup []byte, dialogs []string)

	opens, gotos, clicks, closes int
}

func (p *portal) Open(ctx context.Context, opts browser.Options) (browser.Page, error) {
	p.opens++
	if p.launch != nil {
		return nil, p.launch
	}
	return &fakePage{portal: p}, nil
}

type fakePage struct {
	portal  *portal
	current []byte
	filled  map[string]string
	dialogs []string
}

func (f *fakePage) Goto(ctx context.Context, url string) error {
	f.portal.gotos++
	if f.portal.gotoErr != nil {
		return f.portal.gotoErr
	}
	f.current = f.portal.form
	f.filled = map[string]string{}
	return nil
}

func (f *fakePage) Content() (string, error) {
	return string(f.current), nil
}

func (f *fakePage) doc() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(f.current))
}

func (f *fakePage) Fill(selector, value string) error {
	doc, err := f.doc()
	if err != nil {
		return err
	}
	sel := doc.Find(selector)
	if sel.Length() != 1 {
		return fmt.Errorf("selector %q matched %d elements", selector, sel.Length())
	}
	f.filled[sel.AttrOr("name", selector)] = value
	return nil
}

func (f *fakePage) Click(ctx context.Context, selector string) error {
	doc, err := f.doc()
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() != 1 {
		return fmt.Errorf("cannot click %q", selector)
	}
	f.portal.clicks++
	f.current, f.dialogs = f.portal.respond(f.filled["regno"], f.filled["dob"], f.portal.clicks)
	return nil
}

func (f *fakePage) Screenshot(string) error {
	return nil
}

func (f *fakePage) Dialogs() []string {
	out := f.dialogs
	f.dialogs = nil
	return out
}

func (f *fakePage) Close() error {
	f.portal.closes++
	return nil
}

type recordingSink struct {
	stages []diagnostics.Stage
}

func (s *recordingSink) Capture(_ browser.Page, _ string, stage diagnostics.Stage) {
	s.stages = append(s.stages, stage)
}

func respondWith(markup []byte, dialogs ...string) func(string, string, int) ([]byte, []string) {
	return func(string, string, int) ([]byte, []string) {
		return markup, dialogs
	}
}

type harness struct {
	scraper *Scraper
	portal  *portal
	sink    *recordingSink
	clock   *chrono.FakeImpl
	tel     *telemetry.RecorderAPI
}

func newHarness(p *portal) harness {
	if p.form == nil {
		p.form = ugresultFormTest
	}
	h := harness{
		portal: p,
		sink:   &recordingSink{},
		clock:  chrono.NewFakeImpl(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)),
		tel:    telemetry.NewRecorderAPI(),
	}
	h.scraper = NewScraper(p, h.sink, h.clock, h.tel, Options{})
	return h
}

var student = roster.Query{RegisterNumber: "123456789", DateOfBirth: "01/01/2000"}

func seconds(values ...int) []time.Duration {
	out := make([]time.Duration, len(values))
	for i, v := range values {
		out[i] = time.Duration(v) * time.Second
	}
	return out
}

func TestScrapeOneSuccess(t *testing.T) {
	var submitted []string
	h := newHarness(&portal{
		respond: func(reg, dob string, _ int) ([]byte, []string) {
			submitted = []string{reg, dob}
			return ugresultResultTest, nil
		},
	})

	result := h.scraper.ScrapeOne(context.Background(), student)
	require.False(t, result.Failed())
	require.Equal(t, "PRIYA RAMAN", result[results.KeyStudentName])
	require.Equal(t, "55", result["MTH101_2"])
	require.Equal(t, []string{"123456789", "01/01/2000"}, submitted)

	require.Equal(t, 1, h.portal.opens)
	require.Equal(t, 1, h.portal.closes)
	require.Equal(t, 1, h.portal.clicks)
	require.Equal(t, seconds(2, 3), h.clock.Waits())
	require.Equal(t, []diagnostics.Stage{diagnostics.StageInitialPage, diagnostics.StageResults}, h.sink.stages)
}

func TestScrapeOneKnownErrorIsNotRetried(t *testing.T) {
	h := newHarness(&portal{respond: respondWith(ugresultErrorTest)})

	result := h.scraper.ScrapeOne(context.Background(), student)
	require.Equal(t, results.Failure(
		"123456789",
		"01/01/2000",
		"Website returned error: Invalid Register Number",
	), result)
	require.Equal(t, 1, h.portal.clicks)
	require.Equal(t, seconds(2, 3), h.clock.Waits())
	require.Len(t, h.tel.Reports("warning"), 1)
}

func TestScrapeOneKnownErrorFromDialog(t *testing.T) {
	h := newHarness(&portal{respond: respondWith(ugresultFormTest, "Invalid Date of Birth")})

	result := h.scraper.ScrapeOne(context.Background(), student)
	require.Equal(t, "Website returned error: Invalid Date of Birth", result[results.KeyError])
	require.Equal(t, 1, h.portal.clicks)
}

func TestScrapeOneFormStillVisibleExhaustsRetries(t *testing.T) {
	h := newHarness(&portal{respond: respondWith(ugresultFormTest)})

	result := h.scraper.ScrapeOne(context.Background(), student)
	require.Equal(t, "Maximum retries exceeded", result[results.KeyError])
	require.Equal(t, "123456789", result[results.KeyRegisterNumber])
	require.Equal(t, "01/01/2000", result[results.KeyDateOfBirth])

	require.Equal(t, 3, h.portal.gotos)
	require.Equal(t, 3, h.portal.clicks)
	require.Equal(t, 1, h.portal.opens)
	require.Equal(t, seconds(2, 3, 2, 2, 3, 2, 2, 3), h.clock.Waits())

	var stillVisible int
	for _, stage := range h.sink.stages {
		if stage == diagnostics.StageFormStillVisible {
			stillVisible++
		}
	}
	require.Equal(t, 3, stillVisible)
}

func TestScrapeOneFieldNotFoundExhaustsRetries(t *testing.T) {
	h := newHarness(&portal{
		form:    []byte(`<html><body><p>Server is busy</p></body></html>`),
		respond: respondWith(ugresultResultTest),
	})

	result := h.scraper.ScrapeOne(context.Background(), student)
	require.Equal(t, "Maximum retries exceeded", result[results.KeyError])
	require.Equal(t, 3, h.portal.gotos)
	require.Equal(t, 0, h.portal.clicks)
	require.Equal(t, []diagnostics.Stage{
		diagnostics.StageInitialPage, diagnostics.StageFormNotFound,
		diagnostics.StageInitialPage, diagnostics.StageFormNotFound,
		diagnostics.StageInitialPage, diagnostics.StageFormNotFound,
	}, h.sink.stages)
}

func TestScrapeOneUnclassifiedExhaustsRetries(t *testing.T) {
	h := newHarness(&portal{gotoErr: errors.New("net::ERR_CONNECTION_RESET")})

	result := h.scraper.ScrapeOne(context.Background(), student)
	require.Equal(t, "Exception: navigate: net::ERR_CONNECTION_RESET", result[results.KeyError])
	require.Equal(t, 3, h.portal.gotos)
	require.Equal(t, seconds(2, 2), h.clock.Waits())
}

func TestScrapeOneRecoversAfterTransientFailure(t *testing.T) {
	h := newHarness(&portal{
		respond: func(_, _ string, submission int) ([]byte, []string) {
			if submission == 1 {
				return ugresultFormTest, nil
			}
			return ugresultResultTest, nil
		},
	})

	result := h.scraper.ScrapeOne(context.Background(), student)
	require.False(t, result.Failed())
	require.Equal(t, 2, h.portal.gotos)
	require.Equal(t, 2, h.portal.clicks)
}

func TestScrapeOneExtractionEmptyIsTerminal(t *testing.T) {
	h := newHarness(&portal{respond: respondWith([]byte(`<html><body><p>Results will be published soon</p></body></html>`))})

	result := h.scraper.ScrapeOne(context.Background(), student)
	require.Equal(t, "Could not extract subject data from results page", result[results.KeyError])
	require.Equal(t, 1, h.portal.clicks)
	require.Contains(t, h.sink.stages, diagnostics.StageExtractFailed)
}

func TestScrapeOneBrowserLaunchFailure(t *testing.T) {
	h := newHarness(&portal{launch: errors.New("executable doesn't exist")})

	result := h.scraper.ScrapeOne(context.Background(), student)
	require.Equal(t, "Failed to initialize browser driver: executable doesn't exist", result[results.KeyError])
	require.Equal(t, 1, h.portal.opens)
	require.Equal(t, 0, h.portal.gotos)
}

func TestScrapeAllScenario(t *testing.T) {
	h := newHarness(&portal{
		respond: func(reg, _ string, _ int) ([]byte, []string) {
			if reg == "111" {
				return []byte(`<table>
					<tr><td>Name</td><td>Priya Raman</td></tr>
					<tr><td>ENG</td><td>English</td><td>78</td><td>-</td><td>A</td></tr>
				</table>`), nil
			}
			return ugresultErrorTest, nil
		},
	})

	queries := []roster.Query{
		{RegisterNumber: "111", DateOfBirth: "01/01/2000"},
		{RegisterNumber: "222", DateOfBirth: "02/02/2000"},
	}
	var seen []int
	out, err := h.scraper.ScrapeAll(context.Background(), queries, func(i int, q roster.Query, r results.Result) {
		require.Equal(t, queries[i].RegisterNumber, q.RegisterNumber)
		seen = append(seen, i)
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, seen)
	require.Len(t, out, 2)
	require.Equal(t, "111", out[0][results.KeyRegisterNumber])
	require.Equal(t, "222", out[1][results.KeyRegisterNumber])

	success, failure := results.Normalize(out)
	require.Equal(t, []string{"NAME", "REG NO", "DOB", "ENG_0", "ENG_1", "ENG_2"}, success.Columns)
	require.Equal(t, [][]string{{"Priya Raman", "111", "01/01/2000", "78", "-", "A"}}, success.Rows)
	require.Equal(t, [][]string{{"Website returned error: Invalid Register Number", "222", "02/02/2000"}}, failure.Rows)

	require.Equal(t, 2, h.portal.opens)
	require.Equal(t, 2, h.portal.closes)
	require.Equal(t, seconds(2, 3, 1, 2, 3), h.clock.Waits())
	require.Equal(t, int64(1), h.tel.Count("unom_scraper: scraper.succeeded"))
	require.Equal(t, int64(1), h.tel.Count("unom_scraper: scraper.failed"))
}

func TestScrapeAllCancelled(t *testing.T) {
	h := newHarness(&portal{respond: respondWith(ugresultResultTest)})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queries := []roster.Query{student, student, student}
	out, err := h.scraper.ScrapeAll(ctx, queries, func(i int, _ roster.Query, _ results.Result) {
		if i == 0 {
			cancel()
		}
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, out, 1)
	require.False(t, out[0].Failed())
	require.Equal(t, 1, h.portal.opens)
}
