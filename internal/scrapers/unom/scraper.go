package unom

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resultscraper/internal/browser"
	"resultscraper/internal/components/assert"
	"resultscraper/internal/components/chrono"
	"resultscraper/internal/components/telemetry"
	"resultscraper/internal/diagnostics"
	"resultscraper/internal/results"
	"resultscraper/internal/roster"

	"github.com/PuerkitoBio/goquery"
	"github.com/avast/retry-go/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const PortalUrl = "https://egovernance.unom.ac.in/results/ugresult.asp"

var tracer = otel.Tracer("resultscraper/scrapers/unom")

const (
	report_scraper_scrape_one    = "scraper.scrape-one"
	report_scraper_locate_fields = "scraper.locate-fields"
	report_scraper_close         = "scraper.close"
	report_scraper_succeeded     = "scraper.succeeded"
	report_scraper_failed        = "scraper.failed"
)

type Options struct {
	Url     string
	Browser browser.Options
	// MaxRetries is the total number of attempts made per student.
	MaxRetries int
	// Backoff is waited between attempts at the same student.
	Backoff time.Duration
	// LoadWait is waited after navigating to the form.
	LoadWait time.Duration
	// SettleWait is waited after submitting the form.
	SettleWait time.Duration
	// InterRequestDelay is waited between students.
	InterRequestDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.Url == "" {
		o.Url = PortalUrl
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.Backoff <= 0 {
		o.Backoff = 2 * time.Second
	}
	if o.LoadWait <= 0 {
		o.LoadWait = 2 * time.Second
	}
	if o.SettleWait <= 0 {
		o.SettleWait = 3 * time.Second
	}
	if o.InterRequestDelay <= 0 {
		o.InterRequestDelay = time.Second
	}
	return o
}

// Scraper fetches results for students one at a time, each student gets
// a fresh browser session.
type Scraper struct {
	launcher browser.Launcher
	sink     diagnostics.Sink
	clock    chrono.API
	tel      telemetry.API
	opts     Options
}

func NewScraper(
	launcher browser.Launcher,
	sink diagnostics.Sink,
	clock chrono.API,
	tel telemetry.API,
	opts Options,
) *Scraper {
	assert.NotNil(launcher)
	assert.NotNil(sink)
	assert.NotNil(clock)
	assert.NotNil(tel)

	return &Scraper{
		launcher: launcher,
		sink:     sink,
		clock:    clock,
		tel:      telemetry.NewScopedAPI("unom_scraper", tel),
		opts:     opts.withDefaults(),
	}
}

func snapshot(page browser.Page) (*goquery.Document, string, error) {
	markup, err := page.Content()
	if err != nil {
		return nil, "", fmt.Errorf("read page content: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, "", fmt.Errorf("parse page content: %w", err)
	}
	return doc, markup, nil
}

func locateStage(detail string) diagnostics.Stage {
	switch detail {
	case FieldDateOfBirth:
		return diagnostics.StageDobNotFound
	case FieldSubmit:
		return diagnostics.StageSubmitNotFound
	}
	return diagnostics.StageFormNotFound
}

// attempt runs navigate, locate, submit, classify and extract once.
func (s *Scraper) attempt(ctx context.Context, page browser.Page, q roster.Query) (results.Result, error) {
	ctx, span := tracer.Start(ctx, "attempt")
	defer span.End()

	err := page.Goto(ctx, s.opts.Url)
	if err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	err = s.clock.Sleep(ctx, s.opts.LoadWait)
	if err != nil {
		return nil, err
	}
	s.sink.Capture(page, q.RegisterNumber, diagnostics.StageInitialPage)

	doc, _, err := snapshot(page)
	if err != nil {
		return nil, err
	}
	fields, err := LocateFields(doc)
	if err != nil {
		attemptErr := asAttemptError(err)
		s.sink.Capture(page, q.RegisterNumber, locateStage(attemptErr.Detail))
		s.tel.ReportWarning(report_scraper_locate_fields, q.RegisterNumber, attemptErr.Detail)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("reg_strategy", fields.Reg.Strategy),
		attribute.String("dob_strategy", fields.DOB.Strategy),
		attribute.String("submit_strategy", fields.Submit.Strategy),
	)

	// dialogs raised while the form loaded say nothing about the query
	page.Dialogs()

	err = submit(ctx, page, s.clock, fields, q.RegisterNumber, q.DateOfBirth, s.opts.SettleWait)
	if err != nil {
		return nil, err
	}

	doc, markup, err := snapshot(page)
	if err != nil {
		return nil, err
	}
	outcome := Classify(doc, markup, page.Dialogs())
	if !outcome.Proceed() {
		s.sink.Capture(page, q.RegisterNumber, diagnostics.StageSiteError)
		return nil, &AttemptError{Kind: KindKnownSiteError, Detail: outcome.Known}
	}

	result, err := Extract(doc, q.RegisterNumber, q.DateOfBirth)
	if err != nil {
		if asAttemptError(err).Kind == KindFormStillVisible {
			s.sink.Capture(page, q.RegisterNumber, diagnostics.StageFormStillVisible)
		} else {
			s.sink.Capture(page, q.RegisterNumber, diagnostics.StageExtractFailed)
		}
		return nil, err
	}
	s.sink.Capture(page, q.RegisterNumber, diagnostics.StageResults)
	return result, nil
}

func (s *Scraper) fail(span trace.Span, q roster.Query, err error) results.Result {
	message := FailureMessage(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, message)
	s.tel.ReportWarning(report_scraper_scrape_one, q.RegisterNumber, message)
	return results.Failure(q.RegisterNumber, q.DateOfBirth, message)
}

// ScrapeOne always returns a result, failures are reported through the
// result's Error key.
func (s *Scraper) ScrapeOne(ctx context.Context, q roster.Query) results.Result {
	ctx, span := tracer.Start(ctx, "ScrapeOne")
	defer span.End()
	span.SetAttributes(attribute.String("register_number", q.RegisterNumber))

	page, err := s.launcher.Open(ctx, s.opts.Browser)
	if err != nil {
		return s.fail(span, q, &AttemptError{Kind: KindBrowserLaunch, Err: err})
	}
	defer func() {
		err := page.Close()
		if err != nil {
			s.tel.ReportWarning(report_scraper_close, q.RegisterNumber, err)
		}
	}()

	attempts := 0
	result, err := retry.DoWithData(
		func() (results.Result, error) {
			attempts++
			return s.attempt(ctx, page, q)
		},
		retry.Context(ctx),
		retry.Attempts(uint(s.opts.MaxRetries)),
		retry.Delay(s.opts.Backoff),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(isTransient),
		retry.LastErrorOnly(true),
		retry.WithTimer(s.clock),
		retry.OnRetry(func(n uint, err error) {
			s.tel.ReportDebug("retrying", q.RegisterNumber, n+1, err)
		}),
	)
	span.SetAttributes(attribute.Int("attempts", attempts))
	if err != nil {
		return s.fail(span, q, err)
	}
	return result
}

// ScrapeAll processes the queries in order, results[i] always belongs to
// queries[i]. If ctx is cancelled the results collected so far are
// returned along with the context's error, a student that was interrupted
// midway is left out.
func (s *Scraper) ScrapeAll(
	ctx context.Context,
	queries []roster.Query,
	onResult func(i int, q roster.Query, r results.Result),
) ([]results.Result, error) {
	ctx, span := tracer.Start(ctx, "ScrapeAll")
	defer span.End()

	out := make([]results.Result, 0, len(queries))
	var succeeded, failed int64
	for i, q := range queries {
		if i > 0 {
			err := s.clock.Sleep(ctx, s.opts.InterRequestDelay)
			if err != nil {
				return out, err
			}
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		r := s.ScrapeOne(ctx, q)
		if err := ctx.Err(); err != nil && r.Failed() {
			return out, err
		}
		out = append(out, r)

		if r.Failed() {
			failed++
			s.tel.ReportCount(report_scraper_failed, failed)
		} else {
			succeeded++
			s.tel.ReportCount(report_scraper_succeeded, succeeded)
		}
		if onResult != nil {
			onResult(i, q, r)
		}
	}
	return out, nil
}
