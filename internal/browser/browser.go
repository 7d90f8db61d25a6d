package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resultscraper/internal/components/assert"
	"resultscraper/internal/components/telemetry"
)

const (
	report_browser_open  = "browser.open"
	report_browser_close = "browser.close"
)

type Engine string

const (
	Chromium Engine = "chromium"
	Firefox  Engine = "firefox"
	// Http drives the portal with plain requests and no javascript, it is
	// meant for hosts where no browser can be installed.
	Http Engine = "http"
)

func ParseEngine(name string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(name))) {
	case "", Chromium:
		return Chromium, nil
	case Firefox:
		return Firefox, nil
	case Http:
		return Http, nil
	}
	return "", fmt.Errorf("unknown browser engine %q", name)
}

type Options struct {
	Engine         Engine
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	// Timeout bounds every individual navigation or element action.
	Timeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Engine == "" {
		o.Engine = Chromium
	}
	if o.ViewportWidth <= 0 {
		o.ViewportWidth = 1920
	}
	if o.ViewportHeight <= 0 {
		o.ViewportHeight = 1080
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return o
}

var ErrScreenshotUnsupported = errors.New("screenshots are not supported by this engine")

// Page is a single live browser session. Selectors are CSS selectors,
// a Page is not safe for concurrent use.
type Page interface {
	Goto(ctx context.Context, url string) error
	// Content returns the current markup of the page.
	Content() (string, error)
	// Fill clears the element matched by selector and types value into it.
	Fill(selector, value string) error
	Click(ctx context.Context, selector string) error
	// Screenshot writes a full page png to path.
	Screenshot(path string) error
	// Dialogs returns the messages of the javascript dialogs that were
	// shown (and accepted) since the last call.
	Dialogs() []string
	// Close tears down the whole session, not only the page.
	Close() error
}

type Launcher interface {
	Open(ctx context.Context, opts Options) (Page, error)
}

// DefaultLauncher opens playwright sessions for real browser engines and
// plain http sessions for the http engine.
type DefaultLauncher struct {
	tel telemetry.API
}

func NewLauncher(tel telemetry.API) DefaultLauncher {
	assert.NotNil(tel)
	return DefaultLauncher{tel: telemetry.NewScopedAPI("browser", tel)}
}

func (l DefaultLauncher) Open(ctx context.Context, opts Options) (Page, error) {
	opts = opts.withDefaults()

	var page Page
	var err error
	switch opts.Engine {
	case Chromium, Firefox:
		page, err = openPlaywright(ctx, opts, l.tel)
	case Http:
		page, err = openHttp(opts, l.tel)
	default:
		err = fmt.Errorf("unknown browser engine %q", opts.Engine)
	}
	if err != nil {
		l.tel.ReportBroken(report_browser_open, err, string(opts.Engine))
		return nil, err
	}
	l.tel.ReportDebug("session opened", string(opts.Engine), opts.Headless)
	return page, nil
}
