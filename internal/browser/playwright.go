package browser

import (
	"context"
	"fmt"
	"sync"

	"resultscraper/internal/components/telemetry"

	"github.com/playwright-community/playwright-go"
)

// Install downloads the playwright driver and the browsers backing the
// given engines.
func Install(engines ...Engine) error {
	var browsers []string
	for _, e := range engines {
		if e == Chromium || e == Firefox {
			browsers = append(browsers, string(e))
		}
	}
	if len(browsers) == 0 {
		return nil
	}
	return playwright.Install(&playwright.RunOptions{
		Browsers: browsers,
	})
}

type playwrightPage struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	tel     telemetry.API

	mutex   sync.Mutex
	dialogs []string
}

func openPlaywright(ctx context.Context, opts Options, tel telemetry.API) (*playwrightPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browserType := pw.Chromium
	if opts.Engine == Firefox {
		browserType = pw.Firefox
	}
	browser, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launch %s: %w", opts.Engine, err)
	}

	page, err := browser.NewPage(playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("new page: %w", err)
	}
	page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))
	page.SetDefaultNavigationTimeout(float64(opts.Timeout.Milliseconds()))

	p := &playwrightPage{
		pw:      pw,
		browser: browser,
		page:    page,
		tel:     tel,
	}
	page.OnDialog(p.onDialog)
	return p, nil
}

func (p *playwrightPage) onDialog(dialog playwright.Dialog) {
	p.mutex.Lock()
	p.dialogs = append(p.dialogs, dialog.Message())
	p.mutex.Unlock()

	err := dialog.Accept()
	if err != nil {
		p.tel.ReportWarning("dialog-accept", err)
	}
}

func (p *playwrightPage) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	return err
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) Fill(selector, value string) error {
	return p.page.Locator(selector).First().Fill(value)
}

func (p *playwrightPage) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.Locator(selector).First().Click()
}

func (p *playwrightPage) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Path:     playwright.String(path),
	})
	return err
}

func (p *playwrightPage) Dialogs() []string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	out := p.dialogs
	p.dialogs = nil
	return out
}

func (p *playwrightPage) Close() error {
	var errs []error
	if err := p.page.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := p.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := p.pw.Stop(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		p.tel.ReportWarning(report_browser_close, errs)
		return errs[0]
	}
	return nil
}
