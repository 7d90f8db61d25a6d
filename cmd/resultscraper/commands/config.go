package commands

import (
	"os"
	"time"

	"resultscraper/internal/browser"
	"resultscraper/internal/components/configutil"
	"resultscraper/internal/notify"
	"resultscraper/internal/qa"
	"resultscraper/internal/scrapers/unom"
)

type BrowserConfig struct {
	// Engine is one of chromium, firefox or http.
	Engine         string `json:"engine"`
	Visible        bool   `json:"visible"`
	ViewportWidth  int    `json:"viewport_width"`
	ViewportHeight int    `json:"viewport_height"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// IntervalsConfig holds every wait the scraper makes, in milliseconds.
type IntervalsConfig struct {
	LoadWait          int `json:"load_wait"`
	SettleWait        int `json:"settle_wait"`
	Backoff           int `json:"backoff"`
	InterRequestDelay int `json:"inter_request_delay"`
}

type DiagnosticsConfig struct {
	Dir   string `json:"dir"`
	Debug bool   `json:"debug"`
}

type QaConfig struct {
	BaseUrl   string `json:"base_url"`
	Model     string `json:"model"`
	ApiKeyEnv string `json:"api_key_env"`
}

type Config struct {
	PortalUrl   string            `json:"portal_url"`
	MaxRetries  int               `json:"max_retries"`
	Browser     BrowserConfig     `json:"browser"`
	Intervals   IntervalsConfig   `json:"intervals"`
	Diagnostics DiagnosticsConfig `json:"diagnostics"`
	Qa          QaConfig          `json:"qa"`
	Notify      notify.SmtpConfig `json:"notify"`
}

var defaultConfig = Config{
	PortalUrl:  unom.PortalUrl,
	MaxRetries: 3,
	Browser: BrowserConfig{
		Engine:         string(browser.Chromium),
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		TimeoutSeconds: 30,
	},
	Intervals: IntervalsConfig{
		LoadWait:          2000,
		SettleWait:        3000,
		Backoff:           2000,
		InterRequestDelay: 1000,
	},
	Diagnostics: DiagnosticsConfig{
		Dir: "debug_info",
	},
	Qa: QaConfig{
		BaseUrl:   qa.DefaultBaseUrl,
		Model:     qa.DefaultModel,
		ApiKeyEnv: "GROQ_API_KEY",
	},
	Notify: notify.SmtpConfig{
		Port: 587,
	},
}

// ReadConfig reads the config at path, a missing file leaves every
// setting at its default.
func ReadConfig(path string) (Config, error) {
	return configutil.ReadConfigWithDefaults(path, defaultConfig)
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func (c Config) BrowserOptions() (browser.Options, error) {
	engine, err := browser.ParseEngine(c.Browser.Engine)
	if err != nil {
		return browser.Options{}, err
	}
	return browser.Options{
		Engine:         engine,
		Headless:       !c.Browser.Visible,
		ViewportWidth:  c.Browser.ViewportWidth,
		ViewportHeight: c.Browser.ViewportHeight,
		Timeout:        time.Duration(c.Browser.TimeoutSeconds) * time.Second,
	}, nil
}

func (c Config) ScraperOptions() (unom.Options, error) {
	browserOpts, err := c.BrowserOptions()
	if err != nil {
		return unom.Options{}, err
	}
	return unom.Options{
		Url:               c.PortalUrl,
		Browser:           browserOpts,
		MaxRetries:        c.MaxRetries,
		Backoff:           millis(c.Intervals.Backoff),
		LoadWait:          millis(c.Intervals.LoadWait),
		SettleWait:        millis(c.Intervals.SettleWait),
		InterRequestDelay: millis(c.Intervals.InterRequestDelay),
	}, nil
}

func (c Config) QaOptions() qa.Options {
	return qa.Options{
		BaseUrl: c.Qa.BaseUrl,
		Model:   c.Qa.Model,
		ApiKey:  os.Getenv(c.Qa.ApiKeyEnv),
	}
}
