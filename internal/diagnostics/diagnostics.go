package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"resultscraper/internal/browser"
	"resultscraper/internal/components/assert"
	"resultscraper/internal/components/telemetry"

	"github.com/mazen160/go-random"
)

const report_diagnostics_capture = "diagnostics.capture"

type Stage string

const (
	StageInitialPage      Stage = "initial_page"
	StageResults          Stage = "results"
	StageSiteError        Stage = "site_error"
	StageFormNotFound     Stage = "form_not_found"
	StageDobNotFound      Stage = "dob_not_found"
	StageSubmitNotFound   Stage = "submit_not_found"
	StageFormStillVisible Stage = "form_still_visible"
	StageExtractFailed    Stage = "extract_failed"
)

// Debug reports whether the stage is only captured in debug mode, failure
// stages are always captured.
func (s Stage) Debug() bool {
	switch s {
	case StageInitialPage, StageResults, StageSiteError:
		return true
	}
	return false
}

// Sink receives a snapshot of a page at some stage of processing a student.
type Sink interface {
	Capture(page browser.Page, regNo string, stage Stage)
}

// Nop drops every capture.
type Nop struct{}

func (Nop) Capture(browser.Page, string, Stage) {}

// FilesystemSink writes a screenshot and the page markup of each capture
// into a directory that is unique to the run.
type FilesystemSink struct {
	directory string
	debug     bool
	tel       telemetry.API
}

// NewFilesystemSink creates `<root>/run-<timestamp>-<id>`.
func NewFilesystemSink(root string, debug bool, now time.Time, tel telemetry.API) (FilesystemSink, error) {
	assert.NotNil(tel)
	assert.NotEmptyStr(root)

	id, err := random.String(4)
	if err != nil {
		return FilesystemSink{}, err
	}
	dir := filepath.Join(root, fmt.Sprintf("run-%s-%s", now.Format("20060102-150405"), id))
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemSink{}, err
	}

	return FilesystemSink{
		directory: dir,
		debug:     debug,
		tel:       telemetry.NewScopedAPI("diagnostics", tel),
	}, nil
}

func (s FilesystemSink) Dir() string {
	return s.directory
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9-]+`)

// SanitizeRegNo makes a register number safe to use in a file name.
func SanitizeRegNo(regNo string) string {
	regNo = unsafeChars.ReplaceAllString(strings.TrimSpace(regNo), "-")
	regNo = strings.Trim(regNo, "-")
	if regNo == "" {
		return "unknown"
	}
	return regNo
}

func screenshotName(stage Stage, regNo string) string {
	return fmt.Sprintf("%s_%s.png", stage, SanitizeRegNo(regNo))
}

func sourceName(stage Stage, regNo string) string {
	return fmt.Sprintf("page_source_%s_%s.html", stage, SanitizeRegNo(regNo))
}

func (s FilesystemSink) Capture(page browser.Page, regNo string, stage Stage) {
	if stage.Debug() && !s.debug {
		return
	}

	err := page.Screenshot(filepath.Join(s.directory, screenshotName(stage, regNo)))
	if err != nil && !errors.Is(err, browser.ErrScreenshotUnsupported) {
		s.tel.ReportWarning(report_diagnostics_capture, "screenshot", stage, regNo, err)
	}

	content, err := page.Content()
	if err != nil {
		s.tel.ReportWarning(report_diagnostics_capture, "content", stage, regNo, err)
		return
	}
	err = os.WriteFile(filepath.Join(s.directory, sourceName(stage, regNo)), []byte(content), 0600)
	if err != nil {
		s.tel.ReportWarning(report_diagnostics_capture, "write", stage, regNo, err)
		return
	}
	s.tel.ReportDebug("captured", stage, regNo)
}

// Files lists the captures written for a student, sorted by name.
func (s FilesystemSink) Files(regNo string) ([]string, error) {
	entries, err := os.ReadDir(s.directory)
	if err != nil {
		return nil, err
	}

	suffix := "_" + SanitizeRegNo(regNo)
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if ext != ".png" && ext != ".html" {
			continue
		}
		if strings.HasSuffix(strings.TrimSuffix(name, ext), suffix) {
			out = append(out, filepath.Join(s.directory, name))
		}
	}
	sort.Strings(out)
	return out, nil
}
