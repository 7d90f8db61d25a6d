package telemetry

import (
	"fmt"
)

// API is an abstraction over logging/metrics, it exists so tests can
// assert on what a component reported.
type API interface {
	// ReportBroken reports a component that broke in a way someone should look at.
	//
	// The `id` names the **component** that broke, not the line that broke. If the
	// results page cannot be parsed the id is `scraper.extract`, details such as
	// which cell was missing belong in params or in the wrapped error.
	//
	// ids are lowercase, use underscores inside a component name and dashes for
	// methods of a larger component (`unom_scraper: scraper.locate-fields`).
	ReportBroken(id string, params ...any)

	// ReportWarning reports something that is not necessarily broken, a student
	// whose results could not be fetched for instance. See ReportBroken for `id`.
	ReportWarning(id string, params ...any)

	// ReportDebug reports information that is only useful while debugging.
	ReportDebug(msg string, params ...any)

	// ReportCount reports the current value of a running count, values are points
	// over time and should not be summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with a namespace before passing it on.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) scope(id string) string {
	return fmt.Sprintf("%s: %s", s.namespace, id)
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scope(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scope(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.scope(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scope(id), count)
}
