package unom

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnclassified Kind = iota
	KindBrowserLaunch
	KindFieldNotFound
	KindKnownSiteError
	KindFormStillVisible
	KindExtractionEmpty
)

func (k Kind) String() string {
	switch k {
	case KindBrowserLaunch:
		return "browser_launch"
	case KindFieldNotFound:
		return "field_not_found"
	case KindKnownSiteError:
		return "known_site_error"
	case KindFormStillVisible:
		return "form_still_visible"
	case KindExtractionEmpty:
		return "extraction_empty"
	}
	return "unclassified"
}

// Transient reports whether another attempt could produce a different
// outcome for the same student.
func (k Kind) Transient() bool {
	switch k {
	case KindFieldNotFound, KindFormStillVisible, KindUnclassified:
		return true
	}
	return false
}

// AttemptError is the reason a single attempt at a student did not produce
// a result.
type AttemptError struct {
	Kind Kind
	// Detail is the field that could not be found or the error phrase the
	// portal returned, depending on Kind.
	Detail string
	Err    error
}

func (e *AttemptError) Error() string {
	switch {
	case e.Detail != "" && e.Err != nil:
		return fmt.Sprintf("%s (%s): %v", e.Kind, e.Detail, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

// asAttemptError treats anything that is not already an AttemptError as
// unclassified.
func asAttemptError(err error) *AttemptError {
	var attemptErr *AttemptError
	if errors.As(err, &attemptErr) {
		return attemptErr
	}
	return &AttemptError{Kind: KindUnclassified, Err: err}
}

func isTransient(err error) bool {
	return asAttemptError(err).Kind.Transient()
}

// FailureMessage is the text stored under the Error key of a failed
// result once no more attempts will be made.
func FailureMessage(err error) string {
	attemptErr := asAttemptError(err)
	switch attemptErr.Kind {
	case KindBrowserLaunch:
		return fmt.Sprintf("Failed to initialize browser driver: %v", attemptErr.Err)
	case KindKnownSiteError:
		return fmt.Sprintf("Website returned error: %s", attemptErr.Detail)
	case KindExtractionEmpty:
		return "Could not extract subject data from results page"
	case KindFieldNotFound, KindFormStillVisible:
		return "Maximum retries exceeded"
	}
	if attemptErr.Err == nil {
		return "Exception: unknown error"
	}
	return fmt.Sprintf("Exception: %v", attemptErr.Err)
}
