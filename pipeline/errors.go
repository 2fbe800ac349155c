package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Run-level errors stop a sync before any locale is touched.
var (
	// ErrMissingCredential means no API key was provided.
	ErrMissingCredential = errors.New("you must provide an API key first")
	// ErrSourceLoad means the source locale file could not be read or parsed.
	ErrSourceLoad = errors.New("source locale could not be loaded")
)

// Per-locale errors are recorded in Outcome.Err.
var (
	// ErrUnsupportedLocale means the provider rejected the locale; the
	// locale is skipped.
	ErrUnsupportedLocale = errors.New("is not supported")
	// ErrTranslation means the provider failed for the locale or for some
	// of its leaves.
	ErrTranslation = errors.New("translation failed")
	// ErrLoadTarget means the target locale file could not be read or parsed.
	ErrLoadTarget = errors.New("loading target locale failed")
	// ErrPersist means the merged tree could not be saved.
	ErrPersist = errors.New("saving target locale failed")
)

// Summary returns an error naming every locale that failed, or nil.
// Skipped locales are not failures.
func Summary(outcomes []Outcome) error {
	var failed []string
	var errs []error
	for _, o := range outcomes {
		if o.Status.Failed() {
			failed = append(failed, o.Locale)
			errs = append(errs, o.Err)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &SummaryError{Locales: failed, Errs: errs}
}

// SummaryError aggregates per-locale failures.
type SummaryError struct {
	Locales []string
	Errs    []error
}

func (e *SummaryError) Error() string {
	return fmt.Sprintf("%d locale(s) failed: %s", len(e.Locales), strings.Join(e.Locales, ", "))
}

// Unwrap exposes the per-locale errors to errors.Is and errors.As.
func (e *SummaryError) Unwrap() []error { return e.Errs }
