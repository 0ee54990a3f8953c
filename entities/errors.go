package entities

import (
	"context"
	"errors"
	"fmt"
)

// Input errors: reported immediately, never retried.
var (
	ErrInvalidCriterion   = errors.New("no search criterion provided")
	ErrAmbiguousCriterion = errors.New("more than one search criterion provided")
	ErrUnknownRoute       = errors.New("unknown administration route")
	ErrInvalidAtcCode     = errors.New("invalid ATC code")
)

// Resolution errors: abort before the cascade starts.
var (
	ErrDrugNotFound         = errors.New("reference drug not found")
	ErrResolutionIncomplete = errors.New("reference drug has neither ATC code nor active ingredient")
)

// ErrUpstreamUnavailable is a transport or server failure of the registry.
var ErrUpstreamUnavailable = errors.New("drug registry unavailable")

// ResolutionError carries what was learned before resolution failed.
type ResolutionError struct {
	Kind               error // ErrDrugNotFound or ErrResolutionIncomplete
	ReferenceName      string
	RegistrationNumber string // empty when nothing matched
}

func (e *ResolutionError) Error() string {
	if e.RegistrationNumber != "" {
		return fmt.Sprintf("%s: %q (matched registration %s)", e.Kind, e.ReferenceName, e.RegistrationNumber)
	}
	return fmt.Sprintf("%s: %q", e.Kind, e.ReferenceName)
}

func (e *ResolutionError) Unwrap() error { return e.Kind }

// UpstreamError wraps a failed registry call.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrUpstreamUnavailable, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() []error { return []error{ErrUpstreamUnavailable, e.Err} }

// AsUpstream types an error returned by the registry client. Context errors
// and errors already marked unavailable pass through unchanged. Anything
// else becomes an *UpstreamError for op.
func AsUpstream(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, ErrUpstreamUnavailable):
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}

// Retryable reports whether the caller should retry the same request later.
// Everything except upstream unavailability calls for a refined query.
func Retryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}

// IsInputError reports whether err is a caller input classification error.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidCriterion) ||
		errors.Is(err, ErrAmbiguousCriterion) ||
		errors.Is(err, ErrUnknownRoute) ||
		errors.Is(err, ErrInvalidAtcCode)
}
