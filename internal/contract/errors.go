package contract

import (
	"errors"
	"fmt"
	"strings"
)

// Caller-visible failure kinds. Kept distinct so the UX can differentiate
// "no job" from "no one qualifies" from "answer never arrived".
var (
	ErrJobNotFound           = errors.New("job not found")
	ErrMissingTradeInfo      = errors.New("job has no trade information")
	ErrNoEligibleContractors = errors.New("no eligible contractors")
	ErrMatchTimeout          = errors.New("match deadline exceeded")
	ErrNoHistoricalData      = errors.New("no historical pricing data")
	ErrUnknownPlace          = errors.New("unknown place")
)

// GeocodingError means an address could not be resolved. During a match it
// excludes the affected contractor rather than failing the run.
type GeocodingError struct {
	Address string
	Err     error
}

func (e *GeocodingError) Error() string {
	return fmt.Sprintf("geocoding failed for %q: %v", e.Address, e.Err)
}

func (e *GeocodingError) Unwrap() error { return e.Err }

// TransientError marks a failure as likely to succeed on retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err so IsTransient recognizes it regardless of message.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// transientMarkers are message fragments that classify an untyped error as
// retryable.
var transientMarkers = []string{"network", "timeout", "temporary"}

// IsTransient reports whether err should be retried with backoff.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
