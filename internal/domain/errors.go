package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable class of an engine failure. Every
// kind is recoverable at the caller's discretion.
type ErrorKind string

const (
	// KindInsufficientHistory means the raw sales query returned no facts.
	KindInsufficientHistory ErrorKind = "insufficient_history"
	// KindInsufficientData means facts exist but fall below the minimum
	// row count needed to build a training table.
	KindInsufficientData ErrorKind = "insufficient_data"
	// KindInsufficientVariation means too few price/quantity observations
	// to estimate elasticity.
	KindInsufficientVariation ErrorKind = "insufficient_variation"
	// KindInsufficientPricePoints means too few populated price buckets
	// survived aggregation.
	KindInsufficientPricePoints ErrorKind = "insufficient_price_points"
	// KindArtifactNotFound means a model was requested before training.
	KindArtifactNotFound ErrorKind = "artifact_not_found"
	// KindPersistenceFailure means the artifact store was unavailable.
	KindPersistenceFailure ErrorKind = "persistence_failure"
)

// AnalyticsError pairs an ErrorKind with context so handlers can map
// failures to responses without string matching.
type AnalyticsError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AnalyticsError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AnalyticsError) Unwrap() error { return e.Err }

// NewAnalyticsError builds an AnalyticsError with a formatted message.
func NewAnalyticsError(kind ErrorKind, format string, args ...any) *AnalyticsError {
	return &AnalyticsError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapAnalyticsError attaches a cause to an AnalyticsError.
func WrapAnalyticsError(kind ErrorKind, err error, format string, args ...any) *AnalyticsError {
	return &AnalyticsError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the ErrorKind from err, or "" when err is not an
// AnalyticsError.
func KindOf(err error) ErrorKind {
	var ae *AnalyticsError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
