package weather

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrPositionUnavailable is returned when no resolution step produced a position.
	ErrPositionUnavailable = errors.New("position unavailable")
	// ErrInvalidEndpoint is returned when a provider URL cannot be built.
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	// ErrMalformedPayload covers empty responses and inconsistent parallel arrays.
	ErrMalformedPayload = errors.New("empty or malformed payload")
	// ErrTransport covers timeouts, connection failures and non-success statuses.
	ErrTransport = errors.New("transport failure")
	// ErrDecode is returned when a response body is not valid JSON.
	ErrDecode = errors.New("decode failure")
	// ErrBudgetExhausted means the session may not issue more provider calls.
	ErrBudgetExhausted = errors.New("session budget exhausted")
	// ErrRangeUnsupported is returned by forecasters that cannot answer range queries.
	ErrRangeUnsupported = errors.New("range query unsupported")
)

// PartialError reports dates that could not be fetched while others succeeded.
type PartialError struct {
	Failed map[string]error
}

func (e *PartialError) Error() string {
	keys := make([]string, 0, len(e.Failed))
	for k := range e.Failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%d dates failed: %s", len(keys), strings.Join(keys, ", "))
}

// Unwrap exposes the per-date causes to errors.Is.
func (e *PartialError) Unwrap() []error {
	out := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		out = append(out, err)
	}
	return out
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrBudgetExhausted), errors.Is(err, ErrInvalidEndpoint), errors.Is(err, ErrRangeUnsupported):
		return false
	default:
		return true
	}
}

// Message returns a short human-readable description of err for inline display.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBudgetExhausted):
		return "Showing saved weather"
	case errors.Is(err, ErrPositionUnavailable):
		return "Location unavailable, try another city"
	case errors.Is(err, ErrTransport):
		return "Weather service unreachable"
	case errors.Is(err, ErrMalformedPayload), errors.Is(err, ErrDecode):
		return "Weather data unavailable"
	default:
		return "Weather unknown"
	}
}
