package provider

import (
	"errors"
	"fmt"
)

// Kind classifies provider failures for the HTTP layer.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation covers malformed input and a provider that is not ready.
	KindValidation
	// KindNotFound means the symbol could not be resolved upstream.
	KindNotFound
	// KindUpstream covers empty snapshots, extraction and transport failures.
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

var (
	ErrNotReady    = errors.New("provider not logged in")
	ErrNoSession   = errors.New("provider session not initialized")
	ErrEmptySymbol = errors.New("symbol cannot be empty")
)

// Error is the only error type providers return. Upstream causes are kept as
// text so callers never see an SDK-specific error value.
type Error struct {
	Kind   Kind
	Symbol string
	Reason string
	// sentinel is one of the package-level Err* values, if any.
	sentinel error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("stock symbol %s not found", e.Symbol)
	case KindUpstream:
		return fmt.Sprintf("failed to get quote for %s: %s", e.Symbol, e.Reason)
	default:
		return e.Reason
	}
}

// Is lets errors.Is match the sentinel a precondition error was built from.
func (e *Error) Is(target error) bool {
	return e.sentinel != nil && e.sentinel == target
}

// Invalid returns a validation error for a failed precondition.
func Invalid(symbol string, sentinel error) *Error {
	return &Error{Kind: KindValidation, Symbol: symbol, Reason: sentinel.Error(), sentinel: sentinel}
}

// NotFound returns an error for a symbol the upstream does not know.
func NotFound(symbol string) *Error {
	return &Error{Kind: KindNotFound, Symbol: symbol}
}

// Upstream wraps cause into an upstream error for symbol. Only the text of
// cause is retained.
func Upstream(symbol string, cause error) *Error {
	reason := "unknown error"
	if cause != nil {
		reason = cause.Error()
	}
	return &Error{Kind: KindUpstream, Symbol: symbol, Reason: reason}
}

// KindOf reports the Kind of err, or KindUnknown if err is not a provider error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}
