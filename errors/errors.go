// Package errors defines the sentinel error taxonomy shared by every
// pipeline stage. Callers classify failures with errors.Is and translate
// them to wire-level codes with Code.
package errors

import "errors"

// Sentinel errors for pipeline failure conditions
var (
	// ErrConfiguration indicates a required dependency is not configured.
	// Fatal, surfaced immediately, never retried.
	ErrConfiguration = errors.New("required dependency not configured")

	// ErrUpstreamTimeout indicates an external call exceeded its budget.
	ErrUpstreamTimeout = errors.New("upstream call timed out")

	// ErrUpstreamFailure indicates an external call returned an error.
	ErrUpstreamFailure = errors.New("upstream call failed")

	// ErrParse indicates model output was not in the expected structure.
	ErrParse = errors.New("model output could not be parsed")

	// ErrValidation indicates a structural or tonal violation survived repair.
	ErrValidation = errors.New("generated content failed validation")

	// ErrEmptyContext indicates grounding was required but nothing was
	// retrieved. Expected outcome, not a bug; the engine answers with the
	// insufficient-information sentinel instead of failing.
	ErrEmptyContext = errors.New("no grounding context retrieved")
)

// Code maps an error to the stable code exposed on the wire. Unknown errors
// map to "InternalError" so callers never see raw error text as a code.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "ConfigurationError"
	case errors.Is(err, ErrUpstreamTimeout):
		return "UpstreamTimeout"
	case errors.Is(err, ErrUpstreamFailure):
		return "UpstreamFailure"
	case errors.Is(err, ErrParse):
		return "ParseError"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrEmptyContext):
		return "EmptyContextError"
	default:
		return "InternalError"
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }
