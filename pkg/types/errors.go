package types

import "errors"

// ErrorCategory classifies a provider error for the retry engine,
// replacing the Python original's exception-message sniffing with an
// explicit accessor, per the "exception-driven control flow -> typed
// results" design note.
type ErrorCategory int

const (
	CategoryRetryable ErrorCategory = iota
	CategoryNonRetryable
	CategoryUnknown
)

// Categorizer is implemented by any error that knows its own retry
// category. Provider packages wrap native SDK/HTTP errors in a type
// satisfying this interface instead of string-matching error text at
// the call site.
type Categorizer interface {
	error
	Category() ErrorCategory
}

// Sentinel top-level error kinds, used with errors.Is/errors.As at
// call sites that need to distinguish fatal configuration problems
// from ordinary provider failures.
var (
	// ErrValidation marks a fatal, never-retried configuration or
	// task-file error.
	ErrValidation = errors.New("validation error")

	// ErrBackgroundUnsupported is returned by SolveBackground on any
	// provider that has no background-job mode.
	ErrBackgroundUnsupported = errors.New("provider does not support background jobs")

	// ErrPerTaskWatchdog marks a per-task hard-timeout abort.
	ErrPerTaskWatchdog = errors.New("per-task watchdog expired")

	// ErrGlobalDeadline marks a batch-wide deadline termination.
	ErrGlobalDeadline = errors.New("global deadline exceeded")
)

// ProviderError wraps a native provider error with its retry category.
type ProviderError struct {
	Cat     ErrorCategory
	Message string
	Wrapped error
}

func (e *ProviderError) Error() string { return e.Message }
func (e *ProviderError) Unwrap() error { return e.Wrapped }
func (e *ProviderError) Category() ErrorCategory { return e.Cat }

func NewRetryableError(msg string, wrapped error) *ProviderError {
	return &ProviderError{Cat: CategoryRetryable, Message: msg, Wrapped: wrapped}
}

func NewNonRetryableError(msg string, wrapped error) *ProviderError {
	return &ProviderError{Cat: CategoryNonRetryable, Message: msg, Wrapped: wrapped}
}

func NewUnknownError(msg string, wrapped error) *ProviderError {
	return &ProviderError{Cat: CategoryUnknown, Message: msg, Wrapped: wrapped}
}

// CategoryOf extracts the ErrorCategory from err, defaulting to
// CategoryUnknown for errors that don't implement Categorizer (the
// spec's "Unknown ... treated as retryable but logged loudly").
func CategoryOf(err error) ErrorCategory {
	var c Categorizer
	if errors.As(err, &c) {
		return c.Category()
	}
	return CategoryUnknown
}
