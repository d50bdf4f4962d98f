package helpers

import "fmt"

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type PipelineError struct {
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As checks at the call sites.
type ConfigurationError struct{ PipelineError }
type ConnectionError struct{ PipelineError }
type FetchError struct{ PipelineError }
type RateLimitError struct{ PipelineError }
type QueryError struct{ PipelineError }

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewConfigurationError(msg string, cause error) *ConfigurationError {
	return &ConfigurationError{PipelineError{Message: msg, Cause: cause}}
}

func NewConnectionError(msg string, cause error) *ConnectionError {
	return &ConnectionError{PipelineError{Message: msg, Cause: cause}}
}

func NewFetchError(msg string, cause error) *FetchError {
	return &FetchError{PipelineError{Message: msg, Cause: cause}}
}

func NewRateLimitError(source string, used, limit, windowHours int) *RateLimitError {
	return &RateLimitError{PipelineError{
		Message: fmt.Sprintf("quota exceeded for %s: %d/%d calls in the last %dh", source, used, limit, windowHours),
	}}
}

func NewQueryError(msg string, cause error) *QueryError {
	return &QueryError{PipelineError{Message: msg, Cause: cause}}
}
