package entity

import (
	"fmt"
	"strconv"
)

// Error codes attached to a SourceError.
const (
	CodeNoResponse    = "NO_RESPONSE"
	CodeRequestError  = "REQUEST_ERROR"
	CodeDecodeError   = "DECODE_ERROR"
	CodeProviderError = "PROVIDER_ERROR"
	CodeCircuitOpen   = "CIRCUIT_OPEN"
)

// HTTPStatusCode returns the code used for an upstream non-2xx status, e.g. "HTTP_503".
func HTTPStatusCode(status int) string {
	return "HTTP_" + strconv.Itoa(status)
}

// SourceError describes why one provider failed to contribute to an aggregation.
// It is data: a partial failure is reported next to the articles, not instead of them.
type SourceError struct {
	Source    string `json:"source"`
	Message   string `json:"message"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`

	cause error
}

// NewSourceError builds a SourceError wrapping cause.
func NewSourceError(source, code, message string, retryable bool, cause error) *SourceError {
	return &SourceError{
		Source:    source,
		Message:   message,
		Code:      code,
		Retryable: retryable,
		cause:     cause,
	}
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Source, e.Message, e.Code)
}

func (e *SourceError) Unwrap() error {
	return e.cause
}
