package httpclient

import (
	"fmt"
	"strings"

	"newshub/internal/utils/text"
)

// Kind tells apart the ways an HTTP exchange can fail.
type Kind int

const (
	// KindStatus means a response arrived with a non-2xx status.
	KindStatus Kind = iota + 1
	// KindNoResponse means the request was sent but no response arrived:
	// timeout, deadline, connection refused or reset, EOF.
	KindNoResponse
	// KindRequest means the request could not be built at all.
	KindRequest
)

func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindNoResponse:
		return "no_response"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// snippetLimit bounds the body excerpt kept on status errors.
const snippetLimit = 512

// TransportError is the only error type returned by Client.Do.
type TransportError struct {
	Kind       Kind
	Method     string
	URL        string
	StatusCode int
	Snippet    string
	Err        error
}

func (e *TransportError) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Snippet != "" {
			return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Snippet)
		}
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	case KindNoResponse:
		return fmt.Sprintf("%s %s: no response: %v", e.Method, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s %s: invalid request: %v", e.Method, e.URL, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatus returns the response status, or 0 when no response arrived.
func (e *TransportError) HTTPStatus() int {
	if e.Kind != KindStatus {
		return 0
	}
	return e.StatusCode
}

func snippet(body []byte) string {
	s := text.CollapseWhitespace(strings.ToValidUTF8(string(body), ""))
	if len(s) > snippetLimit {
		s = s[:snippetLimit]
		s = strings.ToValidUTF8(s, "")
	}
	return s
}
