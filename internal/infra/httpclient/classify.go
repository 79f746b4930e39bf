package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"newshub/internal/domain/entity"
	"newshub/internal/resilience/circuitbreaker"
	"newshub/internal/resilience/retry"
)

// Classify maps any error from a provider call onto a source error.
// It is pure and idempotent: a *entity.SourceError anywhere in the chain is returned as is.
func Classify(source string, err error) *entity.SourceError {
	if err == nil {
		return nil
	}

	var se *entity.SourceError
	if errors.As(err, &se) {
		return se
	}

	if circuitbreaker.IsRejected(err) {
		return entity.NewSourceError(source, entity.CodeCircuitOpen,
			fmt.Sprintf("circuit open: %v", err), false, err)
	}

	var te *TransportError
	if errors.As(err, &te) {
		switch te.Kind {
		case KindStatus:
			msg := fmt.Sprintf("HTTP %d %s", te.StatusCode, http.StatusText(te.StatusCode))
			if te.Snippet != "" {
				msg += ": " + te.Snippet
			}
			return entity.NewSourceError(source, entity.HTTPStatusCode(te.StatusCode),
				msg, retry.IsRetryableStatus(te.StatusCode), err)
		case KindNoResponse:
			return entity.NewSourceError(source, entity.CodeNoResponse,
				fmt.Sprintf("no response: %v", te.Err), !errors.Is(err, context.Canceled), err)
		case KindRequest:
			return entity.NewSourceError(source, entity.CodeRequestError,
				fmt.Sprintf("invalid request: %v", te.Err), false, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return entity.NewSourceError(source, entity.CodeNoResponse,
			fmt.Sprintf("no response: %v", err), true, err)
	}
	if errors.Is(err, context.Canceled) {
		return entity.NewSourceError(source, entity.CodeNoResponse,
			fmt.Sprintf("no response: %v", err), false, err)
	}

	return entity.NewSourceError(source, entity.CodeRequestError,
		fmt.Sprintf("request failed: %v", err), false, err)
}

// IsTransient reports whether err, once classified, is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return Classify("", err).Retryable
}
