package aggregate

import (
	"newshub/internal/domain/entity"
)

// CodeAllProvidersFailed is the GraphQL extension code of a total failure.
const CodeAllProvidersFailed = "ALL_PROVIDERS_FAILED"

// Result is the outcome of one aggregation.
// Both slices are always non-nil so they encode as JSON arrays.
type Result struct {
	Articles []entity.Article      `json:"articles"`
	Errors   []*entity.SourceError `json:"errors"`

	providers int
}

// AllFailed reports whether every provider failed.
func (r *Result) AllFailed() bool {
	return r.providers > 0 && len(r.Errors) == r.providers
}

// GraphQLError is the error shape the API layer exposes to clients.
type GraphQLError struct {
	Message    string            `json:"message"`
	Extensions GraphQLExtensions `json:"extensions"`
}

// GraphQLExtensions carries the machine-readable part of a GraphQLError.
type GraphQLExtensions struct {
	Code      string `json:"code"`
	Source    string `json:"source,omitempty"`
	Retryable bool   `json:"retryable"`
}

// GraphQLErrors converts the per-provider errors, in provider order.
func (r *Result) GraphQLErrors() []GraphQLError {
	out := make([]GraphQLError, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, GraphQLError{
			Message: e.Message,
			Extensions: GraphQLExtensions{
				Code:      e.Code,
				Source:    e.Source,
				Retryable: e.Retryable,
			},
		})
	}
	return out
}

// TotalFailure returns the summary error for a result where every provider failed,
// or nil otherwise. It is retryable when at least one provider failure was.
func (r *Result) TotalFailure() *GraphQLError {
	if !r.AllFailed() {
		return nil
	}
	retryable := false
	for _, e := range r.Errors {
		if e.Retryable {
			retryable = true
			break
		}
	}
	return &GraphQLError{
		Message: "all news providers failed",
		Extensions: GraphQLExtensions{
			Code:      CodeAllProvidersFailed,
			Retryable: retryable,
		},
	}
}
