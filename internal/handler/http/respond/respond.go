// Package respond writes JSON responses. Error bodies use the GraphQL error shape
// ({"errors":[{"message", "extensions":{"code"}}]}) so API clients parse one format.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes of caller and server errors.
const (
	CodeBadRequest = "BAD_REQUEST"
	CodeInternal   = "INTERNAL_SERVER_ERROR"
)

// ErrorBody is a GraphQL-shaped error response.
type ErrorBody struct {
	Errors []ErrorItem `json:"errors"`
}

// ErrorItem is one entry of ErrorBody.
type ErrorItem struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions"`
}

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// headers are already sent
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// Error writes a single GraphQL-shaped error with code in its extensions.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorBody{Errors: []ErrorItem{{
		Message:    message,
		Extensions: map[string]any{"code": code},
	}}})
}

// InternalError logs err with secrets masked and answers 500 with a generic message.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("internal server error", slog.String("error", SanitizeError(err)))
	Error(w, http.StatusInternalServerError, CodeInternal, "internal server error")
}
