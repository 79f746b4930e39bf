// Package aggregate fans one category/location query out to every configured news
// provider and merges what comes back into a single deduplicated, newest-first list,
// reporting failed providers next to the articles instead of failing the call.
package aggregate

import "errors"

// Sentinel errors for caller mistakes. Provider failures are never returned as errors.
var (
	// ErrInvalidQuery wraps catalog validation failures of the category or location.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrNoProviders means the service was built without any enabled provider.
	ErrNoProviders = errors.New("no providers configured")
)
