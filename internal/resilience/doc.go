// Package resilience groups the fault tolerance helpers used around news provider calls.
//
// Subpackages:
//   - circuitbreaker: per-provider breakers built on github.com/sony/gobreaker
//   - retry: exponential backoff with jitter for transient failures
//
// Typical use wraps one provider call in both, breaker outside:
//
//	cb := circuitbreaker.New(circuitbreaker.ProviderConfig("newsapi", isTransient))
//	err := retry.WithBackoff(ctx, retry.ProviderConfig(), func(ctx context.Context) error {
//	    return cb.Execute(func() error { return fetch(ctx) })
//	})
package resilience
