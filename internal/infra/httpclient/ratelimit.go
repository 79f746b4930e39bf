package httpclient

import "golang.org/x/time/rate"

// NewLimiter returns a token bucket allowing requestsPerSecond sustained and burst
// at once, or nil (no limit) when requestsPerSecond is not positive.
// Burst defaults to 1.
func NewLimiter(requestsPerSecond float64, burst int) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}
