package config

import (
	"errors"
	"fmt"
	"time"
)

// AggregatorConfig tunes one aggregation run.
type AggregatorConfig struct {
	// Timeout is the overall deadline shared by every provider call. Default 8s.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt. Default 2.
	MaxRetries int
	// RetryBackoff is the delay before the first retry; later delays double. Default 200ms.
	RetryBackoff time.Duration
	// BreakerEnabled wraps each provider in a circuit breaker. Default true.
	BreakerEnabled bool
}

// DefaultAggregatorConfig returns the production defaults.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		Timeout:        8 * time.Second,
		MaxRetries:     2,
		RetryBackoff:   200 * time.Millisecond,
		BreakerEnabled: true,
	}
}

// LoadAggregatorConfig reads AGGREGATE_* overrides on top of the defaults.
func LoadAggregatorConfig() (AggregatorConfig, error) {
	def := DefaultAggregatorConfig()
	cfg := AggregatorConfig{
		Timeout:        GetEnvDuration("AGGREGATE_TIMEOUT", def.Timeout),
		MaxRetries:     GetEnvInt("AGGREGATE_MAX_RETRIES", def.MaxRetries),
		RetryBackoff:   GetEnvDuration("AGGREGATE_RETRY_BACKOFF", def.RetryBackoff),
		BreakerEnabled: GetEnvBool("AGGREGATE_BREAKER_ENABLED", def.BreakerEnabled),
	}
	if err := cfg.Validate(); err != nil {
		return AggregatorConfig{}, err
	}
	return cfg, nil
}

// Validate checks the ranges of every field.
func (c AggregatorConfig) Validate() error {
	var errs []error
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("AGGREGATE_TIMEOUT must be positive"))
	}
	if c.MaxRetries < 0 || c.MaxRetries > 5 {
		errs = append(errs, errors.New("AGGREGATE_MAX_RETRIES must be between 0 and 5"))
	}
	if c.RetryBackoff < 0 {
		errs = append(errs, errors.New("AGGREGATE_RETRY_BACKOFF must not be negative"))
	}
	if c.RetryBackoff >= c.Timeout && c.MaxRetries > 0 {
		errs = append(errs, errors.New("AGGREGATE_RETRY_BACKOFF must be shorter than AGGREGATE_TIMEOUT"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
