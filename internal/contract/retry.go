package contract

import (
	"context"

	"github.com/cenkalti/backoff/v4"
)

// Retry runs op with exponential backoff per the configured retry policy.
// Only errors classified transient (see IsTransient) are retried; anything
// else is raised immediately. The context bounds the whole attempt series.
func Retry[T any](ctx context.Context, cfg *Config, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialBackoff
	b.Multiplier = cfg.BackoffFactor
	b.MaxInterval = cfg.MaxBackoff
	b.RandomizationFactor = 0 // strictly increasing delays

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(cfg.MaxRetries)), ctx)

	return backoff.RetryWithData(func() (T, error) {
		v, err := op()
		if err != nil && !IsTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, policy)
}
