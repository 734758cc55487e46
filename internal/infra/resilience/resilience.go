// Package resilience provides fault-tolerance patterns for the card-network call:
// retry with exponential backoff, circuit breaker, and bulkhead.
package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
)

// Config holds resilience parameters.
// MaxRetries is the number of extra attempts; zero means a single attempt.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Retryable reports whether a failed attempt may be repeated. Nil retries everything.
	Retryable func(err error) bool
}

// RetryWithBackoff executes fn with exponential backoff + jitter.
// It respects context cancellation and stops early on non-retryable errors.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if cfg.Retryable != nil && !cfg.Retryable(lastErr) {
			return lastErr
		}

		if attempt < cfg.MaxRetries {
			wait := time.Duration(math.Pow(2, float64(attempt))) * cfg.InitialBackoff
			if half := int64(wait / 2); half > 0 {
				wait += time.Duration(rand.Int63n(half))
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return lastErr
}

// BreakerSettings tunes NewCircuitBreaker. Nil funcs fall back to gobreaker defaults.
type BreakerSettings struct {
	// IsSuccessful decides whether an error returned through the breaker counts as a failure.
	IsSuccessful  func(err error) bool
	OnStateChange func(name string, from, to gobreaker.State)
}

// NewCircuitBreaker creates a circuit breaker: trips at >=60% failures over >=5 requests,
// half-opens after 10s and lets 3 probes through.
func NewCircuitBreaker(name string, s BreakerSettings) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful:  s.IsSuccessful,
		OnStateChange: s.OnStateChange,
	})
}

// Bulkhead limits concurrent access to a resource.
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead creates a bulkhead with the given max concurrency (minimum 1).
func NewBulkhead(maxConcurrency int) *Bulkhead {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Bulkhead{sem: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot is available or context is cancelled.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (b *Bulkhead) Release() {
	<-b.sem
}

// InFlight reports how many slots are taken.
func (b *Bulkhead) InFlight() int {
	return len(b.sem)
}
