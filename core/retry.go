package core

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// BackoffPolicy governs the spacing and total time budget of retries.
// It is a plain value; every call derives fresh retry state from it with NewBackOff.
type BackoffPolicy struct {
	// InitialInterval is the first delay before jitter.
	InitialInterval time.Duration
	// Multiplier grows the interval after each retry.
	Multiplier float64
	// RandomizationFactor jitters each delay uniformly within interval*(1±factor).
	RandomizationFactor float64
	// MaxElapsedTime bounds the sum of all sleeps. Zero still allows one attempt.
	MaxElapsedTime time.Duration
}

// DefaultBackoffPolicy tolerates the API's documented overload windows:
// 15s initial interval, doubling, 5% jitter, two minutes in total.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		InitialInterval:     15 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.05,
		MaxElapsedTime:      120 * time.Second,
	}
}

// normalized fills invalid fields with defaults.
func (p BackoffPolicy) normalized() BackoffPolicy {
	def := DefaultBackoffPolicy()
	if p.InitialInterval <= 0 {
		p.InitialInterval = def.InitialInterval
	}
	if p.Multiplier < 1 {
		p.Multiplier = def.Multiplier
	}
	if p.RandomizationFactor < 0 || p.RandomizationFactor > 1 {
		p.RandomizationFactor = def.RandomizationFactor
	}
	if p.MaxElapsedTime < 0 {
		p.MaxElapsedTime = 0
	}
	return p
}

// NewBackOff returns fresh retry state for a single call.
// The returned value must not be shared between calls.
func (p BackoffPolicy) NewBackOff() backoff.BackOff {
	p = p.normalized()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.Multiplier = p.Multiplier
	exp.RandomizationFactor = p.RandomizationFactor
	exp.MaxInterval = time.Duration(math.MaxInt64)
	// The budget below counts slept time, not wall time, so the inner
	// wall-clock limit is disabled.
	exp.MaxElapsedTime = 0
	exp.Reset()

	return &budgetBackOff{inner: exp, budget: p.MaxElapsedTime}
}

// budgetBackOff stops once the next sleep would push the accumulated sleep
// time past the budget.
type budgetBackOff struct {
	inner   *backoff.ExponentialBackOff
	budget  time.Duration
	elapsed time.Duration
}

func (b *budgetBackOff) NextBackOff() time.Duration {
	next := b.inner.NextBackOff()
	if next == backoff.Stop || b.elapsed+next > b.budget {
		return backoff.Stop
	}
	b.elapsed += next
	return next
}

func (b *budgetBackOff) Reset() {
	b.inner.Reset()
	b.elapsed = 0
}

// Elapsed returns the total sleep time granted so far.
func (b *budgetBackOff) Elapsed() time.Duration {
	return b.elapsed
}
