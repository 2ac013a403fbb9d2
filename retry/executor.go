// Package retry wraps unary request/response exchanges with an
// idempotency-aware backoff and retry policy: bounded exponential backoff
// with jitter, a hard elapsed-time budget, and immediate surfacing of
// non-retryable failures.
package retry

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/mgarolera/cloud-bigtable-client/telemetry"
)

// Executor issues operations under the configured policy. It is safe for
// concurrent use; each Execute invocation owns its own retry state.
type Executor struct {
	policy  Policy
	logger  zerolog.Logger
	metrics *telemetry.Metrics

	// sleep is swappable so tests can observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

type Config struct {
	Policy Policy
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
	// Metrics defaults to the noop bundle.
	Metrics *telemetry.Metrics
}

// New returns an executor for cfg, with defaults applied to zero policy
// fields.
func New(cfg *Config) (*Executor, error) {
	policy := cfg.Policy
	policy.applyDefaults()
	if err := policy.validate(); err != nil {
		return nil, err
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.Nop()
	}
	return &Executor{
		policy:  policy,
		logger:  logger,
		metrics: metrics,
		sleep:   sleepCtx,
	}, nil
}

// Policy returns the executor's effective policy, defaults applied.
func (e *Executor) Policy() Policy {
	return e.policy
}

// Execute runs op, retrying transient failures when the policy allows and the
// caller's retryability predicate held (retryable). The operation must issue
// an identical request on every attempt; op receives the caller's ctx so
// abandoning the call cancels the in-flight attempt.
//
// Terminal outcomes: nil on success, the attempt's error unwrapped when it is
// non-retryable, *ExhaustedError once the elapsed budget is consumed, or
// ctx.Err() when the caller gives up first.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error, retryable bool) error {
	if !e.policy.Enabled || !retryable {
		return op(ctx)
	}

	start := time.Now()
	backoff := e.policy.InitialBackoff
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if !Retryable(err) {
			return err
		}
		elapsed := time.Since(start)
		if elapsed >= e.policy.MaxElapsed {
			return &ExhaustedError{Attempts: attempt, Elapsed: elapsed, Last: err}
		}

		wait := Jitter(backoff)
		e.logger.Debug().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("retrying after transient failure")
		e.metrics.RetryAttempts.Add(ctx, 1)

		if sleepErr := e.sleep(ctx, wait); sleepErr != nil {
			return sleepErr
		}
		backoff = min(backoff*2, e.policy.MaxBackoff)
	}
}

// Value runs op under exec.Execute and returns its result.
func Value[T any](ctx context.Context, exec *Executor, op func(context.Context) (T, error), retryable bool) (T, error) {
	var out T
	err := exec.Execute(ctx, func(ctx context.Context) error {
		v, opErr := op(ctx)
		if opErr != nil {
			return opErr
		}
		out = v
		return nil
	}, retryable)
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Jitter spreads a backoff interval over [d, 2d) so synchronized callers do
// not retry in lockstep. The lower bound keeps successive waits
// non-decreasing while the base is still doubling.
func Jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	return d + rand.N(d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
