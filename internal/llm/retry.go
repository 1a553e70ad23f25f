package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/abhisek/cloudverse/internal/logging"
)

// RetryProvider retries retryable failures with capped exponential backoff
// and ±20% jitter. A rate limit's Retry-After replaces the computed wait.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	logger *logging.Logger
	sleep  func(context.Context, time.Duration) error
}

// WithRetry wraps p. A nil logger discards retry warnings.
func WithRetry(p Provider, cfg RetryConfig, logger *logging.Logger) *RetryProvider {
	if logger == nil {
		logger = logging.Nop()
	}
	return &RetryProvider{inner: p, config: cfg, logger: logger, sleep: sleepCtx}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.config.MaxAttempts, 1)
	tags := tagFields(ctx)
	invalidSeen := false

	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			if attempt > 1 {
				r.logger.Info("llm request recovered", append(slices.Clip(tags), "model", r.inner.ModelID(), "attempt", attempt)...)
			}
			return resp, nil
		}

		retry := r.retryable(err, &invalidSeen)
		if !retry || attempt == attempts {
			kv := append(append(slices.Clip(tags), "model", r.inner.ModelID(), "attempt", attempt), errorFields(err)...)
			r.logger.Warn("llm request failed", kv...)
			return nil, err
		}

		wait := r.backoff(attempt, err)
		kv := append(append(slices.Clip(tags), "model", r.inner.ModelID(), "attempt", attempt, "wait", wait), errorFields(err)...)
		r.logger.Warn("llm request failed, retrying", kv...)
		if serr := r.sleep(ctx, wait); serr != nil {
			return nil, serr
		}
	}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

func (r *RetryProvider) retryable(err error, invalidSeen *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return true
	}
	if e.Kind == KindInvalidResponse {
		if *invalidSeen {
			return false
		}
		*invalidSeen = true
	}
	return e.Retryable()
}

// backoff is the wait after the given 1-based attempt failed.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var e *Error
	if errors.As(err, &e) && e.RetryAfter > 0 {
		return e.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt-1))
	wait = min(wait, float64(r.config.MaxWait))
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(max(wait, 0))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
