package oracle

import (
	"context"
	stderrors "errors"
	"log/slog"
	"math/rand"
	"net"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ahietala/whodunit/internal/errors"
)

// RetryPolicy bounds the transport retry loop. The delay doubles per attempt
// with uniform jitter and is clamped to MaxDelay. Timeout applies per attempt.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Timeout      time.Duration
}

// DefaultRetryPolicy matches the production tuning: three attempts, half a
// second initial backoff, capped at four seconds, thirty seconds per attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     4 * time.Second,
		Timeout:      30 * time.Second,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = def.InitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.Timeout <= 0 {
		p.Timeout = def.Timeout
	}
	return p
}

// retrier runs one upstream call under the retry policy. The sleep function is
// injectable so tests do not wait on real backoff delays.
type retrier struct {
	policy RetryPolicy
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration
}

func newRetrier(policy RetryPolicy, logger *slog.Logger) retrier {
	return retrier{
		policy: policy.withDefaults(),
		logger: logger,
		sleep:  sleepContext,
		jitter: func(max time.Duration) time.Duration {
			if max <= 0 {
				return 0
			}
			return time.Duration(rand.Int63n(int64(max)))
		},
	}
}

// do invokes call with a per-attempt timeout, retrying on transient failures
// until the policy is exhausted. The returned error wraps ErrUnavailable when
// every attempt failed with a retryable cause.
func (r retrier) do(ctx context.Context, op string, call func(ctx context.Context) error) error {
	var lastErr error
	delay := r.policy.InitialDelay

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, r.policy.Timeout)
		err := call(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return errors.Wrap(err, op, slog.Int("attempt", attempt))
		}
		if attempt == r.policy.MaxAttempts || ctx.Err() != nil {
			break
		}

		wait := delay + r.jitter(delay)
		if wait > r.policy.MaxDelay {
			wait = r.policy.MaxDelay
		}
		r.logger.LogAttrs(ctx, slog.LevelWarn, "retrying oracle call",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			errors.SlogError(err))
		if err := r.sleep(ctx, wait); err != nil {
			return errors.Wrap(err, op)
		}
		delay = min(delay*2, r.policy.MaxDelay)
	}

	return errors.Wrap(ErrUnavailable, op,
		slog.Int("attempts", r.policy.MaxAttempts),
		errors.SlogError(lastErr))
}

// retryable classifies transient upstream failures: rate limiting, server
// errors, request timeouts, and transport-level faults. Authentication and
// malformed-request errors are final.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 408, 429, 500, 502, 503, 504:
			return true
		}
		return false
	}
	var reqErr *openai.RequestError
	if stderrors.As(err, &reqErr) {
		return true
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
