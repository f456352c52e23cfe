package oracle

import (
	"context"
	stderrors "errors"
	"io"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/ahietala/whodunit/internal/testhelpers"
)

func testRetrier(policy RetryPolicy) (retrier, *[]time.Duration) {
	slept := &[]time.Duration{}
	r := newRetrier(policy, testhelpers.NewLogger(io.Discard))
	r.sleep = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	r.jitter = func(time.Duration) time.Duration { return 0 }
	return r, slept
}

func TestRetrierRecoversFromTransientFailures(t *testing.T) {
	r, slept := testRetrier(RetryPolicy{MaxAttempts: 3, InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second})

	attempts := 0
	err := r.do(context.Background(), "test op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return &openai.APIError{HTTPStatusCode: 503, Message: "overloaded"}
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, attempts)
	require.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *slept)
}

func TestRetrierDoublesAndClampsDelay(t *testing.T) {
	r, slept := testRetrier(RetryPolicy{MaxAttempts: 5, InitialDelay: 100 * time.Millisecond, MaxDelay: 250 * time.Millisecond})

	err := r.do(context.Background(), "test op", func(context.Context) error {
		return &openai.APIError{HTTPStatusCode: 429}
	})

	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		250 * time.Millisecond,
		250 * time.Millisecond,
	}, *slept)
}

func TestRetrierStopsOnFatalError(t *testing.T) {
	r, slept := testRetrier(RetryPolicy{MaxAttempts: 3})

	attempts := 0
	err := r.do(context.Background(), "test op", func(context.Context) error {
		attempts++
		return &openai.APIError{HTTPStatusCode: 401, Message: "bad key"}
	})

	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnavailable)
	require.Equal(t, 1, attempts)
	require.Empty(t, *slept)

	var apiErr *openai.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 401, apiErr.HTTPStatusCode)
}

func TestRetrierExhaustionWrapsUnavailable(t *testing.T) {
	r, _ := testRetrier(RetryPolicy{MaxAttempts: 3})

	attempts := 0
	err := r.do(context.Background(), "test op", func(context.Context) error {
		attempts++
		return context.DeadlineExceeded
	})

	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, 3, attempts)
}

func TestRetrierRespectsCallerCancellation(t *testing.T) {
	r, _ := testRetrier(RetryPolicy{MaxAttempts: 5})

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := r.do(ctx, "test op", func(context.Context) error {
		attempts++
		cancel()
		return &openai.APIError{HTTPStatusCode: 503}
	})

	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, 1, attempts)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &openai.APIError{HTTPStatusCode: 429}, true},
		{"server error", &openai.APIError{HTTPStatusCode: 500}, true},
		{"bad gateway", &openai.APIError{HTTPStatusCode: 502}, true},
		{"service unavailable", &openai.APIError{HTTPStatusCode: 503}, true},
		{"gateway timeout", &openai.APIError{HTTPStatusCode: 504}, true},
		{"request timeout", &openai.APIError{HTTPStatusCode: 408}, true},
		{"unauthorized", &openai.APIError{HTTPStatusCode: 401}, false},
		{"bad request", &openai.APIError{HTTPStatusCode: 400}, false},
		{"transport failure", &openai.RequestError{Err: stderrors.New("connection reset")}, true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"plain error", stderrors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, retryable(tt.err))
		})
	}
}
