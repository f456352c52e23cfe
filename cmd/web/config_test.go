package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ahietala/whodunit/internal/oracle"
	"github.com/ahietala/whodunit/internal/testhelpers"
)

func TestRetryPolicyFromEnvKnobs(t *testing.T) {
	t.Parallel()

	cfg := config{
		OracleMaxAttempts:  "5",
		OracleInitialDelay: "250ms",
		OracleMaxDelay:     "2s",
		OracleTimeout:      "10s",
	}
	policy, err := cfg.retryPolicy()
	require.NoError(t, err)
	require.Equal(t, oracle.RetryPolicy{
		MaxAttempts:  5,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Timeout:      10 * time.Second,
	}, policy)
}

func TestRetryPolicyUnsetKnobsStayZero(t *testing.T) {
	t.Parallel()

	// Zero fields are filled with the package defaults downstream.
	policy, err := config{}.retryPolicy()
	require.NoError(t, err)
	require.Equal(t, oracle.RetryPolicy{}, policy)

	partial, err := config{OracleMaxAttempts: "7"}.retryPolicy()
	require.NoError(t, err)
	require.Equal(t, oracle.RetryPolicy{MaxAttempts: 7}, partial)
}

func TestRetryPolicyRejectsMalformedKnobs(t *testing.T) {
	t.Parallel()

	_, err := config{OracleMaxAttempts: "lots"}.retryPolicy()
	require.Error(t, err)

	_, err = config{OracleMaxDelay: "soon"}.retryPolicy()
	require.Error(t, err)
}

func TestRunRejectsMalformedRetryConfig(t *testing.T) {
	t.Parallel()

	lookupEnv := func(key string) (string, bool) {
		if key == "WHODUNIT_ORACLE_MAX_DELAY" {
			return "soon", true
		}
		return testLookupEnv(key)
	}
	err := run(context.Background(), testhelpers.NewLogger(io.Discard), lookupEnv)
	require.Error(t, err)
}
