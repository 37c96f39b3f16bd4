package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okunev/passvault/internal/crypto"
	"github.com/okunev/passvault/internal/store"
	"github.com/okunev/passvault/internal/vault"
)

func fastPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
	}
}

func TestRetryable_Taxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network transient", ErrNetworkTransient, true},
		{"wrapped network transient", fmt.Errorf("push: %w", ErrNetworkTransient), true},
		{"retry-after hint", &RetryAfterError{After: time.Second, Err: ErrNetworkTransient}, true},
		{"storage io", store.ErrStorageIO, true},
		{"network auth", ErrNetworkAuth, false},
		{"sync not configured", ErrSyncNotConfigured, false},
		{"authentication failed", crypto.ErrAuthenticationFailed, false},
		{"invalid key size", crypto.ErrInvalidKeySize, false},
		{"vault locked", vault.ErrVaultLocked, false},
		{"storage corrupted", store.ErrStorageCorrupted, false},
		{"context canceled", context.Canceled, false},
		{"unknown", errors.New("mystery"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Retryable(tc.err))
		})
	}
}

func TestExecute_SuccessFirstTry(t *testing.T) {
	calls := 0
	err := fastPolicy().Execute(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecute_NonRetryableAttemptedOnce(t *testing.T) {
	calls := 0
	err := fastPolicy().Execute(context.Background(), func(context.Context) error {
		calls++
		return ErrNetworkAuth
	})

	require.ErrorIs(t, err, ErrNetworkAuth)
	assert.Equal(t, 1, calls, "non-retryable errors must not be retried")
}

func TestExecute_RetryableExhaustsAttempts(t *testing.T) {
	calls := 0
	err := fastPolicy().Execute(context.Background(), func(context.Context) error {
		calls++
		return ErrNetworkTransient
	})

	require.ErrorIs(t, err, ErrNetworkTransient)
	assert.Equal(t, 3, calls, "retryable errors run exactly MaxAttempts times")
}

func TestExecute_RecoversMidway(t *testing.T) {
	calls := 0
	err := fastPolicy().Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return ErrNetworkTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecute_DelaysIncreaseAndCap(t *testing.T) {
	p := Policy{
		MaxAttempts: 5,
		BaseDelay:   5 * time.Millisecond,
		MaxDelay:    20 * time.Millisecond,
		// no jitter so the curve is deterministic
	}

	var stamps []time.Time
	_ = p.Execute(context.Background(), func(context.Context) error {
		stamps = append(stamps, time.Now())
		return ErrNetworkTransient
	})

	require.Len(t, stamps, 5)

	var gaps []time.Duration
	for i := 1; i < len(stamps); i++ {
		gaps = append(gaps, stamps[i].Sub(stamps[i-1]))
	}

	// Expected curve: 5, 10, 20, 20 (capped). Timers only guarantee a lower
	// bound, so assert the floor of each gap and the cap's effect via the
	// strictly increasing prefix.
	assert.GreaterOrEqual(t, gaps[0], 5*time.Millisecond)
	assert.GreaterOrEqual(t, gaps[1], 10*time.Millisecond)
	assert.GreaterOrEqual(t, gaps[2], 20*time.Millisecond)
	assert.GreaterOrEqual(t, gaps[3], 20*time.Millisecond)
	assert.Greater(t, gaps[1], gaps[0])
}

func TestExecute_HonorsRetryAfterHint(t *testing.T) {
	p := Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	hint := 50 * time.Millisecond

	var stamps []time.Time
	_ = p.Execute(context.Background(), func(context.Context) error {
		stamps = append(stamps, time.Now())
		return &RetryAfterError{After: hint, Err: ErrNetworkTransient}
	})

	require.Len(t, stamps, 2)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), hint,
		"the server hint outranks computed backoff even past MaxDelay")
}

func TestExecute_ContextCancelStopsBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	p := Policy{MaxAttempts: 10, BaseDelay: 20 * time.Millisecond, MaxDelay: 20 * time.Millisecond}
	err := p.Execute(ctx, func(context.Context) error {
		calls++
		cancel()
		return ErrNetworkTransient
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestExecute_ZeroMaxAttemptsRunsOnce(t *testing.T) {
	calls := 0
	p := Policy{}
	_ = p.Execute(context.Background(), func(context.Context) error {
		calls++
		return ErrNetworkTransient
	})
	assert.Equal(t, 1, calls)
}
