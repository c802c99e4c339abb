package resilience

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2,
	}
}

func TestDoVal(t *testing.T) {
	t.Parallel()

	t.Run("succeeds first try", func(t *testing.T) {
		t.Parallel()
		calls := 0
		val, err := DoVal(context.Background(), fastConfig(), func(ctx context.Context) (int, error) {
			calls++
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, val)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient errors", func(t *testing.T) {
		t.Parallel()
		calls := 0
		val, err := DoVal(context.Background(), fastConfig(), func(ctx context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", NewTransientError(errors.New("rate limited"), 429)
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", val)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error fails immediately", func(t *testing.T) {
		t.Parallel()
		calls := 0
		boom := errors.New("bad request")
		_, err := DoVal(context.Background(), fastConfig(), func(ctx context.Context) (int, error) {
			calls++
			return 0, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		t.Parallel()
		calls := 0
		_, err := DoVal(context.Background(), fastConfig(), func(ctx context.Context) (int, error) {
			calls++
			return 0, NewTransientError(errors.New("still down"), 503)
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := DoVal(ctx, fastConfig(), func(ctx context.Context) (int, error) {
			calls++
			cancel()
			return 0, NewTransientError(errors.New("down"), 0)
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("custom ShouldRetry", func(t *testing.T) {
		t.Parallel()
		cfg := fastConfig()
		cfg.ShouldRetry = func(err error) bool { return true }

		calls := 0
		_, err := DoVal(context.Background(), cfg, func(ctx context.Context) (int, error) {
			calls++
			return 0, errors.New("not normally retryable")
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("OnRetry called before each sleep", func(t *testing.T) {
		t.Parallel()
		cfg := fastConfig()
		var attempts []int
		cfg.OnRetry = func(attempt int, err error) {
			attempts = append(attempts, attempt)
		}

		_, _ = DoVal(context.Background(), cfg, func(ctx context.Context) (int, error) {
			return 0, NewTransientError(errors.New("down"), 0)
		})
		assert.Equal(t, []int{1, 2}, attempts)
	})
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("validation failed")))
	assert.True(t, IsTransient(NewTransientError(errors.New("x"), 500)))
	assert.True(t, IsTransient(syscall.ECONNRESET))
	assert.True(t, IsTransient(syscall.ECONNREFUSED))
	assert.True(t, IsTransient(errors.New("read tcp: connection reset by peer")))
	assert.True(t, IsTransient(errors.New("dial tcp: i/o timeout")))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	t.Parallel()

	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "code %d", code)
	}
	for _, code := range []int{200, 201, 301, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "code %d", code)
	}
}
