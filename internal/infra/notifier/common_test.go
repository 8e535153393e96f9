package notifier

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	_, ok := is429Error(classifyStatus(http.StatusTooManyRequests, 2*time.Second, "slow down"))
	assert.True(t, ok)

	var se *ServerError
	assert.True(t, errors.As(classifyStatus(http.StatusInternalServerError, 0, "boom"), &se))

	var ce *ClientError
	assert.True(t, errors.As(classifyStatus(http.StatusForbidden, 0, "nope"), &ce))
	assert.Equal(t, http.StatusForbidden, ce.StatusCode)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "rate limit exceeded (retry after 2s)", (&RateLimitError{RetryAfter: 2 * time.Second}).Error())
	assert.Equal(t, "slow (retry after 1s)", (&RateLimitError{RetryAfter: time.Second, Message: "slow"}).Error())
	assert.Equal(t, "bad", (&ClientError{Message: "bad"}).Error())
	assert.Equal(t, "down", (&ServerError{Message: "down"}).Error())
}

func TestSendWithRetry(t *testing.T) {
	t.Run("waits out rate limit", func(t *testing.T) {
		var calls atomic.Int32
		err := sendWithRetry(context.Background(), fastRetry(), func(context.Context) error {
			if calls.Add(1) == 1 {
				return &RateLimitError{RetryAfter: 5 * time.Millisecond}
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("client error stops immediately", func(t *testing.T) {
		var calls atomic.Int32
		err := sendWithRetry(context.Background(), fastRetry(), func(context.Context) error {
			calls.Add(1)
			return &ClientError{StatusCode: 400, Message: "bad request"}
		})
		var ce *ClientError
		assert.True(t, errors.As(err, &ce))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("rate limit wait replaces backoff", func(t *testing.T) {
		cfg := fastRetry()
		cfg.InitialDelay = time.Hour
		cfg.MaxDelay = time.Hour
		var calls atomic.Int32
		start := time.Now()
		err := sendWithRetry(context.Background(), cfg, func(context.Context) error {
			if calls.Add(1) == 1 {
				return &RateLimitError{RetryAfter: 20 * time.Millisecond}
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("last attempt does not wait", func(t *testing.T) {
		cfg := fastRetry()
		cfg.MaxAttempts = 2
		var calls atomic.Int32
		start := time.Now()
		err := sendWithRetry(context.Background(), cfg, func(context.Context) error {
			if calls.Add(1) == 1 {
				return &RateLimitError{RetryAfter: 10 * time.Millisecond}
			}
			return &RateLimitError{RetryAfter: time.Hour}
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max retry attempts (2) exceeded")
		assert.Equal(t, int32(2), calls.Load())
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("cancelled during rate limit wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		err := sendWithRetry(ctx, fastRetry(), func(context.Context) error {
			cancel()
			return &RateLimitError{RetryAfter: time.Hour}
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", requestIDFrom(ctx))
	assert.Empty(t, requestIDFrom(context.Background()))
}
