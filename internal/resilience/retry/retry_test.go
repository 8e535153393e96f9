package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quick mirrors the notifier presets with millisecond delays.
func quick(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestWithBackoff(t *testing.T) {
	tests := []struct {
		name      string
		responses []error
		attempts  int
		wantCalls int
		wantErr   bool
	}{
		{
			name:      "sent first time",
			responses: []error{nil},
			attempts:  3,
			wantCalls: 1,
		},
		{
			name: "telegram 502 then ok",
			responses: []error{
				&HTTPError{StatusCode: http.StatusBadGateway, Message: "Bad Gateway"},
				nil,
			},
			attempts:  3,
			wantCalls: 2,
		},
		{
			name: "discord 500 on every attempt",
			responses: []error{
				&HTTPError{StatusCode: 500},
				&HTTPError{StatusCode: 500},
				&HTTPError{StatusCode: 500},
			},
			attempts:  3,
			wantCalls: 3,
			wantErr:   true,
		},
		{
			name:      "bot blocked is final",
			responses: []error{&HTTPError{StatusCode: http.StatusForbidden, Message: "Forbidden: bot was blocked by the user"}},
			attempts:  3,
			wantCalls: 1,
			wantErr:   true,
		},
		{
			name:      "connection refused is retried",
			responses: []error{fmt.Errorf("dial: %w", syscall.ECONNREFUSED), nil},
			attempts:  3,
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithBackoff(context.Background(), quick(tt.attempts), func() error {
				r := tt.responses[calls]
				calls++
				return r
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithBackoff_ExhaustedWrapsLastError(t *testing.T) {
	last := &HTTPError{StatusCode: http.StatusServiceUnavailable, Message: "down"}

	err := WithBackoff(context.Background(), quick(2), func() error { return last })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retry attempts (2) exceeded")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Same(t, last, httpErr)
}

func TestWithBackoff_RetryAfterReplacesBackoff(t *testing.T) {
	cfg := quick(3)
	cfg.InitialDelay = time.Hour
	cfg.MaxDelay = time.Hour

	calls := 0
	start := time.Now()
	err := WithBackoff(context.Background(), cfg, func() error {
		calls++
		if calls == 1 {
			return &HTTPError{StatusCode: http.StatusTooManyRequests, RetryAfter: 15 * time.Millisecond}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWithBackoff_NoWaitAfterLastAttempt(t *testing.T) {
	start := time.Now()
	err := WithBackoff(context.Background(), quick(1), func() error {
		return &HTTPError{StatusCode: http.StatusTooManyRequests, RetryAfter: time.Hour}
	})

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWithBackoff_CancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := WithBackoff(ctx, quick(5), func() error {
		calls++
		cancel()
		return &HTTPError{StatusCode: http.StatusTooManyRequests, RetryAfter: time.Hour}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "deadline", err: fmt.Errorf("send: %w", context.DeadlineExceeded), want: false},
		{name: "connection reset", err: syscall.ECONNRESET, want: true},
		{name: "network unreachable", err: syscall.ENETUNREACH, want: true},
		{name: "429", err: &HTTPError{StatusCode: http.StatusTooManyRequests}, want: true},
		{name: "408", err: &HTTPError{StatusCode: http.StatusRequestTimeout}, want: true},
		{name: "503", err: &HTTPError{StatusCode: http.StatusServiceUnavailable}, want: true},
		{name: "404 unknown webhook", err: &HTTPError{StatusCode: http.StatusNotFound}, want: false},
		{name: "plain error", err: errors.New("chat not found"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestPresets(t *testing.T) {
	telegram := TelegramConfig()
	assert.Equal(t, 3, telegram.MaxAttempts)
	assert.Equal(t, time.Second, telegram.InitialDelay)
	assert.LessOrEqual(t, telegram.InitialDelay, telegram.MaxDelay)

	discord := DiscordConfig()
	assert.Equal(t, 3, discord.MaxAttempts)
	assert.Equal(t, 5*time.Second, discord.InitialDelay)
	assert.Equal(t, 20*time.Second, discord.MaxDelay)
}

func TestAddJitter(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 20; i++ {
		got := addJitter(base, 0.1)
		assert.GreaterOrEqual(t, got, base)
		assert.LessOrEqual(t, got, 110*time.Millisecond)
	}
	assert.Equal(t, base, addJitter(base, 0))
}

func TestHTTPError_Error(t *testing.T) {
	assert.Equal(t, "HTTP 429: Too Many Requests", (&HTTPError{StatusCode: 429, Message: "Too Many Requests"}).Error())
}
