package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"release-radar/internal/resilience/retry"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID attaches a delivery request ID used in notifier logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RateLimitError is returned for HTTP 429. RetryAfter is the server-requested wait.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError is a non-retryable 4xx response.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError is a retryable 5xx response.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

func is429Error(err error) (*RateLimitError, bool) {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr, true
	}
	return nil, false
}

// classifyStatus turns a non-2xx status into the matching error type.
func classifyStatus(status int, retryAfter time.Duration, message string) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: retryAfter, Message: message}
	case status >= 500:
		return &ServerError{StatusCode: status, Message: message}
	default:
		return &ClientError{StatusCode: status, Message: message}
	}
}

// sendWithRetry runs send under retry.WithBackoff. A 429 is retried after the
// server's RetryAfter instead of the backoff delay; 5xx responses are retried
// with backoff; client errors end the loop.
func sendWithRetry(ctx context.Context, cfg retry.Config, send func(context.Context) error) error {
	return retry.WithBackoff(ctx, cfg, func() error {
		err := send(ctx)
		if err == nil {
			return nil
		}
		if rl, ok := is429Error(err); ok {
			return &retry.HTTPError{
				StatusCode: http.StatusTooManyRequests,
				Message:    rl.Error(),
				RetryAfter: rl.RetryAfter,
			}
		}
		var serverErr *ServerError
		if errors.As(err, &serverErr) {
			return &retry.HTTPError{StatusCode: serverErr.StatusCode, Message: serverErr.Message}
		}
		return err
	})
}
