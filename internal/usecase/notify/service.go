package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"release-radar/internal/domain/entity"
	"release-radar/internal/infra/notifier"
	"release-radar/internal/resilience/circuitbreaker"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

const (
	defaultWorkerPoolTimeout   = 5 * time.Second  // Timeout for acquiring worker slot
	defaultNotificationTimeout = 30 * time.Second // Timeout for one channel send
)

// Service delivers releases and status messages to the configured channels.
type Service interface {
	// Deliver sends release to every enabled channel concurrently and waits
	// for all of them. It returns nil when at least one primary channel
	// succeeded (or, without primary channels, any mirror). Otherwise the
	// error wraps entity.ErrDeliveryFailed and every channel error.
	Deliver(ctx context.Context, recipient entity.Recipient, release *entity.Release) error

	// SendStatus sends a progress message through every enabled StatusChannel.
	SendStatus(ctx context.Context, recipient entity.Recipient, text string) error

	// GetChannelHealth returns the circuit breaker state of every channel.
	GetChannelHealth() []ChannelHealthStatus

	// Shutdown cancels in-flight sends and waits for them to return.
	Shutdown(ctx context.Context) error
}

// ChannelHealthStatus represents the health status of a notification channel.
type ChannelHealthStatus struct {
	Name               string // Channel name (e.g., "telegram", "discord")
	Enabled            bool
	CircuitBreakerOpen bool
	State              string // gobreaker state: closed, half-open, open
}

type service struct {
	channels            []Channel
	workerPool          chan struct{} // Semaphore for limiting concurrent sends
	breakers            map[string]*circuitbreaker.CircuitBreaker
	wg                  sync.WaitGroup // Track in-flight sends
	shutdownCtx         context.Context
	shutdownCancel      context.CancelFunc
	workerPoolTimeout   time.Duration
	notificationTimeout time.Duration
}

// NewService creates a notification service over channels, allowing at most
// maxConcurrent sends at once across all channels.
func NewService(channels []Channel, maxConcurrent int) Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	svc := &service{
		channels:            channels,
		workerPool:          make(chan struct{}, maxConcurrent),
		breakers:            make(map[string]*circuitbreaker.CircuitBreaker, len(channels)),
		shutdownCtx:         shutdownCtx,
		shutdownCancel:      shutdownCancel,
		workerPoolTimeout:   defaultWorkerPoolTimeout,
		notificationTimeout: defaultNotificationTimeout,
	}

	enabled := 0
	for _, ch := range channels {
		cfg := circuitbreaker.NotifierConfig(ch.Name())
		cfg.IsSuccessful = countsAsSuccess
		svc.breakers[ch.Name()] = circuitbreaker.New(cfg)
		if ch.IsEnabled() {
			enabled++
		}
	}
	SetChannelsEnabled(float64(enabled))

	return svc
}

// countsAsSuccess keeps per-recipient rejections and caller cancellation from
// tripping a channel's breaker for everyone.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var clientErr *notifier.ClientError
	if errors.As(err, &clientErr) {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// Deliver implements Service.Deliver.
func (s *service) Deliver(ctx context.Context, recipient entity.Recipient, release *entity.Release) error {
	if release == nil {
		return ErrInvalidRelease
	}
	if err := release.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRelease, err)
	}

	enabled := make([]Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		if ch.IsEnabled() {
			enabled = append(enabled, ch)
		}
	}
	if len(enabled) == 0 {
		return ErrNoChannelsEnabled
	}

	requestID := uuid.New().String()
	slog.Debug("Dispatching release notification",
		slog.String("request_id", requestID),
		slog.String("chat_id", recipient.ChatID),
		slog.String("release_id", release.ID),
		slog.Int("enabled_channels", len(enabled)))

	errs := make([]error, len(enabled))
	var wg sync.WaitGroup
	for i, ch := range enabled {
		wg.Add(1)
		s.wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.wg.Done()
			errs[i] = s.notifyChannel(ctx, requestID, ch, recipient, release)
		}()
	}
	wg.Wait()

	primaries, primaryOK, anyOK := 0, false, false
	for i, ch := range enabled {
		if !isMirror(ch) {
			primaries++
			primaryOK = primaryOK || errs[i] == nil
		}
		anyOK = anyOK || errs[i] == nil
	}
	if primaryOK || (primaries == 0 && anyOK) {
		return nil
	}

	var failures []error
	for i, err := range errs {
		if err == nil || (primaries > 0 && isMirror(enabled[i])) {
			continue
		}
		failures = append(failures, fmt.Errorf("%s: %w", enabled[i].Name(), err))
	}
	return fmt.Errorf("%w: %w", entity.ErrDeliveryFailed, errors.Join(failures...))
}

// notifyChannel sends to one channel through its worker slot and breaker.
func (s *service) notifyChannel(ctx context.Context, requestID string, channel Channel, recipient entity.Recipient, release *entity.Release) (err error) {
	IncrementActiveGoroutines()
	defer DecrementActiveGoroutines()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in notification channel",
				slog.String("request_id", requestID),
				slog.String("channel", channel.Name()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("panic in channel %s: %v", channel.Name(), r)
		}
	}()

	// Acquire worker slot (with timeout to prevent blocking)
	timer := time.NewTimer(s.workerPoolTimeout)
	defer timer.Stop()
	select {
	case s.workerPool <- struct{}{}:
		defer func() { <-s.workerPool }()
	case <-timer.C:
		slog.Warn("Notification dropped: worker pool full",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()))
		RecordDropped(channel.Name(), "pool_full")
		return ErrNotificationDropped
	case <-ctx.Done():
		return ctx.Err()
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.notificationTimeout)
	defer cancel()
	stop := context.AfterFunc(s.shutdownCtx, cancel)
	defer stop()
	sendCtx = notifier.WithRequestID(sendCtx, requestID)

	startTime := time.Now()
	RecordDispatch(channel.Name())

	_, err = s.breakers[channel.Name()].Execute(func() (any, error) {
		return nil, channel.Send(sendCtx, recipient, release)
	})
	duration := time.Since(startTime)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		slog.Warn("Channel temporarily disabled due to circuit breaker",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()))
		RecordDropped(channel.Name(), "circuit_open")
		RecordCircuitBreakerRejected(channel.Name())
		return ErrCircuitBreakerOpen
	}

	if err != nil {
		RecordFailure(channel.Name(), duration)
		slog.Warn("Channel notification failed",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()),
			slog.String("chat_id", recipient.ChatID),
			slog.String("release_id", release.ID),
			slog.Duration("send_duration", duration),
			slog.Any("error", err))
		return err
	}

	RecordSuccess(channel.Name(), duration)
	slog.Info("Channel notification sent successfully",
		slog.String("request_id", requestID),
		slog.String("channel", channel.Name()),
		slog.String("chat_id", recipient.ChatID),
		slog.String("release_id", release.ID),
		slog.String("title", release.Title),
		slog.Duration("send_duration", duration))
	return nil
}

// SendStatus implements Service.SendStatus.
func (s *service) SendStatus(ctx context.Context, recipient entity.Recipient, text string) error {
	var errs []error
	for _, ch := range s.channels {
		sc, ok := ch.(StatusChannel)
		if !ok || !ch.IsEnabled() {
			continue
		}
		if err := sc.SendStatus(ctx, recipient, text); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// GetChannelHealth implements Service.GetChannelHealth.
func (s *service) GetChannelHealth() []ChannelHealthStatus {
	statuses := make([]ChannelHealthStatus, 0, len(s.channels))
	for _, ch := range s.channels {
		cb := s.breakers[ch.Name()]
		statuses = append(statuses, ChannelHealthStatus{
			Name:               ch.Name(),
			Enabled:            ch.IsEnabled(),
			CircuitBreakerOpen: cb.IsOpen(),
			State:              cb.State().String(),
		})
	}
	return statuses
}

// Shutdown implements Service.Shutdown.
func (s *service) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down notification service")

	s.shutdownCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Notification service shutdown complete")
		return nil
	case <-ctx.Done():
		slog.Warn("Notification service shutdown timeout")
		return ctx.Err()
	}
}
