package notify

import "errors"

// Sentinel errors for notify use case operations.
var (
	// ErrChannelDisabled indicates that Send was called on a disabled channel.
	ErrChannelDisabled = errors.New("channel is disabled")

	// ErrInvalidRelease indicates a nil release or one missing required fields.
	ErrInvalidRelease = errors.New("invalid release data")

	// ErrNoChannelsEnabled indicates that no channel is configured.
	ErrNoChannelsEnabled = errors.New("no notification channels enabled")

	// ErrNotificationDropped indicates that no worker slot became free in time.
	ErrNotificationDropped = errors.New("notification dropped due to pool saturation")

	// ErrCircuitBreakerOpen indicates that the channel's breaker rejected the send.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open for this channel")
)
