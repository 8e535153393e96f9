// Package notify delivers release announcements to every enabled channel.
// Each channel runs behind its own circuit breaker, and a delivery counts as
// successful once the recipient's primary channel accepted it.
package notify

import (
	"context"

	"release-radar/internal/domain/entity"
)

// Channel is a notification delivery channel such as Telegram or Discord.
//
// Implementations apply their own rate limiting and retries. All methods
// must be safe for concurrent use and must respect ctx cancellation.
type Channel interface {
	// Name is a lowercase identifier used for logs, metrics and health checks.
	Name() string

	// IsEnabled reports whether the channel is configured. Disabled channels
	// are skipped.
	IsEnabled() bool

	// Send announces release to recipient. A non-nil error means the
	// announcement was not delivered after all retries.
	Send(ctx context.Context, recipient entity.Recipient, release *entity.Release) error
}

// StatusChannel is a Channel that can also carry free-form progress messages.
type StatusChannel interface {
	Channel
	SendStatus(ctx context.Context, recipient entity.Recipient, text string) error
}

// Mirror marks a channel whose success alone does not count as delivery.
type Mirror interface {
	IsMirror() bool
}

func isMirror(ch Channel) bool {
	m, ok := ch.(Mirror)
	return ok && m.IsMirror()
}
