package notify

import (
	"context"

	"release-radar/internal/domain/entity"
	"release-radar/internal/infra/notifier"
)

// DiscordChannel mirrors release announcements to a Discord webhook.
//
// A disabled channel wraps a NoOpNotifier so the Channel contract holds
// without nil checks.
type DiscordChannel struct {
	notifier notifier.Notifier
	enabled  bool
}

// NewDiscordChannel creates the Discord mirror from config.
func NewDiscordChannel(config notifier.DiscordConfig) *DiscordChannel {
	var n notifier.Notifier
	if config.Enabled {
		n = notifier.NewDiscordNotifier(config)
	} else {
		n = notifier.NewNoOpNotifier()
	}

	return &DiscordChannel{
		notifier: n,
		enabled:  config.Enabled,
	}
}

// Name returns the channel identifier "discord".
func (c *DiscordChannel) Name() string {
	return "discord"
}

// IsEnabled returns whether Discord notifications are enabled via configuration.
func (c *DiscordChannel) IsEnabled() bool {
	return c.enabled
}

// IsMirror reports true: the webhook posts to a shared server channel, not to
// the recipient, so it never counts as delivery on its own.
func (c *DiscordChannel) IsMirror() bool {
	return true
}

// Send posts the release embed. The recipient is ignored because the webhook
// targets a fixed Discord channel.
func (c *DiscordChannel) Send(ctx context.Context, recipient entity.Recipient, release *entity.Release) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if release == nil {
		return ErrInvalidRelease
	}
	return c.notifier.NotifyRelease(ctx, recipient.ChatID, release)
}
