package notify

import (
	"context"

	"release-radar/internal/domain/entity"
	"release-radar/internal/infra/notifier"
)

// telegramAPI is the subset of notifier.TelegramNotifier the channel needs.
type telegramAPI interface {
	NotifyRelease(ctx context.Context, chatID string, release *entity.Release) error
	SendText(ctx context.Context, chatID, text string, markup *notifier.InlineKeyboardMarkup) error
}

// TelegramChannel delivers releases to the recipient's Telegram chat.
type TelegramChannel struct {
	api     telegramAPI
	enabled bool
}

// NewTelegramChannel wraps a Telegram client. A nil client yields a disabled
// channel.
func NewTelegramChannel(api telegramAPI) *TelegramChannel {
	return &TelegramChannel{api: api, enabled: api != nil}
}

func (c *TelegramChannel) Name() string {
	return "telegram"
}

func (c *TelegramChannel) IsEnabled() bool {
	return c.enabled
}

// Send posts the release card to recipient.ChatID.
func (c *TelegramChannel) Send(ctx context.Context, recipient entity.Recipient, release *entity.Release) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if release == nil {
		return ErrInvalidRelease
	}
	return c.api.NotifyRelease(ctx, recipient.ChatID, release)
}

// SendStatus posts an HTML status line without a keyboard.
func (c *TelegramChannel) SendStatus(ctx context.Context, recipient entity.Recipient, text string) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	return c.api.SendText(ctx, recipient.ChatID, text, nil)
}
