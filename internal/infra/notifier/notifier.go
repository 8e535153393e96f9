package notifier

import (
	"context"

	"release-radar/internal/domain/entity"
)

// Notifier delivers one release announcement to a chat. Channels that post
// to a fixed destination (webhooks) ignore chatID.
type Notifier interface {
	NotifyRelease(ctx context.Context, chatID string, release *entity.Release) error
}
