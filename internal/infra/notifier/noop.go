package notifier

import (
	"context"

	"release-radar/internal/domain/entity"
)

// NoOpNotifier stands in for a disabled channel.
type NoOpNotifier struct{}

func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

func (n *NoOpNotifier) NotifyRelease(context.Context, string, *entity.Release) error {
	return nil
}
