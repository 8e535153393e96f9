package repository

import (
	"context"
)

// DeliveryRepository records which releases have been delivered to which recipient.
// A record, once written, must survive process restarts.
type DeliveryRepository interface {
	// IsSent reports whether releaseID has been recorded for recipient.
	IsSent(ctx context.Context, recipient, releaseID string) (bool, error)
	// MarkSent records releaseID for recipient. Marking twice is not an error.
	MarkSent(ctx context.Context, recipient, releaseID string) error
	// Claim atomically records releaseID for recipient and reports whether this
	// call created the record. Concurrent claims for the same pair yield exactly
	// one true.
	Claim(ctx context.Context, recipient, releaseID string) (bool, error)
	// Unmark removes a record, releasing a claim whose delivery failed.
	Unmark(ctx context.Context, recipient, releaseID string) error
	// Count returns the number of releases recorded for recipient.
	Count(ctx context.Context, recipient string) (int, error)
	Ping(ctx context.Context) error
	Close() error
}
