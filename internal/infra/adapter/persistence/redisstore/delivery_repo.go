// Package redisstore keeps delivery records in Redis sets, one set per recipient.
// Records are only as durable as the server's persistence settings; run Redis
// with appendonly enabled when it backs the delivery log.
package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"release-radar/internal/repository"
)

const keyPrefix = "release-radar:sent:"

type DeliveryRepo struct {
	client *redis.Client
}

var _ repository.DeliveryRepository = (*DeliveryRepo)(nil)

// NewDeliveryRepo wraps an existing client.
func NewDeliveryRepo(client *redis.Client) *DeliveryRepo {
	return &DeliveryRepo{client: client}
}

// Open connects using a redis:// URL.
func Open(url string) (*DeliveryRepo, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewDeliveryRepo(redis.NewClient(opts)), nil
}

func (d *DeliveryRepo) IsSent(ctx context.Context, recipient, releaseID string) (bool, error) {
	ok, err := d.client.SIsMember(ctx, key(recipient), releaseID).Result()
	if err != nil {
		return false, fmt.Errorf("IsSent: %w", err)
	}
	return ok, nil
}

func (d *DeliveryRepo) MarkSent(ctx context.Context, recipient, releaseID string) error {
	if err := d.client.SAdd(ctx, key(recipient), releaseID).Err(); err != nil {
		return fmt.Errorf("MarkSent: %w", err)
	}
	return nil
}

// Claim uses SADD's added-count, which Redis computes atomically.
func (d *DeliveryRepo) Claim(ctx context.Context, recipient, releaseID string) (bool, error) {
	added, err := d.client.SAdd(ctx, key(recipient), releaseID).Result()
	if err != nil {
		return false, fmt.Errorf("Claim: %w", err)
	}
	return added == 1, nil
}

func (d *DeliveryRepo) Unmark(ctx context.Context, recipient, releaseID string) error {
	if err := d.client.SRem(ctx, key(recipient), releaseID).Err(); err != nil {
		return fmt.Errorf("Unmark: %w", err)
	}
	return nil
}

func (d *DeliveryRepo) Count(ctx context.Context, recipient string) (int, error) {
	n, err := d.client.SCard(ctx, key(recipient)).Result()
	if err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return int(n), nil
}

func (d *DeliveryRepo) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

func (d *DeliveryRepo) Close() error {
	return d.client.Close()
}

func key(recipient string) string {
	return keyPrefix + recipient
}
