// Package boltdb stores delivery records in a local bbolt file. Every write is
// committed with fsync before it returns, so records survive a crash.
package boltdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"release-radar/internal/repository"
)

var deliveriesBucket = []byte("deliveries")

// DeliveryRepo keeps one nested bucket per recipient under "deliveries",
// keyed by release ID with the delivery time as value.
type DeliveryRepo struct {
	db  *bolt.DB
	now func() time.Time
}

var _ repository.DeliveryRepository = (*DeliveryRepo)(nil)

// Open creates the parent directory if needed and opens path.
func Open(path string) (*DeliveryRepo, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(deliveriesBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init bolt buckets: %w", err)
	}
	return &DeliveryRepo{db: db, now: time.Now}, nil
}

func (repo *DeliveryRepo) IsSent(ctx context.Context, recipient, releaseID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var sent bool
	err := repo.db.View(func(tx *bolt.Tx) error {
		b := recipientBucket(tx, recipient)
		sent = b != nil && b.Get([]byte(releaseID)) != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("IsSent: %w", err)
	}
	return sent, nil
}

func (repo *DeliveryRepo) MarkSent(ctx context.Context, recipient, releaseID string) error {
	if _, err := repo.Claim(ctx, recipient, releaseID); err != nil {
		return fmt.Errorf("MarkSent: %w", err)
	}
	return nil
}

// Claim runs inside a single read-write transaction; bbolt allows one writer
// at a time, so the check and the put cannot interleave with another claim.
func (repo *DeliveryRepo) Claim(ctx context.Context, recipient, releaseID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var claimed bool
	err := repo.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(deliveriesBucket).CreateBucketIfNotExists([]byte(recipient))
		if err != nil {
			return err
		}
		key := []byte(releaseID)
		if b.Get(key) != nil {
			return nil
		}
		claimed = true
		return b.Put(key, []byte(repo.now().UTC().Format(time.RFC3339)))
	})
	if err != nil {
		return false, fmt.Errorf("Claim: %w", err)
	}
	return claimed, nil
}

func (repo *DeliveryRepo) Unmark(ctx context.Context, recipient, releaseID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := repo.db.Update(func(tx *bolt.Tx) error {
		b := recipientBucket(tx, recipient)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(releaseID))
	})
	if err != nil {
		return fmt.Errorf("Unmark: %w", err)
	}
	return nil
}

func (repo *DeliveryRepo) Count(ctx context.Context, recipient string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int
	err := repo.db.View(func(tx *bolt.Tx) error {
		b := recipientBucket(tx, recipient)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, _ []byte) error {
			n++
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

func (repo *DeliveryRepo) Ping(ctx context.Context) error {
	return repo.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(deliveriesBucket) == nil {
			return errors.New("deliveries bucket missing")
		}
		return nil
	})
}

func (repo *DeliveryRepo) Close() error {
	return repo.db.Close()
}

func recipientBucket(tx *bolt.Tx, recipient string) *bolt.Bucket {
	root := tx.Bucket(deliveriesBucket)
	if root == nil {
		return nil
	}
	return root.Bucket([]byte(recipient))
}
