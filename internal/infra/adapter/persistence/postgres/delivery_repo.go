package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"release-radar/internal/repository"
	"release-radar/internal/resilience/circuitbreaker"
)

// DeliveryRepo stores delivery records in the deliveries table.
// Calls go through a circuit breaker so an unavailable database fails fast.
type DeliveryRepo struct {
	db  *circuitbreaker.DBCircuitBreaker
	now func() time.Time
}

func NewDeliveryRepo(db *sql.DB) repository.DeliveryRepository {
	return &DeliveryRepo{
		db:  circuitbreaker.NewDBCircuitBreaker(db),
		now: time.Now,
	}
}

func (repo *DeliveryRepo) IsSent(ctx context.Context, recipient, releaseID string) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM deliveries WHERE recipient = $1 AND release_id = $2
)`
	var sent bool
	if err := repo.queryScalar(ctx, &sent, query, recipient, releaseID); err != nil {
		return false, fmt.Errorf("IsSent: %w", err)
	}
	return sent, nil
}

func (repo *DeliveryRepo) MarkSent(ctx context.Context, recipient, releaseID string) error {
	if _, err := repo.insert(ctx, recipient, releaseID); err != nil {
		return fmt.Errorf("MarkSent: %w", err)
	}
	return nil
}

// Claim relies on the (recipient, release_id) primary key: only the insert that
// actually writes a row wins.
func (repo *DeliveryRepo) Claim(ctx context.Context, recipient, releaseID string) (bool, error) {
	n, err := repo.insert(ctx, recipient, releaseID)
	if err != nil {
		return false, fmt.Errorf("Claim: %w", err)
	}
	return n == 1, nil
}

func (repo *DeliveryRepo) Unmark(ctx context.Context, recipient, releaseID string) error {
	const query = `DELETE FROM deliveries WHERE recipient = $1 AND release_id = $2`
	if _, err := repo.db.ExecContext(ctx, query, recipient, releaseID); err != nil {
		return fmt.Errorf("Unmark: %w", err)
	}
	return nil
}

func (repo *DeliveryRepo) Count(ctx context.Context, recipient string) (int, error) {
	const query = `SELECT COUNT(*) FROM deliveries WHERE recipient = $1`
	var n int
	if err := repo.queryScalar(ctx, &n, query, recipient); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

// Ping fails fast while the breaker is open so readiness reflects it.
func (repo *DeliveryRepo) Ping(ctx context.Context) error {
	if repo.db.IsOpen() {
		return errors.New("delivery database circuit breaker is open")
	}
	return repo.db.DB().PingContext(ctx)
}

func (repo *DeliveryRepo) Close() error {
	return repo.db.DB().Close()
}

func (repo *DeliveryRepo) insert(ctx context.Context, recipient, releaseID string) (int64, error) {
	const query = `
INSERT INTO deliveries (recipient, release_id, sent_at)
VALUES ($1, $2, $3)
ON CONFLICT (recipient, release_id) DO NOTHING`
	res, err := repo.db.ExecContext(ctx, query, recipient, releaseID, repo.now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// queryScalar reads a single-column, single-row result. QueryContext is used
// instead of QueryRowContext so failures count against the breaker.
func (repo *DeliveryRepo) queryScalar(ctx context.Context, dest any, query string, args ...any) error {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}
	if err := rows.Scan(dest); err != nil {
		return err
	}
	return rows.Err()
}
