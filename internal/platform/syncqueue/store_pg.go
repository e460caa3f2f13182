package syncqueue

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore keeps the queue in Postgres so it survives restarts. Ordering
// comes from the BIGSERIAL id.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Enqueue(ctx context.Context, item *Item) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO sync_queue (type, payload, idempotency_key)
		VALUES ($1,$2,$3)
		RETURNING id, enqueued_at`,
		item.Type, item.Payload, item.IdempotencyKey).Scan(&item.ID, &item.EnqueuedAt)
}

func (s *PGStore) List(ctx context.Context) ([]*Item, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, type, payload, idempotency_key, attempts, last_error, enqueued_at
		FROM sync_queue ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Type, &item.Payload, &item.IdempotencyKey,
			&item.Attempts, &item.LastError, &item.EnqueuedAt); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (s *PGStore) Remove(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sync_queue WHERE id = $1`, id)
	return err
}

func (s *PGStore) RecordFailure(ctx context.Context, id int64, cause string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sync_queue SET attempts = attempts + 1, last_error = $2
		WHERE id = $1`, id, cause)
	return err
}

func (s *PGStore) Len(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&n)
	return n, err
}
