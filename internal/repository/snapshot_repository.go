package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepdesk/session-backend/internal/model"
)

// SnapshotRepository mirrors progress snapshots into PostgreSQL. The
// hot copy lives in Redis; this table is what survives cache eviction.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// Upsert stores the latest snapshot for an owner. Last writer wins;
// there is exactly one active session per owner.
func (r *SnapshotRepository) Upsert(ctx context.Context, ownerID string, snap *model.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO session_snapshots (owner_id, test_id, payload, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (owner_id) DO UPDATE
		 SET test_id = EXCLUDED.test_id, payload = EXCLUDED.payload, updated_at = NOW()`,
		ownerID, snap.TestID, payload,
	)
	return err
}

// GetByOwner loads the mirrored snapshot. Returns (nil, nil) when absent.
func (r *SnapshotRepository) GetByOwner(ctx context.Context, ownerID string) (*model.Snapshot, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx,
		`SELECT payload FROM session_snapshots WHERE owner_id = $1`, ownerID,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap model.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes the mirrored snapshot (attempt submitted or invalidated).
func (r *SnapshotRepository) Delete(ctx context.Context, ownerID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM session_snapshots WHERE owner_id = $1`, ownerID)
	return err
}
