package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/tollgate.space/internal/services/market/storage"
)

// SaveCheckpoint stores a checkpoint, replacing any earlier one taken at the
// same sequence.
func (s *Store) SaveCheckpoint(ctx context.Context, checkpoint storage.Checkpoint) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if checkpoint.LastSeq == 0 {
		return fmt.Errorf("checkpoint seq is required")
	}
	if strings.TrimSpace(checkpoint.Digest) == "" {
		return fmt.Errorf("checkpoint digest is required")
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		"INSERT OR REPLACE INTO checkpoints (last_seq, digest, state_cbor, created_at) VALUES (?, ?, ?, ?)",
		int64(checkpoint.LastSeq),
		checkpoint.Digest,
		checkpoint.Data,
		toMillis(checkpoint.CreatedAt),
	); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// LatestCheckpoint returns the checkpoint with the highest sequence.
func (s *Store) LatestCheckpoint(ctx context.Context) (storage.Checkpoint, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Checkpoint{}, err
	}
	var (
		seq       int64
		createdAt int64
		cp        storage.Checkpoint
	)
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT last_seq, digest, state_cbor, created_at FROM checkpoints ORDER BY last_seq DESC LIMIT 1",
	).Scan(&seq, &cp.Digest, &cp.Data, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Checkpoint{}, storage.ErrNotFound
		}
		return storage.Checkpoint{}, fmt.Errorf("get latest checkpoint: %w", err)
	}
	cp.LastSeq = uint64(seq)
	cp.CreatedAt = fromMillis(createdAt)
	return cp, nil
}
