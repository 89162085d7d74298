package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/tollgate.space/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage/integrity"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage/sqlite/migrations"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store is a SQLite-backed journal and checkpoint store.
type Store struct {
	sqlDB    *sql.DB
	keyring  *integrity.Keyring
	registry *event.Registry
}

// Open opens the journal database at path and applies embedded migrations.
// The keyring signs every appended event and the registry validates them.
func Open(ctx context.Context, path string, keyring *integrity.Keyring, registry *event.Registry) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if keyring == nil {
		return nil, fmt.Errorf("event integrity keyring is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("event registry is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.EventsFS, "events"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB, keyring: keyring, registry: registry}, nil
}

// Close closes the underlying SQLite database. It is nil-safe so callers can
// defer it on every startup path.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

var (
	_ storage.Journal         = (*Store)(nil)
	_ storage.CheckpointStore = (*Store)(nil)
)
