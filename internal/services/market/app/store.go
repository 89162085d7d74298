package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage/integrity"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage/memory"
	storagesqlite "github.com/louisbranch/tollgate.space/internal/services/market/storage/sqlite"
)

// storeBundle is the journal and checkpoint store chosen at startup.
type storeBundle struct {
	journal     storage.Journal
	checkpoints storage.CheckpointStore
	close       func() error
}

// Close releases the underlying store, logging any error.
func (b *storeBundle) Close() {
	if b == nil || b.close == nil {
		return
	}
	if err := b.close(); err != nil {
		log.Printf("close market store: %v", err)
	}
}

func openStoreBundle(ctx context.Context, env serverEnv, registry *event.Registry) (*storeBundle, error) {
	switch env.Storage {
	case storageMemory:
		return openMemoryStore(registry)
	default:
		return openSQLiteStore(ctx, env.DBPath, registry)
	}
}

func openSQLiteStore(ctx context.Context, path string, registry *event.Registry) (*storeBundle, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	keyring, err := integrity.KeyringFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load event keyring: %w", err)
	}
	store, err := storagesqlite.Open(ctx, path, keyring, registry)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return &storeBundle{journal: store, checkpoints: store, close: store.Close}, nil
}

// openMemoryStore signs events when a keyring is configured and leaves them
// unsigned otherwise.
func openMemoryStore(registry *event.Registry) (*storeBundle, error) {
	keyring, err := integrity.KeyringFromEnv()
	if errors.Is(err, integrity.ErrKeyringRequired) {
		log.Printf("memory journal running without event signatures")
		keyring = nil
	} else if err != nil {
		return nil, fmt.Errorf("load event keyring: %w", err)
	}
	store := memory.New(registry, keyring)
	return &storeBundle{journal: store, checkpoints: store}, nil
}
