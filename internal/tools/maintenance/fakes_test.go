package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/louisbranch/tollgate.space/internal/services/market/domain/engine"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
	"github.com/louisbranch/tollgate.space/internal/services/market/payout"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage/memory"
)

type fakeStore struct {
	*memory.Store
	closed bool
}

func (s *fakeStore) Close() error {
	s.closed = true
	return nil
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testSettings() engine.PlatformSettings {
	return engine.PlatformSettings{
		Name:            "Maintenance Market",
		FeeRate:         500,
		RegisterPayment: 10,
		Owner:           "owner",
	}
}

func noopTransfer() engine.Transferer {
	return payout.Func(func(context.Context, string, market.Amount) error { return nil })
}

// seedMarket registers bob with one category and sells carol a session.
func seedMarket(t *testing.T, journal storage.EventJournal, checkpoints storage.CheckpointStore) {
	t.Helper()
	ctx := context.Background()
	eng, err := engine.Open(ctx, engine.Options{
		Journal:         journal,
		Checkpoints:     checkpoints,
		Transferer:      noopTransfer(),
		CheckpointEvery: 2,
		Now:             func() time.Time { return testNow },
	}, testSettings())
	if err != nil {
		t.Fatalf("open engine: %v", err)
	}
	if err := eng.Register(ctx, "bob", 10, "recipes", "weeknight dinners"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := eng.AddCategory(ctx, "bob", "cooking", "", 100, time.Hour); err != nil {
		t.Fatalf("add category: %v", err)
	}
	if err := eng.AddContent(ctx, "bob", "cooking", "ipfs://a"); err != nil {
		t.Fatalf("add content: %v", err)
	}
	if _, err := eng.ActivateSession(ctx, "carol", 100, "bob", "cooking"); err != nil {
		t.Fatalf("activate session: %v", err)
	}
}

func newSeededFakeStore(t *testing.T) *fakeStore {
	t.Helper()
	_, registry, err := market.NewRegistries()
	if err != nil {
		t.Fatalf("build registries: %v", err)
	}
	store := &fakeStore{Store: memory.New(registry, nil)}
	seedMarket(t, store, store)
	return store
}

// newBareStore seeds a journal without ever writing a checkpoint.
func newBareStore(t *testing.T) *fakeStore {
	t.Helper()
	_, registry, err := market.NewRegistries()
	if err != nil {
		t.Fatalf("build registries: %v", err)
	}
	store := &fakeStore{Store: memory.New(registry, nil)}
	seedMarket(t, store, nil)
	return store
}
