package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/louisbranch/tollgate.space/internal/platform/errors"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage/integrity"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage/memory"
)

const (
	owner    = "owner-1"
	producer = "producer-1"
	consumer = "consumer-1"
	unit     = market.Amount(1_000_000)
)

var startTime = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

var defaultSettings = PlatformSettings{
	Name:            "Tollgate",
	Description:     "pay-per-session catalog",
	FeeRate:         500,
	RegisterPayment: 10 * unit,
	Owner:           owner,
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type transfer struct {
	Destination string
	Amount      market.Amount
}

type fakeTransferer struct {
	err       error
	transfers []transfer
}

func (f *fakeTransferer) Transfer(_ context.Context, destination string, amount market.Amount) error {
	if f.err != nil {
		return f.err
	}
	f.transfers = append(f.transfers, transfer{Destination: destination, Amount: amount})
	return nil
}

type fixture struct {
	engine     *Engine
	store      *memory.Store
	clock      *manualClock
	transferer *fakeTransferer
}

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	_, events, err := market.NewRegistries()
	if err != nil {
		t.Fatalf("new registries: %v", err)
	}
	ring, err := integrity.NewKeyring(map[string][]byte{"test-key-1": []byte("0123456789abcdef")}, "test-key-1")
	if err != nil {
		t.Fatalf("new keyring: %v", err)
	}
	return memory.New(events, ring)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      newStore(t),
		clock:      &manualClock{now: startTime},
		transferer: &fakeTransferer{},
	}
	f.engine = f.open(t, defaultSettings)
	return f
}

func (f *fixture) options() Options {
	return Options{
		Journal:         f.store,
		Checkpoints:     f.store,
		Transferer:      f.transferer,
		CheckpointEvery: 3,
		Now:             f.clock.Now,
	}
}

func (f *fixture) open(t *testing.T, settings PlatformSettings) *Engine {
	t.Helper()
	eng, err := Open(context.Background(), f.options(), settings)
	if err != nil {
		t.Fatalf("open engine: %v", err)
	}
	return eng
}

// withCategory registers producer and adds a one-day "lectures" category
// costing one unit.
func (f *fixture) withCategory(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if err := f.engine.Register(ctx, producer, 10*unit, "video", "recorded lectures"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := f.engine.AddCategory(ctx, producer, "lectures", "weekly lectures", unit, 24*time.Hour); err != nil {
		t.Fatalf("add category: %v", err)
	}
}

func requireCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if got := apperrors.CodeOf(err); got != code {
		t.Fatalf("error code = %s, want %s (err: %v)", got, code, err)
	}
}

func latestSeq(t *testing.T, f *fixture) uint64 {
	t.Helper()
	seq, err := f.store.LatestSeq(context.Background())
	if err != nil {
		t.Fatalf("latest seq: %v", err)
	}
	return seq
}

var errBankDown = errors.New("bank is down")
