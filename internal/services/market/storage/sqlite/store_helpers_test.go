package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage/integrity"
)

var testTime = time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)

func testKeyring(t *testing.T) *integrity.Keyring {
	t.Helper()
	keyring, err := integrity.NewKeyring(
		map[string][]byte{"test-key-1": []byte("0123456789abcdef0123456789abcdef")},
		"test-key-1",
	)
	if err != nil {
		t.Fatalf("create test keyring: %v", err)
	}
	return keyring
}

func testRegistry(t *testing.T) *event.Registry {
	t.Helper()
	_, events, err := market.NewRegistries()
	if err != nil {
		t.Fatalf("new registries: %v", err)
	}
	return events
}

func openTestStoreAt(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(context.Background(), path, testKeyring(t), testRegistry(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	return openTestStoreAt(t, filepath.Join(t.TempDir(), "market.sqlite"))
}

func contentEvent(actor, locator string, offset time.Duration) event.Event {
	return event.Event{
		Timestamp:   testTime.Add(offset),
		Type:        market.EventTypeContentAdded,
		ActorID:     actor,
		RequestID:   "req-" + locator,
		EntityType:  market.EntityCategory,
		EntityID:    actor + "/lectures",
		PayloadJSON: []byte(fmt.Sprintf(`{"producer":%q,"category":"lectures","locator":%q}`, actor, locator)),
	}
}

func appendOne(t *testing.T, store *Store, evt event.Event) event.Event {
	t.Helper()
	stored, err := store.AppendEvents(context.Background(), []event.Event{evt}, nil)
	if err != nil {
		t.Fatalf("append event: %v", err)
	}
	return stored[0]
}
