package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/louisbranch/tollgate.space/internal/platform/errors"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage"
)

func TestOpenValidation(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "market.sqlite")
	if _, err := Open(ctx, " ", testKeyring(t), testRegistry(t)); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := Open(ctx, path, nil, testRegistry(t)); err == nil {
		t.Fatal("expected error for missing keyring")
	}
	if _, err := Open(ctx, path, testKeyring(t), nil); err == nil {
		t.Fatal("expected error for missing registry")
	}
}

func TestAppendAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	stored, err := store.AppendEvents(ctx, []event.Event{
		contentEvent("bob", "a", 0),
		contentEvent("bob", "b", time.Second),
	}, nil)
	if err != nil {
		t.Fatalf("append events: %v", err)
	}
	if stored[0].Seq != 1 || stored[1].Seq != 2 {
		t.Fatalf("seqs = %d,%d want 1,2", stored[0].Seq, stored[1].Seq)
	}
	if stored[0].Hash == "" || stored[0].ChainHash == "" || stored[0].Signature == "" {
		t.Fatalf("expected sealed event, got %+v", stored[0])
	}
	if stored[1].PrevHash != stored[0].ChainHash {
		t.Fatal("expected second event to chain to the first")
	}

	events, err := store.ListEvents(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	got := events[1]
	if got.Hash != stored[1].Hash || got.ChainHash != stored[1].ChainHash || got.Signature != stored[1].Signature {
		t.Fatal("expected listed event to round-trip journal metadata")
	}
	if got.Type != market.EventTypeContentAdded || got.RequestID != "req-b" || got.EntityID != "bob/lectures" {
		t.Fatalf("listed event = %+v", got)
	}
	if !got.Timestamp.Equal(testTime.Add(time.Second)) {
		t.Fatalf("Timestamp = %v, want %v", got.Timestamp, testTime.Add(time.Second))
	}

	seq, err := store.LatestSeq(ctx)
	if err != nil {
		t.Fatalf("latest seq: %v", err)
	}
	if seq != 2 {
		t.Fatalf("LatestSeq = %d, want 2", seq)
	}

	limited, err := store.ListEvents(ctx, 1, 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 || limited[0].Seq != 2 {
		t.Fatalf("limited = %+v", limited)
	}
}

func TestAppendTruncatesTimestampToMillis(t *testing.T) {
	store := openTestStore(t)
	evt := contentEvent("bob", "a", 1500*time.Microsecond)
	stored := appendOne(t, store, evt)
	if want := testTime.Add(time.Millisecond); !stored.Timestamp.Equal(want) {
		t.Fatalf("Timestamp = %v, want %v", stored.Timestamp, want)
	}
	if _, err := store.VerifyJournal(context.Background()); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestAppendRejectsInvalidEvent(t *testing.T) {
	store := openTestStore(t)
	evt := contentEvent("bob", "a", 0)
	evt.Type = "unknown.type"
	if _, err := store.AppendEvents(context.Background(), []event.Event{evt}, nil); !errors.Is(err, event.ErrTypeUnknown) {
		t.Fatalf("append = %v, want %v", err, event.ErrTypeUnknown)
	}
}

func TestBeforeCommitFailureRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	appendOne(t, store, contentEvent("bob", "a", 0))

	hookErr := errors.New("wallet offline")
	_, err := store.AppendEvents(ctx, []event.Event{contentEvent("bob", "b", time.Second)}, func(ctx context.Context, stored []event.Event) error {
		if len(stored) != 1 || stored[0].Seq != 2 {
			t.Fatalf("hook saw %+v", stored)
		}
		return hookErr
	})
	if !errors.Is(err, hookErr) {
		t.Fatalf("append = %v, want %v", err, hookErr)
	}

	seq, err := store.LatestSeq(ctx)
	if err != nil {
		t.Fatalf("latest seq: %v", err)
	}
	if seq != 1 {
		t.Fatalf("LatestSeq = %d, want 1 after rollback", seq)
	}

	next := appendOne(t, store, contentEvent("bob", "c", 2*time.Second))
	if next.Seq != 2 {
		t.Fatalf("Seq = %d, want 2", next.Seq)
	}
}

func TestBeforeCommitCancellationStillCommits(t *testing.T) {
	store := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stored, err := store.AppendEvents(ctx, []event.Event{contentEvent("bob", "a", 0)}, func(context.Context, []event.Event) error {
		cancel()
		return nil
	})
	if err != nil {
		t.Fatalf("append after hook success = %v, want nil", err)
	}
	if len(stored) != 1 || stored[0].Seq != 1 {
		t.Fatalf("stored = %+v", stored)
	}

	seq, err := store.LatestSeq(context.Background())
	if err != nil {
		t.Fatalf("latest seq: %v", err)
	}
	if seq != 1 {
		t.Fatalf("LatestSeq = %d, want 1", seq)
	}
}

func TestCanceledContextSkipsBeforeCommit(t *testing.T) {
	store := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := store.AppendEvents(ctx, []event.Event{contentEvent("bob", "a", 0)}, func(context.Context, []event.Event) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("append = %v, want %v", err, context.Canceled)
	}
	if called {
		t.Fatal("expected beforeCommit to be skipped")
	}
}

func TestReopenContinuesChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.sqlite")
	ctx := context.Background()

	first, err := Open(ctx, path, testKeyring(t), testRegistry(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	stored, err := first.AppendEvents(ctx, []event.Event{contentEvent("bob", "a", 0)}, nil)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := openTestStoreAt(t, path)
	next := appendOne(t, second, contentEvent("bob", "b", time.Second))
	if next.Seq != 2 || next.PrevHash != stored[0].ChainHash {
		t.Fatalf("reopened append = %+v, want seq 2 chained to %s", next, stored[0].ChainHash)
	}
	result, err := second.VerifyJournal(ctx)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.EventCount != 2 {
		t.Fatalf("EventCount = %d, want 2", result.EventCount)
	}
}

func TestListEventsPage(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	actors := []string{"bob", "dana", "bob", "bob", "dana"}
	for i, actor := range actors {
		appendOne(t, store, contentEvent(actor, fmt.Sprint(i), time.Duration(i)*time.Minute))
	}

	tests := []struct {
		name      string
		req       storage.ListEventsPageRequest
		wantSeqs  []uint64
		wantNext  bool
		wantTotal int
	}{
		{
			name:      "unfiltered",
			req:       storage.ListEventsPageRequest{PageSize: 3},
			wantSeqs:  []uint64{1, 2, 3},
			wantNext:  true,
			wantTotal: 5,
		},
		{
			name:      "actor filter",
			req:       storage.ListEventsPageRequest{PageSize: 2, Filter: `actor_id = "bob"`},
			wantSeqs:  []uint64{1, 3},
			wantNext:  true,
			wantTotal: 3,
		},
		{
			name:      "after cursor",
			req:       storage.ListEventsPageRequest{AfterSeq: 3, PageSize: 2, Filter: `actor_id = "bob"`},
			wantSeqs:  []uint64{4},
			wantTotal: 1,
		},
		{
			name:      "timestamp filter",
			req:       storage.ListEventsPageRequest{Filter: `ts >= timestamp("2026-02-03T12:03:00Z")`},
			wantSeqs:  []uint64{4, 5},
			wantTotal: 2,
		},
		{
			name:      "or filter",
			req:       storage.ListEventsPageRequest{Filter: `request_id = "req-0" OR request_id = "req-4"`},
			wantSeqs:  []uint64{1, 5},
			wantTotal: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := store.ListEventsPage(ctx, tt.req)
			if err != nil {
				t.Fatalf("list page: %v", err)
			}
			if len(page.Events) != len(tt.wantSeqs) {
				t.Fatalf("len(events) = %d, want %d", len(page.Events), len(tt.wantSeqs))
			}
			for i, evt := range page.Events {
				if evt.Seq != tt.wantSeqs[i] {
					t.Fatalf("events[%d].Seq = %d, want %d", i, evt.Seq, tt.wantSeqs[i])
				}
			}
			if page.HasNextPage != tt.wantNext {
				t.Fatalf("HasNextPage = %v, want %v", page.HasNextPage, tt.wantNext)
			}
			if page.TotalCount != tt.wantTotal {
				t.Fatalf("TotalCount = %d, want %d", page.TotalCount, tt.wantTotal)
			}
		})
	}
}

func TestListEventsPageInvalidFilter(t *testing.T) {
	store := openTestStore(t)
	_, err := store.ListEventsPage(context.Background(), storage.ListEventsPageRequest{Filter: `unknown = "x"`})
	if !apperrors.HasCode(err, apperrors.CodeInvalidConfiguration) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeInvalidConfiguration)
	}
}

func TestVerifyJournalDetectsTampering(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		appendOne(t, store, contentEvent("bob", fmt.Sprint(i), time.Duration(i)*time.Second))
	}
	if _, err := store.VerifyJournal(ctx); err != nil {
		t.Fatalf("verify untouched journal: %v", err)
	}

	if _, err := store.sqlDB.ExecContext(ctx, "UPDATE events SET payload_json = ? WHERE seq = 2", []byte(`{"locator":"forged"}`)); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	if _, err := store.VerifyJournal(ctx); !apperrors.HasCode(err, apperrors.CodeJournalIntegrity) {
		t.Fatalf("verify = %v, want %s", err, apperrors.CodeJournalIntegrity)
	}
}

func TestVerifyJournalDetectsDeletedEvent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		appendOne(t, store, contentEvent("bob", fmt.Sprint(i), time.Duration(i)*time.Second))
	}
	if _, err := store.sqlDB.ExecContext(ctx, "DELETE FROM events WHERE seq = 2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.VerifyJournal(ctx); !apperrors.HasCode(err, apperrors.CodeJournalIntegrity) {
		t.Fatalf("verify = %v, want %s", err, apperrors.CodeJournalIntegrity)
	}
}
