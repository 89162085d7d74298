// Package memory provides an in-process journal and checkpoint store. It
// backs tests, scenario runs, and servers started without a database path.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	apperrors "github.com/louisbranch/tollgate.space/internal/platform/errors"
	"github.com/louisbranch/tollgate.space/internal/services/market/core/filter"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage/integrity"
)

// Store keeps the journal and checkpoints in memory.
type Store struct {
	mu          sync.Mutex
	registry    *event.Registry
	keyring     *integrity.Keyring
	events      []event.Event
	checkpoints []storage.Checkpoint
}

// New returns an empty store. A nil registry skips event validation and a
// nil keyring leaves events unsigned.
func New(registry *event.Registry, keyring *integrity.Keyring) *Store {
	return &Store{registry: registry, keyring: keyring}
}

// AppendEvents sequences, seals, and stores events. beforeCommit runs while
// the store is locked; the batch is discarded when it fails.
func (s *Store) AppendEvents(ctx context.Context, events []event.Event, beforeCommit storage.BeforeCommit) ([]event.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prevChainHash := ""
	if n := len(s.events); n > 0 {
		prevChainHash = s.events[n-1].ChainHash
	}
	baseSeq := uint64(len(s.events)) + 1

	stored := make([]event.Event, len(events))
	for i, evt := range events {
		if s.registry != nil {
			validated, err := s.registry.ValidateForAppend(evt)
			if err != nil {
				return nil, fmt.Errorf("event %d: %w", i, err)
			}
			evt = validated
		}
		evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)
		evt.Seq = baseSeq + uint64(i)
		evt.PayloadJSON = slices.Clone(evt.PayloadJSON)

		sealed, err := integrity.Seal(s.keyring, storage.JournalName, evt, prevChainHash)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		prevChainHash = sealed.ChainHash
		stored[i] = sealed
	}

	if beforeCommit != nil {
		if err := beforeCommit(ctx, slices.Clone(stored)); err != nil {
			return nil, err
		}
	}

	s.events = append(s.events, stored...)
	return slices.Clone(stored), nil
}

// ListEvents returns up to limit events with seq greater than afterSeq.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if afterSeq >= uint64(len(s.events)) {
		return nil, nil
	}
	end := len(s.events)
	if limit > 0 && int(afterSeq)+limit < end {
		end = int(afterSeq) + limit
	}
	return slices.Clone(s.events[afterSeq:end]), nil
}

// LatestSeq returns the sequence of the last stored event.
func (s *Store) LatestSeq(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.events)), nil
}

// ListEventsPage returns a filtered page of journal history in seq order.
func (s *Store) ListEventsPage(ctx context.Context, req storage.ListEventsPageRequest) (storage.ListEventsPageResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.ListEventsPageResult{}, err
	}
	match, err := filter.CompileEventMatcher(req.Filter)
	if err != nil {
		return storage.ListEventsPageResult{}, apperrors.Wrap(apperrors.CodeInvalidConfiguration, "invalid event filter", err)
	}
	pageSize := storage.NormalizePageSize(req.PageSize)

	s.mu.Lock()
	defer s.mu.Unlock()

	result := storage.ListEventsPageResult{}
	for _, evt := range s.events {
		if evt.Seq <= req.AfterSeq || !match(evt) {
			continue
		}
		result.TotalCount++
		if len(result.Events) < pageSize {
			result.Events = append(result.Events, evt)
		} else {
			result.HasNextPage = true
		}
	}
	return result, nil
}

// VerifyJournal walks every stored event through the chain verifier.
func (s *Store) VerifyJournal(ctx context.Context) (storage.VerifyResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.VerifyResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	verifier := integrity.NewChainVerifier(s.keyring, storage.JournalName)
	for _, evt := range s.events {
		if err := verifier.Check(evt); err != nil {
			return storage.VerifyResult{}, apperrors.Wrap(apperrors.CodeJournalIntegrity, "journal verification failed", err)
		}
	}
	return storage.VerifyResult{
		EventCount:    verifier.Count(),
		LastSeq:       verifier.LastSeq(),
		HeadChainHash: verifier.HeadChainHash(),
	}, nil
}

// SaveCheckpoint stores a checkpoint. Older checkpoints are kept so tests
// can inspect the history.
func (s *Store) SaveCheckpoint(ctx context.Context, checkpoint storage.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	checkpoint.Data = slices.Clone(checkpoint.Data)
	s.checkpoints = append(s.checkpoints, checkpoint)
	return nil
}

// LatestCheckpoint returns the checkpoint with the highest LastSeq.
func (s *Store) LatestCheckpoint(ctx context.Context) (storage.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return storage.Checkpoint{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.checkpoints) == 0 {
		return storage.Checkpoint{}, storage.ErrNotFound
	}
	latest := slices.MaxFunc(s.checkpoints, func(a, b storage.Checkpoint) int {
		return cmp.Compare(a.LastSeq, b.LastSeq)
	})
	latest.Data = slices.Clone(latest.Data)
	return latest, nil
}

// Checkpoints returns every saved checkpoint in save order.
func (s *Store) Checkpoints() []storage.Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.checkpoints)
}

var (
	_ storage.Journal         = (*Store)(nil)
	_ storage.CheckpointStore = (*Store)(nil)
)
