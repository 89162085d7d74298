package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage"
)

const replayPageSize = 200

func (e *Engine) replay(ctx context.Context) error {
	state, err := ReplayState(ctx, e.journal, e.checkpoints)
	if err != nil {
		return err
	}
	e.state = state
	return nil
}

// ReplayState loads the latest checkpoint, if checkpoints is non-nil and
// holds one, and folds every later journal event on top of it.
func ReplayState(ctx context.Context, journal storage.EventJournal, checkpoints storage.CheckpointStore) (market.State, error) {
	if journal == nil {
		return market.State{}, ErrJournalRequired
	}
	latestSeq, err := journal.LatestSeq(ctx)
	if err != nil {
		return market.State{}, fmt.Errorf("load journal head: %w", err)
	}

	state := market.NewState()
	if checkpoints != nil {
		cp, err := checkpoints.LatestCheckpoint(ctx)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return market.State{}, fmt.Errorf("load checkpoint: %w", err)
		case cp.LastSeq > latestSeq:
			return market.State{}, fmt.Errorf("%w: checkpoint %d is ahead of journal head %d", ErrReplayMismatch, cp.LastSeq, latestSeq)
		default:
			if state, err = decodeCheckpoint(cp); err != nil {
				return market.State{}, err
			}
		}
	}

	for state.LastSeq < latestSeq {
		events, err := journal.ListEvents(ctx, state.LastSeq, replayPageSize)
		if err != nil {
			return market.State{}, fmt.Errorf("list events after %d: %w", state.LastSeq, err)
		}
		if len(events) == 0 {
			return market.State{}, fmt.Errorf("%w: journal ended at %d before head %d", ErrReplayMismatch, state.LastSeq, latestSeq)
		}
		for _, evt := range events {
			if evt.Seq != state.LastSeq+1 {
				return market.State{}, fmt.Errorf("%w: event sequence gap: expected %d got %d", ErrReplayMismatch, state.LastSeq+1, evt.Seq)
			}
			if state, err = market.Fold(state, evt); err != nil {
				return market.State{}, fmt.Errorf("%w: fold seq %d: %v", ErrReplayMismatch, evt.Seq, err)
			}
		}
	}

	if err := state.CheckConservation(); err != nil {
		return market.State{}, fmt.Errorf("%w: %v", ErrReplayMismatch, err)
	}
	return state, nil
}
