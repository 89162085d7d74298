package engine

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage"
)

// checkpointEncMode uses Core Deterministic Encoding so equal states always
// produce identical bytes and digests.
var checkpointEncMode cbor.EncMode

func init() {
	var err error
	checkpointEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("engine: CBOR encoder initialization failed: " + err.Error())
	}
}

func checkpointDigest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// encodeCheckpoint snapshots state as CBOR with a BLAKE3 digest.
func encodeCheckpoint(state market.State) (storage.Checkpoint, error) {
	data, err := checkpointEncMode.Marshal(market.ToSnapshot(state))
	if err != nil {
		return storage.Checkpoint{}, fmt.Errorf("encode checkpoint: %w", err)
	}
	return storage.Checkpoint{
		LastSeq: state.LastSeq,
		Digest:  checkpointDigest(data),
		Data:    data,
	}, nil
}

// decodeCheckpoint verifies the digest and rebuilds state.
func decodeCheckpoint(cp storage.Checkpoint) (market.State, error) {
	if got := checkpointDigest(cp.Data); got != cp.Digest {
		return market.State{}, fmt.Errorf("%w: checkpoint %d digest mismatch", ErrReplayMismatch, cp.LastSeq)
	}
	var snap market.Snapshot
	if err := cbor.Unmarshal(cp.Data, &snap); err != nil {
		return market.State{}, fmt.Errorf("decode checkpoint %d: %w", cp.LastSeq, err)
	}
	if snap.LastSeq != cp.LastSeq {
		return market.State{}, fmt.Errorf("%w: checkpoint %d holds state at %d", ErrReplayMismatch, cp.LastSeq, snap.LastSeq)
	}
	state, err := market.FromSnapshot(snap)
	if err != nil {
		return market.State{}, fmt.Errorf("%w: %v", ErrReplayMismatch, err)
	}
	return state, nil
}

// SaveCheckpoint encodes state and stores it as the latest checkpoint.
func SaveCheckpoint(ctx context.Context, checkpoints storage.CheckpointStore, state market.State, createdAt time.Time) (storage.Checkpoint, error) {
	if checkpoints == nil {
		return storage.Checkpoint{}, errors.New("checkpoint store is required")
	}
	cp, err := encodeCheckpoint(state)
	if err != nil {
		return storage.Checkpoint{}, err
	}
	cp.CreatedAt = createdAt.UTC()
	if err := checkpoints.SaveCheckpoint(ctx, cp); err != nil {
		return storage.Checkpoint{}, fmt.Errorf("save checkpoint: %w", err)
	}
	return cp, nil
}

// StateDigest returns the checkpoint digest state would be stored under.
func StateDigest(state market.State) (string, error) {
	cp, err := encodeCheckpoint(state)
	if err != nil {
		return "", err
	}
	return cp.Digest, nil
}

// maybeCheckpoint saves a checkpoint when the last commit crossed a multiple
// of checkpointEvery. The commit already succeeded, so a failed save is only
// recorded on the span; the next boundary retries.
func (e *Engine) maybeCheckpoint(ctx context.Context, previousSeq uint64) {
	if e.checkpoints == nil || e.checkpointEvery == 0 {
		return
	}
	if e.state.LastSeq/e.checkpointEvery == previousSeq/e.checkpointEvery {
		return
	}
	span := trace.SpanFromContext(ctx)
	cp, err := SaveCheckpoint(ctx, e.checkpoints, e.state, e.now())
	if err != nil {
		span.RecordError(err)
		return
	}
	span.SetAttributes(attribute.Int64("market.checkpoint_seq", int64(cp.LastSeq)))
}
