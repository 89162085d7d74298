package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/tollgate.space/internal/platform/errors"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
)

// ErrNotFound indicates a requested persistence record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// JournalName scopes integrity signatures to the marketplace journal.
const JournalName = "market"

// DefaultPageSize and MaxPageSize bound journal page queries.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// BeforeCommit runs inside an append after the events are sequenced, hashed,
// and signed but before they become visible. Returning an error discards the
// whole batch.
type BeforeCommit func(ctx context.Context, stored []event.Event) error

// EventJournal is the append-only log every accepted operation writes to.
type EventJournal interface {
	// AppendEvents stores events atomically with contiguous sequence numbers.
	// beforeCommit may be nil.
	AppendEvents(ctx context.Context, events []event.Event, beforeCommit BeforeCommit) ([]event.Event, error)
	// ListEvents returns up to limit events with seq greater than afterSeq.
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error)
	// LatestSeq returns the sequence of the last stored event, 0 when empty.
	LatestSeq(ctx context.Context) (uint64, error)
}

// EventPager serves filtered, paginated journal reads for operators.
type EventPager interface {
	ListEventsPage(ctx context.Context, req ListEventsPageRequest) (ListEventsPageResult, error)
}

// JournalVerifier walks the journal and checks hashes, chain links, and
// signatures.
type JournalVerifier interface {
	VerifyJournal(ctx context.Context) (VerifyResult, error)
}

// Journal is the full journal surface a store provides.
type Journal interface {
	EventJournal
	EventPager
	JournalVerifier
}

// ListEventsPageRequest describes one page of journal history.
type ListEventsPageRequest struct {
	// AfterSeq returns only events with seq greater than this value.
	AfterSeq uint64
	// PageSize is the maximum number of events to return (default: 50, max: 200).
	PageSize int
	// Filter is an optional AIP-160 expression over type, actor_id,
	// request_id, entity_type, entity_id, and ts.
	Filter string
}

// ListEventsPageResult contains one page of journal history.
type ListEventsPageResult struct {
	Events []event.Event
	// HasNextPage reports whether more matching events follow the last one.
	HasNextPage bool
	// TotalCount is the number of events matching the filter after AfterSeq.
	TotalCount int
}

// VerifyResult summarizes a successful journal verification.
type VerifyResult struct {
	EventCount uint64
	LastSeq    uint64
	// HeadChainHash is the chain hash of the last event, empty for an empty
	// journal.
	HeadChainHash string
}

// NormalizePageSize applies DefaultPageSize and MaxPageSize.
func NormalizePageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// Checkpoint is an encoded state snapshot taken after LastSeq was folded.
type Checkpoint struct {
	LastSeq uint64
	// Digest is the hex BLAKE3 digest of Data.
	Digest    string
	Data      []byte
	CreatedAt time.Time
}

// CheckpointStore persists state checkpoints so startup can skip replaying
// the whole journal.
type CheckpointStore interface {
	SaveCheckpoint(ctx context.Context, checkpoint Checkpoint) error
	// LatestCheckpoint returns ErrNotFound when no checkpoint exists.
	LatestCheckpoint(ctx context.Context) (Checkpoint, error)
}
