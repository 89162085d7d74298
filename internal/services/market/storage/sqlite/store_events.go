package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/tollgate.space/internal/platform/errors"
	"github.com/louisbranch/tollgate.space/internal/services/market/core/filter"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage/integrity"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const eventColumns = "seq, event_hash, prev_event_hash, chain_hash, signature_key_id, event_signature, timestamp, event_type, actor_id, request_id, entity_type, entity_id, payload_json"

// verifyPageSize bounds how many rows VerifyJournal reads per query.
const verifyPageSize = 200

// AppendEvents atomically appends a batch of events.
//
// Sequence numbers are allocated contiguously after the last stored event and
// chain hashes link each event to its predecessor, including the last event
// of the previous batch. beforeCommit runs inside the transaction.
//
// The transaction runs detached from ctx cancellation: once beforeCommit has
// moved value out, the events must commit even if the caller has gone away.
// ctx is checked before beforeCommit runs and is passed to it unchanged.
func (s *Store) AppendEvents(ctx context.Context, events []event.Event, beforeCommit storage.BeforeCommit) ([]event.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	validated := make([]event.Event, len(events))
	for i, evt := range events {
		v, err := s.registry.ValidateForAppend(evt)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		v.Timestamp = v.Timestamp.UTC().Truncate(time.Millisecond)
		validated[i] = v
	}

	txCtx := context.WithoutCancel(ctx)
	tx, err := s.sqlDB.BeginTx(txCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var lastSeq uint64
	prevChainHash := ""
	err = tx.QueryRowContext(txCtx, "SELECT seq, chain_hash FROM events ORDER BY seq DESC LIMIT 1").Scan(&lastSeq, &prevChainHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load previous event: %w", err)
	}

	stored := make([]event.Event, len(validated))
	for i, evt := range validated {
		evt.Seq = lastSeq + uint64(i) + 1
		sealed, err := integrity.Seal(s.keyring, storage.JournalName, evt, prevChainHash)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}

		if _, err := tx.ExecContext(txCtx,
			"INSERT INTO events ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			int64(sealed.Seq),
			sealed.Hash,
			sealed.PrevHash,
			sealed.ChainHash,
			sealed.SignatureKeyID,
			sealed.Signature,
			toMillis(sealed.Timestamp),
			string(sealed.Type),
			sealed.ActorID,
			sealed.RequestID,
			sealed.EntityType,
			sealed.EntityID,
			sealed.PayloadJSON,
		); err != nil {
			if isConstraintError(err) {
				return nil, fmt.Errorf("append event %d: concurrent journal writer: %w", i, err)
			}
			return nil, fmt.Errorf("append event %d: %w", i, err)
		}

		prevChainHash = sealed.ChainHash
		stored[i] = sealed
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if beforeCommit != nil {
		if err := beforeCommit(ctx, stored); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return stored, nil
}

// ListEvents returns up to limit events with seq greater than afterSeq. A
// non-positive limit returns every remaining event.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	query := "SELECT " + eventColumns + " FROM events WHERE seq > ? ORDER BY seq ASC"
	params := []any{int64(afterSeq)}
	if limit > 0 {
		query += " LIMIT ?"
		params = append(params, limit)
	}
	return s.queryEvents(ctx, query, params...)
}

// LatestSeq returns the sequence of the last stored event, 0 when empty.
func (s *Store) LatestSeq(ctx context.Context) (uint64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var seq int64
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM events").Scan(&seq); err != nil {
		return 0, fmt.Errorf("get latest event seq: %w", err)
	}
	return uint64(seq), nil
}

// ListEventsPage returns a filtered page of journal history in seq order.
func (s *Store) ListEventsPage(ctx context.Context, req storage.ListEventsPageRequest) (storage.ListEventsPageResult, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ListEventsPageResult{}, err
	}
	cond, err := filter.ParseEventFilter(req.Filter)
	if err != nil {
		return storage.ListEventsPageResult{}, apperrors.Wrap(apperrors.CodeInvalidConfiguration, "invalid event filter", err)
	}
	pageSize := storage.NormalizePageSize(req.PageSize)

	plan := buildListEventsPageSQLPlan(req.AfterSeq, pageSize, cond)
	events, err := s.queryEvents(ctx,
		"SELECT "+eventColumns+" FROM events WHERE "+plan.whereClause+" ORDER BY seq ASC "+plan.limitClause,
		plan.params...)
	if err != nil {
		return storage.ListEventsPageResult{}, err
	}

	result := storage.ListEventsPageResult{Events: events}
	if len(events) > pageSize {
		result.Events = events[:pageSize]
		result.HasNextPage = true
	}

	if err := s.sqlDB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM events WHERE "+plan.whereClause,
		plan.params...,
	).Scan(&result.TotalCount); err != nil {
		return storage.ListEventsPageResult{}, fmt.Errorf("count events: %w", err)
	}
	return result, nil
}

// VerifyJournal recomputes every event hash and chain link and checks each
// signature against the keyring.
func (s *Store) VerifyJournal(ctx context.Context) (storage.VerifyResult, error) {
	if err := s.ready(ctx); err != nil {
		return storage.VerifyResult{}, err
	}

	verifier := integrity.NewChainVerifier(s.keyring, storage.JournalName)
	for {
		events, err := s.ListEvents(ctx, verifier.LastSeq(), verifyPageSize)
		if err != nil {
			return storage.VerifyResult{}, err
		}
		if len(events) == 0 {
			break
		}
		for _, evt := range events {
			if err := verifier.Check(evt); err != nil {
				return storage.VerifyResult{}, apperrors.Wrap(apperrors.CodeJournalIntegrity, "journal verification failed", err)
			}
		}
	}
	return storage.VerifyResult{
		EventCount:    verifier.Count(),
		LastSeq:       verifier.LastSeq(),
		HeadChainHash: verifier.HeadChainHash(),
	}, nil
}

func (s *Store) queryEvents(ctx context.Context, query string, params ...any) ([]event.Event, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var (
			seq       int64
			timestamp int64
			eventType string
			evt       event.Event
		)
		if err := rows.Scan(
			&seq,
			&evt.Hash,
			&evt.PrevHash,
			&evt.ChainHash,
			&evt.SignatureKeyID,
			&evt.Signature,
			&timestamp,
			&eventType,
			&evt.ActorID,
			&evt.RequestID,
			&evt.EntityType,
			&evt.EntityID,
			&evt.PayloadJSON,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.Seq = uint64(seq)
		evt.Timestamp = fromMillis(timestamp)
		evt.Type = event.Type(eventType)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
