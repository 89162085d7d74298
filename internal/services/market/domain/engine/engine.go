package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/tollgate.space/internal/platform/errors"
	"github.com/louisbranch/tollgate.space/internal/platform/requestctx"
	"github.com/louisbranch/tollgate.space/internal/platform/timeouts"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/command"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage"
)

const tracerName = "github.com/louisbranch/tollgate.space/internal/services/market/domain/engine"

var (
	// ErrJournalRequired indicates a missing event journal.
	ErrJournalRequired = errors.New("event journal is required")
	// ErrTransfererRequired indicates a missing payout collaborator.
	ErrTransfererRequired = errors.New("transferer is required")
	// ErrReplayMismatch indicates journal or checkpoint data that cannot be
	// folded into a consistent state.
	ErrReplayMismatch = errors.New("journal replay mismatch")
)

// Transferer sends value out of the engine. A returned error means nothing
// was sent.
type Transferer interface {
	Transfer(ctx context.Context, destination string, amount market.Amount) error
}

// PlatformSettings configures the platform when the journal is empty. Owner
// becomes the only principal allowed to change configuration and claim
// platform royalties.
type PlatformSettings struct {
	Name            string
	Description     string
	FeeRate         market.BasePoints
	RegisterPayment market.Amount
	Owner           string
}

// Options wires the engine's collaborators.
type Options struct {
	Journal storage.EventJournal
	// Checkpoints is optional; without it startup replays the whole journal.
	Checkpoints storage.CheckpointStore
	Transferer  Transferer
	// CheckpointEvery saves a checkpoint each time the journal crosses a
	// multiple of this many events. Zero disables checkpoints.
	CheckpointEvery uint64
	Now             func() time.Time
	Tracer          trace.Tracer
}

// Engine serializes every marketplace operation against one state.
type Engine struct {
	mu              sync.Mutex
	state           market.State
	commands        *command.Registry
	events          *event.Registry
	journal         storage.EventJournal
	checkpoints     storage.CheckpointStore
	transferer      Transferer
	checkpointEvery uint64
	now             func() time.Time
	tracer          trace.Tracer
}

// Open rebuilds state from the latest checkpoint and the journal. When the
// journal is empty the platform is initialized from settings; otherwise
// settings are ignored and the journaled configuration wins.
func Open(ctx context.Context, opts Options, settings PlatformSettings) (*Engine, error) {
	if opts.Journal == nil {
		return nil, ErrJournalRequired
	}
	if opts.Transferer == nil {
		return nil, ErrTransfererRequired
	}
	commands, events, err := market.NewRegistries()
	if err != nil {
		return nil, fmt.Errorf("build registries: %w", err)
	}

	e := &Engine{
		state:           market.NewState(),
		commands:        commands,
		events:          events,
		journal:         opts.Journal,
		checkpoints:     opts.Checkpoints,
		transferer:      opts.Transferer,
		checkpointEvery: opts.CheckpointEvery,
		now:             opts.Now,
		tracer:          opts.Tracer,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}

	ctx, span := e.tracer.Start(ctx, "market.Open")
	defer span.End()

	if err := e.replay(ctx); err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("market.last_seq", int64(e.state.LastSeq)))

	if !e.state.Initialized {
		if _, err := e.execute(ctx, market.CommandTypeInitialize, settings.Owner, market.InitializePayload{
			Name:            settings.Name,
			Description:     settings.Description,
			FeeRate:         settings.FeeRate,
			RegisterPayment: settings.RegisterPayment,
		}, nil); err != nil {
			recordError(span, err)
			return nil, fmt.Errorf("initialize platform: %w", err)
		}
	}
	return e, nil
}

// claimTransfer describes the outbound transfer a claim performs before its
// event commits.
type claimTransfer struct {
	destination string
}

// execute decides cmd against live state, stages the resulting events on a
// clone, and commits them through the journal. The caller must not hold e.mu.
func (e *Engine) execute(ctx context.Context, typ command.Type, caller string, payload any, transfer *claimTransfer) ([]event.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.executeLocked(ctx, typ, caller, payload, transfer)
}

func (e *Engine) executeLocked(ctx context.Context, typ command.Type, caller string, payload any, transfer *claimTransfer) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	cmd, err := e.commands.ValidateForDecision(command.Command{
		Type:        typ,
		ActorID:     caller,
		RequestID:   requestctx.RequestIDFromContext(ctx),
		PayloadJSON: payloadJSON,
	})
	if err != nil {
		if errors.Is(err, command.ErrActorIDRequired) {
			return nil, apperrors.Wrap(apperrors.CodePrincipalRequired, "caller principal is required", err)
		}
		return nil, apperrors.Wrap(apperrors.CodeInvalidConfiguration, "invalid command", err)
	}

	decision := market.Decide(e.state, cmd, e.now)
	if decision.Rejected() {
		return nil, rejectionError(decision.Rejections[0])
	}
	if len(decision.Events) == 0 {
		return nil, nil
	}

	staged := e.state.Clone()
	for i, evt := range decision.Events {
		validated, err := e.events.ValidateForAppend(evt)
		if err != nil {
			return nil, fmt.Errorf("validate %s: %w", evt.Type, err)
		}
		decision.Events[i] = validated
		if staged, err = market.Fold(staged, validated); err != nil {
			return nil, fmt.Errorf("stage %s: %w", evt.Type, err)
		}
	}
	if err := staged.CheckConservation(); err != nil {
		return nil, fmt.Errorf("stage %s: %w", typ, err)
	}

	var beforeCommit storage.BeforeCommit
	if transfer != nil {
		beforeCommit = e.transferHook(transfer.destination)
	}

	stored, err := e.journal.AppendEvents(ctx, decision.Events, beforeCommit)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeTransferFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("append %s: %w", typ, err)
	}
	if len(stored) > 0 {
		staged.LastSeq = stored[len(stored)-1].Seq
	}

	previousSeq := e.state.LastSeq
	e.state = staged
	e.maybeCheckpoint(ctx, previousSeq)
	return stored, nil
}

// transferHook pays out the amount recorded in the staged claim event. It
// runs after the balance is zeroed on the staged state and before the claim
// commits.
func (e *Engine) transferHook(destination string) storage.BeforeCommit {
	return func(ctx context.Context, stored []event.Event) error {
		var amount market.Amount
		for _, evt := range stored {
			if evt.Type != market.EventTypeRoyaltiesClaimed {
				continue
			}
			claimed, err := event.DecodePayload[market.RoyaltiesClaimedPayload](evt)
			if err != nil {
				return err
			}
			amount = claimed.Amount
		}

		transferCtx, cancel := context.WithTimeout(ctx, timeouts.Transfer)
		defer cancel()
		if err := e.transferer.Transfer(transferCtx, destination, amount); err != nil {
			return apperrors.Wrap(apperrors.CodeTransferFailed, "transfer to "+destination+" failed", err)
		}
		return nil
	}
}

func rejectionError(rejection command.Rejection) error {
	return apperrors.WithMetadata(apperrors.Code(rejection.Code), rejection.Message, rejection.Metadata)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
}

// startSpan opens an operation span tagged with the caller.
func (e *Engine) startSpan(ctx context.Context, name, caller string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("market.caller", strings.TrimSpace(caller)))
	return e.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// finishSpan records err, if any, and ends span. It returns err unchanged.
func finishSpan(span trace.Span, err error) error {
	if err != nil {
		recordError(span, err)
		if code := apperrors.CodeOf(err); code != apperrors.CodeUnknown {
			span.SetAttributes(attribute.String("market.error_code", string(code)))
		}
	}
	span.End()
	return err
}
