package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/louisbranch/tollgate.space/internal/platform/errors"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage"
)

// UpdateRegisterPayment replaces the price of future registrations.
func (e *Engine) UpdateRegisterPayment(ctx context.Context, caller string, amount market.Amount) (err error) {
	ctx, span := e.startSpan(ctx, "market.UpdateRegisterPayment", caller)
	defer func() { err = finishSpan(span, err) }()

	_, err = e.execute(ctx, market.CommandTypeUpdateRegisterPayment, caller, market.UpdateRegisterPaymentPayload{
		Amount: amount,
	}, nil)
	return err
}

// UpdatePlatformFeeRate replaces the platform share applied to future
// session activations.
func (e *Engine) UpdatePlatformFeeRate(ctx context.Context, caller string, rate market.BasePoints) (err error) {
	ctx, span := e.startSpan(ctx, "market.UpdatePlatformFeeRate", caller)
	defer func() { err = finishSpan(span, err) }()

	_, err = e.execute(ctx, market.CommandTypeUpdateFeeRate, caller, market.UpdateFeeRatePayload{
		FeeRate: rate,
	}, nil)
	return err
}

// Register makes caller a producer. paid must equal the current
// registration price and is credited to the platform in full.
func (e *Engine) Register(ctx context.Context, caller string, paid market.Amount, contentType, contentDescription string) (err error) {
	ctx, span := e.startSpan(ctx, "market.Register", caller, attribute.Int64("market.paid", int64(paid)))
	defer func() { err = finishSpan(span, err) }()

	_, err = e.execute(ctx, market.CommandTypeRegister, caller, market.RegisterPayload{
		Paid:               paid,
		ContentType:        contentType,
		ContentDescription: contentDescription,
	}, nil)
	return err
}

// AddCategory appends a category to the caller's catalog. The duration is
// truncated to whole seconds.
func (e *Engine) AddCategory(ctx context.Context, caller, name, description string, fee market.Amount, sessionDuration time.Duration) (err error) {
	ctx, span := e.startSpan(ctx, "market.AddCategory", caller, attribute.String("market.category", name))
	defer func() { err = finishSpan(span, err) }()

	var seconds uint64
	if sessionDuration > 0 {
		seconds = uint64(sessionDuration / time.Second)
	}
	_, err = e.execute(ctx, market.CommandTypeAddCategory, caller, market.AddCategoryPayload{
		Name:                   name,
		Description:            description,
		Fee:                    fee,
		SessionDurationSeconds: seconds,
	}, nil)
	return err
}

// AddContent appends a content locator to one of the caller's categories.
func (e *Engine) AddContent(ctx context.Context, caller, category, locator string) (err error) {
	ctx, span := e.startSpan(ctx, "market.AddContent", caller, attribute.String("market.category", category))
	defer func() { err = finishSpan(span, err) }()

	_, err = e.execute(ctx, market.CommandTypeAddContent, caller, market.AddContentPayload{
		Category: category,
		Locator:  locator,
	}, nil)
	return err
}

// ActivateSession pays for access to a producer category and returns the new
// expiry. Reactivating replaces the previous expiry.
func (e *Engine) ActivateSession(ctx context.Context, caller string, paid market.Amount, producer, category string) (expiresAt time.Time, err error) {
	ctx, span := e.startSpan(ctx, "market.ActivateSession", caller,
		attribute.String("market.producer", producer),
		attribute.String("market.category", category),
		attribute.Int64("market.paid", int64(paid)),
	)
	defer func() { err = finishSpan(span, err) }()

	stored, err := e.execute(ctx, market.CommandTypeActivateSession, caller, market.ActivateSessionPayload{
		Paid:     paid,
		Producer: producer,
		Category: category,
	}, nil)
	if err != nil {
		return time.Time{}, err
	}
	activated, err := lastPayload[market.SessionActivatedPayload](stored, market.EventTypeSessionActivated)
	if err != nil {
		return time.Time{}, err
	}
	return activated.ExpiresAt, nil
}

// ClaimPlatformRoyalties transfers the whole platform balance to destination.
func (e *Engine) ClaimPlatformRoyalties(ctx context.Context, caller, destination string) (market.Amount, error) {
	return e.claim(ctx, "market.ClaimPlatformRoyalties", caller, market.ClaimRolePlatform, destination)
}

// ClaimProducerRoyalties transfers the caller's producer balance to
// destination.
func (e *Engine) ClaimProducerRoyalties(ctx context.Context, caller, destination string) (market.Amount, error) {
	return e.claim(ctx, "market.ClaimProducerRoyalties", caller, market.ClaimRoleProducer, destination)
}

func (e *Engine) claim(ctx context.Context, spanName, caller string, role market.ClaimRole, destination string) (amount market.Amount, err error) {
	ctx, span := e.startSpan(ctx, spanName, caller, attribute.String("market.destination", destination))
	defer func() { err = finishSpan(span, err) }()

	stored, err := e.execute(ctx, market.CommandTypeClaimRoyalties, caller, market.ClaimRoyaltiesPayload{
		Role:        role,
		Destination: destination,
	}, &claimTransfer{destination: destination})
	if err != nil {
		return 0, err
	}
	claimed, err := lastPayload[market.RoyaltiesClaimedPayload](stored, market.EventTypeRoyaltiesClaimed)
	if err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.Int64("market.amount", int64(claimed.Amount)))
	return claimed.Amount, nil
}

// ListEvents returns one filtered page of the journal.
func (e *Engine) ListEvents(ctx context.Context, req storage.ListEventsPageRequest) (result storage.ListEventsPageResult, err error) {
	ctx, span := e.startSpan(ctx, "market.ListEvents", "", attribute.String("market.filter", req.Filter))
	defer func() { err = finishSpan(span, err) }()

	pager, ok := e.journal.(storage.EventPager)
	if !ok {
		return storage.ListEventsPageResult{}, apperrors.New(apperrors.CodeInvalidConfiguration, "journal does not support paged queries")
	}
	return pager.ListEventsPage(ctx, req)
}

// VerifyJournal checks the journal's hash chain and signatures.
func (e *Engine) VerifyJournal(ctx context.Context) (result storage.VerifyResult, err error) {
	ctx, span := e.startSpan(ctx, "market.VerifyJournal", "")
	defer func() { err = finishSpan(span, err) }()

	verifier, ok := e.journal.(storage.JournalVerifier)
	if !ok {
		return storage.VerifyResult{}, apperrors.New(apperrors.CodeInvalidConfiguration, "journal does not support verification")
	}
	return verifier.VerifyJournal(ctx)
}

func lastPayload[T any](stored []event.Event, typ event.Type) (T, error) {
	for i := len(stored) - 1; i >= 0; i-- {
		if stored[i].Type == typ {
			return event.DecodePayload[T](stored[i])
		}
	}
	var zero T
	return zero, fmt.Errorf("no %s event was stored", typ)
}
