package engine

import (
	"context"
	"testing"

	apperrors "github.com/louisbranch/tollgate.space/internal/platform/errors"
)

func TestClaimProducerRoyalties(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.withCategory(t)
	if _, err := f.engine.ActivateSession(ctx, consumer, unit, producer, "lectures"); err != nil {
		t.Fatalf("activate session: %v", err)
	}

	amount, err := f.engine.ClaimProducerRoyalties(ctx, producer, "acct-producer")
	if err != nil {
		t.Fatalf("claim producer royalties: %v", err)
	}
	if amount != 950_000 {
		t.Fatalf("amount = %d, want 950000", amount)
	}
	if got := f.engine.ProducerClaimableBalance(producer); got != 0 {
		t.Fatalf("producer balance = %d, want 0", got)
	}
	if len(f.transferer.transfers) != 1 || f.transferer.transfers[0] != (transfer{Destination: "acct-producer", Amount: 950_000}) {
		t.Fatalf("transfers = %+v", f.transferer.transfers)
	}

	_, err = f.engine.ClaimProducerRoyalties(ctx, producer, "acct-producer")
	requireCode(t, err, apperrors.CodeNothingToWithdraw)
	if len(f.transferer.transfers) != 1 {
		t.Fatalf("transfers = %d, want 1", len(f.transferer.transfers))
	}
}

func TestClaimPlatformRoyalties(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.engine.ClaimPlatformRoyalties(ctx, owner, "acct-owner")
	requireCode(t, err, apperrors.CodeNothingToWithdraw)

	f.withCategory(t)
	_, err = f.engine.ClaimPlatformRoyalties(ctx, producer, "acct-producer")
	requireCode(t, err, apperrors.CodeUnauthorized)
	_, err = f.engine.ClaimProducerRoyalties(ctx, consumer, "acct-consumer")
	requireCode(t, err, apperrors.CodeUnauthorized)

	amount, err := f.engine.ClaimPlatformRoyalties(ctx, owner, "acct-owner")
	if err != nil {
		t.Fatalf("claim platform royalties: %v", err)
	}
	if amount != 10*unit {
		t.Fatalf("amount = %d, want %d", amount, 10*unit)
	}
	if got := f.engine.PlatformClaimableBalance(); got != 0 {
		t.Fatalf("platform balance = %d, want 0", got)
	}
}

func TestClaimTransferFailureRevertsBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.withCategory(t)
	if _, err := f.engine.ActivateSession(ctx, consumer, unit, producer, "lectures"); err != nil {
		t.Fatalf("activate session: %v", err)
	}
	seq := latestSeq(t, f)

	f.transferer.err = errBankDown
	_, err := f.engine.ClaimProducerRoyalties(ctx, producer, "acct-producer")
	requireCode(t, err, apperrors.CodeTransferFailed)
	_, err = f.engine.ClaimPlatformRoyalties(ctx, owner, "acct-owner")
	requireCode(t, err, apperrors.CodeTransferFailed)

	if got := f.engine.ProducerClaimableBalance(producer); got != 950_000 {
		t.Fatalf("producer balance = %d, want 950000", got)
	}
	if got := f.engine.PlatformClaimableBalance(); got != 10*unit+50_000 {
		t.Fatalf("platform balance = %d, want %d", got, 10*unit+50_000)
	}
	if got := latestSeq(t, f); got != seq {
		t.Fatalf("journal seq = %d, want %d", got, seq)
	}

	f.transferer.err = nil
	amount, err := f.engine.ClaimProducerRoyalties(ctx, producer, "acct-producer")
	if err != nil {
		t.Fatalf("claim after recovery: %v", err)
	}
	if amount != 950_000 {
		t.Fatalf("amount = %d, want 950000", amount)
	}
}

func TestClaimRequiresDestination(t *testing.T) {
	f := newFixture(t)
	f.withCategory(t)
	_, err := f.engine.ClaimPlatformRoyalties(context.Background(), owner, " ")
	requireCode(t, err, apperrors.CodeInvalidConfiguration)
}
