package payout

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/louisbranch/tollgate.space/internal/services/market/domain/engine"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
)

var (
	_ engine.Transferer = (*Logger)(nil)
	_ engine.Transferer = Func(nil)
)

func TestLoggerRecordsTransfers(t *testing.T) {
	var buf bytes.Buffer
	payouts := NewLogger(log.New(&buf, "", 0))

	for _, amount := range []market.Amount{1_500_000, 250_000} {
		if err := payouts.Transfer(context.Background(), "acct-1", amount); err != nil {
			t.Fatalf("transfer: %v", err)
		}
	}
	if got := payouts.Total("acct-1"); got != 1_750_000 {
		t.Fatalf("Total = %d, want 1750000", got)
	}
	if got := payouts.Count(); got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}
	if !strings.Contains(buf.String(), "to acct-1") {
		t.Fatalf("log output = %q", buf.String())
	}
}

func TestLoggerRejectsInvalidTransfers(t *testing.T) {
	payouts := NewLogger(log.New(&bytes.Buffer{}, "", 0))
	if err := payouts.Transfer(context.Background(), " ", 1); !errors.Is(err, ErrDestinationRequired) {
		t.Fatalf("Transfer = %v, want %v", err, ErrDestinationRequired)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := payouts.Transfer(ctx, "acct-1", 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("Transfer = %v, want %v", err, context.Canceled)
	}
	if got := payouts.Count(); got != 0 {
		t.Fatalf("Count = %d, want 0", got)
	}
}

func TestFuncTransfer(t *testing.T) {
	var gotDestination string
	var gotAmount market.Amount
	fn := Func(func(_ context.Context, destination string, amount market.Amount) error {
		gotDestination, gotAmount = destination, amount
		return nil
	})
	if err := fn.Transfer(context.Background(), "acct-2", 42); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if gotDestination != "acct-2" || gotAmount != 42 {
		t.Fatalf("got %q %d, want acct-2 42", gotDestination, gotAmount)
	}
}
