package market

import (
	"errors"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	state := producerState(t)
	state = mustApply(t, state, newCommand(t, CommandTypeAddContent, testProducer, AddContentPayload{Category: "lectures", Locator: "l1"}))
	state = mustApply(t, state, newCommand(t, CommandTypeActivateSession, testConsumer, ActivateSessionPayload{Paid: unit, Producer: testProducer, Category: "lectures"}))
	state = mustApply(t, state, newCommand(t, CommandTypeRegister, "producer-2", RegisterPayload{Paid: 10 * unit}))
	state.LastSeq = 9

	restored, err := FromSnapshot(ToSnapshot(state))
	if err != nil {
		t.Fatalf("from snapshot: %v", err)
	}
	if restored.Config != state.Config || restored.LastSeq != 9 {
		t.Fatalf("config = %+v seq %d", restored.Config, restored.LastSeq)
	}
	if restored.PlatformBalance != state.PlatformBalance || restored.ProducerBalance(testProducer) != state.ProducerBalance(testProducer) {
		t.Fatal("balances differ after restore")
	}
	if got := restored.ListProducers(); len(got) != 2 || got[0].Principal != testProducer || got[1].Principal != "producer-2" {
		t.Fatalf("producer order = %+v", got)
	}
	key := SessionKey{Consumer: testConsumer, Producer: testProducer, Category: "lectures"}
	want, _ := state.SessionExpiry(key)
	if got, ok := restored.SessionExpiry(key); !ok || !got.Equal(want) {
		t.Fatalf("expiry = %v, want %v", got, want)
	}
	if got := restored.Content(testProducer, "lectures"); len(got) != 1 || got[0] != "l1" {
		t.Fatalf("content = %v", got)
	}
	if c, ok := restored.FindCategory(testProducer, "lectures"); !ok || c.Fee != unit {
		t.Fatalf("category = %+v, %v", c, ok)
	}
}

func TestFromSnapshotRejectsCorruption(t *testing.T) {
	snap := ToSnapshot(producerState(t))

	unbalanced := snap
	unbalanced.PlatformBalance++
	if _, err := FromSnapshot(unbalanced); !errors.Is(err, ErrLedgerImbalance) {
		t.Fatalf("err = %v, want ErrLedgerImbalance", err)
	}

	zeroFee := ToSnapshot(producerState(t))
	zeroFee.Producers[0].Categories[0].Fee = 0
	if _, err := FromSnapshot(zeroFee); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("err = %v, want ErrInvalidCategory", err)
	}
}
