package market

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/louisbranch/tollgate.space/internal/services/market/domain/command"
)

const (
	testOwner    = "owner-1"
	testProducer = "producer-1"
	testConsumer = "consumer-1"
	unit         = Amount(1_000_000)
)

var testNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func newCommand(t *testing.T, typ command.Type, actor string, payload any) command.Command {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return command.Command{Type: typ, ActorID: actor, PayloadJSON: data}
}

func mustApply(t *testing.T, state State, cmd command.Command) State {
	t.Helper()
	decision := Decide(state, cmd, fixedNow)
	if decision.Rejected() {
		t.Fatalf("%s rejected: %+v", cmd.Type, decision.Rejections)
	}
	for _, evt := range decision.Events {
		var err error
		state, err = Fold(state, evt)
		if err != nil {
			t.Fatalf("fold %s: %v", evt.Type, err)
		}
	}
	if err := state.CheckConservation(); err != nil {
		t.Fatalf("conservation after %s: %v", cmd.Type, err)
	}
	return state
}

func requireRejection(t *testing.T, decision command.Decision, code string) command.Rejection {
	t.Helper()
	if len(decision.Events) != 0 {
		t.Fatalf("expected no events, got %d", len(decision.Events))
	}
	if len(decision.Rejections) != 1 {
		t.Fatalf("rejections = %+v, want one %s", decision.Rejections, code)
	}
	if got := decision.Rejections[0].Code; got != code {
		t.Fatalf("rejection code = %s, want %s", got, code)
	}
	return decision.Rejections[0]
}

// initializedState returns a platform charging 10 units to register and a
// 5% fee on sessions.
func initializedState(t *testing.T) State {
	t.Helper()
	return mustApply(t, NewState(), newCommand(t, CommandTypeInitialize, testOwner, InitializePayload{
		Name:            "Tollgate",
		Description:     "pay-per-session catalog",
		FeeRate:         500,
		RegisterPayment: 10 * unit,
	}))
}

// producerState adds testProducer with a one-day "lectures" category.
func producerState(t *testing.T) State {
	t.Helper()
	state := initializedState(t)
	state = mustApply(t, state, newCommand(t, CommandTypeRegister, testProducer, RegisterPayload{
		Paid:               10 * unit,
		ContentType:        "video",
		ContentDescription: "recorded lectures",
	}))
	return mustApply(t, state, newCommand(t, CommandTypeAddCategory, testProducer, AddCategoryPayload{
		Name:                   "lectures",
		Description:            "weekly lectures",
		Fee:                    unit,
		SessionDurationSeconds: 86400,
	}))
}
