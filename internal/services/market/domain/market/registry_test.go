package market

import (
	"testing"

	"github.com/louisbranch/tollgate.space/internal/services/market/domain/command"
)

func TestNewRegistriesCoverDecidedTypes(t *testing.T) {
	commands, events, err := NewRegistries()
	if err != nil {
		t.Fatalf("new registries: %v", err)
	}
	for _, typ := range commandTypes {
		if _, err := commands.ValidateForDecision(command.Command{Type: typ, ActorID: testOwner}); err != nil {
			t.Fatalf("command %s not registered: %v", typ, err)
		}
	}

	state := producerState(t)
	decision := Decide(state, newCommand(t, CommandTypeActivateSession, testConsumer, ActivateSessionPayload{
		Paid: unit, Producer: testProducer, Category: "lectures",
	}), fixedNow)
	for _, evt := range decision.Events {
		if _, err := events.ValidateForAppend(evt); err != nil {
			t.Fatalf("event %s rejected by registry: %v", evt.Type, err)
		}
	}
	if len(events.Types()) != len(eventDefinitions) {
		t.Fatalf("event types = %d, want %d", len(events.Types()), len(eventDefinitions))
	}
}

func TestRegisterCommandsTwiceFails(t *testing.T) {
	registry := command.NewRegistry()
	if err := RegisterCommands(registry); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := RegisterCommands(registry); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}
