package market

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/tollgate.space/internal/services/market/domain/command"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
)

func foldEvent(t *testing.T, typ event.Type, actor, entityType, entityID string, payload any) event.Event {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return event.Event{
		Type:        typ,
		Timestamp:   testNow,
		ActorID:     actor,
		EntityType:  entityType,
		EntityID:    entityID,
		PayloadJSON: data,
	}
}

func TestFoldRequiresInitialization(t *testing.T) {
	evt := foldEvent(t, EventTypeProducerRegistered, testProducer, EntityProducer, testProducer, ProducerRegisteredPayload{})
	if _, err := Fold(NewState(), evt); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("err = %v, want ErrNotInitialized", err)
	}
}

func TestFoldRejectsInvariantViolations(t *testing.T) {
	base := producerState(t)

	tests := []struct {
		name string
		evt  event.Event
		want error
	}{
		{
			"zero fee category",
			foldEvent(t, EventTypeCategoryAdded, testProducer, EntityCategory, "x", CategoryAddedPayload{Producer: testProducer, Name: "free", Fee: 0, SessionDurationSeconds: 1}),
			ErrInvalidCategory,
		},
		{
			"duplicate category",
			foldEvent(t, EventTypeCategoryAdded, testProducer, EntityCategory, "x", CategoryAddedPayload{Producer: testProducer, Name: "lectures", Fee: 1, SessionDurationSeconds: 1}),
			ErrInvalidCategory,
		},
		{
			"category for unknown producer",
			foldEvent(t, EventTypeCategoryAdded, "ghost", EntityCategory, "x", CategoryAddedPayload{Producer: "ghost", Name: "a", Fee: 1, SessionDurationSeconds: 1}),
			ErrUnknownProducer,
		},
		{
			"content for unknown category",
			foldEvent(t, EventTypeContentAdded, testProducer, EntityCategory, "x", ContentAddedPayload{Producer: testProducer, Category: "missing", Locator: "l"}),
			ErrUnknownCategory,
		},
		{
			"split does not sum",
			foldEvent(t, EventTypeSessionActivated, testConsumer, EntitySession, testConsumer, SessionActivatedPayload{
				Consumer: testConsumer, Producer: testProducer, Category: "lectures", Paid: 10, PlatformPart: 5, ProducerPart: 4,
			}),
			ErrLedgerImbalance,
		},
		{
			"claim more than balance",
			foldEvent(t, EventTypeRoyaltiesClaimed, testOwner, EntityRoyalties, testOwner, RoyaltiesClaimedPayload{Role: ClaimRolePlatform, Claimant: testOwner, Amount: 1}),
			ErrLedgerImbalance,
		},
		{
			"rate above max",
			foldEvent(t, EventTypeFeeRateUpdated, testOwner, EntityPlatform, PlatformEntityID, UpdateFeeRatePayload{FeeRate: 20000}),
			ErrFeeRateOutOfRange,
		},
		{
			"unknown type",
			foldEvent(t, "platform.unknown", testOwner, EntityPlatform, PlatformEntityID, struct{}{}),
			event.ErrTypeUnknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Fold(base.Clone(), tt.evt); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFoldTracksLastSeq(t *testing.T) {
	state := initializedState(t)
	evt := foldEvent(t, EventTypeRegisterPaymentUpdated, testOwner, EntityPlatform, PlatformEntityID, UpdateRegisterPaymentPayload{Amount: 7})
	evt.Seq = 42
	state, err := Fold(state, evt)
	if err != nil {
		t.Fatalf("fold: %v", err)
	}
	if state.LastSeq != 42 || state.Config.RegisterPayment != 7 {
		t.Fatalf("state = seq %d payment %d", state.LastSeq, state.Config.RegisterPayment)
	}
}

func TestProducerMembershipIsMonotonic(t *testing.T) {
	state := producerState(t)
	steps := []struct {
		typ     command.Type
		actor   string
		payload any
	}{
		{CommandTypeAddContent, testProducer, AddContentPayload{Category: "lectures", Locator: "l1"}},
		{CommandTypeActivateSession, testConsumer, ActivateSessionPayload{Paid: unit, Producer: testProducer, Category: "lectures"}},
		{CommandTypeClaimRoyalties, testProducer, ClaimRoyaltiesPayload{Role: ClaimRoleProducer, Destination: "w"}},
		{CommandTypeClaimRoyalties, testOwner, ClaimRoyaltiesPayload{Role: ClaimRolePlatform, Destination: "w"}},
	}
	for _, step := range steps {
		cmd := newCommand(t, step.typ, step.actor, step.payload)
		state = mustApply(t, state, cmd)
		if !state.IsProducer(testProducer) {
			t.Fatalf("producer membership lost after %s", cmd.Type)
		}
	}
	if state.IsProducer(testConsumer) || state.IsProducer(testOwner) {
		t.Fatal("unexpected producer membership")
	}
	profiles := state.ListProducers()
	if len(profiles) != 1 || profiles[0].Principal != testProducer || profiles[0].ContentType != "video" {
		t.Fatalf("producers = %+v", profiles)
	}
}

func TestSessionActiveWindow(t *testing.T) {
	state := producerState(t)
	state = mustApply(t, state, newCommand(t, CommandTypeActivateSession, testConsumer, ActivateSessionPayload{Paid: unit, Producer: testProducer, Category: "lectures"}))
	key := SessionKey{Consumer: testConsumer, Producer: testProducer, Category: "lectures"}

	tests := []struct {
		at   time.Time
		want bool
	}{
		{testNow, true},
		{testNow.Add(12 * time.Hour), true},
		{testNow.Add(24*time.Hour - time.Nanosecond), true},
		{testNow.Add(24 * time.Hour), false},
		{testNow.Add(48 * time.Hour), false},
	}
	for _, tt := range tests {
		if got := state.IsSessionActive(key, tt.at); got != tt.want {
			t.Fatalf("IsSessionActive at %v = %v, want %v", tt.at, got, tt.want)
		}
	}
	other := SessionKey{Consumer: "consumer-2", Producer: testProducer, Category: "lectures"}
	if state.IsSessionActive(other, testNow) {
		t.Fatal("session leaked to another consumer")
	}
}

func TestCloneIsolatesMutations(t *testing.T) {
	state := producerState(t)
	state = mustApply(t, state, newCommand(t, CommandTypeAddContent, testProducer, AddContentPayload{Category: "lectures", Locator: "l1"}))

	clone := state.Clone()
	clone = mustApply(t, clone, newCommand(t, CommandTypeAddContent, testProducer, AddContentPayload{Category: "lectures", Locator: "l2"}))
	clone = mustApply(t, clone, newCommand(t, CommandTypeActivateSession, testConsumer, ActivateSessionPayload{Paid: unit, Producer: testProducer, Category: "lectures"}))
	clone = mustApply(t, clone, newCommand(t, CommandTypeRegister, "producer-2", RegisterPayload{Paid: 10 * unit}))
	clone = mustApply(t, clone, newCommand(t, CommandTypeClaimRoyalties, testOwner, ClaimRoyaltiesPayload{Role: ClaimRolePlatform, Destination: "w"}))

	if got := state.Content(testProducer, "lectures"); len(got) != 1 {
		t.Fatalf("original content = %v", got)
	}
	if state.ProducerBalance(testProducer) != 0 || state.PlatformBalance != 10*unit {
		t.Fatalf("original balances changed: producer %d platform %d", state.ProducerBalance(testProducer), state.PlatformBalance)
	}
	if len(state.Sessions) != 0 || state.IsProducer("producer-2") || len(state.ProducerOrder) != 1 {
		t.Fatal("original sessions or producers changed")
	}
	if len(clone.Content(testProducer, "lectures")) != 2 {
		t.Fatal("clone did not record content")
	}
}

func TestCheckConservationDetectsImbalance(t *testing.T) {
	state := producerState(t)
	state.PlatformBalance++
	if err := state.CheckConservation(); !errors.Is(err, ErrLedgerImbalance) {
		t.Fatalf("err = %v, want ErrLedgerImbalance", err)
	}
}

func TestListProducerCategoriesReturnsCopy(t *testing.T) {
	state := producerState(t)
	categories := state.ListProducerCategories(testProducer)
	if len(categories) != 1 || categories[0].SessionDuration != 24*time.Hour {
		t.Fatalf("categories = %+v", categories)
	}
	categories[0].Fee = 0
	if c, _ := state.FindCategory(testProducer, "lectures"); c.Fee != unit {
		t.Fatal("mutating the returned slice changed state")
	}
	if state.ListProducerCategories("nobody") != nil {
		t.Fatal("expected nil for unknown producer")
	}
}
