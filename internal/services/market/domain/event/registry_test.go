package event

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestRegistryRegisterRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: "category.added"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(Definition{Type: "category.added"}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if err := registry.Register(Definition{Type: "  "}); !errors.Is(err, ErrTypeRequired) {
		t.Fatalf("err = %v, want ErrTypeRequired", err)
	}
}

func TestRegistryValidateForAppend(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{
		Type:       "producer.registered",
		EntityType: "producer",
		ValidatePayload: func(raw json.RawMessage) error {
			if string(raw) == `{"reject":true}` {
				return errors.New("rejected")
			}
			return nil
		},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	base := sampleEvent()
	base.Timestamp = time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))

	tests := []struct {
		name   string
		mutate func(*Event)
		want   error
	}{
		{"valid", func(*Event) {}, nil},
		{"missing type", func(e *Event) { e.Type = "" }, ErrTypeRequired},
		{"unknown type", func(e *Event) { e.Type = "nope" }, ErrTypeUnknown},
		{"zero timestamp", func(e *Event) { e.Timestamp = time.Time{} }, ErrTimestampRequired},
		{"wrong entity type", func(e *Event) { e.EntityType = "category" }, ErrEntityTypeMismatch},
		{"missing entity id", func(e *Event) { e.EntityID = " " }, ErrEntityIDRequired},
		{"invalid payload", func(e *Event) { e.PayloadJSON = []byte("{") }, ErrPayloadInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := base
			tt.mutate(&evt)
			got, err := registry.ValidateForAppend(evt)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Timestamp.Location() != time.UTC {
					t.Fatal("expected timestamp normalized to UTC")
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	rejected := base
	rejected.PayloadJSON = []byte(`{"reject":true}`)
	if _, err := registry.ValidateForAppend(rejected); err == nil {
		t.Fatal("expected payload validator error")
	}
}

func TestRegistryDefaultsEmptyPayload(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(Definition{Type: "platform.fee_rate_updated"})
	got, err := registry.ValidateForAppend(Event{Type: "platform.fee_rate_updated", Timestamp: time.Unix(1, 0)})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if string(got.PayloadJSON) != "{}" {
		t.Fatalf("payload = %s, want {}", got.PayloadJSON)
	}
	if types := registry.Types(); len(types) != 1 || types[0] != "platform.fee_rate_updated" {
		t.Fatalf("types = %v", types)
	}
}
