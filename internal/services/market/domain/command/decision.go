package command

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
)

// Decision represents the pure outcome of handling a command.
type Decision struct {
	Events     []event.Event
	Rejections []Rejection
}

// Rejection captures a domain-level reason a command was declined.
type Rejection struct {
	Code     string
	Message  string
	Metadata map[string]string
}

// Accept returns a decision that emits the provided events.
func Accept(events ...event.Event) Decision {
	return Decision{Events: append([]event.Event(nil), events...)}
}

// Reject returns a decision that carries the provided rejections.
func Reject(rejections ...Rejection) Decision {
	return Decision{Rejections: append([]Rejection(nil), rejections...)}
}

// Rejected reports whether the decision declined the command.
func (d Decision) Rejected() bool {
	return len(d.Rejections) > 0
}

// NewEvent builds an event by copying the envelope fields from cmd.
func NewEvent(cmd Command, eventType event.Type, entityType, entityID string, payload any, now time.Time) (event.Event, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return event.Event{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return event.Event{
		Type:        eventType,
		Timestamp:   now.UTC(),
		ActorID:     cmd.ActorID,
		RequestID:   cmd.RequestID,
		EntityType:  entityType,
		EntityID:    entityID,
		PayloadJSON: payloadJSON,
	}, nil
}
