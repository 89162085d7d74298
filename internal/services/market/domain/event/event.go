package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies an event type string, e.g. "session.activated".
type Type string

// Event is an immutable record in the marketplace journal.
type Event struct {
	Seq            uint64
	Hash           string
	PrevHash       string
	ChainHash      string
	Signature      string
	SignatureKeyID string
	Timestamp      time.Time
	Type           Type
	ActorID        string
	RequestID      string
	EntityType     string
	EntityID       string
	PayloadJSON    []byte
}

// envelope is the hashed projection of an event. Field order here is the
// canonical order; journal metadata (seq, hashes, signatures) is excluded.
type envelope struct {
	Type       Type            `json:"type"`
	Timestamp  string          `json:"ts"`
	ActorID    string          `json:"actor_id,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	EntityType string          `json:"entity_type,omitempty"`
	EntityID   string          `json:"entity_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

type chainEnvelope struct {
	PrevHash  string `json:"prev_hash"`
	EventHash string `json:"event_hash"`
	Seq       uint64 `json:"seq"`
}

// EventHash returns the hex SHA-256 of the event's canonical envelope.
func EventHash(evt Event) (string, error) {
	payload := evt.PayloadJSON
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	if !json.Valid(payload) {
		return "", ErrPayloadInvalid
	}
	data, err := json.Marshal(envelope{
		Type:       evt.Type,
		Timestamp:  evt.Timestamp.UTC().Format(time.RFC3339Nano),
		ActorID:    evt.ActorID,
		RequestID:  evt.RequestID,
		EntityType: evt.EntityType,
		EntityID:   evt.EntityID,
		Payload:    json.RawMessage(payload),
	})
	if err != nil {
		return "", fmt.Errorf("marshal event envelope: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ChainHash links an event to its predecessor. The first event in a journal
// uses an empty prevHash.
func ChainHash(evt Event, prevHash string) (string, error) {
	eventHash, err := EventHash(evt)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(chainEnvelope{
		PrevHash:  prevHash,
		EventHash: eventHash,
		Seq:       evt.Seq,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chain envelope: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// DecodePayload unmarshals the event payload into target.
func DecodePayload[T any](evt Event) (T, error) {
	var payload T
	if len(evt.PayloadJSON) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	return payload, nil
}
