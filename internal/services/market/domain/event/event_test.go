package event

import (
	"errors"
	"testing"
	"time"
)

func sampleEvent() Event {
	return Event{
		Seq:         1,
		Timestamp:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Type:        Type("producer.registered"),
		ActorID:     "producer-1",
		EntityType:  "producer",
		EntityID:    "producer-1",
		PayloadJSON: []byte(`{"content_type":"video"}`),
	}
}

func TestEventHashIgnoresJournalMetadata(t *testing.T) {
	evt := sampleEvent()
	first, err := EventHash(evt)
	if err != nil {
		t.Fatalf("event hash: %v", err)
	}

	evt.Seq = 99
	evt.Signature = "sig"
	evt.ChainHash = "chain"
	second, err := EventHash(evt)
	if err != nil {
		t.Fatalf("event hash: %v", err)
	}
	if first != second {
		t.Fatalf("hash changed with journal metadata: %s != %s", first, second)
	}
}

func TestEventHashCoversPayload(t *testing.T) {
	evt := sampleEvent()
	first, _ := EventHash(evt)
	evt.PayloadJSON = []byte(`{"content_type":"audio"}`)
	second, _ := EventHash(evt)
	if first == second {
		t.Fatal("expected payload change to alter hash")
	}
}

func TestEventHashRejectsInvalidPayload(t *testing.T) {
	evt := sampleEvent()
	evt.PayloadJSON = []byte("{")
	if _, err := EventHash(evt); !errors.Is(err, ErrPayloadInvalid) {
		t.Fatalf("err = %v, want ErrPayloadInvalid", err)
	}
}

func TestChainHashLinksPredecessor(t *testing.T) {
	evt := sampleEvent()
	a, err := ChainHash(evt, "")
	if err != nil {
		t.Fatalf("chain hash: %v", err)
	}
	b, err := ChainHash(evt, "abc")
	if err != nil {
		t.Fatalf("chain hash: %v", err)
	}
	if a == b {
		t.Fatal("expected prev hash to alter chain hash")
	}
	evt.Seq = 2
	c, _ := ChainHash(evt, "")
	if a == c {
		t.Fatal("expected seq to alter chain hash")
	}
}

func TestDecodePayload(t *testing.T) {
	type payload struct {
		ContentType string `json:"content_type"`
	}
	got, err := DecodePayload[payload](sampleEvent())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ContentType != "video" {
		t.Fatalf("content type = %q, want video", got.ContentType)
	}

	bad := sampleEvent()
	bad.PayloadJSON = []byte(`{"content_type":1}`)
	if _, err := DecodePayload[payload](bad); err == nil {
		t.Fatal("expected decode error")
	}
}
