package integrity

import (
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
)

func testChain(t *testing.T, ring *Keyring, n int) []event.Event {
	t.Helper()
	ts := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)
	prev := ""
	chain := make([]event.Event, 0, n)
	for i := 0; i < n; i++ {
		evt := event.Event{
			Seq:         uint64(i + 1),
			Timestamp:   ts.Add(time.Duration(i) * time.Second),
			Type:        "content.added",
			ActorID:     "bob",
			EntityType:  "category",
			EntityID:    "bob/lectures",
			PayloadJSON: []byte(`{"locator":"ipfs://item"}`),
		}
		sealed, err := Seal(ring, "market", evt, prev)
		if err != nil {
			t.Fatalf("seal %d: %v", i, err)
		}
		prev = sealed.ChainHash
		chain = append(chain, sealed)
	}
	return chain
}

func testRing(t *testing.T) *Keyring {
	t.Helper()
	ring, err := NewKeyring(map[string][]byte{"v1": []byte("0123456789abcdef")}, "v1")
	if err != nil {
		t.Fatalf("new keyring: %v", err)
	}
	return ring
}

func TestSealLinksEvents(t *testing.T) {
	chain := testChain(t, testRing(t), 3)
	if chain[0].PrevHash != "" {
		t.Fatalf("first prev hash = %q, want empty", chain[0].PrevHash)
	}
	for i := 1; i < len(chain); i++ {
		if chain[i].PrevHash != chain[i-1].ChainHash {
			t.Fatalf("event %d prev hash does not link to predecessor", i)
		}
	}
	for _, evt := range chain {
		if evt.Hash == "" || evt.Signature == "" || evt.SignatureKeyID != "v1" {
			t.Fatalf("event %d not fully sealed: %+v", evt.Seq, evt)
		}
	}
}

func TestSealWithoutKeyringLeavesUnsigned(t *testing.T) {
	chain := testChain(t, nil, 1)
	if chain[0].Signature != "" || chain[0].SignatureKeyID != "" {
		t.Fatalf("expected unsigned event, got %+v", chain[0])
	}
}

func TestChainVerifierAcceptsSealedChain(t *testing.T) {
	ring := testRing(t)
	chain := testChain(t, ring, 4)
	verifier := NewChainVerifier(ring, "market")
	for _, evt := range chain {
		if err := verifier.Check(evt); err != nil {
			t.Fatalf("check seq %d: %v", evt.Seq, err)
		}
	}
	if verifier.Count() != 4 || verifier.LastSeq() != 4 {
		t.Fatalf("count = %d last = %d, want 4 and 4", verifier.Count(), verifier.LastSeq())
	}
	if verifier.HeadChainHash() != chain[3].ChainHash {
		t.Fatal("head chain hash does not match last event")
	}
}

func TestChainVerifierDetectsTampering(t *testing.T) {
	ring := testRing(t)
	tests := []struct {
		name   string
		mutate func(chain []event.Event) []event.Event
		want   string
	}{
		{
			name: "payload edit",
			mutate: func(chain []event.Event) []event.Event {
				chain[1].PayloadJSON = []byte(`{"locator":"ipfs://other"}`)
				return chain
			},
			want: "event hash mismatch",
		},
		{
			name: "gap",
			mutate: func(chain []event.Event) []event.Event {
				return append(chain[:1], chain[2:]...)
			},
			want: "sequence gap",
		},
		{
			name: "relinked",
			mutate: func(chain []event.Event) []event.Event {
				chain[2].PrevHash = chain[0].ChainHash
				return chain
			},
			want: "prev hash mismatch",
		},
		{
			name: "forged signature",
			mutate: func(chain []event.Event) []event.Event {
				chain[0].Signature = strings.Repeat("0", 64)
				return chain
			},
			want: "verify signature",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := tt.mutate(testChain(t, ring, 3))
			verifier := NewChainVerifier(ring, "market")
			var err error
			for _, evt := range chain {
				if err = verifier.Check(evt); err != nil {
					break
				}
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
