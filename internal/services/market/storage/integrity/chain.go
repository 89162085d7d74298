package integrity

import (
	"fmt"
	"strings"

	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
)

// Seal assigns the content hash, chain link, and signature of an event whose
// Seq is already set. A nil keyring leaves the event unsigned.
func Seal(keyring *Keyring, journal string, evt event.Event, prevChainHash string) (event.Event, error) {
	hash, err := event.EventHash(evt)
	if err != nil {
		return event.Event{}, fmt.Errorf("seq %d hash: %w", evt.Seq, err)
	}
	chainHash, err := event.ChainHash(evt, prevChainHash)
	if err != nil {
		return event.Event{}, fmt.Errorf("seq %d chain hash: %w", evt.Seq, err)
	}
	evt.Hash = hash
	evt.PrevHash = prevChainHash
	evt.ChainHash = chainHash
	evt.Signature = ""
	evt.SignatureKeyID = ""
	if keyring != nil {
		signature, keyID, err := keyring.Sign(journal, chainHash)
		if err != nil {
			return event.Event{}, fmt.Errorf("seq %d sign: %w", evt.Seq, err)
		}
		evt.Signature = signature
		evt.SignatureKeyID = keyID
	}
	return evt, nil
}

// ChainVerifier checks events in journal order. Feed every event to Check
// starting from seq 1.
type ChainVerifier struct {
	keyring   *Keyring
	journal   string
	lastSeq   uint64
	prevChain string
	count     uint64
}

// NewChainVerifier returns a verifier for journal. With a nil keyring
// signatures are not checked.
func NewChainVerifier(keyring *Keyring, journal string) *ChainVerifier {
	return &ChainVerifier{keyring: keyring, journal: journal}
}

// Check verifies the next event in the chain.
func (v *ChainVerifier) Check(evt event.Event) error {
	if evt.Seq != v.lastSeq+1 {
		return fmt.Errorf("event sequence gap expected=%d got=%d", v.lastSeq+1, evt.Seq)
	}
	if evt.PrevHash != v.prevChain {
		return fmt.Errorf("prev hash mismatch seq=%d", evt.Seq)
	}

	hash, err := event.EventHash(evt)
	if err != nil {
		return fmt.Errorf("compute event hash seq=%d: %w", evt.Seq, err)
	}
	if hash != evt.Hash {
		return fmt.Errorf("event hash mismatch seq=%d", evt.Seq)
	}

	chainHash, err := event.ChainHash(evt, v.prevChain)
	if err != nil {
		return fmt.Errorf("compute chain hash seq=%d: %w", evt.Seq, err)
	}
	if chainHash != evt.ChainHash {
		return fmt.Errorf("chain hash mismatch seq=%d", evt.Seq)
	}

	if v.keyring != nil {
		if strings.TrimSpace(evt.Signature) == "" {
			return fmt.Errorf("signature missing seq=%d", evt.Seq)
		}
		if err := v.keyring.Verify(v.journal, chainHash, evt.Signature, evt.SignatureKeyID); err != nil {
			return fmt.Errorf("verify signature seq=%d: %w", evt.Seq, err)
		}
	}

	v.prevChain = evt.ChainHash
	v.lastSeq = evt.Seq
	v.count++
	return nil
}

// LastSeq returns the sequence of the last verified event.
func (v *ChainVerifier) LastSeq() uint64 { return v.lastSeq }

// HeadChainHash returns the chain hash of the last verified event.
func (v *ChainVerifier) HeadChainHash() string { return v.prevChain }

// Count returns how many events were verified.
func (v *ChainVerifier) Count() uint64 { return v.count }
