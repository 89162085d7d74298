package market

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// Snapshot is the serializable form of State used by checkpoints. Maps are
// flattened into ordered slices so encoders produce stable output.
type Snapshot struct {
	Initialized     bool               `cbor:"initialized"`
	Config          SnapshotConfig     `cbor:"config"`
	Producers       []SnapshotProducer `cbor:"producers"`
	Sessions        []SnapshotSession  `cbor:"sessions"`
	PlatformBalance uint64             `cbor:"platform_balance"`
	TotalReceived   uint64             `cbor:"total_received"`
	TotalWithdrawn  uint64             `cbor:"total_withdrawn"`
	LastSeq         uint64             `cbor:"last_seq"`
}

// SnapshotConfig mirrors PlatformConfig.
type SnapshotConfig struct {
	Name            string `cbor:"name"`
	Description     string `cbor:"description"`
	FeeRate         uint32 `cbor:"fee_rate"`
	RegisterPayment uint64 `cbor:"register_payment"`
	Owner           string `cbor:"owner"`
}

// SnapshotProducer mirrors Producer in registration order.
type SnapshotProducer struct {
	Principal          string             `cbor:"principal"`
	ContentType        string             `cbor:"content_type"`
	ContentDescription string             `cbor:"content_description"`
	Categories         []SnapshotCategory `cbor:"categories"`
	Balance            uint64             `cbor:"balance"`
}

// SnapshotCategory mirrors Category plus its content.
type SnapshotCategory struct {
	Name                   string   `cbor:"name"`
	Description            string   `cbor:"description"`
	Fee                    uint64   `cbor:"fee"`
	SessionDurationSeconds uint64   `cbor:"session_duration_seconds"`
	Content                []string `cbor:"content"`
}

// SnapshotSession is one session expiry in Unix nanoseconds.
type SnapshotSession struct {
	Consumer  string `cbor:"consumer"`
	Producer  string `cbor:"producer"`
	Category  string `cbor:"category"`
	ExpiresAt int64  `cbor:"expires_at"`
}

// ToSnapshot flattens state. Sessions are sorted by key.
func ToSnapshot(state State) Snapshot {
	snap := Snapshot{
		Initialized: state.Initialized,
		Config: SnapshotConfig{
			Name:            state.Config.Name,
			Description:     state.Config.Description,
			FeeRate:         uint32(state.Config.FeeRate),
			RegisterPayment: uint64(state.Config.RegisterPayment),
			Owner:           state.Config.Owner,
		},
		PlatformBalance: uint64(state.PlatformBalance),
		TotalReceived:   uint64(state.TotalReceived),
		TotalWithdrawn:  uint64(state.TotalWithdrawn),
		LastSeq:         state.LastSeq,
	}
	for _, principal := range state.ProducerOrder {
		producer := state.Producers[principal]
		sp := SnapshotProducer{
			Principal:          producer.Profile.Principal,
			ContentType:        producer.Profile.ContentType,
			ContentDescription: producer.Profile.ContentDescription,
			Balance:            uint64(producer.Balance),
		}
		for _, category := range producer.Categories {
			sp.Categories = append(sp.Categories, SnapshotCategory{
				Name:                   category.Name,
				Description:            category.Description,
				Fee:                    uint64(category.Fee),
				SessionDurationSeconds: uint64(category.SessionDuration / time.Second),
				Content:                append([]string(nil), producer.Content[category.Name]...),
			})
		}
		snap.Producers = append(snap.Producers, sp)
	}
	for _, key := range sortedSessionKeys(state.Sessions) {
		snap.Sessions = append(snap.Sessions, SnapshotSession{
			Consumer:  key.Consumer,
			Producer:  key.Producer,
			Category:  key.Category,
			ExpiresAt: state.Sessions[key].UnixNano(),
		})
	}
	return snap
}

// FromSnapshot rebuilds state and checks conservation.
func FromSnapshot(snap Snapshot) (State, error) {
	state := NewState()
	state.Initialized = snap.Initialized
	state.Config = PlatformConfig{
		Name:            snap.Config.Name,
		Description:     snap.Config.Description,
		FeeRate:         BasePoints(snap.Config.FeeRate),
		RegisterPayment: Amount(snap.Config.RegisterPayment),
		Owner:           snap.Config.Owner,
	}
	state.PlatformBalance = Amount(snap.PlatformBalance)
	state.TotalReceived = Amount(snap.TotalReceived)
	state.TotalWithdrawn = Amount(snap.TotalWithdrawn)
	state.LastSeq = snap.LastSeq

	for _, sp := range snap.Producers {
		if _, exists := state.Producers[sp.Principal]; exists {
			return State{}, fmt.Errorf("snapshot: duplicate producer %s", sp.Principal)
		}
		producer := &Producer{
			Profile: ProducerProfile{
				Principal:          sp.Principal,
				ContentType:        sp.ContentType,
				ContentDescription: sp.ContentDescription,
			},
			CategoryIndex: make(map[string]int, len(sp.Categories)),
			Content:       make(map[string][]string, len(sp.Categories)),
			Balance:       Amount(sp.Balance),
		}
		for _, sc := range sp.Categories {
			if sc.Fee == 0 || sc.SessionDurationSeconds == 0 || sc.SessionDurationSeconds > MaxSessionDurationSeconds {
				return State{}, fmt.Errorf("snapshot: %w: %s/%s", ErrInvalidCategory, sp.Principal, sc.Name)
			}
			if _, exists := producer.CategoryIndex[sc.Name]; exists {
				return State{}, fmt.Errorf("snapshot: %w: duplicate %s/%s", ErrInvalidCategory, sp.Principal, sc.Name)
			}
			producer.CategoryIndex[sc.Name] = len(producer.Categories)
			producer.Categories = append(producer.Categories, Category{
				Name:            sc.Name,
				Description:     sc.Description,
				Fee:             Amount(sc.Fee),
				SessionDuration: time.Duration(sc.SessionDurationSeconds) * time.Second,
			})
			if len(sc.Content) > 0 {
				producer.Content[sc.Name] = append([]string(nil), sc.Content...)
			}
		}
		state.ProducerOrder = append(state.ProducerOrder, sp.Principal)
		state.Producers[sp.Principal] = producer
	}
	for _, ss := range snap.Sessions {
		state.Sessions[SessionKey{
			Consumer: ss.Consumer,
			Producer: ss.Producer,
			Category: ss.Category,
		}] = time.Unix(0, ss.ExpiresAt).UTC()
	}
	if err := state.CheckConservation(); err != nil {
		return State{}, fmt.Errorf("snapshot: %w", err)
	}
	return state, nil
}

func sortedSessionKeys(sessions map[SessionKey]time.Time) []SessionKey {
	keys := make([]SessionKey, 0, len(sessions))
	for key := range sessions {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b SessionKey) int {
		return cmp.Or(
			cmp.Compare(a.Consumer, b.Consumer),
			cmp.Compare(a.Producer, b.Producer),
			cmp.Compare(a.Category, b.Category),
		)
	})
	return keys
}
