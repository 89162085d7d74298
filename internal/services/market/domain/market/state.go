package market

import (
	"maps"
	"slices"
	"time"
)

// PlatformConfig is the owner-controlled configuration.
type PlatformConfig struct {
	Name            string
	Description     string
	FeeRate         BasePoints
	RegisterPayment Amount
	Owner           string
}

// ProducerProfile is recorded once at registration and never changes.
type ProducerProfile struct {
	Principal          string
	ContentType        string
	ContentDescription string
}

// Category is a producer-owned content category. Fee and SessionDuration are
// always positive for stored categories.
type Category struct {
	Name            string
	Description     string
	Fee             Amount
	SessionDuration time.Duration
}

// Producer holds one producer's profile, catalog, content, and balance.
type Producer struct {
	Profile ProducerProfile
	// Categories are kept in creation order.
	Categories []Category
	// CategoryIndex maps a category name to its position in Categories.
	CategoryIndex map[string]int
	// Content maps a category name to its locators in append order.
	Content map[string][]string
	Balance Amount
}

// SessionKey addresses one consumer's access to one producer category.
type SessionKey struct {
	Consumer string
	Producer string
	Category string
}

// State is the replayed marketplace aggregate.
type State struct {
	Initialized bool
	Config      PlatformConfig
	// ProducerOrder lists producer principals in registration order.
	ProducerOrder []string
	Producers     map[string]*Producer
	// Sessions maps each activated session to its expiry.
	Sessions        map[SessionKey]time.Time
	PlatformBalance Amount
	TotalReceived   Amount
	TotalWithdrawn  Amount
	// LastSeq is the journal sequence of the last folded event.
	LastSeq uint64
}

// NewState returns an empty, uninitialized state.
func NewState() State {
	return State{
		Producers: make(map[string]*Producer),
		Sessions:  make(map[SessionKey]time.Time),
	}
}

// Clone returns a deep copy. Content slices are clipped so appends on the
// clone never write into the original's backing arrays.
func (s State) Clone() State {
	cloned := s
	cloned.ProducerOrder = slices.Clone(s.ProducerOrder)
	cloned.Producers = make(map[string]*Producer, len(s.Producers))
	for principal, producer := range s.Producers {
		cloned.Producers[principal] = producer.clone()
	}
	cloned.Sessions = maps.Clone(s.Sessions)
	if cloned.Sessions == nil {
		cloned.Sessions = make(map[SessionKey]time.Time)
	}
	return cloned
}

func (p *Producer) clone() *Producer {
	cloned := &Producer{
		Profile:       p.Profile,
		Categories:    slices.Clone(p.Categories),
		CategoryIndex: maps.Clone(p.CategoryIndex),
		Content:       make(map[string][]string, len(p.Content)),
		Balance:       p.Balance,
	}
	for name, items := range p.Content {
		cloned.Content[name] = slices.Clip(items)
	}
	return cloned
}

// IsProducer reports whether principal ever registered.
func (s State) IsProducer(principal string) bool {
	_, ok := s.Producers[principal]
	return ok
}

// ListProducers returns producer profiles in registration order.
func (s State) ListProducers() []ProducerProfile {
	profiles := make([]ProducerProfile, 0, len(s.ProducerOrder))
	for _, principal := range s.ProducerOrder {
		profiles = append(profiles, s.Producers[principal].Profile)
	}
	return profiles
}

// ListProducerCategories returns the producer's categories in creation
// order, or nil for an unknown producer.
func (s State) ListProducerCategories(principal string) []Category {
	producer, ok := s.Producers[principal]
	if !ok {
		return nil
	}
	return slices.Clone(producer.Categories)
}

// FindCategory returns the producer's category with the given name.
func (s State) FindCategory(principal, name string) (Category, bool) {
	producer, ok := s.Producers[principal]
	if !ok {
		return Category{}, false
	}
	idx, ok := producer.CategoryIndex[name]
	if !ok {
		return Category{}, false
	}
	return producer.Categories[idx], true
}

// Content returns a copy of the locators stored under a producer category.
func (s State) Content(principal, category string) []string {
	producer, ok := s.Producers[principal]
	if !ok {
		return nil
	}
	return slices.Clone(producer.Content[category])
}

// ProducerBalance returns the producer's claimable balance.
func (s State) ProducerBalance(principal string) Amount {
	producer, ok := s.Producers[principal]
	if !ok {
		return 0
	}
	return producer.Balance
}

// SessionExpiry returns the stored expiry for a session.
func (s State) SessionExpiry(key SessionKey) (time.Time, bool) {
	expiry, ok := s.Sessions[key]
	return expiry, ok
}

// IsSessionActive reports whether the session expires strictly after now.
func (s State) IsSessionActive(key SessionKey, now time.Time) bool {
	expiry, ok := s.Sessions[key]
	return ok && expiry.After(now)
}

// ProducerBalanceTotal sums all producer balances.
func (s State) ProducerBalanceTotal() (Amount, bool) {
	var total Amount
	for _, producer := range s.Producers {
		var overflow bool
		total, overflow = addAmount(total, producer.Balance)
		if overflow {
			return 0, false
		}
	}
	return total, true
}
