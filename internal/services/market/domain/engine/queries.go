package engine

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/tollgate.space/internal/platform/errors"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
)

// read runs fn against live state under the engine lock.
func read[T any](e *Engine, fn func(state market.State) T) T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.state)
}

// Platform returns the current platform configuration.
func (e *Engine) Platform() market.PlatformConfig {
	return read(e, func(s market.State) market.PlatformConfig { return s.Config })
}

// Name returns the platform name.
func (e *Engine) Name() string {
	return read(e, func(s market.State) string { return s.Config.Name })
}

// Description returns the platform description.
func (e *Engine) Description() string {
	return read(e, func(s market.State) string { return s.Config.Description })
}

// FeeRate returns the platform share in base points.
func (e *Engine) FeeRate() market.BasePoints {
	return read(e, func(s market.State) market.BasePoints { return s.Config.FeeRate })
}

// RegisterPayment returns the current registration price.
func (e *Engine) RegisterPayment() market.Amount {
	return read(e, func(s market.State) market.Amount { return s.Config.RegisterPayment })
}

// Owner returns the platform owner principal.
func (e *Engine) Owner() string {
	return read(e, func(s market.State) string { return s.Config.Owner })
}

// ListProducers returns every producer in registration order.
func (e *Engine) ListProducers() []market.ProducerProfile {
	return read(e, market.State.ListProducers)
}

// IsProducer reports whether principal is a registered producer.
func (e *Engine) IsProducer(principal string) bool {
	return read(e, func(s market.State) bool { return s.IsProducer(principal) })
}

// ListProducerCategories returns the producer's categories in creation
// order. An unknown producer has none.
func (e *Engine) ListProducerCategories(producer string) []market.Category {
	return read(e, func(s market.State) []market.Category { return s.ListProducerCategories(producer) })
}

// ProducerClaimableBalance returns the producer's unclaimed royalties.
func (e *Engine) ProducerClaimableBalance(producer string) market.Amount {
	return read(e, func(s market.State) market.Amount { return s.ProducerBalance(producer) })
}

// PlatformClaimableBalance returns the platform's unclaimed royalties.
func (e *Engine) PlatformClaimableBalance() market.Amount {
	return read(e, func(s market.State) market.Amount { return s.PlatformBalance })
}

// IsSessionActive reports whether consumer holds an unexpired session for
// the producer category.
func (e *Engine) IsSessionActive(consumer, producer, category string) bool {
	now := e.now()
	return read(e, func(s market.State) bool {
		return s.IsSessionActive(market.SessionKey{Consumer: consumer, Producer: producer, Category: category}, now)
	})
}

// SessionExpiry returns when the consumer's session ends. ok is false when
// the session was never activated.
func (e *Engine) SessionExpiry(consumer, producer, category string) (expiresAt time.Time, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.SessionExpiry(market.SessionKey{Consumer: consumer, Producer: producer, Category: category})
}

// FindCategory returns the producer's category with the given name.
func (e *Engine) FindCategory(producer, name string) (market.Category, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	category, ok := e.state.FindCategory(producer, name)
	if !ok {
		return market.Category{}, categoryNotFound(name)
	}
	return category, nil
}

// GetContent returns every locator in the producer category when consumer
// holds an active session. The consumer is taken as given and is not
// checked against the caller.
func (e *Engine) GetContent(ctx context.Context, consumer, producer, category string) (content []string, err error) {
	_, span := e.startSpan(ctx, "market.GetContent", consumer)
	defer func() { err = finishSpan(span, err) }()

	now := e.now()
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.state.FindCategory(producer, category); !ok {
		return nil, categoryNotFound(category)
	}
	key := market.SessionKey{Consumer: consumer, Producer: producer, Category: category}
	if !e.state.IsSessionActive(key, now) {
		return nil, apperrors.WithMetadata(apperrors.CodeInactiveSession, "session is not active", map[string]string{"Category": category})
	}
	content = e.state.Content(producer, category)
	if content == nil {
		content = []string{}
	}
	return content, nil
}

func categoryNotFound(name string) error {
	return apperrors.WithMetadata(apperrors.CodeCategoryNotFound, "category not found", map[string]string{"Category": name})
}
