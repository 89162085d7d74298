package market

import (
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
)

var (
	// ErrNotInitialized indicates an event folded before platform.initialized.
	ErrNotInitialized = errors.New("platform is not initialized")
	// ErrUnknownProducer indicates an event addressing an unregistered producer.
	ErrUnknownProducer = errors.New("producer is not registered")
	// ErrUnknownCategory indicates an event addressing a missing category.
	ErrUnknownCategory = errors.New("category does not exist")
	// ErrInvalidCategory indicates a category event violating catalog invariants.
	ErrInvalidCategory = errors.New("category is invalid")
	// ErrLedgerImbalance indicates an event that would break conservation.
	ErrLedgerImbalance = errors.New("ledger imbalance")
)

// Fold applies an event to state. Maps and producers are updated in place,
// so callers fold into a Clone when the original must survive a failure.
func Fold(state State, evt event.Event) (State, error) {
	if state.Producers == nil {
		state.Producers = make(map[string]*Producer)
	}
	if state.Sessions == nil {
		state.Sessions = make(map[SessionKey]time.Time)
	}
	if evt.Type != EventTypeInitialized && !state.Initialized {
		return state, fmt.Errorf("fold %s: %w", evt.Type, ErrNotInitialized)
	}

	var err error
	switch evt.Type {
	case EventTypeInitialized:
		err = foldInitialized(&state, evt)
	case EventTypeRegisterPaymentUpdated:
		var payload UpdateRegisterPaymentPayload
		if payload, err = event.DecodePayload[UpdateRegisterPaymentPayload](evt); err == nil {
			state.Config.RegisterPayment = payload.Amount
		}
	case EventTypeFeeRateUpdated:
		err = foldFeeRateUpdated(&state, evt)
	case EventTypeProducerRegistered:
		err = foldProducerRegistered(&state, evt)
	case EventTypeCategoryAdded:
		err = foldCategoryAdded(&state, evt)
	case EventTypeContentAdded:
		err = foldContentAdded(&state, evt)
	case EventTypeSessionActivated:
		err = foldSessionActivated(&state, evt)
	case EventTypeRoyaltiesClaimed:
		err = foldRoyaltiesClaimed(&state, evt)
	default:
		err = fmt.Errorf("%w: %s", event.ErrTypeUnknown, evt.Type)
	}
	if err != nil {
		return state, err
	}
	if evt.Seq > 0 {
		state.LastSeq = evt.Seq
	}
	return state, nil
}

func foldInitialized(state *State, evt event.Event) error {
	if state.Initialized {
		return fmt.Errorf("fold %s: platform already initialized", evt.Type)
	}
	payload, err := event.DecodePayload[InitializePayload](evt)
	if err != nil {
		return err
	}
	if payload.FeeRate > MaxFeeRate {
		return ErrFeeRateOutOfRange
	}
	state.Initialized = true
	state.Config = PlatformConfig{
		Name:            payload.Name,
		Description:     payload.Description,
		FeeRate:         payload.FeeRate,
		RegisterPayment: payload.RegisterPayment,
		Owner:           evt.ActorID,
	}
	return nil
}

func foldFeeRateUpdated(state *State, evt event.Event) error {
	payload, err := event.DecodePayload[UpdateFeeRatePayload](evt)
	if err != nil {
		return err
	}
	if payload.FeeRate > MaxFeeRate {
		return ErrFeeRateOutOfRange
	}
	state.Config.FeeRate = payload.FeeRate
	return nil
}

func foldProducerRegistered(state *State, evt event.Event) error {
	payload, err := event.DecodePayload[ProducerRegisteredPayload](evt)
	if err != nil {
		return err
	}
	principal := evt.EntityID
	if state.IsProducer(principal) {
		return fmt.Errorf("fold %s: producer %s already registered", evt.Type, principal)
	}
	if err := credit(state, payload.Paid); err != nil {
		return err
	}
	state.PlatformBalance += payload.Paid
	state.ProducerOrder = append(state.ProducerOrder, principal)
	state.Producers[principal] = &Producer{
		Profile: ProducerProfile{
			Principal:          principal,
			ContentType:        payload.ContentType,
			ContentDescription: payload.ContentDescription,
		},
		CategoryIndex: make(map[string]int),
		Content:       make(map[string][]string),
	}
	return nil
}

func foldCategoryAdded(state *State, evt event.Event) error {
	payload, err := event.DecodePayload[CategoryAddedPayload](evt)
	if err != nil {
		return err
	}
	producer, ok := state.Producers[payload.Producer]
	if !ok {
		return fmt.Errorf("fold %s: %w: %s", evt.Type, ErrUnknownProducer, payload.Producer)
	}
	if payload.Fee == 0 || payload.SessionDurationSeconds == 0 || payload.SessionDurationSeconds > MaxSessionDurationSeconds {
		return fmt.Errorf("fold %s: %w: %s", evt.Type, ErrInvalidCategory, payload.Name)
	}
	if _, exists := producer.CategoryIndex[payload.Name]; exists {
		return fmt.Errorf("fold %s: %w: duplicate %s", evt.Type, ErrInvalidCategory, payload.Name)
	}
	producer.CategoryIndex[payload.Name] = len(producer.Categories)
	producer.Categories = append(producer.Categories, Category{
		Name:            payload.Name,
		Description:     payload.Description,
		Fee:             payload.Fee,
		SessionDuration: time.Duration(payload.SessionDurationSeconds) * time.Second,
	})
	return nil
}

func foldContentAdded(state *State, evt event.Event) error {
	payload, err := event.DecodePayload[ContentAddedPayload](evt)
	if err != nil {
		return err
	}
	producer, ok := state.Producers[payload.Producer]
	if !ok {
		return fmt.Errorf("fold %s: %w: %s", evt.Type, ErrUnknownProducer, payload.Producer)
	}
	if _, ok := producer.CategoryIndex[payload.Category]; !ok {
		return fmt.Errorf("fold %s: %w: %s", evt.Type, ErrUnknownCategory, payload.Category)
	}
	producer.Content[payload.Category] = append(producer.Content[payload.Category], payload.Locator)
	return nil
}

func foldSessionActivated(state *State, evt event.Event) error {
	payload, err := event.DecodePayload[SessionActivatedPayload](evt)
	if err != nil {
		return err
	}
	producer, ok := state.Producers[payload.Producer]
	if !ok {
		return fmt.Errorf("fold %s: %w: %s", evt.Type, ErrUnknownProducer, payload.Producer)
	}
	if _, ok := producer.CategoryIndex[payload.Category]; !ok {
		return fmt.Errorf("fold %s: %w: %s", evt.Type, ErrUnknownCategory, payload.Category)
	}
	if sum, overflow := addAmount(payload.PlatformPart, payload.ProducerPart); overflow || sum != payload.Paid {
		return fmt.Errorf("fold %s: %w: split %s+%s != %s", evt.Type, ErrLedgerImbalance,
			payload.PlatformPart, payload.ProducerPart, payload.Paid)
	}
	if err := credit(state, payload.Paid); err != nil {
		return err
	}
	state.PlatformBalance += payload.PlatformPart
	producer.Balance += payload.ProducerPart
	state.Sessions[SessionKey{
		Consumer: payload.Consumer,
		Producer: payload.Producer,
		Category: payload.Category,
	}] = payload.ExpiresAt.UTC()
	return nil
}

func foldRoyaltiesClaimed(state *State, evt event.Event) error {
	payload, err := event.DecodePayload[RoyaltiesClaimedPayload](evt)
	if err != nil {
		return err
	}
	switch payload.Role {
	case ClaimRolePlatform:
		if payload.Amount != state.PlatformBalance {
			return fmt.Errorf("fold %s: %w: claimed %s of %s", evt.Type, ErrLedgerImbalance, payload.Amount, state.PlatformBalance)
		}
		state.PlatformBalance = 0
	case ClaimRoleProducer:
		producer, ok := state.Producers[payload.Claimant]
		if !ok {
			return fmt.Errorf("fold %s: %w: %s", evt.Type, ErrUnknownProducer, payload.Claimant)
		}
		if payload.Amount != producer.Balance {
			return fmt.Errorf("fold %s: %w: claimed %s of %s", evt.Type, ErrLedgerImbalance, payload.Amount, producer.Balance)
		}
		producer.Balance = 0
	default:
		return fmt.Errorf("fold %s: unknown claim role %q", evt.Type, payload.Role)
	}
	state.TotalWithdrawn += payload.Amount
	return nil
}

// credit records value entering the ledger.
func credit(state *State, paid Amount) error {
	total, overflow := addAmount(state.TotalReceived, paid)
	if overflow {
		return fmt.Errorf("%w: total received overflows", ErrLedgerImbalance)
	}
	state.TotalReceived = total
	return nil
}
