package market

import (
	"time"

	"github.com/louisbranch/tollgate.space/internal/services/market/domain/command"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
)

// Command types accepted by Decide.
const (
	CommandTypeInitialize            command.Type = "platform.initialize"
	CommandTypeUpdateRegisterPayment command.Type = "platform.update_register_payment"
	CommandTypeUpdateFeeRate         command.Type = "platform.update_fee_rate"
	CommandTypeRegister              command.Type = "producer.register"
	CommandTypeAddCategory           command.Type = "category.add"
	CommandTypeAddContent            command.Type = "content.add"
	CommandTypeActivateSession       command.Type = "session.activate"
	CommandTypeClaimRoyalties        command.Type = "royalties.claim"
)

// Event types emitted by Decide and applied by Fold.
const (
	EventTypeInitialized            event.Type = "platform.initialized"
	EventTypeRegisterPaymentUpdated event.Type = "platform.register_payment_updated"
	EventTypeFeeRateUpdated         event.Type = "platform.fee_rate_updated"
	EventTypeProducerRegistered     event.Type = "producer.registered"
	EventTypeCategoryAdded          event.Type = "category.added"
	EventTypeContentAdded           event.Type = "content.added"
	EventTypeSessionActivated       event.Type = "session.activated"
	EventTypeRoyaltiesClaimed       event.Type = "royalties.claimed"
)

// Entity types addressed by events.
const (
	EntityPlatform  = "platform"
	EntityProducer  = "producer"
	EntityCategory  = "category"
	EntitySession   = "session"
	EntityRoyalties = "royalties"
)

// PlatformEntityID is the entity id of the single platform.
const PlatformEntityID = "platform"

// ClaimRole names whose balance a claim withdraws.
type ClaimRole string

const (
	ClaimRolePlatform ClaimRole = "platform"
	ClaimRoleProducer ClaimRole = "producer"
)

// InitializePayload creates the platform.
type InitializePayload struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	FeeRate         BasePoints `json:"fee_rate"`
	RegisterPayment Amount     `json:"register_payment"`
}

// UpdateRegisterPaymentPayload replaces the registration price.
type UpdateRegisterPaymentPayload struct {
	Amount Amount `json:"amount"`
}

// UpdateFeeRatePayload replaces the platform fee rate.
type UpdateFeeRatePayload struct {
	FeeRate BasePoints `json:"fee_rate"`
}

// RegisterPayload registers the caller as a producer.
type RegisterPayload struct {
	Paid               Amount `json:"paid"`
	ContentType        string `json:"content_type"`
	ContentDescription string `json:"content_description"`
}

// AddCategoryPayload adds a category to the caller's catalog.
type AddCategoryPayload struct {
	Name                   string `json:"name"`
	Description            string `json:"description"`
	Fee                    Amount `json:"fee"`
	SessionDurationSeconds uint64 `json:"session_duration_seconds"`
}

// AddContentPayload appends a locator to one of the caller's categories.
type AddContentPayload struct {
	Category string `json:"category"`
	Locator  string `json:"locator"`
}

// ActivateSessionPayload pays for access to a producer category.
type ActivateSessionPayload struct {
	Paid     Amount `json:"paid"`
	Producer string `json:"producer"`
	Category string `json:"category"`
}

// ClaimRoyaltiesPayload withdraws a claimable balance to destination.
type ClaimRoyaltiesPayload struct {
	Role        ClaimRole `json:"role"`
	Destination string    `json:"destination"`
}

// ProducerRegisteredPayload records a registration and its payment.
type ProducerRegisteredPayload struct {
	Paid               Amount `json:"paid"`
	ContentType        string `json:"content_type"`
	ContentDescription string `json:"content_description"`
}

// CategoryAddedPayload records a new category.
type CategoryAddedPayload struct {
	Producer               string `json:"producer"`
	Name                   string `json:"name"`
	Description            string `json:"description"`
	Fee                    Amount `json:"fee"`
	SessionDurationSeconds uint64 `json:"session_duration_seconds"`
}

// ContentAddedPayload records an appended locator.
type ContentAddedPayload struct {
	Producer string `json:"producer"`
	Category string `json:"category"`
	Locator  string `json:"locator"`
}

// SessionActivatedPayload records the access window and the fee split in
// effect when the session was paid for.
type SessionActivatedPayload struct {
	Consumer     string     `json:"consumer"`
	Producer     string     `json:"producer"`
	Category     string     `json:"category"`
	Paid         Amount     `json:"paid"`
	FeeRate      BasePoints `json:"fee_rate"`
	PlatformPart Amount     `json:"platform_part"`
	ProducerPart Amount     `json:"producer_part"`
	ExpiresAt    time.Time  `json:"expires_at"`
}

// RoyaltiesClaimedPayload records a withdrawal.
type RoyaltiesClaimedPayload struct {
	Role        ClaimRole `json:"role"`
	Claimant    string    `json:"claimant"`
	Destination string    `json:"destination"`
	Amount      Amount    `json:"amount"`
}
