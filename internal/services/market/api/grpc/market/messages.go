package market

import (
	"encoding/json"
	"time"
)

// Platform describes the platform configuration.
type Platform struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	FeeRateBasePoints uint32 `json:"fee_rate_base_points"`
	RegisterPayment   uint64 `json:"register_payment"`
	Owner             string `json:"owner"`
}

// Producer is a registered producer profile.
type Producer struct {
	Principal          string `json:"principal"`
	ContentType        string `json:"content_type"`
	ContentDescription string `json:"content_description"`
}

// Category is a producer content category.
type Category struct {
	Name                   string `json:"name"`
	Description            string `json:"description"`
	Fee                    uint64 `json:"fee"`
	SessionDurationSeconds uint64 `json:"session_duration_seconds"`
}

// Event is one journal entry.
type Event struct {
	Seq            uint64          `json:"seq"`
	Hash           string          `json:"hash"`
	PrevHash       string          `json:"prev_hash,omitempty"`
	ChainHash      string          `json:"chain_hash"`
	Signature      string          `json:"signature,omitempty"`
	SignatureKeyID string          `json:"signature_key_id,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	Type           string          `json:"type"`
	ActorID        string          `json:"actor_id"`
	RequestID      string          `json:"request_id,omitempty"`
	EntityType     string          `json:"entity_type"`
	EntityID       string          `json:"entity_id"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

type GetPlatformRequest struct{}

type GetPlatformResponse struct {
	Platform Platform `json:"platform"`
}

type UpdateRegisterPaymentRequest struct {
	Amount uint64 `json:"amount"`
}

type UpdateRegisterPaymentResponse struct{}

type UpdatePlatformFeeRateRequest struct {
	FeeRateBasePoints uint32 `json:"fee_rate_base_points"`
}

type UpdatePlatformFeeRateResponse struct{}

type RegisterRequest struct {
	Paid               uint64 `json:"paid"`
	ContentType        string `json:"content_type"`
	ContentDescription string `json:"content_description"`
}

type RegisterResponse struct{}

type ListProducersRequest struct{}

type ListProducersResponse struct {
	Producers []Producer `json:"producers"`
}

type IsProducerRequest struct {
	Principal string `json:"principal"`
}

type IsProducerResponse struct {
	IsProducer bool `json:"is_producer"`
}

type AddCategoryRequest struct {
	Name                   string `json:"name"`
	Description            string `json:"description"`
	Fee                    uint64 `json:"fee"`
	SessionDurationSeconds uint64 `json:"session_duration_seconds"`
}

type AddCategoryResponse struct{}

type ListProducerCategoriesRequest struct {
	Producer string `json:"producer"`
}

type ListProducerCategoriesResponse struct {
	Categories []Category `json:"categories"`
}

type FindCategoryRequest struct {
	Producer string `json:"producer"`
	Name     string `json:"name"`
}

type FindCategoryResponse struct {
	Category Category `json:"category"`
}

type AddContentRequest struct {
	Category string `json:"category"`
	Locator  string `json:"locator"`
}

type AddContentResponse struct{}

// GetContentRequest names the consumer explicitly; it is not checked
// against the caller.
type GetContentRequest struct {
	Consumer string `json:"consumer"`
	Producer string `json:"producer"`
	Category string `json:"category"`
}

type GetContentResponse struct {
	Content []string `json:"content"`
}

type ActivateSessionRequest struct {
	Paid     uint64 `json:"paid"`
	Producer string `json:"producer"`
	Category string `json:"category"`
}

type ActivateSessionResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

type GetSessionRequest struct {
	Consumer string `json:"consumer"`
	Producer string `json:"producer"`
	Category string `json:"category"`
}

type GetSessionResponse struct {
	Active bool `json:"active"`
	// ExpiresAt is nil when the session was never activated.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type GetProducerBalanceRequest struct {
	Producer string `json:"producer"`
}

type GetPlatformBalanceRequest struct{}

type BalanceResponse struct {
	Amount uint64 `json:"amount"`
}

type ClaimRoyaltiesRequest struct {
	Destination string `json:"destination"`
}

type ClaimRoyaltiesResponse struct {
	Amount uint64 `json:"amount"`
}

type ListEventsRequest struct {
	PageSize  int32  `json:"page_size"`
	PageToken string `json:"page_token"`
	// Filter is an AIP-160 expression over type, actor_id, request_id,
	// entity_type, entity_id, and ts.
	Filter string `json:"filter"`
}

type ListEventsResponse struct {
	Events        []Event `json:"events"`
	NextPageToken string  `json:"next_page_token,omitempty"`
	TotalSize     int32   `json:"total_size"`
}

type VerifyJournalRequest struct{}

type VerifyJournalResponse struct {
	EventCount    uint64 `json:"event_count"`
	LastSeq       uint64 `json:"last_seq"`
	HeadChainHash string `json:"head_chain_hash"`
}
