package market

import (
	"encoding/json"

	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
	domain "github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
)

func producerToMessage(profile domain.ProducerProfile) Producer {
	return Producer{
		Principal:          profile.Principal,
		ContentType:        profile.ContentType,
		ContentDescription: profile.ContentDescription,
	}
}

func categoryToMessage(category domain.Category) Category {
	return Category{
		Name:                   category.Name,
		Description:            category.Description,
		Fee:                    uint64(category.Fee),
		SessionDurationSeconds: uint64(category.SessionDuration.Seconds()),
	}
}

func eventToMessage(evt event.Event) Event {
	return Event{
		Seq:            evt.Seq,
		Hash:           evt.Hash,
		PrevHash:       evt.PrevHash,
		ChainHash:      evt.ChainHash,
		Signature:      evt.Signature,
		SignatureKeyID: evt.SignatureKeyID,
		Timestamp:      evt.Timestamp,
		Type:           string(evt.Type),
		ActorID:        evt.ActorID,
		RequestID:      evt.RequestID,
		EntityType:     evt.EntityType,
		EntityID:       evt.EntityID,
		Payload:        json.RawMessage(evt.PayloadJSON),
	}
}
