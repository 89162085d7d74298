package market

import (
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/command"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
)

var commandTypes = []command.Type{
	CommandTypeInitialize,
	CommandTypeUpdateRegisterPayment,
	CommandTypeUpdateFeeRate,
	CommandTypeRegister,
	CommandTypeAddCategory,
	CommandTypeAddContent,
	CommandTypeActivateSession,
	CommandTypeClaimRoyalties,
}

var eventDefinitions = []event.Definition{
	{Type: EventTypeInitialized, EntityType: EntityPlatform},
	{Type: EventTypeRegisterPaymentUpdated, EntityType: EntityPlatform},
	{Type: EventTypeFeeRateUpdated, EntityType: EntityPlatform},
	{Type: EventTypeProducerRegistered, EntityType: EntityProducer},
	{Type: EventTypeCategoryAdded, EntityType: EntityCategory},
	{Type: EventTypeContentAdded, EntityType: EntityCategory},
	{Type: EventTypeSessionActivated, EntityType: EntitySession},
	{Type: EventTypeRoyaltiesClaimed, EntityType: EntityRoyalties},
}

// RegisterCommands adds every marketplace command type to registry.
func RegisterCommands(registry *command.Registry) error {
	for _, t := range commandTypes {
		if err := registry.Register(command.Definition{Type: t}); err != nil {
			return err
		}
	}
	return nil
}

// RegisterEvents adds every marketplace event type to registry.
func RegisterEvents(registry *event.Registry) error {
	for _, def := range eventDefinitions {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistries returns command and event registries preloaded with the
// marketplace types.
func NewRegistries() (*command.Registry, *event.Registry, error) {
	commands := command.NewRegistry()
	if err := RegisterCommands(commands); err != nil {
		return nil, nil, err
	}
	events := event.NewRegistry()
	if err := RegisterEvents(events); err != nil {
		return nil, nil, err
	}
	return commands, events, nil
}
