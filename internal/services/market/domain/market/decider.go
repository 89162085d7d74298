package market

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/tollgate.space/internal/platform/errors"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/command"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
)

// MaxSessionDurationSeconds is the longest session a category may grant,
// one hundred 365-day years.
const MaxSessionDurationSeconds uint64 = 100 * 365 * 24 * 60 * 60

// Decide returns the decision for a marketplace command against current state.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}
	if cmd.Type == CommandTypeInitialize {
		return decideInitialize(state, cmd, now)
	}
	if !state.Initialized {
		return reject(apperrors.CodeInvalidConfiguration, "platform is not initialized", nil)
	}

	switch cmd.Type {
	case CommandTypeUpdateRegisterPayment:
		return decideUpdateRegisterPayment(state, cmd, now)
	case CommandTypeUpdateFeeRate:
		return decideUpdateFeeRate(state, cmd, now)
	case CommandTypeRegister:
		return decideRegister(state, cmd, now)
	case CommandTypeAddCategory:
		return decideAddCategory(state, cmd, now)
	case CommandTypeAddContent:
		return decideAddContent(state, cmd, now)
	case CommandTypeActivateSession:
		return decideActivateSession(state, cmd, now)
	case CommandTypeClaimRoyalties:
		return decideClaimRoyalties(state, cmd, now)
	default:
		return reject(apperrors.CodeUnknown, "command type is not supported: "+string(cmd.Type), nil)
	}
}

func decideInitialize(state State, cmd command.Command, now func() time.Time) command.Decision {
	if state.Initialized {
		return reject(apperrors.CodeInvalidConfiguration, "platform is already initialized", field("platform"))
	}
	payload, err := command.DecodePayload[InitializePayload](cmd)
	if err != nil {
		return rejectPayload(err)
	}
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Description = strings.TrimSpace(payload.Description)
	if payload.Name == "" {
		return reject(apperrors.CodeInvalidConfiguration, "platform name is required", field("name"))
	}
	if payload.FeeRate > MaxFeeRate {
		return reject(apperrors.CodeInvalidConfiguration, ErrFeeRateOutOfRange.Error(), field("fee_rate"))
	}
	return accept(cmd, EventTypeInitialized, EntityPlatform, PlatformEntityID, payload, now())
}

func decideUpdateRegisterPayment(state State, cmd command.Command, now func() time.Time) command.Decision {
	if cmd.ActorID != state.Config.Owner {
		return rejectNotOwner()
	}
	payload, err := command.DecodePayload[UpdateRegisterPaymentPayload](cmd)
	if err != nil {
		return rejectPayload(err)
	}
	return accept(cmd, EventTypeRegisterPaymentUpdated, EntityPlatform, PlatformEntityID, payload, now())
}

func decideUpdateFeeRate(state State, cmd command.Command, now func() time.Time) command.Decision {
	if cmd.ActorID != state.Config.Owner {
		return rejectNotOwner()
	}
	payload, err := command.DecodePayload[UpdateFeeRatePayload](cmd)
	if err != nil {
		return rejectPayload(err)
	}
	if payload.FeeRate > MaxFeeRate {
		return reject(apperrors.CodeInvalidConfiguration, ErrFeeRateOutOfRange.Error(), field("fee_rate"))
	}
	return accept(cmd, EventTypeFeeRateUpdated, EntityPlatform, PlatformEntityID, payload, now())
}

func decideRegister(state State, cmd command.Command, now func() time.Time) command.Decision {
	payload, err := command.DecodePayload[RegisterPayload](cmd)
	if err != nil {
		return rejectPayload(err)
	}
	if state.IsProducer(cmd.ActorID) {
		return reject(apperrors.CodeAlreadyRegistered, "caller is already a producer", nil)
	}
	if payload.Paid != state.Config.RegisterPayment {
		return rejectIncorrectPayment("registration", payload.Paid, state.Config.RegisterPayment)
	}
	if _, overflow := addAmount(state.TotalReceived, payload.Paid); overflow {
		return rejectOverflow()
	}
	return accept(cmd, EventTypeProducerRegistered, EntityProducer, cmd.ActorID, ProducerRegisteredPayload{
		Paid:               payload.Paid,
		ContentType:        payload.ContentType,
		ContentDescription: payload.ContentDescription,
	}, now())
}

func decideAddCategory(state State, cmd command.Command, now func() time.Time) command.Decision {
	if !state.IsProducer(cmd.ActorID) {
		return rejectNotProducer()
	}
	payload, err := command.DecodePayload[AddCategoryPayload](cmd)
	if err != nil {
		return rejectPayload(err)
	}
	if payload.Name == "" {
		return reject(apperrors.CodeInvalidConfiguration, "category name is required", field("name"))
	}
	if payload.Fee == 0 {
		return reject(apperrors.CodeInvalidConfiguration, "category fee must be positive", field("fee"))
	}
	if payload.SessionDurationSeconds == 0 {
		return reject(apperrors.CodeInvalidConfiguration, "session duration must be positive", field("session_duration"))
	}
	if payload.SessionDurationSeconds > MaxSessionDurationSeconds {
		return reject(apperrors.CodeInvalidConfiguration, "session duration is too long", field("session_duration"))
	}
	if _, exists := state.FindCategory(cmd.ActorID, payload.Name); exists {
		return reject(apperrors.CodeDuplicateCategory, "category already exists", map[string]string{"Category": payload.Name})
	}
	return accept(cmd, EventTypeCategoryAdded, EntityCategory, CategoryEntityID(cmd.ActorID, payload.Name), CategoryAddedPayload{
		Producer:               cmd.ActorID,
		Name:                   payload.Name,
		Description:            payload.Description,
		Fee:                    payload.Fee,
		SessionDurationSeconds: payload.SessionDurationSeconds,
	}, now())
}

func decideAddContent(state State, cmd command.Command, now func() time.Time) command.Decision {
	if !state.IsProducer(cmd.ActorID) {
		return rejectNotProducer()
	}
	payload, err := command.DecodePayload[AddContentPayload](cmd)
	if err != nil {
		return rejectPayload(err)
	}
	if _, ok := state.FindCategory(cmd.ActorID, payload.Category); !ok {
		return rejectCategoryNotFound(payload.Category)
	}
	return accept(cmd, EventTypeContentAdded, EntityCategory, CategoryEntityID(cmd.ActorID, payload.Category), ContentAddedPayload{
		Producer: cmd.ActorID,
		Category: payload.Category,
		Locator:  payload.Locator,
	}, now())
}

func decideActivateSession(state State, cmd command.Command, now func() time.Time) command.Decision {
	payload, err := command.DecodePayload[ActivateSessionPayload](cmd)
	if err != nil {
		return rejectPayload(err)
	}
	category, ok := state.FindCategory(payload.Producer, payload.Category)
	if !ok {
		return rejectCategoryNotFound(payload.Category)
	}
	if payload.Paid != category.Fee {
		return rejectIncorrectPayment("session", payload.Paid, category.Fee)
	}
	platformPart, producerPart, err := SplitFee(payload.Paid, state.Config.FeeRate)
	if err != nil {
		return reject(apperrors.CodeInvalidConfiguration, err.Error(), field("fee_rate"))
	}
	if _, overflow := addAmount(state.TotalReceived, payload.Paid); overflow {
		return rejectOverflow()
	}
	at := now()
	return accept(cmd, EventTypeSessionActivated, EntitySession, cmd.ActorID, SessionActivatedPayload{
		Consumer:     cmd.ActorID,
		Producer:     payload.Producer,
		Category:     payload.Category,
		Paid:         payload.Paid,
		FeeRate:      state.Config.FeeRate,
		PlatformPart: platformPart,
		ProducerPart: producerPart,
		ExpiresAt:    at.Add(category.SessionDuration).UTC(),
	}, at)
}

func decideClaimRoyalties(state State, cmd command.Command, now func() time.Time) command.Decision {
	payload, err := command.DecodePayload[ClaimRoyaltiesPayload](cmd)
	if err != nil {
		return rejectPayload(err)
	}

	var balance Amount
	switch payload.Role {
	case ClaimRolePlatform:
		if cmd.ActorID != state.Config.Owner {
			return rejectNotOwner()
		}
		balance = state.PlatformBalance
	case ClaimRoleProducer:
		if !state.IsProducer(cmd.ActorID) {
			return rejectNotProducer()
		}
		balance = state.ProducerBalance(cmd.ActorID)
	default:
		return reject(apperrors.CodeInvalidConfiguration, "claim role is invalid", field("role"))
	}
	if strings.TrimSpace(payload.Destination) == "" {
		return reject(apperrors.CodeInvalidConfiguration, "destination is required", field("destination"))
	}
	if balance == 0 {
		return reject(apperrors.CodeNothingToWithdraw, "nothing to withdraw", nil)
	}
	return accept(cmd, EventTypeRoyaltiesClaimed, EntityRoyalties, cmd.ActorID, RoyaltiesClaimedPayload{
		Role:        payload.Role,
		Claimant:    cmd.ActorID,
		Destination: payload.Destination,
		Amount:      balance,
	}, now())
}

// CategoryEntityID is the journal entity id of a producer's category. Both
// parts are path-escaped so a "/" inside either cannot collide with the
// separator.
func CategoryEntityID(producer, name string) string {
	return url.PathEscape(producer) + "/" + url.PathEscape(name)
}

func accept(cmd command.Command, eventType event.Type, entityType, entityID string, payload any, at time.Time) command.Decision {
	evt, err := command.NewEvent(cmd, eventType, entityType, entityID, payload, at)
	if err != nil {
		return reject(apperrors.CodeUnknown, err.Error(), nil)
	}
	return command.Accept(evt)
}

func reject(code apperrors.Code, message string, metadata map[string]string) command.Decision {
	return command.Reject(command.Rejection{
		Code:     string(code),
		Message:  message,
		Metadata: metadata,
	})
}

func field(name string) map[string]string {
	return map[string]string{"Field": name}
}

func rejectPayload(err error) command.Decision {
	return reject(apperrors.CodeInvalidConfiguration, err.Error(), field("payload"))
}

func rejectNotOwner() command.Decision {
	return reject(apperrors.CodeUnauthorized, "caller is not the platform owner", nil)
}

func rejectNotProducer() command.Decision {
	return reject(apperrors.CodeUnauthorized, "caller is not a registered producer", nil)
}

func rejectCategoryNotFound(name string) command.Decision {
	return reject(apperrors.CodeCategoryNotFound, "category not found", map[string]string{"Category": name})
}

func rejectIncorrectPayment(context string, paid, expected Amount) command.Decision {
	return reject(apperrors.CodeIncorrectPayment,
		"paid "+paid.String()+", expected "+expected.String(),
		map[string]string{
			"Context":  context,
			"Paid":     strconv.FormatUint(uint64(paid), 10),
			"Expected": strconv.FormatUint(uint64(expected), 10),
		})
}

func rejectOverflow() command.Decision {
	return reject(apperrors.CodeLedgerOverflow, "ledger total would overflow", nil)
}
