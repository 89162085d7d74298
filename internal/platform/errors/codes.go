// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Access errors
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodePrincipalRequired Code = "PRINCIPAL_REQUIRED"
	CodeInvalidToken      Code = "INVALID_TOKEN"

	// Producer errors
	CodeAlreadyRegistered Code = "ALREADY_REGISTERED"

	// Catalog errors
	CodeCategoryNotFound     Code = "CATEGORY_NOT_FOUND"
	CodeDuplicateCategory    Code = "DUPLICATE_CATEGORY"
	CodeInvalidConfiguration Code = "INVALID_CONFIGURATION"

	// Session errors
	CodeInactiveSession Code = "INACTIVE_SESSION"

	// Ledger errors
	CodeIncorrectPayment  Code = "INCORRECT_PAYMENT"
	CodeNothingToWithdraw Code = "NOTHING_TO_WITHDRAW"
	CodeTransferFailed    Code = "TRANSFER_FAILED"
	CodeLedgerOverflow    Code = "LEDGER_OVERFLOW"

	// Storage errors
	CodeNotFound         Code = "NOT_FOUND"
	CodeJournalIntegrity Code = "JOURNAL_INTEGRITY"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeInvalidConfiguration,
		CodeIncorrectPayment:
		return codes.InvalidArgument

	// Unauthenticated - no caller identity
	case CodePrincipalRequired,
		CodeInvalidToken:
		return codes.Unauthenticated

	// PermissionDenied - caller holds the wrong role
	case CodeUnauthorized:
		return codes.PermissionDenied

	// FailedPrecondition - state doesn't allow operation
	case CodeInactiveSession,
		CodeNothingToWithdraw:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeCategoryNotFound:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeAlreadyRegistered,
		CodeDuplicateCategory:
		return codes.AlreadyExists

	// ResourceExhausted - ledger totals at their numeric limit
	case CodeLedgerOverflow:
		return codes.ResourceExhausted

	// Unavailable - outbound collaborator failed, safe to retry
	case CodeTransferFailed:
		return codes.Unavailable

	case CodeJournalIntegrity:
		return codes.DataLoss

	default:
		return codes.Internal
	}
}
