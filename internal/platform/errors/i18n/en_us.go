package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnauthorized         = "UNAUTHORIZED"
	CodePrincipalRequired    = "PRINCIPAL_REQUIRED"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeAlreadyRegistered    = "ALREADY_REGISTERED"
	CodeCategoryNotFound     = "CATEGORY_NOT_FOUND"
	CodeDuplicateCategory    = "DUPLICATE_CATEGORY"
	CodeInvalidConfiguration = "INVALID_CONFIGURATION"
	CodeInactiveSession      = "INACTIVE_SESSION"
	CodeIncorrectPayment     = "INCORRECT_PAYMENT"
	CodeNothingToWithdraw    = "NOTHING_TO_WITHDRAW"
	CodeTransferFailed       = "TRANSFER_FAILED"
	CodeLedgerOverflow       = "LEDGER_OVERFLOW"
	CodeNotFound             = "NOT_FOUND"
	CodeJournalIntegrity     = "JOURNAL_INTEGRITY"
)

var enUSMessages = map[Code]string{
	CodeUnauthorized:         "You are not allowed to perform this operation.",
	CodePrincipalRequired:    "A caller identity is required.",
	CodeInvalidToken:         "Your access token is not valid.",
	CodeAlreadyRegistered:    "This account is already registered as a producer.",
	CodeCategoryNotFound:     "Category {{.Category}} was not found for this producer.",
	CodeDuplicateCategory:    "Category {{.Category}} already exists.",
	CodeInvalidConfiguration: "The {{.Field}} value is not valid.",
	CodeInactiveSession:      "Your session for {{.Category}} is not active.",
	CodeIncorrectPayment:     "The {{.Context}} payment must be exactly {{.Expected}}.",
	CodeNothingToWithdraw:    "There is nothing to withdraw.",
	CodeTransferFailed:       "The withdrawal could not be sent. Your balance was not changed.",
	CodeLedgerOverflow:       "The ledger cannot accept this payment.",
	CodeNotFound:             "The requested record was not found.",
	CodeJournalIntegrity:     "The ledger journal failed verification.",
}
