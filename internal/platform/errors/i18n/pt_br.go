package i18n

var ptBRMessages = map[Code]string{
	CodeUnauthorized:         "Você não tem permissão para realizar esta operação.",
	CodePrincipalRequired:    "É necessário identificar quem faz a chamada.",
	CodeInvalidToken:         "Seu token de acesso não é válido.",
	CodeAlreadyRegistered:    "Esta conta já está registrada como produtora.",
	CodeCategoryNotFound:     "A categoria {{.Category}} não foi encontrada para este produtor.",
	CodeDuplicateCategory:    "A categoria {{.Category}} já existe.",
	CodeInvalidConfiguration: "O valor de {{.Field}} não é válido.",
	CodeInactiveSession:      "Sua sessão para {{.Category}} não está ativa.",
	CodeIncorrectPayment:     "O pagamento de {{.Context}} deve ser exatamente {{.Expected}}.",
	CodeNothingToWithdraw:    "Não há saldo para sacar.",
	CodeTransferFailed:       "O saque não pôde ser enviado. Seu saldo não foi alterado.",
	CodeLedgerOverflow:       "O livro-razão não pode aceitar este pagamento.",
	CodeNotFound:             "O registro solicitado não foi encontrado.",
	CodeJournalIntegrity:     "O diário do livro-razão falhou na verificação.",
}
