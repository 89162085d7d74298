// Package event defines the journal envelope every accepted marketplace
// operation produces, plus the registry that vets events before append.
//
// Events are the only durable record of marketplace state. The engine folds
// them into market.State in append order, and the journal links each one to
// its predecessor through a chain hash so tampering is detectable.
package event
