// Package market is the marketplace aggregate: the platform configuration,
// producer registry, category catalog, consumer sessions, and the ledger of
// claimable balances.
//
// Decide evaluates a command against the current State and returns events or
// rejections without touching state. Fold applies accepted events. Both are
// pure, so the engine can stage a change on a cloned State, commit it to the
// journal, and only then swap it in.
//
// Ledger conservation holds after every fold:
//
//	TotalReceived == PlatformBalance + sum(producer balances) + TotalWithdrawn
package market

//go:generate go run ../../../../tools/eventdocgen -out docs/events/event-catalog.md
