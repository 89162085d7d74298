// Package sqlite persists the marketplace journal and checkpoints in SQLite.
//
// Appends run in one transaction per batch: events are sequenced, hashed,
// chained, and signed before insert, and the caller's before-commit hook runs
// inside the same transaction so an outbound transfer failure leaves no rows
// behind.
package sqlite
