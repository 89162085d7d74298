// Package engine is the serialized operation surface of the marketplace.
//
// Every operation, reads included, runs under one mutex against a single
// in-memory state. Writes are decided against that state, folded into a
// staged clone, and appended to the journal; the staged clone replaces the
// live state only after the journal commits. Royalty claims run the outbound
// transfer inside the journal append, so a failed transfer discards both the
// claim event and the zeroed balance.
//
// Transferers must not call back into the engine: the engine lock is held
// while they run.
package engine
