// Package storage defines persistence interfaces for the marketplace service.
//
// It covers the append-only event journal, filtered journal pages, integrity
// verification, and state checkpoints. Implementations (in-memory and SQLite)
// live in subpackages.
//
// Common error types:
//   - ErrNotFound: requested record is missing
package storage
