// Package metadata defines the headers that carry caller identity, locale,
// and request correlation across gRPC boundaries.
//
// Request IDs are generated when a client omits them so every journal event
// and log line written for a call can be correlated.
package metadata
