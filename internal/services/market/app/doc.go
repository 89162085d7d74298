// Package server composes the marketplace gRPC entrypoint.
//
// It opens the journal store, rebuilds the engine from it, and serves the
// market service with request metadata, principal resolution, and call
// logging interceptors in front of it.
package server
