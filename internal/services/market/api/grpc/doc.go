// Package grpc groups the marketplace gRPC transport: request metadata,
// caller authentication, call logging, and the MarketService itself.
package grpc
