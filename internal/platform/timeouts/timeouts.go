// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing a gRPC peer.
const GRPCDial = 2 * time.Second

// GRPCRequest caps a single call from the MCP bridge to the market service.
const GRPCRequest = 5 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests.
const Shutdown = 5 * time.Second

// Transfer caps one outbound royalty transfer.
const Transfer = 10 * time.Second
