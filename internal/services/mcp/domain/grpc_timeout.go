package domain

import "github.com/louisbranch/tollgate.space/internal/platform/timeouts"

// grpcCallTimeout caps the time for a single gRPC call from an MCP tool handler.
const grpcCallTimeout = timeouts.GRPCRequest

// grpcLongCallTimeout caps calls that walk the journal or pay out royalties.
const grpcLongCallTimeout = 2 * timeouts.GRPCRequest
