package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/louisbranch/tollgate.space/internal/platform/id"
	grpcmeta "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/metadata"
)

// ToolCallMetadata carries correlation identifiers for MCP tool calls.
type ToolCallMetadata struct {
	RequestID    string
	InvocationID string
}

// ResourceUpdateNotifier notifies MCP clients about resource updates.
type ResourceUpdateNotifier func(ctx context.Context, uri string)

// NewInvocationID generates an invocation identifier for a tool call.
func NewInvocationID() (string, error) {
	return id.NewID()
}

// NewOutgoingContext attaches request, invocation, and caller metadata to ctx.
func NewOutgoingContext(ctx context.Context, caller Context, invocationID string) (context.Context, ToolCallMetadata, error) {
	requestID, err := id.NewID()
	if err != nil {
		return nil, ToolCallMetadata{}, err
	}

	callCtx := grpcmeta.OutgoingContext(ctx, caller.Principal, requestID)
	if invocationID != "" {
		callCtx = metadata.AppendToOutgoingContext(callCtx, grpcmeta.InvocationIDHeader, invocationID)
	}
	if token := strings.TrimSpace(caller.Token); token != "" {
		callCtx = metadata.AppendToOutgoingContext(callCtx, grpcmeta.AuthorizationHeader, "Bearer "+token)
	}
	return callCtx, ToolCallMetadata{RequestID: requestID, InvocationID: invocationID}, nil
}

// MergeResponseMetadata overlays response headers on top of sent metadata.
func MergeResponseMetadata(sent ToolCallMetadata, header metadata.MD) ToolCallMetadata {
	requestID := grpcmeta.FirstMetadataValue(header, grpcmeta.RequestIDHeader)
	if requestID == "" {
		requestID = sent.RequestID
	}
	return ToolCallMetadata{RequestID: requestID, InvocationID: sent.InvocationID}
}

// CallToolResultWithMetadata builds a tool result with correlation metadata.
func CallToolResultWithMetadata(meta ToolCallMetadata) *mcp.CallToolResult {
	result := &mcp.CallToolResult{
		Meta: map[string]any{
			grpcmeta.RequestIDHeader: meta.RequestID,
		},
	}
	if meta.InvocationID != "" {
		result.Meta[grpcmeta.InvocationIDHeader] = meta.InvocationID
	}
	return result
}

// NotifyResourceUpdates sends resource update notifications for each URI provided.
func NotifyResourceUpdates(ctx context.Context, notify ResourceUpdateNotifier, uris ...string) {
	if notify == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for _, uri := range uris {
		if strings.TrimSpace(uri) == "" {
			continue
		}
		notify(ctx, uri)
	}
}

// invoke runs one market call for a tool handler under timeout, carrying
// correlation metadata for caller.
func invoke[Req, Resp any](
	ctx context.Context,
	caller Context,
	timeout time.Duration,
	call func(context.Context, *Req, ...grpc.CallOption) (*Resp, error),
	req *Req,
) (*Resp, ToolCallMetadata, error) {
	invocationID, err := NewInvocationID()
	if err != nil {
		return nil, ToolCallMetadata{}, fmt.Errorf("generate invocation id: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	callCtx, callMeta, err := NewOutgoingContext(runCtx, caller, invocationID)
	if err != nil {
		return nil, ToolCallMetadata{}, fmt.Errorf("create request metadata: %w", err)
	}

	var header metadata.MD
	resp, err := call(callCtx, req, grpc.Header(&header))
	if err != nil {
		return nil, ToolCallMetadata{}, err
	}
	if resp == nil {
		return nil, ToolCallMetadata{}, fmt.Errorf("response is missing")
	}
	return resp, MergeResponseMetadata(callMeta, header), nil
}
