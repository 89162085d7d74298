package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	marketv1 "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/market"
)

// SessionActivateInput represents the MCP tool input for buying a session.
type SessionActivateInput struct {
	Producer string `json:"producer" jsonschema:"producer principal"`
	Category string `json:"category" jsonschema:"category name"`
	Paid     uint64 `json:"paid" jsonschema:"payment attached, must equal the category fee"`
}

// SessionResult describes a consumer's session on a category.
type SessionResult struct {
	Consumer  string `json:"consumer" jsonschema:"consumer principal"`
	Producer  string `json:"producer" jsonschema:"producer principal"`
	Category  string `json:"category" jsonschema:"category name"`
	Active    bool   `json:"active" jsonschema:"whether the session is active now"`
	ExpiresAt string `json:"expires_at,omitempty" jsonschema:"RFC3339 expiry, omitted when never activated"`
}

// SessionActivateTool defines the MCP tool schema for buying a session.
func SessionActivateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "session_activate",
		Description: "Pays the exact category fee for a time-limited session; reactivation restarts the session from now",
	}
}

// SessionActivateHandler executes a session purchase.
func SessionActivateHandler(client MarketClient, getContext func() Context) mcp.ToolHandlerFor[SessionActivateInput, SessionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SessionActivateInput) (*mcp.CallToolResult, SessionResult, error) {
		caller := getContext()
		resp, meta, err := invoke(ctx, caller, grpcCallTimeout, client.ActivateSession, &marketv1.ActivateSessionRequest{
			Paid:     input.Paid,
			Producer: input.Producer,
			Category: input.Category,
		})
		if err != nil {
			return nil, SessionResult{}, fmt.Errorf("session activate failed: %w", err)
		}
		return CallToolResultWithMetadata(meta), SessionResult{
			Consumer:  caller.Principal,
			Producer:  input.Producer,
			Category:  input.Category,
			Active:    true,
			ExpiresAt: formatTime(resp.ExpiresAt),
		}, nil
	}
}

// SessionGetInput represents the MCP tool input for reading a session.
type SessionGetInput struct {
	Consumer string `json:"consumer,omitempty" jsonschema:"consumer principal (defaults to the current principal)"`
	Producer string `json:"producer" jsonschema:"producer principal"`
	Category string `json:"category" jsonschema:"category name"`
}

// SessionGetTool defines the MCP tool schema for reading a session.
func SessionGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "session_get",
		Description: "Reports whether a consumer's session on a category is active and when it expires",
	}
}

// SessionGetHandler executes a session read.
func SessionGetHandler(client MarketClient, getContext func() Context) mcp.ToolHandlerFor[SessionGetInput, SessionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SessionGetInput) (*mcp.CallToolResult, SessionResult, error) {
		caller := getContext()
		consumer := defaultPrincipal(input.Consumer, caller)
		resp, meta, err := invoke(ctx, caller, grpcCallTimeout, client.GetSession, &marketv1.GetSessionRequest{
			Consumer: consumer,
			Producer: input.Producer,
			Category: input.Category,
		})
		if err != nil {
			return nil, SessionResult{}, fmt.Errorf("session get failed: %w", err)
		}
		result := SessionResult{
			Consumer: consumer,
			Producer: input.Producer,
			Category: input.Category,
			Active:   resp.Active,
		}
		if resp.ExpiresAt != nil {
			result.ExpiresAt = formatTime(*resp.ExpiresAt)
		}
		return CallToolResultWithMetadata(meta), result, nil
	}
}

// ContentGetInput represents the MCP tool input for reading gated content.
type ContentGetInput struct {
	Consumer string `json:"consumer,omitempty" jsonschema:"consumer principal (defaults to the current principal)"`
	Producer string `json:"producer" jsonschema:"producer principal"`
	Category string `json:"category" jsonschema:"category name"`
}

// ContentGetResult represents the MCP tool output for reading gated content.
type ContentGetResult struct {
	Content []string `json:"content" jsonschema:"content locators in insertion order"`
}

// ContentGetTool defines the MCP tool schema for reading gated content.
func ContentGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "content_get",
		Description: "Returns a category's content locators when the consumer holds an active session",
	}
}

// ContentGetHandler executes a gated content read.
func ContentGetHandler(client MarketClient, getContext func() Context) mcp.ToolHandlerFor[ContentGetInput, ContentGetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ContentGetInput) (*mcp.CallToolResult, ContentGetResult, error) {
		caller := getContext()
		resp, meta, err := invoke(ctx, caller, grpcCallTimeout, client.GetContent, &marketv1.GetContentRequest{
			Consumer: defaultPrincipal(input.Consumer, caller),
			Producer: input.Producer,
			Category: input.Category,
		})
		if err != nil {
			return nil, ContentGetResult{}, fmt.Errorf("content get failed: %w", err)
		}
		content := resp.Content
		if content == nil {
			content = []string{}
		}
		return CallToolResultWithMetadata(meta), ContentGetResult{Content: content}, nil
	}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
