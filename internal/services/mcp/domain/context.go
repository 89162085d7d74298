package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Context is the caller identity the MCP server presents to the market
// service. Token, when set, is sent as a bearer token and takes precedence
// over Principal on servers that verify tokens.
type Context struct {
	Principal string
	Token     string
}

// ContextResourceURI addresses the current MCP context.
const ContextResourceURI = "market://context"

// SetPrincipalInput represents the MCP tool input for switching principals.
type SetPrincipalInput struct {
	Principal string `json:"principal" jsonschema:"principal to act as for subsequent tool calls"`
}

// SetPrincipalResult represents the MCP tool output for switching principals.
type SetPrincipalResult struct {
	Principal string `json:"principal" jsonschema:"principal now in effect"`
}

// SetPrincipalTool defines the MCP tool schema for switching principals.
func SetPrincipalTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "set_principal",
		Description: "Sets the principal that subsequent market tool calls act as",
	}
}

// SetPrincipalHandler updates the principal held by the server.
func SetPrincipalHandler(setPrincipal func(string), getContext func() Context, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[SetPrincipalInput, SetPrincipalResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SetPrincipalInput) (*mcp.CallToolResult, SetPrincipalResult, error) {
		principal := strings.TrimSpace(input.Principal)
		if principal == "" {
			return nil, SetPrincipalResult{}, fmt.Errorf("principal is required")
		}
		setPrincipal(principal)
		NotifyResourceUpdates(ctx, notify, ContextResourceURI)
		return nil, SetPrincipalResult{Principal: getContext().Principal}, nil
	}
}

// ContextResource defines the readable MCP context resource.
func ContextResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "context",
		Title:       "Current context",
		Description: "Principal the MCP server acts as",
		MIMEType:    "application/json",
		URI:         ContextResourceURI,
	}
}

// ContextResourceHandler reports the current principal. Tokens are never
// echoed.
func ContextResourceHandler(getContext func() Context) mcp.ResourceHandler {
	return func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		current := getContext()
		payload := struct {
			Principal string `json:"principal"`
			HasToken  bool   `json:"has_token"`
		}{Principal: current.Principal, HasToken: current.Token != ""}
		return jsonResource(ContextResourceURI, payload)
	}
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}
