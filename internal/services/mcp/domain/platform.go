package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	marketv1 "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/market"
)

// PlatformResourceURI addresses the platform configuration resource.
const PlatformResourceURI = "market://platform"

// PlatformResult describes the platform configuration.
type PlatformResult struct {
	Name              string `json:"name" jsonschema:"platform name"`
	Description       string `json:"description" jsonschema:"platform description"`
	FeeRateBasePoints uint32 `json:"fee_rate_base_points" jsonschema:"platform fee rate where 10000 is 100%"`
	RegisterPayment   uint64 `json:"register_payment" jsonschema:"exact producer registration price in minor units"`
	Owner             string `json:"owner" jsonschema:"principal that owns the platform"`
}

func platformResult(p marketv1.Platform) PlatformResult {
	return PlatformResult{
		Name:              p.Name,
		Description:       p.Description,
		FeeRateBasePoints: p.FeeRateBasePoints,
		RegisterPayment:   p.RegisterPayment,
		Owner:             p.Owner,
	}
}

// PlatformGetInput represents the MCP tool input for reading the platform.
type PlatformGetInput struct{}

// PlatformGetTool defines the MCP tool schema for reading the platform.
func PlatformGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "platform_get",
		Description: "Returns the platform name, owner, fee rate, and registration price",
	}
}

// PlatformGetHandler executes a platform read.
func PlatformGetHandler(client MarketClient, getContext func() Context) mcp.ToolHandlerFor[PlatformGetInput, PlatformResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ PlatformGetInput) (*mcp.CallToolResult, PlatformResult, error) {
		resp, meta, err := invoke(ctx, getContext(), grpcCallTimeout, client.GetPlatform, &marketv1.GetPlatformRequest{})
		if err != nil {
			return nil, PlatformResult{}, fmt.Errorf("platform get failed: %w", err)
		}
		return CallToolResultWithMetadata(meta), platformResult(resp.Platform), nil
	}
}

// PlatformUpdateInput represents the MCP tool input for owner configuration
// changes. Unset fields are left unchanged.
type PlatformUpdateInput struct {
	RegisterPayment   *uint64 `json:"register_payment,omitempty" jsonschema:"new registration price in minor units"`
	FeeRateBasePoints *uint32 `json:"fee_rate_base_points,omitempty" jsonschema:"new fee rate for future sessions, at most 10000"`
}

// PlatformUpdateTool defines the MCP tool schema for owner configuration.
func PlatformUpdateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "platform_update",
		Description: "Owner only. Updates the registration price and/or the platform fee rate; fee changes apply to future sessions only",
	}
}

// PlatformUpdateHandler applies owner configuration changes and returns the
// resulting platform.
func PlatformUpdateHandler(client MarketClient, getContext func() Context, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[PlatformUpdateInput, PlatformResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PlatformUpdateInput) (*mcp.CallToolResult, PlatformResult, error) {
		if input.RegisterPayment == nil && input.FeeRateBasePoints == nil {
			return nil, PlatformResult{}, fmt.Errorf("register_payment or fee_rate_base_points is required")
		}
		caller := getContext()
		if input.RegisterPayment != nil {
			req := &marketv1.UpdateRegisterPaymentRequest{Amount: *input.RegisterPayment}
			if _, _, err := invoke(ctx, caller, grpcCallTimeout, client.UpdateRegisterPayment, req); err != nil {
				return nil, PlatformResult{}, fmt.Errorf("update register payment failed: %w", err)
			}
		}
		if input.FeeRateBasePoints != nil {
			req := &marketv1.UpdatePlatformFeeRateRequest{FeeRateBasePoints: *input.FeeRateBasePoints}
			if _, _, err := invoke(ctx, caller, grpcCallTimeout, client.UpdatePlatformFeeRate, req); err != nil {
				return nil, PlatformResult{}, fmt.Errorf("update fee rate failed: %w", err)
			}
		}
		NotifyResourceUpdates(ctx, notify, PlatformResourceURI)

		resp, meta, err := invoke(ctx, caller, grpcCallTimeout, client.GetPlatform, &marketv1.GetPlatformRequest{})
		if err != nil {
			return nil, PlatformResult{}, fmt.Errorf("platform get failed: %w", err)
		}
		return CallToolResultWithMetadata(meta), platformResult(resp.Platform), nil
	}
}

// PlatformResource defines the readable platform configuration resource.
func PlatformResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "platform",
		Title:       "Platform",
		Description: "Platform configuration",
		MIMEType:    "application/json",
		URI:         PlatformResourceURI,
	}
}

// PlatformResourceHandler reads the platform configuration.
func PlatformResourceHandler(client MarketClient, getContext func() Context) mcp.ResourceHandler {
	return func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if client == nil {
			return nil, fmt.Errorf("market client is not configured")
		}
		resp, _, err := invoke(ctx, getContext(), grpcCallTimeout, client.GetPlatform, &marketv1.GetPlatformRequest{})
		if err != nil {
			return nil, fmt.Errorf("platform get failed: %w", err)
		}
		return jsonResource(PlatformResourceURI, platformResult(resp.Platform))
	}
}
