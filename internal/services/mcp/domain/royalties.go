package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	marketv1 "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/market"
)

// BalanceGetInput represents the MCP tool input for reading a balance.
type BalanceGetInput struct {
	Producer string `json:"producer,omitempty" jsonschema:"producer principal; omit to read the platform balance"`
}

// BalanceResult represents a claimable balance.
type BalanceResult struct {
	Holder string `json:"holder" jsonschema:"producer principal or 'platform'"`
	Amount uint64 `json:"amount" jsonschema:"claimable amount in minor units"`
}

// BalanceGetTool defines the MCP tool schema for reading a balance.
func BalanceGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "balance_get",
		Description: "Returns the claimable balance of a producer, or of the platform when producer is omitted",
	}
}

// BalanceGetHandler executes a balance read.
func BalanceGetHandler(client MarketClient, getContext func() Context) mcp.ToolHandlerFor[BalanceGetInput, BalanceResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input BalanceGetInput) (*mcp.CallToolResult, BalanceResult, error) {
		caller := getContext()
		producer := strings.TrimSpace(input.Producer)
		if producer == "" {
			resp, meta, err := invoke(ctx, caller, grpcCallTimeout, client.GetPlatformBalance, &marketv1.GetPlatformBalanceRequest{})
			if err != nil {
				return nil, BalanceResult{}, fmt.Errorf("platform balance failed: %w", err)
			}
			return CallToolResultWithMetadata(meta), BalanceResult{Holder: "platform", Amount: resp.Amount}, nil
		}
		resp, meta, err := invoke(ctx, caller, grpcCallTimeout, client.GetProducerBalance, &marketv1.GetProducerBalanceRequest{Producer: producer})
		if err != nil {
			return nil, BalanceResult{}, fmt.Errorf("producer balance failed: %w", err)
		}
		return CallToolResultWithMetadata(meta), BalanceResult{Holder: producer, Amount: resp.Amount}, nil
	}
}

// RoyaltiesClaimInput represents the MCP tool input for claiming royalties.
type RoyaltiesClaimInput struct {
	Destination string `json:"destination" jsonschema:"payout destination for the claimed amount"`
	Platform    bool   `json:"platform,omitempty" jsonschema:"claim the platform balance (owner only) instead of the caller's producer balance"`
}

// RoyaltiesClaimResult represents the MCP tool output for claiming royalties.
type RoyaltiesClaimResult struct {
	Destination string `json:"destination" jsonschema:"payout destination"`
	Amount      uint64 `json:"amount" jsonschema:"amount transferred in minor units"`
}

// RoyaltiesClaimTool defines the MCP tool schema for claiming royalties.
func RoyaltiesClaimTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "royalties_claim",
		Description: "Transfers the caller's whole claimable balance to a destination; nothing changes if the transfer fails",
	}
}

// RoyaltiesClaimHandler executes a royalty claim.
func RoyaltiesClaimHandler(client MarketClient, getContext func() Context) mcp.ToolHandlerFor[RoyaltiesClaimInput, RoyaltiesClaimResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RoyaltiesClaimInput) (*mcp.CallToolResult, RoyaltiesClaimResult, error) {
		claim := client.ClaimProducerRoyalties
		if input.Platform {
			claim = client.ClaimPlatformRoyalties
		}
		resp, meta, err := invoke(ctx, getContext(), grpcLongCallTimeout, claim, &marketv1.ClaimRoyaltiesRequest{Destination: input.Destination})
		if err != nil {
			return nil, RoyaltiesClaimResult{}, fmt.Errorf("royalties claim failed: %w", err)
		}
		return CallToolResultWithMetadata(meta), RoyaltiesClaimResult{Destination: input.Destination, Amount: resp.Amount}, nil
	}
}
