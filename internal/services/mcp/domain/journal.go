package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	marketv1 "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/market"
)

// EventListInput represents the MCP tool input for reading the journal.
type EventListInput struct {
	PageSize  int    `json:"page_size,omitempty" jsonschema:"maximum number of events (default 50, max 200)"`
	PageToken string `json:"page_token,omitempty" jsonschema:"token from a previous page"`
	Filter    string `json:"filter,omitempty" jsonschema:"AIP-160 filter over type, actor_id, request_id, entity_type, entity_id, ts"`
}

// EventEntry is one journal event.
type EventEntry struct {
	Seq        uint64 `json:"seq" jsonschema:"journal sequence number"`
	Type       string `json:"type" jsonschema:"event type"`
	ActorID    string `json:"actor_id" jsonschema:"principal that caused the event"`
	EntityType string `json:"entity_type" jsonschema:"entity kind"`
	EntityID   string `json:"entity_id" jsonschema:"entity identifier"`
	Timestamp  string `json:"timestamp" jsonschema:"RFC3339 time the event was decided"`
	Payload    string `json:"payload,omitempty" jsonschema:"event payload JSON"`
}

// EventListResult represents the MCP tool output for reading the journal.
type EventListResult struct {
	Events        []EventEntry `json:"events" jsonschema:"events in journal order"`
	NextPageToken string       `json:"next_page_token,omitempty" jsonschema:"token for the next page"`
	TotalSize     int          `json:"total_size" jsonschema:"events matching the filter"`
}

// EventListTool defines the MCP tool schema for reading the journal.
func EventListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "event_list",
		Description: "Lists marketplace journal events with optional AIP-160 filtering and pagination",
	}
}

// EventListHandler executes a journal read.
func EventListHandler(client MarketClient, getContext func() Context) mcp.ToolHandlerFor[EventListInput, EventListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventListInput) (*mcp.CallToolResult, EventListResult, error) {
		resp, meta, err := invoke(ctx, getContext(), grpcLongCallTimeout, client.ListEvents, &marketv1.ListEventsRequest{
			PageSize:  int32(input.PageSize),
			PageToken: input.PageToken,
			Filter:    input.Filter,
		})
		if err != nil {
			return nil, EventListResult{}, fmt.Errorf("event list failed: %w", err)
		}
		result := EventListResult{
			Events:        make([]EventEntry, 0, len(resp.Events)),
			NextPageToken: resp.NextPageToken,
			TotalSize:     int(resp.TotalSize),
		}
		for _, evt := range resp.Events {
			result.Events = append(result.Events, EventEntry{
				Seq:        evt.Seq,
				Type:       evt.Type,
				ActorID:    evt.ActorID,
				EntityType: evt.EntityType,
				EntityID:   evt.EntityID,
				Timestamp:  formatTime(evt.Timestamp),
				Payload:    string(evt.Payload),
			})
		}
		return CallToolResultWithMetadata(meta), result, nil
	}
}

// JournalVerifyInput represents the MCP tool input for verifying the journal.
type JournalVerifyInput struct{}

// JournalVerifyResult represents the MCP tool output for verifying the journal.
type JournalVerifyResult struct {
	EventCount    uint64 `json:"event_count" jsonschema:"events verified"`
	LastSeq       uint64 `json:"last_seq" jsonschema:"sequence of the last event"`
	HeadChainHash string `json:"head_chain_hash" jsonschema:"chain hash of the last event"`
}

// JournalVerifyTool defines the MCP tool schema for verifying the journal.
func JournalVerifyTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "journal_verify",
		Description: "Walks the journal and checks event hashes, chain links, and signatures",
	}
}

// JournalVerifyHandler executes a journal verification.
func JournalVerifyHandler(client MarketClient, getContext func() Context) mcp.ToolHandlerFor[JournalVerifyInput, JournalVerifyResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ JournalVerifyInput) (*mcp.CallToolResult, JournalVerifyResult, error) {
		resp, meta, err := invoke(ctx, getContext(), grpcLongCallTimeout, client.VerifyJournal, &marketv1.VerifyJournalRequest{})
		if err != nil {
			return nil, JournalVerifyResult{}, fmt.Errorf("journal verify failed: %w", err)
		}
		return CallToolResultWithMetadata(meta), JournalVerifyResult(*resp), nil
	}
}
