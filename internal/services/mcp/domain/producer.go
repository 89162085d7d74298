package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	marketv1 "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/market"
)

// ProducersResourceURI addresses the producer directory resource.
const ProducersResourceURI = "market://producers"

// ProducerEntry is one registered producer.
type ProducerEntry struct {
	Principal          string `json:"principal" jsonschema:"producer principal"`
	ContentType        string `json:"content_type" jsonschema:"kind of content offered"`
	ContentDescription string `json:"content_description" jsonschema:"free-form description of the content"`
}

// CategoryEntry is one producer category.
type CategoryEntry struct {
	Name                   string `json:"name" jsonschema:"category name, unique per producer"`
	Description            string `json:"description" jsonschema:"category description"`
	Fee                    uint64 `json:"fee" jsonschema:"exact session price in minor units"`
	SessionDurationSeconds uint64 `json:"session_duration_seconds" jsonschema:"session length granted per payment"`
}

func categoryEntry(c marketv1.Category) CategoryEntry {
	return CategoryEntry{
		Name:                   c.Name,
		Description:            c.Description,
		Fee:                    c.Fee,
		SessionDurationSeconds: c.SessionDurationSeconds,
	}
}

// ProducerRegisterInput represents the MCP tool input for producer registration.
type ProducerRegisterInput struct {
	Paid               uint64 `json:"paid" jsonschema:"payment attached, must equal the platform registration price"`
	ContentType        string `json:"content_type" jsonschema:"kind of content offered"`
	ContentDescription string `json:"content_description,omitempty" jsonschema:"free-form description of the content"`
}

// ProducerRegisterResult represents the MCP tool output for producer registration.
type ProducerRegisterResult struct {
	Producer ProducerEntry `json:"producer" jsonschema:"registered producer"`
}

// ProducerRegisterTool defines the MCP tool schema for producer registration.
func ProducerRegisterTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "producer_register",
		Description: "Registers the current principal as a producer; the payment is credited to the platform",
	}
}

// ProducerRegisterHandler executes a producer registration.
func ProducerRegisterHandler(client MarketClient, getContext func() Context, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[ProducerRegisterInput, ProducerRegisterResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ProducerRegisterInput) (*mcp.CallToolResult, ProducerRegisterResult, error) {
		caller := getContext()
		_, meta, err := invoke(ctx, caller, grpcCallTimeout, client.Register, &marketv1.RegisterRequest{
			Paid:               input.Paid,
			ContentType:        input.ContentType,
			ContentDescription: input.ContentDescription,
		})
		if err != nil {
			return nil, ProducerRegisterResult{}, fmt.Errorf("producer register failed: %w", err)
		}
		NotifyResourceUpdates(ctx, notify, ProducersResourceURI)
		return CallToolResultWithMetadata(meta), ProducerRegisterResult{Producer: ProducerEntry{
			Principal:          caller.Principal,
			ContentType:        input.ContentType,
			ContentDescription: input.ContentDescription,
		}}, nil
	}
}

// ProducerListInput represents the MCP tool input for listing producers.
type ProducerListInput struct{}

// ProducerListResult represents the MCP tool output for listing producers.
type ProducerListResult struct {
	Producers []ProducerEntry `json:"producers" jsonschema:"producers in registration order"`
}

// ProducerListTool defines the MCP tool schema for listing producers.
func ProducerListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "producer_list",
		Description: "Lists registered producers in registration order",
	}
}

// ProducerListHandler executes a producer listing.
func ProducerListHandler(client MarketClient, getContext func() Context) mcp.ToolHandlerFor[ProducerListInput, ProducerListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ProducerListInput) (*mcp.CallToolResult, ProducerListResult, error) {
		result, meta, err := listProducers(ctx, client, getContext())
		if err != nil {
			return nil, ProducerListResult{}, err
		}
		return CallToolResultWithMetadata(meta), result, nil
	}
}

func listProducers(ctx context.Context, client MarketClient, caller Context) (ProducerListResult, ToolCallMetadata, error) {
	resp, meta, err := invoke(ctx, caller, grpcCallTimeout, client.ListProducers, &marketv1.ListProducersRequest{})
	if err != nil {
		return ProducerListResult{}, ToolCallMetadata{}, fmt.Errorf("producer list failed: %w", err)
	}
	result := ProducerListResult{Producers: make([]ProducerEntry, 0, len(resp.Producers))}
	for _, p := range resp.Producers {
		result.Producers = append(result.Producers, ProducerEntry{
			Principal:          p.Principal,
			ContentType:        p.ContentType,
			ContentDescription: p.ContentDescription,
		})
	}
	return result, meta, nil
}

// ProducersResource defines the readable producer directory resource.
func ProducersResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "producers",
		Title:       "Producers",
		Description: "Registered producers in registration order",
		MIMEType:    "application/json",
		URI:         ProducersResourceURI,
	}
}

// ProducersResourceHandler reads the producer directory.
func ProducersResourceHandler(client MarketClient, getContext func() Context) mcp.ResourceHandler {
	return func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if client == nil {
			return nil, fmt.Errorf("market client is not configured")
		}
		result, _, err := listProducers(ctx, client, getContext())
		if err != nil {
			return nil, err
		}
		return jsonResource(ProducersResourceURI, result)
	}
}

// CategoryAddInput represents the MCP tool input for adding a category.
type CategoryAddInput struct {
	Name                   string `json:"name" jsonschema:"category name, unique per producer"`
	Description            string `json:"description,omitempty" jsonschema:"category description"`
	Fee                    uint64 `json:"fee" jsonschema:"session price in minor units, greater than zero"`
	SessionDurationSeconds uint64 `json:"session_duration_seconds" jsonschema:"session length in seconds, greater than zero"`
}

// CategoryResult represents a single category tool output.
type CategoryResult struct {
	Producer string        `json:"producer" jsonschema:"producer principal"`
	Category CategoryEntry `json:"category" jsonschema:"category"`
}

// CategoryAddTool defines the MCP tool schema for adding a category.
func CategoryAddTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "category_add",
		Description: "Producer only. Adds a priced content category owned by the current principal",
	}
}

// CategoryAddHandler executes a category creation.
func CategoryAddHandler(client MarketClient, getContext func() Context, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[CategoryAddInput, CategoryResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CategoryAddInput) (*mcp.CallToolResult, CategoryResult, error) {
		caller := getContext()
		_, meta, err := invoke(ctx, caller, grpcCallTimeout, client.AddCategory, &marketv1.AddCategoryRequest{
			Name:                   input.Name,
			Description:            input.Description,
			Fee:                    input.Fee,
			SessionDurationSeconds: input.SessionDurationSeconds,
		})
		if err != nil {
			return nil, CategoryResult{}, fmt.Errorf("category add failed: %w", err)
		}
		NotifyResourceUpdates(ctx, notify, ProducersResourceURI)
		return CallToolResultWithMetadata(meta), CategoryResult{
			Producer: caller.Principal,
			Category: CategoryEntry{
				Name:                   input.Name,
				Description:            input.Description,
				Fee:                    input.Fee,
				SessionDurationSeconds: input.SessionDurationSeconds,
			},
		}, nil
	}
}

// CategoryListInput represents the MCP tool input for listing categories.
type CategoryListInput struct {
	Producer string `json:"producer,omitempty" jsonschema:"producer principal (defaults to the current principal)"`
}

// CategoryListResult represents the MCP tool output for listing categories.
type CategoryListResult struct {
	Producer   string          `json:"producer" jsonschema:"producer principal"`
	Categories []CategoryEntry `json:"categories" jsonschema:"categories in creation order"`
}

// CategoryListTool defines the MCP tool schema for listing categories.
func CategoryListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "category_list",
		Description: "Lists a producer's categories in creation order",
	}
}

// CategoryListHandler executes a category listing.
func CategoryListHandler(client MarketClient, getContext func() Context) mcp.ToolHandlerFor[CategoryListInput, CategoryListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CategoryListInput) (*mcp.CallToolResult, CategoryListResult, error) {
		caller := getContext()
		producer := defaultPrincipal(input.Producer, caller)
		resp, meta, err := invoke(ctx, caller, grpcCallTimeout, client.ListProducerCategories, &marketv1.ListProducerCategoriesRequest{Producer: producer})
		if err != nil {
			return nil, CategoryListResult{}, fmt.Errorf("category list failed: %w", err)
		}
		result := CategoryListResult{Producer: producer, Categories: make([]CategoryEntry, 0, len(resp.Categories))}
		for _, c := range resp.Categories {
			result.Categories = append(result.Categories, categoryEntry(c))
		}
		return CallToolResultWithMetadata(meta), result, nil
	}
}

// CategoryFindInput represents the MCP tool input for looking up a category.
type CategoryFindInput struct {
	Producer string `json:"producer" jsonschema:"producer principal"`
	Name     string `json:"name" jsonschema:"category name"`
}

// CategoryFindTool defines the MCP tool schema for looking up a category.
func CategoryFindTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "category_find",
		Description: "Looks up one category of a producer by name",
	}
}

// CategoryFindHandler executes a category lookup.
func CategoryFindHandler(client MarketClient, getContext func() Context) mcp.ToolHandlerFor[CategoryFindInput, CategoryResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CategoryFindInput) (*mcp.CallToolResult, CategoryResult, error) {
		resp, meta, err := invoke(ctx, getContext(), grpcCallTimeout, client.FindCategory, &marketv1.FindCategoryRequest{
			Producer: input.Producer,
			Name:     input.Name,
		})
		if err != nil {
			return nil, CategoryResult{}, fmt.Errorf("category find failed: %w", err)
		}
		return CallToolResultWithMetadata(meta), CategoryResult{Producer: input.Producer, Category: categoryEntry(resp.Category)}, nil
	}
}

// ContentAddInput represents the MCP tool input for appending content.
type ContentAddInput struct {
	Category string `json:"category" jsonschema:"category owned by the current principal"`
	Locator  string `json:"locator" jsonschema:"opaque content locator"`
}

// ContentAddResult represents the MCP tool output for appending content.
type ContentAddResult struct {
	Category string `json:"category" jsonschema:"category name"`
	Locator  string `json:"locator" jsonschema:"appended locator"`
}

// ContentAddTool defines the MCP tool schema for appending content.
func ContentAddTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "content_add",
		Description: "Appends a content locator to one of the current principal's categories",
	}
}

// ContentAddHandler executes a content append.
func ContentAddHandler(client MarketClient, getContext func() Context) mcp.ToolHandlerFor[ContentAddInput, ContentAddResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ContentAddInput) (*mcp.CallToolResult, ContentAddResult, error) {
		_, meta, err := invoke(ctx, getContext(), grpcCallTimeout, client.AddContent, &marketv1.AddContentRequest{
			Category: input.Category,
			Locator:  input.Locator,
		})
		if err != nil {
			return nil, ContentAddResult{}, fmt.Errorf("content add failed: %w", err)
		}
		return CallToolResultWithMetadata(meta), ContentAddResult(input), nil
	}
}

func defaultPrincipal(value string, caller Context) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return caller.Principal
}
