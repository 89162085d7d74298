package market

import (
	"context"

	"google.golang.org/grpc"

	platformgrpc "github.com/louisbranch/tollgate.space/internal/platform/grpc"
)

// Client calls MarketService over conn using the JSON codec.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient returns a MarketService client.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func invoke[Req, Resp any](ctx context.Context, c *Client, fullMethod string, in *Req, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(platformgrpc.JSONCodecName)}, opts...)
	if err := c.conn.Invoke(ctx, fullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetPlatform(ctx context.Context, in *GetPlatformRequest, opts ...grpc.CallOption) (*GetPlatformResponse, error) {
	return invoke[GetPlatformRequest, GetPlatformResponse](ctx, c, MarketService_GetPlatform_FullMethodName, in, opts...)
}

func (c *Client) UpdateRegisterPayment(ctx context.Context, in *UpdateRegisterPaymentRequest, opts ...grpc.CallOption) (*UpdateRegisterPaymentResponse, error) {
	return invoke[UpdateRegisterPaymentRequest, UpdateRegisterPaymentResponse](ctx, c, MarketService_UpdateRegisterPayment_FullMethodName, in, opts...)
}

func (c *Client) UpdatePlatformFeeRate(ctx context.Context, in *UpdatePlatformFeeRateRequest, opts ...grpc.CallOption) (*UpdatePlatformFeeRateResponse, error) {
	return invoke[UpdatePlatformFeeRateRequest, UpdatePlatformFeeRateResponse](ctx, c, MarketService_UpdatePlatformFeeRate_FullMethodName, in, opts...)
}

func (c *Client) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterRequest, RegisterResponse](ctx, c, MarketService_Register_FullMethodName, in, opts...)
}

func (c *Client) ListProducers(ctx context.Context, in *ListProducersRequest, opts ...grpc.CallOption) (*ListProducersResponse, error) {
	return invoke[ListProducersRequest, ListProducersResponse](ctx, c, MarketService_ListProducers_FullMethodName, in, opts...)
}

func (c *Client) IsProducer(ctx context.Context, in *IsProducerRequest, opts ...grpc.CallOption) (*IsProducerResponse, error) {
	return invoke[IsProducerRequest, IsProducerResponse](ctx, c, MarketService_IsProducer_FullMethodName, in, opts...)
}

func (c *Client) AddCategory(ctx context.Context, in *AddCategoryRequest, opts ...grpc.CallOption) (*AddCategoryResponse, error) {
	return invoke[AddCategoryRequest, AddCategoryResponse](ctx, c, MarketService_AddCategory_FullMethodName, in, opts...)
}

func (c *Client) ListProducerCategories(ctx context.Context, in *ListProducerCategoriesRequest, opts ...grpc.CallOption) (*ListProducerCategoriesResponse, error) {
	return invoke[ListProducerCategoriesRequest, ListProducerCategoriesResponse](ctx, c, MarketService_ListProducerCategories_FullMethodName, in, opts...)
}

func (c *Client) FindCategory(ctx context.Context, in *FindCategoryRequest, opts ...grpc.CallOption) (*FindCategoryResponse, error) {
	return invoke[FindCategoryRequest, FindCategoryResponse](ctx, c, MarketService_FindCategory_FullMethodName, in, opts...)
}

func (c *Client) AddContent(ctx context.Context, in *AddContentRequest, opts ...grpc.CallOption) (*AddContentResponse, error) {
	return invoke[AddContentRequest, AddContentResponse](ctx, c, MarketService_AddContent_FullMethodName, in, opts...)
}

func (c *Client) GetContent(ctx context.Context, in *GetContentRequest, opts ...grpc.CallOption) (*GetContentResponse, error) {
	return invoke[GetContentRequest, GetContentResponse](ctx, c, MarketService_GetContent_FullMethodName, in, opts...)
}

func (c *Client) ActivateSession(ctx context.Context, in *ActivateSessionRequest, opts ...grpc.CallOption) (*ActivateSessionResponse, error) {
	return invoke[ActivateSessionRequest, ActivateSessionResponse](ctx, c, MarketService_ActivateSession_FullMethodName, in, opts...)
}

func (c *Client) GetSession(ctx context.Context, in *GetSessionRequest, opts ...grpc.CallOption) (*GetSessionResponse, error) {
	return invoke[GetSessionRequest, GetSessionResponse](ctx, c, MarketService_GetSession_FullMethodName, in, opts...)
}

func (c *Client) GetProducerBalance(ctx context.Context, in *GetProducerBalanceRequest, opts ...grpc.CallOption) (*BalanceResponse, error) {
	return invoke[GetProducerBalanceRequest, BalanceResponse](ctx, c, MarketService_GetProducerBalance_FullMethodName, in, opts...)
}

func (c *Client) GetPlatformBalance(ctx context.Context, in *GetPlatformBalanceRequest, opts ...grpc.CallOption) (*BalanceResponse, error) {
	return invoke[GetPlatformBalanceRequest, BalanceResponse](ctx, c, MarketService_GetPlatformBalance_FullMethodName, in, opts...)
}

func (c *Client) ClaimPlatformRoyalties(ctx context.Context, in *ClaimRoyaltiesRequest, opts ...grpc.CallOption) (*ClaimRoyaltiesResponse, error) {
	return invoke[ClaimRoyaltiesRequest, ClaimRoyaltiesResponse](ctx, c, MarketService_ClaimPlatformRoyalties_FullMethodName, in, opts...)
}

func (c *Client) ClaimProducerRoyalties(ctx context.Context, in *ClaimRoyaltiesRequest, opts ...grpc.CallOption) (*ClaimRoyaltiesResponse, error) {
	return invoke[ClaimRoyaltiesRequest, ClaimRoyaltiesResponse](ctx, c, MarketService_ClaimProducerRoyalties_FullMethodName, in, opts...)
}

func (c *Client) ListEvents(ctx context.Context, in *ListEventsRequest, opts ...grpc.CallOption) (*ListEventsResponse, error) {
	return invoke[ListEventsRequest, ListEventsResponse](ctx, c, MarketService_ListEvents_FullMethodName, in, opts...)
}

func (c *Client) VerifyJournal(ctx context.Context, in *VerifyJournalRequest, opts ...grpc.CallOption) (*VerifyJournalResponse, error) {
	return invoke[VerifyJournalRequest, VerifyJournalResponse](ctx, c, MarketService_VerifyJournal_FullMethodName, in, opts...)
}
