package domain

import (
	"context"

	"google.golang.org/grpc"

	marketv1 "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/market"
)

// MarketClient is the market service surface the MCP tools call.
type MarketClient interface {
	GetPlatform(ctx context.Context, in *marketv1.GetPlatformRequest, opts ...grpc.CallOption) (*marketv1.GetPlatformResponse, error)
	UpdateRegisterPayment(ctx context.Context, in *marketv1.UpdateRegisterPaymentRequest, opts ...grpc.CallOption) (*marketv1.UpdateRegisterPaymentResponse, error)
	UpdatePlatformFeeRate(ctx context.Context, in *marketv1.UpdatePlatformFeeRateRequest, opts ...grpc.CallOption) (*marketv1.UpdatePlatformFeeRateResponse, error)
	Register(ctx context.Context, in *marketv1.RegisterRequest, opts ...grpc.CallOption) (*marketv1.RegisterResponse, error)
	ListProducers(ctx context.Context, in *marketv1.ListProducersRequest, opts ...grpc.CallOption) (*marketv1.ListProducersResponse, error)
	IsProducer(ctx context.Context, in *marketv1.IsProducerRequest, opts ...grpc.CallOption) (*marketv1.IsProducerResponse, error)
	AddCategory(ctx context.Context, in *marketv1.AddCategoryRequest, opts ...grpc.CallOption) (*marketv1.AddCategoryResponse, error)
	ListProducerCategories(ctx context.Context, in *marketv1.ListProducerCategoriesRequest, opts ...grpc.CallOption) (*marketv1.ListProducerCategoriesResponse, error)
	FindCategory(ctx context.Context, in *marketv1.FindCategoryRequest, opts ...grpc.CallOption) (*marketv1.FindCategoryResponse, error)
	AddContent(ctx context.Context, in *marketv1.AddContentRequest, opts ...grpc.CallOption) (*marketv1.AddContentResponse, error)
	GetContent(ctx context.Context, in *marketv1.GetContentRequest, opts ...grpc.CallOption) (*marketv1.GetContentResponse, error)
	ActivateSession(ctx context.Context, in *marketv1.ActivateSessionRequest, opts ...grpc.CallOption) (*marketv1.ActivateSessionResponse, error)
	GetSession(ctx context.Context, in *marketv1.GetSessionRequest, opts ...grpc.CallOption) (*marketv1.GetSessionResponse, error)
	GetProducerBalance(ctx context.Context, in *marketv1.GetProducerBalanceRequest, opts ...grpc.CallOption) (*marketv1.BalanceResponse, error)
	GetPlatformBalance(ctx context.Context, in *marketv1.GetPlatformBalanceRequest, opts ...grpc.CallOption) (*marketv1.BalanceResponse, error)
	ClaimPlatformRoyalties(ctx context.Context, in *marketv1.ClaimRoyaltiesRequest, opts ...grpc.CallOption) (*marketv1.ClaimRoyaltiesResponse, error)
	ClaimProducerRoyalties(ctx context.Context, in *marketv1.ClaimRoyaltiesRequest, opts ...grpc.CallOption) (*marketv1.ClaimRoyaltiesResponse, error)
	ListEvents(ctx context.Context, in *marketv1.ListEventsRequest, opts ...grpc.CallOption) (*marketv1.ListEventsResponse, error)
	VerifyJournal(ctx context.Context, in *marketv1.VerifyJournalRequest, opts ...grpc.CallOption) (*marketv1.VerifyJournalResponse, error)
}

var _ MarketClient = (*marketv1.Client)(nil)
