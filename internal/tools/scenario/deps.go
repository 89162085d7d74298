package scenario

import (
	"context"

	"google.golang.org/grpc"

	marketv1 "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/market"
)

// marketAPI is the MarketService surface scenarios drive.
type marketAPI interface {
	UpdateRegisterPayment(ctx context.Context, in *marketv1.UpdateRegisterPaymentRequest, opts ...grpc.CallOption) (*marketv1.UpdateRegisterPaymentResponse, error)
	UpdatePlatformFeeRate(ctx context.Context, in *marketv1.UpdatePlatformFeeRateRequest, opts ...grpc.CallOption) (*marketv1.UpdatePlatformFeeRateResponse, error)
	Register(ctx context.Context, in *marketv1.RegisterRequest, opts ...grpc.CallOption) (*marketv1.RegisterResponse, error)
	IsProducer(ctx context.Context, in *marketv1.IsProducerRequest, opts ...grpc.CallOption) (*marketv1.IsProducerResponse, error)
	AddCategory(ctx context.Context, in *marketv1.AddCategoryRequest, opts ...grpc.CallOption) (*marketv1.AddCategoryResponse, error)
	AddContent(ctx context.Context, in *marketv1.AddContentRequest, opts ...grpc.CallOption) (*marketv1.AddContentResponse, error)
	GetContent(ctx context.Context, in *marketv1.GetContentRequest, opts ...grpc.CallOption) (*marketv1.GetContentResponse, error)
	ActivateSession(ctx context.Context, in *marketv1.ActivateSessionRequest, opts ...grpc.CallOption) (*marketv1.ActivateSessionResponse, error)
	GetSession(ctx context.Context, in *marketv1.GetSessionRequest, opts ...grpc.CallOption) (*marketv1.GetSessionResponse, error)
	GetProducerBalance(ctx context.Context, in *marketv1.GetProducerBalanceRequest, opts ...grpc.CallOption) (*marketv1.BalanceResponse, error)
	GetPlatformBalance(ctx context.Context, in *marketv1.GetPlatformBalanceRequest, opts ...grpc.CallOption) (*marketv1.BalanceResponse, error)
	ClaimProducerRoyalties(ctx context.Context, in *marketv1.ClaimRoyaltiesRequest, opts ...grpc.CallOption) (*marketv1.ClaimRoyaltiesResponse, error)
	ClaimPlatformRoyalties(ctx context.Context, in *marketv1.ClaimRoyaltiesRequest, opts ...grpc.CallOption) (*marketv1.ClaimRoyaltiesResponse, error)
	VerifyJournal(ctx context.Context, in *marketv1.VerifyJournalRequest, opts ...grpc.CallOption) (*marketv1.VerifyJournalResponse, error)
}

var _ marketAPI = (*marketv1.Client)(nil)

// marketTarget is the market a scenario runs against. clock is nil for a
// remote market, which cannot be time-shifted.
type marketTarget struct {
	client marketAPI
	clock  *manualClock
	close  func()
}
