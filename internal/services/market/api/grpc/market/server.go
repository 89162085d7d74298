package market

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/louisbranch/tollgate.space/internal/platform/errors"
	"github.com/louisbranch/tollgate.space/internal/platform/grpc/pagination"
	"github.com/louisbranch/tollgate.space/internal/platform/requestctx"
	grpcmeta "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/metadata"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/engine"
	domain "github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage"
)

var listEventsPageSize = pagination.PageSizeConfig{
	Default: storage.DefaultPageSize,
	Max:     storage.MaxPageSize,
}

// Server implements MarketServiceServer on top of the engine. The caller
// principal comes from the request context.
type Server struct {
	engine *engine.Engine
}

// NewServer returns a Server backed by eng.
func NewServer(eng *engine.Engine) (*Server, error) {
	if eng == nil {
		return nil, errors.New("engine is required")
	}
	return &Server{engine: eng}, nil
}

var _ MarketServiceServer = (*Server)(nil)

// GetPlatform returns the platform configuration.
func (s *Server) GetPlatform(ctx context.Context, _ *GetPlatformRequest) (*GetPlatformResponse, error) {
	cfg := s.engine.Platform()
	return &GetPlatformResponse{Platform: Platform{
		Name:              cfg.Name,
		Description:       cfg.Description,
		FeeRateBasePoints: uint32(cfg.FeeRate),
		RegisterPayment:   uint64(cfg.RegisterPayment),
		Owner:             cfg.Owner,
	}}, nil
}

// UpdateRegisterPayment replaces the registration price.
func (s *Server) UpdateRegisterPayment(ctx context.Context, in *UpdateRegisterPaymentRequest) (*UpdateRegisterPaymentResponse, error) {
	if err := s.engine.UpdateRegisterPayment(ctx, caller(ctx), domain.Amount(in.Amount)); err != nil {
		return nil, handleError(ctx, err)
	}
	return &UpdateRegisterPaymentResponse{}, nil
}

// UpdatePlatformFeeRate replaces the platform fee rate.
func (s *Server) UpdatePlatformFeeRate(ctx context.Context, in *UpdatePlatformFeeRateRequest) (*UpdatePlatformFeeRateResponse, error) {
	if err := s.engine.UpdatePlatformFeeRate(ctx, caller(ctx), domain.BasePoints(in.FeeRateBasePoints)); err != nil {
		return nil, handleError(ctx, err)
	}
	return &UpdatePlatformFeeRateResponse{}, nil
}

// Register makes the caller a producer.
func (s *Server) Register(ctx context.Context, in *RegisterRequest) (*RegisterResponse, error) {
	if err := s.engine.Register(ctx, caller(ctx), domain.Amount(in.Paid), in.ContentType, in.ContentDescription); err != nil {
		return nil, handleError(ctx, err)
	}
	return &RegisterResponse{}, nil
}

// ListProducers returns producers in registration order.
func (s *Server) ListProducers(ctx context.Context, _ *ListProducersRequest) (*ListProducersResponse, error) {
	profiles := s.engine.ListProducers()
	resp := &ListProducersResponse{Producers: make([]Producer, 0, len(profiles))}
	for _, profile := range profiles {
		resp.Producers = append(resp.Producers, producerToMessage(profile))
	}
	return resp, nil
}

// IsProducer reports producer membership.
func (s *Server) IsProducer(ctx context.Context, in *IsProducerRequest) (*IsProducerResponse, error) {
	return &IsProducerResponse{IsProducer: s.engine.IsProducer(in.Principal)}, nil
}

// AddCategory adds a category to the caller's catalog.
func (s *Server) AddCategory(ctx context.Context, in *AddCategoryRequest) (*AddCategoryResponse, error) {
	if in.SessionDurationSeconds > domain.MaxSessionDurationSeconds {
		return nil, handleError(ctx, apperrors.WithMetadata(apperrors.CodeInvalidConfiguration,
			"session duration is too long", map[string]string{"Field": "session_duration_seconds"}))
	}
	duration := time.Duration(in.SessionDurationSeconds) * time.Second
	if err := s.engine.AddCategory(ctx, caller(ctx), in.Name, in.Description, domain.Amount(in.Fee), duration); err != nil {
		return nil, handleError(ctx, err)
	}
	return &AddCategoryResponse{}, nil
}

// ListProducerCategories returns a producer's categories.
func (s *Server) ListProducerCategories(ctx context.Context, in *ListProducerCategoriesRequest) (*ListProducerCategoriesResponse, error) {
	categories := s.engine.ListProducerCategories(in.Producer)
	resp := &ListProducerCategoriesResponse{Categories: make([]Category, 0, len(categories))}
	for _, category := range categories {
		resp.Categories = append(resp.Categories, categoryToMessage(category))
	}
	return resp, nil
}

// FindCategory returns one producer category.
func (s *Server) FindCategory(ctx context.Context, in *FindCategoryRequest) (*FindCategoryResponse, error) {
	category, err := s.engine.FindCategory(in.Producer, in.Name)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return &FindCategoryResponse{Category: categoryToMessage(category)}, nil
}

// AddContent appends a locator to one of the caller's categories.
func (s *Server) AddContent(ctx context.Context, in *AddContentRequest) (*AddContentResponse, error) {
	if err := s.engine.AddContent(ctx, caller(ctx), in.Category, in.Locator); err != nil {
		return nil, handleError(ctx, err)
	}
	return &AddContentResponse{}, nil
}

// GetContent returns category content for a consumer with an active session.
func (s *Server) GetContent(ctx context.Context, in *GetContentRequest) (*GetContentResponse, error) {
	content, err := s.engine.GetContent(ctx, in.Consumer, in.Producer, in.Category)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return &GetContentResponse{Content: content}, nil
}

// ActivateSession pays for a session as the caller.
func (s *Server) ActivateSession(ctx context.Context, in *ActivateSessionRequest) (*ActivateSessionResponse, error) {
	expiresAt, err := s.engine.ActivateSession(ctx, caller(ctx), domain.Amount(in.Paid), in.Producer, in.Category)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return &ActivateSessionResponse{ExpiresAt: expiresAt}, nil
}

// GetSession reports a consumer's session state.
func (s *Server) GetSession(ctx context.Context, in *GetSessionRequest) (*GetSessionResponse, error) {
	resp := &GetSessionResponse{Active: s.engine.IsSessionActive(in.Consumer, in.Producer, in.Category)}
	if expiresAt, ok := s.engine.SessionExpiry(in.Consumer, in.Producer, in.Category); ok {
		resp.ExpiresAt = &expiresAt
	}
	return resp, nil
}

// GetProducerBalance returns a producer's claimable balance.
func (s *Server) GetProducerBalance(ctx context.Context, in *GetProducerBalanceRequest) (*BalanceResponse, error) {
	return &BalanceResponse{Amount: uint64(s.engine.ProducerClaimableBalance(in.Producer))}, nil
}

// GetPlatformBalance returns the platform's claimable balance.
func (s *Server) GetPlatformBalance(ctx context.Context, _ *GetPlatformBalanceRequest) (*BalanceResponse, error) {
	return &BalanceResponse{Amount: uint64(s.engine.PlatformClaimableBalance())}, nil
}

// ClaimPlatformRoyalties withdraws the platform balance for the owner.
func (s *Server) ClaimPlatformRoyalties(ctx context.Context, in *ClaimRoyaltiesRequest) (*ClaimRoyaltiesResponse, error) {
	amount, err := s.engine.ClaimPlatformRoyalties(ctx, caller(ctx), in.Destination)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return &ClaimRoyaltiesResponse{Amount: uint64(amount)}, nil
}

// ClaimProducerRoyalties withdraws the caller's producer balance.
func (s *Server) ClaimProducerRoyalties(ctx context.Context, in *ClaimRoyaltiesRequest) (*ClaimRoyaltiesResponse, error) {
	amount, err := s.engine.ClaimProducerRoyalties(ctx, caller(ctx), in.Destination)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return &ClaimRoyaltiesResponse{Amount: uint64(amount)}, nil
}

// ListEvents returns one filtered page of the journal.
func (s *Server) ListEvents(ctx context.Context, in *ListEventsRequest) (*ListEventsResponse, error) {
	afterSeq, err := pagination.DecodeSeqToken(in.PageToken)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	result, err := s.engine.ListEvents(ctx, storage.ListEventsPageRequest{
		AfterSeq: afterSeq,
		PageSize: pagination.ClampPageSize(in.PageSize, listEventsPageSize),
		Filter:   in.Filter,
	})
	if err != nil {
		return nil, handleError(ctx, err)
	}

	resp := &ListEventsResponse{
		Events:    make([]Event, 0, len(result.Events)),
		TotalSize: int32(result.TotalCount),
	}
	for _, evt := range result.Events {
		resp.Events = append(resp.Events, eventToMessage(evt))
	}
	if result.HasNextPage && len(result.Events) > 0 {
		resp.NextPageToken = pagination.EncodeSeqToken(result.Events[len(result.Events)-1].Seq)
	}
	return resp, nil
}

// VerifyJournal checks the journal hash chain and signatures.
func (s *Server) VerifyJournal(ctx context.Context, _ *VerifyJournalRequest) (*VerifyJournalResponse, error) {
	result, err := s.engine.VerifyJournal(ctx)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return &VerifyJournalResponse{
		EventCount:    result.EventCount,
		LastSeq:       result.LastSeq,
		HeadChainHash: result.HeadChainHash,
	}, nil
}

func caller(ctx context.Context) string {
	return requestctx.PrincipalFromContext(ctx)
}

func handleError(ctx context.Context, err error) error {
	return apperrors.HandleError(err, grpcmeta.LocaleFromContext(ctx))
}
