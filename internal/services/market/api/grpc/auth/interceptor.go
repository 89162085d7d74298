package auth

import (
	"context"

	"google.golang.org/grpc"

	apperrors "github.com/louisbranch/tollgate.space/internal/platform/errors"
	"github.com/louisbranch/tollgate.space/internal/platform/requestctx"
	grpcmeta "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/metadata"
)

// PrincipalResolver attaches the caller principal to request contexts.
type PrincipalResolver struct {
	tokens TokenConfig
}

// NewPrincipalResolver returns a resolver. A disabled config trusts the
// principal header.
func NewPrincipalResolver(tokens TokenConfig) *PrincipalResolver {
	return &PrincipalResolver{tokens: tokens}
}

// Resolve returns ctx carrying the caller principal. Calls without any
// identity get an empty principal; operations that need one reject it.
func (r *PrincipalResolver) Resolve(ctx context.Context) (context.Context, error) {
	if !r.tokens.Enabled() {
		return requestctx.WithPrincipal(ctx, grpcmeta.PrincipalIDFromContext(ctx)), nil
	}
	token := grpcmeta.BearerTokenFromContext(ctx)
	if token == "" {
		return requestctx.WithPrincipal(ctx, ""), nil
	}
	principal, err := VerifyToken(token, r.tokens)
	if err != nil {
		return nil, err
	}
	return requestctx.WithPrincipal(ctx, principal), nil
}

// UnaryServerInterceptor resolves the principal before unary handlers run.
func (r *PrincipalResolver) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resolved, err := r.Resolve(ctx)
		if err != nil {
			return nil, apperrors.HandleError(err, grpcmeta.LocaleFromContext(ctx))
		}
		return handler(resolved, req)
	}
}

// StreamServerInterceptor resolves the principal before stream handlers run.
func (r *PrincipalResolver) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, stream grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		resolved, err := r.Resolve(stream.Context())
		if err != nil {
			return apperrors.HandleError(err, grpcmeta.LocaleFromContext(stream.Context()))
		}
		return handler(srv, &grpcmeta.WrappedServerStream{ServerStream: stream, Ctx: resolved})
	}
}
