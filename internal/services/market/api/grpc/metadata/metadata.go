package metadata

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/louisbranch/tollgate.space/internal/platform/id"
	"github.com/louisbranch/tollgate.space/internal/platform/requestctx"
)

// RequestIDHeader is the gRPC metadata key for request correlation IDs.
const RequestIDHeader = "x-tollgate-space-request-id"

// PrincipalIDHeader is the gRPC metadata key for the caller principal when
// bearer tokens are not in use.
const PrincipalIDHeader = "x-tollgate-space-principal-id"

// LocaleHeader is the gRPC metadata key for the caller's preferred locale.
const LocaleHeader = "x-tollgate-space-locale"

// InvocationIDHeader correlates the gRPC calls made by one MCP tool call.
const InvocationIDHeader = "x-tollgate-space-invocation-id"

// AuthorizationHeader carries bearer tokens.
const AuthorizationHeader = "authorization"

// PrincipalIDFromContext returns the principal header from incoming metadata.
func PrincipalIDFromContext(ctx context.Context) string {
	return metadataValueFromIncomingContext(ctx, PrincipalIDHeader)
}

// LocaleFromContext returns the locale header from incoming metadata.
func LocaleFromContext(ctx context.Context) string {
	return metadataValueFromIncomingContext(ctx, LocaleHeader)
}

// BearerTokenFromContext returns the bearer token from incoming metadata.
func BearerTokenFromContext(ctx context.Context) string {
	value := metadataValueFromIncomingContext(ctx, AuthorizationHeader)
	scheme, token, ok := strings.Cut(value, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// IsPrintableASCII reports whether a string contains only printable ASCII characters.
func IsPrintableASCII(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < 0x20 || value[i] > 0x7e {
			return false
		}
	}
	return true
}

// FirstMetadataValue returns the first printable ASCII metadata value for a key.
func FirstMetadataValue(md metadata.MD, key string) string {
	if len(md) == 0 {
		return ""
	}
	for mdKey, values := range md {
		if !strings.EqualFold(mdKey, key) {
			continue
		}
		for _, value := range values {
			if IsPrintableASCII(value) {
				return value
			}
		}
	}
	return ""
}

// OutgoingContext returns ctx with principal and request id attached as
// outgoing metadata. Empty values are skipped.
func OutgoingContext(ctx context.Context, principal, requestID string) context.Context {
	pairs := make([]string, 0, 4)
	if principal = strings.TrimSpace(principal); principal != "" {
		pairs = append(pairs, PrincipalIDHeader, principal)
	}
	if requestID = strings.TrimSpace(requestID); requestID != "" {
		pairs = append(pairs, RequestIDHeader, requestID)
	}
	if len(pairs) == 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...)
}

// UnaryServerInterceptor guarantees every unary call carries a request ID in
// its context and echoes it in the response headers.
func UnaryServerInterceptor(idGenerator func() (string, error)) grpc.UnaryServerInterceptor {
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		updatedCtx, requestID, err := ensureRequestID(ctx, idGenerator)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "ensure request metadata: %v", err)
		}
		if err := grpc.SetHeader(updatedCtx, metadata.Pairs(RequestIDHeader, requestID)); err != nil {
			return nil, status.Errorf(codes.Internal, "set response metadata: %v", err)
		}
		return handler(updatedCtx, req)
	}
}

// StreamServerInterceptor does the same for streaming calls.
func StreamServerInterceptor(idGenerator func() (string, error)) grpc.StreamServerInterceptor {
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return func(srv any, stream grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		updatedCtx, requestID, err := ensureRequestID(stream.Context(), idGenerator)
		if err != nil {
			return status.Errorf(codes.Internal, "ensure request metadata: %v", err)
		}
		if err := stream.SetHeader(metadata.Pairs(RequestIDHeader, requestID)); err != nil {
			return status.Errorf(codes.Internal, "set response metadata: %v", err)
		}
		return handler(srv, &WrappedServerStream{ServerStream: stream, Ctx: updatedCtx})
	}
}

// WrappedServerStream overrides the context for a gRPC stream.
type WrappedServerStream struct {
	grpc.ServerStream
	Ctx context.Context
}

// Context returns the updated stream context.
func (w *WrappedServerStream) Context() context.Context {
	return w.Ctx
}

func ensureRequestID(ctx context.Context, idGenerator func() (string, error)) (context.Context, string, error) {
	requestID := metadataValueFromIncomingContext(ctx, RequestIDHeader)
	if requestID == "" {
		generatedID, err := idGenerator()
		if err != nil {
			return nil, "", err
		}
		requestID = generatedID
	}
	return requestctx.WithRequestID(ctx, requestID), requestID, nil
}

func metadataValueFromIncomingContext(ctx context.Context, header string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	return FirstMetadataValue(md, header)
}
