// Package interceptors holds cross-cutting gRPC interceptors for the
// marketplace service.
package interceptors

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	apperrors "github.com/louisbranch/tollgate.space/internal/platform/errors"
	"github.com/louisbranch/tollgate.space/internal/platform/requestctx"
	marketv1 "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/market"
)

// CallRecord describes one handled unary call.
type CallRecord struct {
	Method     string
	MethodKind string
	Principal  string
	RequestID  string
	Code       string
	Reason     apperrors.Code
	TraceID    string
	SpanID     string
	Duration   time.Duration
}

// Recorder receives call records. A nil Recorder logs them with the standard
// logger.
type Recorder func(CallRecord)

// CallLogInterceptor records each unary call handled by the market service
// and tags the active span with the caller and method kind. It must run
// after the metadata and principal interceptors.
func CallLogInterceptor(record Recorder) grpc.UnaryServerInterceptor {
	if record == nil {
		record = logRecord
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		rec := CallRecord{
			Method:     info.FullMethod,
			MethodKind: classifyMethodKind(info.FullMethod),
			Principal:  requestctx.PrincipalFromContext(ctx),
			RequestID:  requestctx.RequestIDFromContext(ctx),
			Code:       status.Code(err).String(),
			Duration:   time.Since(start),
		}
		if err != nil {
			rec.Reason = apperrors.ReasonFromStatus(err)
		}

		span := trace.SpanFromContext(ctx)
		if sc := span.SpanContext(); sc.IsValid() {
			rec.TraceID = sc.TraceID().String()
			rec.SpanID = sc.SpanID().String()
		}
		span.SetAttributes(
			attribute.String("market.method_kind", rec.MethodKind),
			attribute.String("market.principal", rec.Principal),
			attribute.String("market.request_id", rec.RequestID),
		)

		record(rec)
		return resp, err
	}
}

func logRecord(rec CallRecord) {
	if rec.Reason != "" && rec.Reason != apperrors.CodeUnknown {
		log.Printf("grpc %s kind=%s principal=%q request_id=%s code=%s reason=%s duration=%s",
			rec.Method, rec.MethodKind, rec.Principal, rec.RequestID, rec.Code, rec.Reason, rec.Duration)
		return
	}
	log.Printf("grpc %s kind=%s principal=%q request_id=%s code=%s duration=%s",
		rec.Method, rec.MethodKind, rec.Principal, rec.RequestID, rec.Code, rec.Duration)
}

func classifyMethodKind(fullMethod string) string {
	if marketv1.IsReadMethod(fullMethod) {
		return "read"
	}
	return "write"
}
