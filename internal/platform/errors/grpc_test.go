package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestHandleErrorLocalizesDomainErrors(t *testing.T) {
	err := HandleError(fmt.Errorf("claim: %w", New(CodeNothingToWithdraw, "nothing to withdraw")), "pt-BR")

	st, ok := status.FromError(err)
	if !ok {
		t.Fatal("expected grpc status")
	}
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("status code = %s, want %s", st.Code(), codes.FailedPrecondition)
	}
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		if msg, ok := detail.(*errdetails.LocalizedMessage); ok {
			localized = msg
		}
	}
	if localized == nil {
		t.Fatal("expected localized message detail")
	}
	if localized.GetLocale() != "pt-BR" || localized.GetMessage() == "" {
		t.Fatalf("localized = %+v", localized)
	}
	if got := ReasonFromStatus(err); got != CodeNothingToWithdraw {
		t.Fatalf("ReasonFromStatus = %s, want %s", got, CodeNothingToWithdraw)
	}
}

func TestHandleErrorFallbacks(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "plain", err: errors.New("boom"), want: codes.Internal},
		{name: "deadline", err: context.DeadlineExceeded, want: codes.DeadlineExceeded},
		{name: "canceled", err: fmt.Errorf("list: %w", context.Canceled), want: codes.Canceled},
		{name: "status", err: status.Error(codes.Unavailable, "down"), want: codes.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := status.Code(HandleError(tt.err, "")); got != tt.want {
				t.Fatalf("code = %s, want %s", got, tt.want)
			}
		})
	}
	if HandleError(nil, "") != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestMetadataOf(t *testing.T) {
	err := fmt.Errorf("wrap: %w", WithMetadata(CodeCategoryNotFound, "missing", map[string]string{"Category": "lectures"}))
	if got := MetadataOf(err)["Category"]; got != "lectures" {
		t.Fatalf("Category = %q, want lectures", got)
	}
	if MetadataOf(errors.New("plain")) != nil {
		t.Fatal("expected nil metadata for plain error")
	}
}
