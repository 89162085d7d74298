package errors

import (
	stderrors "errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/louisbranch/tollgate.space/internal/platform/errors/i18n"
)

// DefaultLocale is the locale used when a caller sends none.
const DefaultLocale = i18n.BaseLocale

// HandleError converts err to a gRPC status for clients. Domain errors get a
// localized message; context errors keep their gRPC meaning; everything else
// becomes a generic internal error.
func HandleError(err error, locale string) error {
	if err == nil {
		return nil
	}
	if locale == "" {
		locale = DefaultLocale
	}

	var appErr *Error
	if stderrors.As(err, &appErr) {
		catalog := i18n.GetCatalog(locale)
		userMsg := catalog.Format(string(appErr.Code), appErr.Metadata)
		return appErr.ToGRPCStatus(catalog.Locale(), userMsg)
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if code := status.FromContextError(err).Code(); code != codes.Unknown {
		return status.Error(code, err.Error())
	}
	return status.Error(codes.Internal, "an unexpected error occurred")
}

// MetadataOf returns the metadata of the first domain error in err's chain.
func MetadataOf(err error) map[string]string {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Metadata
	}
	return nil
}
