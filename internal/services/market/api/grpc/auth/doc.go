// Package auth resolves the caller principal for marketplace gRPC calls.
//
// Without a token configuration the principal is read from the
// x-tollgate-space-principal-id header. With one, callers present an EdDSA
// bearer token whose subject is the principal and the header is ignored.
package auth
