// Package market serves the marketplace engine as market.v1.MarketService.
//
// Messages are plain Go structs carried by the JSON codec registered in
// internal/platform/grpc; the service descriptor is written by hand in the
// shape protoc-gen-go-grpc produces.
package market
