// Package service hosts the MCP server that bridges MCP clients to the
// marketplace gRPC service over stdio or streamable HTTP.
package service
