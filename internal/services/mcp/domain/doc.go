// Package domain defines the MCP tools and resources that expose the
// marketplace service. Each handler translates one tool call into gRPC calls
// against the market service, acting as the principal held in Context.
package domain
