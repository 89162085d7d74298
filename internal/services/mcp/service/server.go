package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"

	marketv1 "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/market"
	"github.com/louisbranch/tollgate.space/internal/services/mcp/domain"
)

const (
	serverName = "Tollgate.Space Market MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves MCP over streamable HTTP.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	GRPCAddr  string
	Transport TransportKind
	// HTTPAddr defaults to localhost:8081 for HTTP transport.
	HTTPAddr string
	// Principal is the initial principal tool calls act as.
	Principal string
	// Token is sent as a bearer token on every market call when set.
	Token string
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	conn      *grpc.ClientConn
	ctx       domain.Context
	ctxMu     sync.RWMutex
}

type registrationModule struct {
	name     string
	register func(*mcp.Server)
}

// newServer binds every market tool and resource to client.
func newServer(conn *grpc.ClientConn, caller domain.Context) (*Server, error) {
	if conn == nil {
		return nil, errors.New("gRPC connection is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		SubscribeHandler:   resourceSubscribeHandler,
		UnsubscribeHandler: resourceUnsubscribeHandler,
	})
	server := &Server{mcpServer: mcpServer, conn: conn, ctx: caller}
	client := marketv1.NewClient(conn)

	notify := func(ctx context.Context, uri string) {
		if err := mcpServer.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: uri}); err != nil {
			log.Printf("mcp resource updated notify failed: uri=%s err=%v", uri, err)
		}
	}
	for _, module := range registrationModules(server, client, notify) {
		module.register(mcpServer)
	}
	return server, nil
}

func registrationModules(s *Server, client domain.MarketClient, notify domain.ResourceUpdateNotifier) []registrationModule {
	get := s.getContext
	return []registrationModule{
		{
			name: "platform-tools",
			register: func(server *mcp.Server) {
				mcp.AddTool(server, domain.PlatformGetTool(), domain.PlatformGetHandler(client, get))
				mcp.AddTool(server, domain.PlatformUpdateTool(), domain.PlatformUpdateHandler(client, get, notify))
			},
		},
		{
			name: "producer-tools",
			register: func(server *mcp.Server) {
				mcp.AddTool(server, domain.ProducerRegisterTool(), domain.ProducerRegisterHandler(client, get, notify))
				mcp.AddTool(server, domain.ProducerListTool(), domain.ProducerListHandler(client, get))
				mcp.AddTool(server, domain.CategoryAddTool(), domain.CategoryAddHandler(client, get, notify))
				mcp.AddTool(server, domain.CategoryListTool(), domain.CategoryListHandler(client, get))
				mcp.AddTool(server, domain.CategoryFindTool(), domain.CategoryFindHandler(client, get))
				mcp.AddTool(server, domain.ContentAddTool(), domain.ContentAddHandler(client, get))
			},
		},
		{
			name: "session-tools",
			register: func(server *mcp.Server) {
				mcp.AddTool(server, domain.SessionActivateTool(), domain.SessionActivateHandler(client, get))
				mcp.AddTool(server, domain.SessionGetTool(), domain.SessionGetHandler(client, get))
				mcp.AddTool(server, domain.ContentGetTool(), domain.ContentGetHandler(client, get))
			},
		},
		{
			name: "royalty-tools",
			register: func(server *mcp.Server) {
				mcp.AddTool(server, domain.BalanceGetTool(), domain.BalanceGetHandler(client, get))
				mcp.AddTool(server, domain.RoyaltiesClaimTool(), domain.RoyaltiesClaimHandler(client, get))
			},
		},
		{
			name: "journal-tools",
			register: func(server *mcp.Server) {
				mcp.AddTool(server, domain.EventListTool(), domain.EventListHandler(client, get))
				mcp.AddTool(server, domain.JournalVerifyTool(), domain.JournalVerifyHandler(client, get))
			},
		},
		{
			name: "context-tools",
			register: func(server *mcp.Server) {
				mcp.AddTool(server, domain.SetPrincipalTool(), domain.SetPrincipalHandler(s.setPrincipal, get, notify))
			},
		},
		{
			name: "resources",
			register: func(server *mcp.Server) {
				server.AddResource(domain.PlatformResource(), domain.PlatformResourceHandler(client, get))
				server.AddResource(domain.ProducersResource(), domain.ProducersResourceHandler(client, get))
				server.AddResource(domain.ContextResource(), domain.ContextResourceHandler(get))
			},
		},
	}
}

// resourceSubscribeHandler accepts resource subscriptions with a valid URI.
func resourceSubscribeHandler(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// resourceUnsubscribeHandler accepts resource unsubscriptions with a valid URI.
func resourceUnsubscribeHandler(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// Close releases the gRPC connection held by the server.
func (s *Server) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	if err := s.conn.Close(); err != nil {
		return err
	}
	s.conn = nil
	return nil
}

func (s *Server) setPrincipal(principal string) {
	s.ctxMu.Lock()
	defer s.ctxMu.Unlock()
	s.ctx.Principal = principal
}

func (s *Server) getContext() domain.Context {
	if s == nil {
		return domain.Context{}
	}
	s.ctxMu.RLock()
	defer s.ctxMu.RUnlock()
	return s.ctx
}
