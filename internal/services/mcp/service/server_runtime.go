package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	platformgrpc "github.com/louisbranch/tollgate.space/internal/platform/grpc"
	"github.com/louisbranch/tollgate.space/internal/platform/timeouts"
	marketv1 "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/market"
	"github.com/louisbranch/tollgate.space/internal/services/mcp/domain"
)

const (
	defaultHTTPAddr     = "localhost:8081"
	healthCheckInterval = 30 * time.Second
)

// Run is the service entrypoint for MCP and blocks until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}

	switch cfg.Transport {
	case TransportStdio:
		return runWithTransport(ctx, cfg, &mcp.StdioTransport{})
	case TransportHTTP:
		return runWithHTTPTransport(ctx, cfg)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

func callerContext(cfg Config) domain.Context {
	return domain.Context{
		Principal: strings.TrimSpace(cfg.Principal),
		Token:     strings.TrimSpace(cfg.Token),
	}
}

// runWithTransport dials the market service and serves MCP over transport.
func runWithTransport(ctx context.Context, cfg Config, transport mcp.Transport) error {
	conn, err := dialMarketGRPC(ctx, cfg.GRPCAddr)
	if err != nil {
		return err
	}
	server, err := newServer(conn, callerContext(cfg))
	if err != nil {
		_ = conn.Close()
		return err
	}
	return server.serveWithTransport(ctx, transport)
}

// runWithHTTPTransport serves MCP over streamable HTTP until ctx ends.
func runWithHTTPTransport(ctx context.Context, cfg Config) error {
	httpAddr := cfg.HTTPAddr
	if httpAddr == "" {
		httpAddr = defaultHTTPAddr
	}
	conn, err := dialMarketGRPC(ctx, cfg.GRPCAddr)
	if err != nil {
		return err
	}
	server, err := newServer(conn, callerContext(cfg))
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer server.Close()

	listener, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", httpAddr, err)
	}

	healthCtx, healthCancel := context.WithCancel(ctx)
	defer healthCancel()
	go server.monitorHealth(healthCtx)

	return server.serveHTTP(ctx, listener)
}

// serveHTTP serves the streamable HTTP handler on listener until ctx ends.
func (s *Server) serveHTTP(ctx context.Context, listener net.Listener) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("MCP HTTP listening at %s", listener.Addr())
		serveErr <- httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown MCP HTTP: %w", err)
		}
		<-serveErr
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve MCP HTTP: %w", err)
	}
}

// monitorHealth logs when the market service stops reporting SERVING. The
// MCP server keeps running; individual tool calls surface gRPC errors.
func (s *Server) monitorHealth(ctx context.Context) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.conn == nil {
				continue
			}
			healthClient := grpc_health_v1.NewHealthClient(s.conn)
			callCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
			response, err := healthClient.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: marketv1.ServiceName})
			cancel()
			if err != nil {
				log.Printf("market health check failed: %v", err)
			} else if response.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
				log.Printf("market health check status: %s", response.GetStatus().String())
			}
		}
	}
}

// serveWithTransport runs the MCP session loop and releases the gRPC
// connection when it ends.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close gRPC connection: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close gRPC connection: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

func dialMarketGRPC(ctx context.Context, addr string) (*grpc.ClientConn, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("market gRPC address is required")
	}
	logf := func(format string, args ...any) {
		log.Printf("market %s", fmt.Sprintf(format, args...))
	}
	conn, err := platformgrpc.DialWithHealth(
		ctx,
		nil,
		addr,
		marketv1.ServiceName,
		timeouts.GRPCDial,
		logf,
		platformgrpc.DefaultClientDialOptions()...,
	)
	if err != nil {
		var dialErr *platformgrpc.DialError
		if errors.As(err, &dialErr) && dialErr.Stage == platformgrpc.DialStageConnect {
			return nil, fmt.Errorf("connect to market server at %s: %w", addr, dialErr.Err)
		}
		return nil, err
	}
	return conn, nil
}
