package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	platformgrpc "github.com/louisbranch/tollgate.space/internal/platform/grpc"
	"github.com/louisbranch/tollgate.space/internal/platform/timeouts"
	"github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/auth"
	"github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/interceptors"
	marketv1 "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/market"
	grpcmeta "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/metadata"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/engine"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
	"github.com/louisbranch/tollgate.space/internal/services/market/payout"
)

// Server hosts the marketplace gRPC service.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	engine     *engine.Engine
	stores     *storeBundle
}

// New creates a market server listening on the provided port.
func New(ctx context.Context, port int) (*Server, error) {
	return NewWithAddr(ctx, fmt.Sprintf(":%d", port))
}

// NewWithAddr opens the configured store, replays the journal into a fresh
// engine, and listens on addr.
func NewWithAddr(ctx context.Context, addr string) (*Server, error) {
	srvEnv, err := loadServerEnv()
	if err != nil {
		return nil, err
	}
	tokens, err := auth.LoadTokenConfigFromEnv(time.Now)
	if err != nil {
		return nil, fmt.Errorf("load token config: %w", err)
	}
	_, events, err := market.NewRegistries()
	if err != nil {
		return nil, fmt.Errorf("build registries: %w", err)
	}

	bundle, err := openStoreBundle(ctx, srvEnv, events)
	if err != nil {
		return nil, err
	}
	eng, err := engine.Open(ctx, engine.Options{
		Journal:         bundle.journal,
		Checkpoints:     bundle.checkpoints,
		Transferer:      payout.NewLogger(nil),
		CheckpointEvery: srvEnv.CheckpointEvery,
	}, srvEnv.platformSettings())
	if err != nil {
		bundle.Close()
		return nil, fmt.Errorf("open engine: %w", err)
	}
	marketService, err := marketv1.NewServer(eng)
	if err != nil {
		bundle.Close()
		return nil, fmt.Errorf("create market service: %w", err)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		bundle.Close()
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	principals := auth.NewPrincipalResolver(tokens)
	if tokens.Enabled() {
		log.Printf("market principals resolved from bearer tokens issued by %q", tokens.Issuer)
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcmeta.UnaryServerInterceptor(nil),
			principals.UnaryServerInterceptor(),
			interceptors.CallLogInterceptor(nil),
		),
		grpc.ChainStreamInterceptor(
			grpcmeta.StreamServerInterceptor(nil),
			principals.StreamServerInterceptor(),
		),
	)
	marketv1.RegisterMarketServiceServer(grpcServer, marketService)
	healthServer := platformgrpc.RegisterHealth(grpcServer, marketv1.ServiceName)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		engine:     eng,
		stores:     bundle,
	}, nil
}

// Addr returns the listener address for the market server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a market server until the context ends.
func Run(ctx context.Context, port int) error {
	srv, err := New(ctx, port)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// RunWithAddr creates and serves a market server on addr until the context
// ends.
func RunWithAddr(ctx context.Context, addr string) error {
	srv, err := NewWithAddr(ctx, addr)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Serve blocks until the server stops or the context ends. In-flight calls
// get timeouts.Shutdown to finish before the server is stopped hard.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.stores.Close()

	log.Printf("market server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}

	select {
	case <-ctx.Done():
		if s.health != nil {
			s.health.Shutdown()
		}
		s.gracefulStop()
		return handleErr(<-serveErr)
	case err := <-serveErr:
		return handleErr(err)
	}
}

func (s *Server) gracefulStop() {
	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeouts.Shutdown):
		log.Printf("market server graceful stop timed out after %s", timeouts.Shutdown)
		s.grpcServer.Stop()
		<-stopped
	}
}
