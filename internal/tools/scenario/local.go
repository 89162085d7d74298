package scenario

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/auth"
	marketv1 "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/market"
	grpcmeta "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/metadata"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/engine"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
	"github.com/louisbranch/tollgate.space/internal/services/market/payout"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage/memory"
)

const bufSize = 1 << 20

// Defaults for an in-process market when the script names no platform.
const (
	defaultPlatformName    = "Scenario Market"
	defaultOwner           = "owner"
	defaultFeeRate         = 500
	defaultRegisterPayment = 10
)

// manualClock is the in-process market clock; scenarios move it forward
// with advance steps.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock(start time.Time) *manualClock {
	return &manualClock{now: start}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// platformSettings reads Scenario.new's second argument.
func platformSettings(values map[string]any) (engine.PlatformSettings, error) {
	settings := engine.PlatformSettings{
		Name:            defaultPlatformName,
		FeeRate:         defaultFeeRate,
		RegisterPayment: defaultRegisterPayment,
		Owner:           defaultOwner,
	}
	if name := optionalString(values, "name"); name != "" {
		settings.Name = name
	}
	settings.Description = optionalString(values, "description")
	if owner := optionalString(values, "owner"); owner != "" {
		settings.Owner = owner
	}
	if _, ok := values["fee_rate"]; ok {
		rate, err := requiredUint(values, "fee_rate")
		if err != nil {
			return engine.PlatformSettings{}, err
		}
		if rate > uint64(market.MaxFeeRate) {
			return engine.PlatformSettings{}, fmt.Errorf("fee_rate %d exceeds %d", rate, market.MaxFeeRate)
		}
		settings.FeeRate = market.BasePoints(rate)
	}
	if _, ok := values["register_payment"]; ok {
		amount, err := requiredUint(values, "register_payment")
		if err != nil {
			return engine.PlatformSettings{}, err
		}
		settings.RegisterPayment = market.Amount(amount)
	}
	return settings, nil
}

// startLocalMarket serves a fresh memory-backed market over an in-memory
// listener.
func startLocalMarket(ctx context.Context, scenario *Scenario, logger *log.Logger) (marketTarget, error) {
	settings, err := platformSettings(scenario.Platform)
	if err != nil {
		return marketTarget{}, fmt.Errorf("platform settings: %w", err)
	}
	_, events, err := market.NewRegistries()
	if err != nil {
		return marketTarget{}, fmt.Errorf("build registries: %w", err)
	}
	clock := newManualClock(time.Now().UTC().Truncate(time.Second))
	eng, err := engine.Open(ctx, engine.Options{
		Journal:    memory.New(events, nil),
		Transferer: payout.NewLogger(logger),
		Now:        clock.Now,
	}, settings)
	if err != nil {
		return marketTarget{}, fmt.Errorf("open engine: %w", err)
	}
	service, err := marketv1.NewServer(eng)
	if err != nil {
		return marketTarget{}, fmt.Errorf("create market service: %w", err)
	}

	listener := bufconn.Listen(bufSize)
	resolver := auth.NewPrincipalResolver(auth.TokenConfig{})
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpcmeta.UnaryServerInterceptor(nil),
		resolver.UnaryServerInterceptor(),
	))
	marketv1.RegisterMarketServiceServer(grpcServer, service)
	go func() {
		_ = grpcServer.Serve(listener)
	}()

	conn, err := grpc.NewClient(
		"passthrough:///scenario-market",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		grpcServer.Stop()
		return marketTarget{}, fmt.Errorf("dial in-process market: %w", err)
	}
	return marketTarget{
		client: marketv1.NewClient(conn),
		clock:  clock,
		close: func() {
			_ = conn.Close()
			grpcServer.Stop()
		},
	}, nil
}
