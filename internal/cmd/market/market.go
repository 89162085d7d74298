// Package market parses market command flags and starts the marketplace service.
package market

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/tollgate.space/internal/platform/cmd"
	server "github.com/louisbranch/tollgate.space/internal/services/market/app"
)

// Config holds market command configuration.
type Config struct {
	Port int    `env:"MARKET_PORT" envDefault:"8082"`
	Addr string `env:"MARKET_ADDR"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The market server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The market server listen address (overrides -port)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the marketplace gRPC service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMarket, func(ctx context.Context) error {
		if cfg.Addr != "" {
			return server.RunWithAddr(ctx, cfg.Addr)
		}
		return server.Run(ctx, cfg.Port)
	})
}
