// Package scenario parses scenario command flags and runs Lua market scripts.
package scenario

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"time"

	entrypoint "github.com/louisbranch/tollgate.space/internal/platform/cmd"
	"github.com/louisbranch/tollgate.space/internal/tools/scenario"
)

// Config holds scenario command configuration.
type Config struct {
	// GRPCAddr targets a running market; empty runs an in-process market.
	GRPCAddr   string        `env:"SCENARIO_MARKET_ADDR"`
	Scenario   string        `env:"SCENARIO_FILE"`
	Assertions bool          `env:"SCENARIO_ASSERT"  envDefault:"true"`
	Verbose    bool          `env:"SCENARIO_VERBOSE"`
	Timeout    time.Duration `env:"SCENARIO_TIMEOUT" envDefault:"10s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "market server address (empty runs an in-process market)")
	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to scenario lua file")
	fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "enable assertions (disable to log expectations)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout per step")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the scenario command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Scenario == "" {
		return errors.New("scenario path is required")
	}

	mode := scenario.AssertionStrict
	if !cfg.Assertions {
		mode = scenario.AssertionLogOnly
	}

	logger := log.New(errOut, "", 0)
	err := scenario.RunFile(ctx, scenario.Config{
		GRPCAddr:   cfg.GRPCAddr,
		Timeout:    cfg.Timeout,
		Assertions: mode,
		Verbose:    cfg.Verbose,
		Logger:     logger,
	}, cfg.Scenario)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, "scenario passed: "+cfg.Scenario+"\n")
	return err
}
