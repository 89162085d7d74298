package scenario

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"google.golang.org/grpc"

	platformgrpc "github.com/louisbranch/tollgate.space/internal/platform/grpc"
	"github.com/louisbranch/tollgate.space/internal/platform/timeouts"
	marketv1 "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/market"
)

const defaultStepTimeout = 10 * time.Second

// Config controls scenario execution.
type Config struct {
	// GRPCAddr targets a running market. Empty runs each scenario against a
	// fresh in-process market with a controllable clock.
	GRPCAddr   string
	Timeout    time.Duration
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:    defaultStepTimeout,
		Assertions: AssertionStrict,
	}
}

// Runner executes Lua scenarios against the market gRPC API.
type Runner struct {
	conn       *grpc.ClientConn
	assertions Assertions
	logger     *log.Logger
	verbose    bool
	timeout    time.Duration
}

// NewRunner prepares a scenario runner. With a GRPCAddr it dials the market
// and waits for its health check.
func NewRunner(ctx context.Context, cfg Config) (*Runner, error) {
	r := newRunner(cfg)
	if strings.TrimSpace(cfg.GRPCAddr) == "" {
		return r, nil
	}
	conn, err := platformgrpc.DialWithHealth(
		ctx,
		nil,
		cfg.GRPCAddr,
		marketv1.ServiceName,
		timeouts.GRPCDial,
		r.logf,
		platformgrpc.DefaultClientDialOptions()...,
	)
	if err != nil {
		return nil, fmt.Errorf("dial market: %w", err)
	}
	r.conn = conn
	return r, nil
}

// newRunner applies config defaults.
func newRunner(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultStepTimeout
	}
	return &Runner{
		assertions: Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		verbose:    cfg.Verbose,
		timeout:    timeout,
	}
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// RunFile loads and executes a scenario file.
func RunFile(ctx context.Context, cfg Config, path string) error {
	scenario, err := LoadScenarioFromFile(path)
	if err != nil {
		return err
	}
	runner, err := NewRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()
	return runner.RunScenario(ctx, scenario)
}

// RunScenario executes the scenario steps in order.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) error {
	if scenario == nil {
		return errors.New("scenario is required")
	}
	target, err := r.target(ctx, scenario)
	if err != nil {
		return err
	}
	if target.close != nil {
		defer target.close()
	}

	r.logf("scenario start: %s (%d steps)", scenario.Name, len(scenario.Steps))
	for index, step := range scenario.Steps {
		stepNumber := index + 1
		r.logf("step %d/%d start: %s", stepNumber, len(scenario.Steps), step.Kind)
		stepStart := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err := r.runStep(stepCtx, target, step)
		cancel()
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", stepNumber, step.Kind, err)
		}
		r.logf("step %d/%d done: %s (%s)", stepNumber, len(scenario.Steps), step.Kind, time.Since(stepStart))
	}
	r.logf("scenario done: %s", scenario.Name)
	return nil
}

func (r *Runner) target(ctx context.Context, scenario *Scenario) (marketTarget, error) {
	if r.conn != nil {
		if len(scenario.Platform) > 0 {
			r.logf("scenario %s: platform settings ignored for a remote market", scenario.Name)
		}
		return marketTarget{client: marketv1.NewClient(r.conn)}, nil
	}
	return startLocalMarket(ctx, scenario, r.logger)
}

func (r *Runner) logf(format string, args ...any) {
	if !r.verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}
