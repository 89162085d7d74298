// Package maintenance runs offline checks and repairs against the market
// journal database.
package maintenance

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	entrypoint "github.com/louisbranch/tollgate.space/internal/platform/cmd"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/engine"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage/integrity"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage/sqlite"
)

const scanPageSize = 200

// Config holds maintenance command configuration.
type Config struct {
	DBPath  string        `env:"MARKET_DB_PATH"      envDefault:"data/market.db"`
	Timeout time.Duration `env:"MAINTENANCE_TIMEOUT" envDefault:"10m"`
	// Verify walks hashes, chain links, and signatures.
	Verify bool
	// Validate checks every payload against the event registry.
	Validate bool
	// Integrity compares a full replay with a checkpoint-based replay.
	Integrity bool
	// Checkpoint writes a fresh checkpoint at the journal head.
	Checkpoint  bool
	WarningsCap int
	JSONOutput  bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{WarningsCap: 25}
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to the market sqlite database (default: TOLLGATE_SPACE_MARKET_DB_PATH or data/market.db)")
	fs.BoolVar(&cfg.Verify, "verify", false, "verify event hashes, chain links, and signatures")
	fs.BoolVar(&cfg.Validate, "validate", false, "validate event payloads against the registry")
	fs.BoolVar(&cfg.Integrity, "integrity", false, "compare a full replay against the latest checkpoint replay")
	fs.BoolVar(&cfg.Checkpoint, "checkpoint", false, "write a checkpoint at the journal head")
	fs.IntVar(&cfg.WarningsCap, "warnings-cap", cfg.WarningsCap, "max warnings to print (0 = no limit)")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output a JSON report")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Report summarizes one maintenance run.
type Report struct {
	LastSeq         uint64   `json:"last_seq"`
	Producers       int      `json:"producers"`
	Sessions        int      `json:"sessions"`
	PlatformBalance uint64   `json:"platform_balance"`
	TotalReceived   uint64   `json:"total_received"`
	TotalWithdrawn  uint64   `json:"total_withdrawn"`
	StateDigest     string   `json:"state_digest"`
	Conserved       bool     `json:"conserved"`
	Verified        bool     `json:"verified,omitempty"`
	HeadChainHash   string   `json:"head_chain_hash,omitempty"`
	Validated       int      `json:"validated,omitempty"`
	CheckpointSeq   uint64   `json:"checkpoint_seq,omitempty"`
	CheckpointMatch *bool    `json:"checkpoint_match,omitempty"`
	Written         string   `json:"written_checkpoint,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	WarningsOmitted int      `json:"warnings_omitted,omitempty"`
}

// Run executes the maintenance command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	store, err := openStore(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil && errOut != nil {
			fmt.Fprintf(errOut, "close store: %v\n", err)
		}
	}()
	return runWithStore(ctx, cfg, store, out, errOut)
}

func runWithStore(ctx context.Context, cfg Config, store closableJournalStore, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	var report Report

	if cfg.Verify {
		result, err := store.VerifyJournal(ctx)
		if err != nil {
			return fmt.Errorf("verify journal: %w", err)
		}
		report.Verified = true
		report.HeadChainHash = result.HeadChainHash
	}

	if cfg.Validate {
		validated, warnings, err := validateEvents(ctx, store)
		if err != nil {
			return err
		}
		report.Validated = validated
		report.Warnings = append(report.Warnings, warnings...)
	}

	state, err := engine.ReplayState(ctx, store, nil)
	if err != nil {
		return fmt.Errorf("replay journal: %w", err)
	}
	digest, err := engine.StateDigest(state)
	if err != nil {
		return err
	}
	summarize(&report, state, digest)

	if cfg.Integrity {
		if err := compareCheckpoint(ctx, store, digest, &report); err != nil {
			return err
		}
	}

	if cfg.Checkpoint {
		cp, err := engine.SaveCheckpoint(ctx, store, state, time.Now())
		if err != nil {
			return err
		}
		report.Written = fmt.Sprintf("seq %d digest %s", cp.LastSeq, cp.Digest)
	}

	report.Warnings, report.WarningsOmitted = capWarnings(report.Warnings, cfg.WarningsCap)
	if cfg.JSONOutput {
		return outputJSON(out, report)
	}
	printReport(out, errOut, report)
	if report.CheckpointMatch != nil && !*report.CheckpointMatch {
		return errors.New("checkpoint does not match journal replay")
	}
	return nil
}

func summarize(report *Report, state market.State, digest string) {
	report.LastSeq = state.LastSeq
	report.Producers = len(state.ProducerOrder)
	report.Sessions = len(state.Sessions)
	report.PlatformBalance = uint64(state.PlatformBalance)
	report.TotalReceived = uint64(state.TotalReceived)
	report.TotalWithdrawn = uint64(state.TotalWithdrawn)
	report.StateDigest = digest
	if err := state.CheckConservation(); err != nil {
		report.Warnings = append(report.Warnings, err.Error())
		return
	}
	report.Conserved = true
}

// compareCheckpoint replays from the latest checkpoint and compares the
// resulting state with a full replay.
func compareCheckpoint(ctx context.Context, store closableJournalStore, fullDigest string, report *Report) error {
	cp, err := store.LatestCheckpoint(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		report.Warnings = append(report.Warnings, "no checkpoint stored; integrity check skipped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	report.CheckpointSeq = cp.LastSeq

	fromCheckpoint, err := engine.ReplayState(ctx, store, store)
	match := false
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("checkpoint replay failed: %v", err))
	} else {
		digest, err := engine.StateDigest(fromCheckpoint)
		if err != nil {
			return err
		}
		match = digest == fullDigest
		if !match {
			report.Warnings = append(report.Warnings, fmt.Sprintf("checkpoint %d replays to digest %s, full replay is %s", cp.LastSeq, digest, fullDigest))
		}
	}
	report.CheckpointMatch = &match
	return nil
}

// validateEvents checks every journaled payload against the registry and
// reports each bad event as a warning.
func validateEvents(ctx context.Context, journal storage.EventJournal) (int, []string, error) {
	_, registry, err := market.NewRegistries()
	if err != nil {
		return 0, nil, fmt.Errorf("build registries: %w", err)
	}
	var warnings []string
	count := 0
	afterSeq := uint64(0)
	for {
		events, err := journal.ListEvents(ctx, afterSeq, scanPageSize)
		if err != nil {
			return 0, nil, fmt.Errorf("list events after %d: %w", afterSeq, err)
		}
		if len(events) == 0 {
			return count, warnings, nil
		}
		for _, evt := range events {
			count++
			if err := validateEvent(registry, evt); err != nil {
				warnings = append(warnings, fmt.Sprintf("seq %d (%s): %v", evt.Seq, evt.Type, err))
			}
			afterSeq = evt.Seq
		}
	}
}

func validateEvent(registry *event.Registry, evt event.Event) error {
	_, err := registry.ValidateForAppend(evt)
	return err
}

func capWarnings(warnings []string, limit int) ([]string, int) {
	if limit <= 0 || len(warnings) <= limit {
		return warnings, 0
	}
	return warnings[:limit], len(warnings) - limit
}

func outputJSON(out io.Writer, report Report) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func printReport(out io.Writer, errOut io.Writer, report Report) {
	fmt.Fprintf(out, "journal head: %d\n", report.LastSeq)
	fmt.Fprintf(out, "producers: %d sessions: %d\n", report.Producers, report.Sessions)
	fmt.Fprintf(out, "platform balance: %d received: %d withdrawn: %d\n", report.PlatformBalance, report.TotalReceived, report.TotalWithdrawn)
	fmt.Fprintf(out, "state digest: %s\n", report.StateDigest)
	fmt.Fprintf(out, "value conserved: %t\n", report.Conserved)
	if report.Verified {
		fmt.Fprintf(out, "journal verified, head chain hash %s\n", report.HeadChainHash)
	}
	if report.Validated > 0 {
		fmt.Fprintf(out, "validated %d events\n", report.Validated)
	}
	if report.CheckpointMatch != nil {
		fmt.Fprintf(out, "checkpoint %d matches replay: %t\n", report.CheckpointSeq, *report.CheckpointMatch)
	}
	if report.Written != "" {
		fmt.Fprintf(out, "checkpoint written: %s\n", report.Written)
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(errOut, "Warning: %s\n", warning)
	}
	if report.WarningsOmitted > 0 {
		fmt.Fprintf(errOut, "Warning: %d more warnings omitted\n", report.WarningsOmitted)
	}
}

// openStore opens an existing journal database; it never creates one.
func openStore(ctx context.Context, path string) (*sqlite.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("market database %s: %w", path, err)
	}
	keyring, err := integrity.KeyringFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load event keyring: %w", err)
	}
	_, registry, err := market.NewRegistries()
	if err != nil {
		return nil, fmt.Errorf("build registries: %w", err)
	}
	store, err := sqlite.Open(ctx, path, keyring, registry)
	if err != nil {
		return nil, fmt.Errorf("open market database: %w", err)
	}
	return store, nil
}
