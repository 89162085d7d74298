package maintenance

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/tollgate.space/internal/platform/config"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/engine"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage/integrity"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage/sqlite"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(flag.NewFlagSet("maintenance", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "data/market.db" {
		t.Fatalf("DBPath = %q, want %q", cfg.DBPath, "data/market.db")
	}
	if cfg.Timeout != 10*time.Minute {
		t.Fatalf("Timeout = %v, want %v", cfg.Timeout, 10*time.Minute)
	}
	if cfg.WarningsCap != 25 {
		t.Fatalf("WarningsCap = %d, want 25", cfg.WarningsCap)
	}
	if cfg.Verify || cfg.Validate || cfg.Integrity || cfg.Checkpoint || cfg.JSONOutput {
		t.Fatalf("expected all actions off by default, got %+v", cfg)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv(config.EnvName("MARKET_DB_PATH"), "env.db")
	cfg, err := ParseConfig(flag.NewFlagSet("maintenance", flag.ContinueOnError), []string{
		"-verify", "-validate", "-integrity", "-checkpoint", "-json", "-warnings-cap", "3", "-timeout", "5s",
	})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "env.db" {
		t.Fatalf("DBPath = %q, want %q", cfg.DBPath, "env.db")
	}
	if !cfg.Verify || !cfg.Validate || !cfg.Integrity || !cfg.Checkpoint || !cfg.JSONOutput {
		t.Fatalf("expected all actions on, got %+v", cfg)
	}
	if cfg.WarningsCap != 3 || cfg.Timeout != 5*time.Second {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestRunWithStoreSummary(t *testing.T) {
	store := newSeededFakeStore(t)
	var out, errOut bytes.Buffer
	if err := runWithStore(context.Background(), Config{Verify: true, Validate: true, Integrity: true}, store, &out, &errOut); err != nil {
		t.Fatalf("run: %v", err)
	}
	output := out.String()
	for _, want := range []string{
		"journal head: 5",
		"producers: 1 sessions: 1",
		"platform balance: 15 received: 110 withdrawn: 0",
		"value conserved: true",
		"journal verified",
		"validated 5 events",
		"matches replay: true",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("output missing %q:\n%s", want, output)
		}
	}
	if errOut.Len() != 0 {
		t.Fatalf("unexpected warnings: %s", errOut.String())
	}
}

func TestRunWithStoreJSON(t *testing.T) {
	store := newSeededFakeStore(t)
	var out bytes.Buffer
	if err := runWithStore(context.Background(), Config{Checkpoint: true, JSONOutput: true}, store, &out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	var report Report
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.LastSeq != 5 || report.PlatformBalance != 15 || !report.Conserved {
		t.Fatalf("report = %+v", report)
	}
	if !strings.HasPrefix(report.Written, "seq 5 digest ") {
		t.Fatalf("Written = %q", report.Written)
	}
	cp, err := store.LatestCheckpoint(context.Background())
	if err != nil {
		t.Fatalf("latest checkpoint: %v", err)
	}
	if cp.LastSeq != 5 {
		t.Fatalf("checkpoint seq = %d, want 5", cp.LastSeq)
	}
}

func TestRunWithStoreDetectsCheckpointMismatch(t *testing.T) {
	ctx := context.Background()
	store := newSeededFakeStore(t)

	state, err := engine.ReplayState(ctx, store, nil)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	state.PlatformBalance += 7
	state.TotalReceived += 7
	if _, err := engine.SaveCheckpoint(ctx, store, state, testNow); err != nil {
		t.Fatalf("save checkpoint: %v", err)
	}

	var out, errOut bytes.Buffer
	err = runWithStore(ctx, Config{Integrity: true}, store, &out, &errOut)
	if err == nil || !strings.Contains(err.Error(), "checkpoint does not match") {
		t.Fatalf("err = %v, want checkpoint mismatch", err)
	}
	if !strings.Contains(out.String(), "matches replay: false") {
		t.Fatalf("output = %s", out.String())
	}
	if !strings.Contains(errOut.String(), "replays to digest") {
		t.Fatalf("warnings = %s", errOut.String())
	}
}

func TestRunWithStoreWarnsWithoutCheckpoint(t *testing.T) {
	store := newBareStore(t)
	var errOut bytes.Buffer
	if err := runWithStore(context.Background(), Config{Integrity: true}, store, nil, &errOut); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(errOut.String(), "no checkpoint stored") {
		t.Fatalf("warnings = %s", errOut.String())
	}
}

func TestCapWarnings(t *testing.T) {
	tests := []struct {
		name        string
		warnings    []string
		limit       int
		wantLen     int
		wantOmitted int
	}{
		{name: "no limit", warnings: []string{"a", "b", "c"}, limit: 0, wantLen: 3},
		{name: "under limit", warnings: []string{"a"}, limit: 2, wantLen: 1},
		{name: "over limit", warnings: []string{"a", "b", "c"}, limit: 2, wantLen: 2, wantOmitted: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, omitted := capWarnings(tt.warnings, tt.limit)
			if len(got) != tt.wantLen || omitted != tt.wantOmitted {
				t.Fatalf("capWarnings = (%d, %d), want (%d, %d)", len(got), omitted, tt.wantLen, tt.wantOmitted)
			}
		})
	}
}

func TestRunRequiresExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	err := Run(context.Background(), Config{DBPath: path}, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "missing.db") {
		t.Fatalf("err = %v, want missing database error", err)
	}
}

func TestRunRequiresKeyring(t *testing.T) {
	path := seedSQLite(t)
	t.Setenv(config.EnvName("MARKET_EVENT_HMAC_KEY"), "")
	err := Run(context.Background(), Config{DBPath: path}, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "keyring") {
		t.Fatalf("err = %v, want keyring error", err)
	}
}

func TestRunAgainstSQLite(t *testing.T) {
	path := seedSQLite(t)
	var out bytes.Buffer
	cfg := Config{DBPath: path, Verify: true, Validate: true, Integrity: true}
	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "journal head: 5") {
		t.Fatalf("output = %s", out.String())
	}
	if !strings.Contains(out.String(), "matches replay: true") {
		t.Fatalf("output = %s", out.String())
	}
}

// seedSQLite writes a seeded journal to a temp database and closes it.
func seedSQLite(t *testing.T) string {
	t.Helper()
	t.Setenv(config.EnvName("MARKET_EVENT_HMAC_KEY"), "test-key")
	keyring, err := integrity.KeyringFromEnv()
	if err != nil {
		t.Fatalf("keyring: %v", err)
	}
	_, registry, err := market.NewRegistries()
	if err != nil {
		t.Fatalf("build registries: %v", err)
	}
	path := filepath.Join(t.TempDir(), "market.db")
	store, err := sqlite.Open(context.Background(), path, keyring, registry)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	seedMarket(t, store, store)
	if err := store.Close(); err != nil {
		t.Fatalf("close sqlite: %v", err)
	}
	return path
}
