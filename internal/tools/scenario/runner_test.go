package scenario

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
)

func testConfig(buf *bytes.Buffer) Config {
	cfg := DefaultConfig()
	cfg.Logger = log.New(buf, "", 0)
	cfg.Verbose = true
	return cfg
}

func TestRunFileSessionFlow(t *testing.T) {
	var logs bytes.Buffer
	if err := RunFile(context.Background(), testConfig(&logs), "testdata/session_flow.lua"); err != nil {
		t.Fatalf("run scenario: %v\n%s", err, logs.String())
	}
	if !strings.Contains(logs.String(), "scenario done: session_flow") {
		t.Fatalf("expected completion log, got:\n%s", logs.String())
	}
}

func TestRunScenarioStrictFailure(t *testing.T) {
	scenario, err := LoadScenario("strict", `
local scene = Scenario.new("strict")
scene:actor("bob"):register({paid = 10, content_type = "video"})
scene:expect_platform_balance(11)
return scene
`)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	var logs bytes.Buffer
	runner, err := NewRunner(context.Background(), testConfig(&logs))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	defer runner.Close()

	err = runner.RunScenario(context.Background(), scenario)
	if err == nil {
		t.Fatal("expected strict assertion failure")
	}
	if !strings.Contains(err.Error(), "step 2 (expect_platform_balance)") {
		t.Fatalf("error = %v, want step 2 failure", err)
	}
}

func TestRunScenarioLogOnlyContinues(t *testing.T) {
	scenario, err := LoadScenario("log-only", `
local scene = Scenario.new()
scene:actor("bob"):register({paid = 10, content_type = "video", expect_error = "INCORRECT_PAYMENT"})
scene:expect_producer("bob", false)
return scene
`)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	var logs bytes.Buffer
	cfg := testConfig(&logs)
	cfg.Assertions = AssertionLogOnly
	runner, err := NewRunner(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	defer runner.Close()

	if err := runner.RunScenario(context.Background(), scenario); err != nil {
		t.Fatalf("run scenario: %v", err)
	}
	out := logs.String()
	if !strings.Contains(out, "register succeeded, want INCORRECT_PAYMENT") {
		t.Fatalf("expected logged register expectation, got:\n%s", out)
	}
	if !strings.Contains(out, "is_producer(bob) = true, want false") {
		t.Fatalf("expected logged producer expectation, got:\n%s", out)
	}
}

func TestRunScenarioUnexpectedErrorStops(t *testing.T) {
	scenario, err := LoadScenario("unexpected", `
local scene = Scenario.new()
scene:actor("bob"):add_category({name = "c", fee = 1, duration = 1})
return scene
`)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	runner, err := NewRunner(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	defer runner.Close()

	err = runner.RunScenario(context.Background(), scenario)
	if err == nil || !strings.Contains(err.Error(), "add_category") {
		t.Fatalf("expected add_category failure, got %v", err)
	}
}

func TestRunScenarioRejectsUnknownStep(t *testing.T) {
	runner := newRunner(DefaultConfig())
	err := runner.RunScenario(context.Background(), &Scenario{
		Name:  "unknown",
		Steps: []Step{{Kind: "teleport", Args: map[string]any{}}},
	})
	if err == nil || !strings.Contains(err.Error(), "unknown step kind") {
		t.Fatalf("expected unknown step error, got %v", err)
	}
}

func TestRunScenarioRequiresScenario(t *testing.T) {
	if err := newRunner(DefaultConfig()).RunScenario(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil scenario")
	}
}

func TestAdvanceRequiresLocalClock(t *testing.T) {
	runner := newRunner(DefaultConfig())
	err := runner.runAdvance(marketTarget{}, Step{Kind: "advance", Args: map[string]any{"seconds": int64(1)}})
	if err == nil || !strings.Contains(err.Error(), "in-process") {
		t.Fatalf("expected in-process error, got %v", err)
	}
}

func TestPlatformSettings(t *testing.T) {
	settings, err := platformSettings(map[string]any{"owner": "alice", "fee_rate": int64(10000), "register_payment": int64(0)})
	if err != nil {
		t.Fatalf("platform settings: %v", err)
	}
	if settings.Owner != "alice" || settings.FeeRate != 10000 || settings.RegisterPayment != 0 {
		t.Fatalf("settings = %+v", settings)
	}
	defaults, err := platformSettings(nil)
	if err != nil {
		t.Fatalf("default settings: %v", err)
	}
	if defaults.Owner != defaultOwner || defaults.FeeRate != defaultFeeRate || defaults.RegisterPayment != defaultRegisterPayment {
		t.Fatalf("defaults = %+v", defaults)
	}
	if _, err := platformSettings(map[string]any{"fee_rate": int64(10001)}); err == nil {
		t.Fatal("expected error for fee rate above 10000")
	}
}

func TestRequiredUint(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    uint64
		wantErr bool
	}{
		{name: "int64", value: int64(7), want: 7},
		{name: "whole float", value: float64(3), want: 3},
		{name: "fraction", value: 1.5, wantErr: true},
		{name: "negative", value: int64(-1), wantErr: true},
		{name: "missing", value: nil, wantErr: true},
		{name: "string", value: "7", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := requiredUint(map[string]any{"n": tt.value}, "n")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %v", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("requiredUint: %v", err)
			}
			if got != tt.want {
				t.Fatalf("requiredUint = %d, want %d", got, tt.want)
			}
		})
	}
}
