package scenario

import (
	"context"
	"fmt"
	"math"
	"strings"

	apperrors "github.com/louisbranch/tollgate.space/internal/platform/errors"
	grpcmeta "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/metadata"
)

// actorContext attaches the step's acting principal to outgoing metadata.
func actorContext(ctx context.Context, step Step) context.Context {
	return grpcmeta.OutgoingContext(ctx, optionalString(step.Args, "as"), "")
}

// checkOutcome compares a call result against the step's expect_error.
func (r *Runner) checkOutcome(step Step, callErr error) error {
	expected := strings.TrimSpace(optionalString(step.Args, "expect_error"))
	if expected == "" {
		if callErr != nil {
			return fmt.Errorf("%s as %q: %w", step.Kind, optionalString(step.Args, "as"), callErr)
		}
		return nil
	}
	if callErr == nil {
		return r.assertions.Failf("%s succeeded, want %s", step.Kind, expected)
	}
	if got := apperrors.ReasonFromStatus(callErr); string(got) != expected {
		return r.assertions.Failf("%s failed with %s, want %s: %v", step.Kind, got, expected, callErr)
	}
	r.logf("%s failed as expected: %s", step.Kind, expected)
	return nil
}

func producerCategory(args map[string]any) (string, string, error) {
	producer, err := requiredString(args, "producer")
	if err != nil {
		return "", "", err
	}
	category, err := requiredString(args, "category")
	if err != nil {
		return "", "", err
	}
	return producer, category, nil
}

func optionalString(args map[string]any, key string) string {
	value, _ := args[key].(string)
	return value
}

func requiredString(args map[string]any, key string) (string, error) {
	value := strings.TrimSpace(optionalString(args, key))
	if value == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}

func requiredBool(args map[string]any, key string) (bool, error) {
	value, ok := args[key].(bool)
	if !ok {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return value, nil
}

// requiredUint reads a non-negative whole number. Lua numbers arrive as
// int64 or float64.
func requiredUint(args map[string]any, key string) (uint64, error) {
	switch value := args[key].(type) {
	case int64:
		if value < 0 {
			return 0, fmt.Errorf("%s must not be negative", key)
		}
		return uint64(value), nil
	case int:
		if value < 0 {
			return 0, fmt.Errorf("%s must not be negative", key)
		}
		return uint64(value), nil
	case uint64:
		return value, nil
	case float64:
		if value < 0 || value != math.Trunc(value) || value >= math.MaxUint64 {
			return 0, fmt.Errorf("%s must be a non-negative whole number", key)
		}
		return uint64(value), nil
	case nil:
		return 0, fmt.Errorf("%s is required", key)
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, value)
	}
}

func stringList(args map[string]any, key string) ([]string, error) {
	switch value := args[key].(type) {
	case []any:
		out := make([]string, 0, len(value))
		for i, item := range value {
			text, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", key, i+1)
			}
			out = append(out, text)
		}
		return out, nil
	case map[string]any:
		if len(value) == 0 {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%s must be a list", key)
	default:
		return nil, fmt.Errorf("%s must be a list", key)
	}
}
