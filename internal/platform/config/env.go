// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every env tag parsed by ParseEnv.
const Prefix = "TOLLGATE_SPACE_"

// ParseEnv loads configuration from environment variables. Struct tags name
// the variable without the shared prefix, so `env:"MARKET_ADDR"` reads
// TOLLGATE_SPACE_MARKET_ADDR.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: Prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// EnvName returns the fully qualified variable name for a tag.
func EnvName(tag string) string {
	return Prefix + tag
}
