package server

import (
	"fmt"
	"strings"

	"github.com/louisbranch/tollgate.space/internal/platform/config"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/engine"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
)

// Storage backends accepted by TOLLGATE_SPACE_MARKET_STORAGE.
const (
	storageSQLite = "sqlite"
	storageMemory = "memory"
)

// serverEnv holds market server settings read from the environment. The
// platform settings only apply when the journal is empty.
type serverEnv struct {
	Storage         string `env:"MARKET_STORAGE" envDefault:"sqlite"`
	DBPath          string `env:"MARKET_DB_PATH" envDefault:"data/market.db"`
	CheckpointEvery uint64 `env:"MARKET_CHECKPOINT_EVERY" envDefault:"500"`

	PlatformName        string `env:"MARKET_PLATFORM_NAME" envDefault:"Tollgate"`
	PlatformDescription string `env:"MARKET_PLATFORM_DESCRIPTION"`
	FeeRateBasePoints   uint32 `env:"MARKET_FEE_RATE_BASE_POINTS" envDefault:"500"`
	RegisterPayment     uint64 `env:"MARKET_REGISTER_PAYMENT"`
	Owner               string `env:"MARKET_OWNER"`
}

func loadServerEnv() (serverEnv, error) {
	var cfg serverEnv
	if err := config.ParseEnv(&cfg); err != nil {
		return serverEnv{}, err
	}
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	switch cfg.Storage {
	case storageSQLite:
		if strings.TrimSpace(cfg.DBPath) == "" {
			return serverEnv{}, fmt.Errorf("%s is required for sqlite storage", config.EnvName("MARKET_DB_PATH"))
		}
	case storageMemory:
	default:
		return serverEnv{}, fmt.Errorf("unsupported %s %q", config.EnvName("MARKET_STORAGE"), cfg.Storage)
	}
	if cfg.FeeRateBasePoints > uint32(market.MaxFeeRate) {
		return serverEnv{}, fmt.Errorf("%s must be at most %d", config.EnvName("MARKET_FEE_RATE_BASE_POINTS"), market.MaxFeeRate)
	}
	return cfg, nil
}

func (e serverEnv) platformSettings() engine.PlatformSettings {
	return engine.PlatformSettings{
		Name:            strings.TrimSpace(e.PlatformName),
		Description:     strings.TrimSpace(e.PlatformDescription),
		FeeRate:         market.BasePoints(e.FeeRateBasePoints),
		RegisterPayment: market.Amount(e.RegisterPayment),
		Owner:           strings.TrimSpace(e.Owner),
	}
}
