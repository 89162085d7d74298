// Package hmackey generates journal signing keys for the market service.
package hmackey

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/louisbranch/tollgate.space/internal/platform/config"
)

// Config holds configuration for HMAC key generation.
type Config struct {
	Bytes int
	// KeyID, when set, prints a key id export alongside the key so the key
	// can join a rotation set.
	KeyID string
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Bytes: 32}
	fs.IntVar(&cfg.Bytes, "bytes", cfg.Bytes, "number of random bytes (default: 32)")
	fs.StringVar(&cfg.KeyID, "key-id", cfg.KeyID, "key id for the active journal key")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run generates the key and writes env exports to out.
func Run(cfg Config, out io.Writer, reader io.Reader) error {
	if cfg.Bytes < 16 {
		return errors.New("bytes must be at least 16")
	}
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}

	buf := make([]byte, cfg.Bytes)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return fmt.Errorf("generate random bytes: %w", err)
	}
	key := hex.EncodeToString(buf)

	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		_, err := fmt.Fprintf(out, "%s=%s\n", config.EnvName("MARKET_EVENT_HMAC_KEY"), key)
		return err
	}
	if strings.ContainsAny(keyID, "=,") {
		return fmt.Errorf("key id %q must not contain '=' or ','", keyID)
	}
	if _, err := fmt.Fprintf(out, "%s=%s=%s\n", config.EnvName("MARKET_EVENT_HMAC_KEYS"), keyID, key); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%s=%s\n", config.EnvName("MARKET_EVENT_HMAC_KEY_ID"), keyID)
	return err
}
