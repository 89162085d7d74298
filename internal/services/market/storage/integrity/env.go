package integrity

import (
	"fmt"
	"strings"

	"github.com/louisbranch/tollgate.space/internal/platform/config"
)

const defaultKeyID = "v1"

// keyringEnv names the journal signing keys. HMACKeys is a comma-separated
// list of id=secret pairs and takes precedence over the single HMACKey.
type keyringEnv struct {
	HMACKeys  string `env:"MARKET_EVENT_HMAC_KEYS"`
	HMACKey   string `env:"MARKET_EVENT_HMAC_KEY"`
	HMACKeyID string `env:"MARKET_EVENT_HMAC_KEY_ID"`
}

// KeyringFromEnv loads the HMAC keyring configuration from environment variables.
func KeyringFromEnv() (*Keyring, error) {
	var cfg keyringEnv
	if err := config.ParseEnv(&cfg); err != nil {
		return nil, err
	}

	keyID := strings.TrimSpace(cfg.HMACKeyID)
	if keyID == "" {
		keyID = defaultKeyID
	}

	keySpec := strings.TrimSpace(cfg.HMACKeys)
	if keySpec == "" {
		raw := strings.TrimSpace(cfg.HMACKey)
		if raw == "" {
			return nil, fmt.Errorf("%w: %s is required", ErrKeyringRequired, config.EnvName("MARKET_EVENT_HMAC_KEY"))
		}
		return NewKeyring(map[string][]byte{keyID: []byte(raw)}, keyID)
	}

	keys := make(map[string][]byte)
	for _, entry := range strings.Split(keySpec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, value, ok := strings.Cut(entry, "=")
		id = strings.TrimSpace(id)
		value = strings.TrimSpace(value)
		if !ok || id == "" || value == "" {
			return nil, fmt.Errorf("invalid %s entry", config.EnvName("MARKET_EVENT_HMAC_KEYS"))
		}
		keys[id] = []byte(value)
	}
	return NewKeyring(keys, keyID)
}
