// Package accesstoken generates market token signing keys and issues
// principal tokens for local use.
package accesstoken

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/louisbranch/tollgate.space/internal/platform/config"
	"github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/auth"
)

// Config holds accesstoken configuration. With an empty Principal, Run
// generates a key pair; otherwise it issues a token for Principal.
type Config struct {
	PrivateKey string `env:"MARKET_TOKEN_PRIVATE_KEY"`
	Issuer     string `env:"MARKET_TOKEN_ISSUER" envDefault:"tollgate-space"`
	Audience   string `env:"MARKET_TOKEN_AUDIENCE" envDefault:"market"`
	Principal  string
	TTL        time.Duration
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{TTL: 24 * time.Hour}
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Principal, "principal", cfg.Principal, "issue a token for this principal instead of generating keys")
	fs.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "token lifetime")
	fs.StringVar(&cfg.Issuer, "issuer", cfg.Issuer, "token issuer")
	fs.StringVar(&cfg.Audience, "audience", cfg.Audience, "token audience")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run writes key exports or a signed token to out.
func Run(cfg Config, out io.Writer, reader io.Reader, now func() time.Time) error {
	if out == nil {
		return errors.New("output is required")
	}
	if strings.TrimSpace(cfg.Principal) == "" {
		return generateKeys(cfg, out, reader)
	}
	if now == nil {
		now = time.Now
	}
	if strings.TrimSpace(cfg.PrivateKey) == "" {
		return fmt.Errorf("%s is required to issue tokens", config.EnvName("MARKET_TOKEN_PRIVATE_KEY"))
	}
	keyBytes, err := auth.DecodeKey(cfg.PrivateKey)
	if err != nil {
		return fmt.Errorf("decode private key: %w", err)
	}
	token, err := auth.IssueToken(ed25519.PrivateKey(keyBytes), cfg.Issuer, cfg.Audience, cfg.Principal, now(), cfg.TTL)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

func generateKeys(cfg Config, out io.Writer, reader io.Reader) error {
	if reader == nil {
		reader = rand.Reader
	}
	publicKey, privateKey, err := ed25519.GenerateKey(reader)
	if err != nil {
		return fmt.Errorf("generate token key: %w", err)
	}
	exports := [][2]string{
		{"MARKET_TOKEN_PRIVATE_KEY", base64.RawStdEncoding.EncodeToString(privateKey)},
		{"MARKET_TOKEN_PUBLIC_KEY", base64.RawStdEncoding.EncodeToString(publicKey)},
		{"MARKET_TOKEN_ISSUER", cfg.Issuer},
		{"MARKET_TOKEN_AUDIENCE", cfg.Audience},
	}
	for _, kv := range exports {
		if _, err := fmt.Fprintf(out, "export %s=%s\n", config.EnvName(kv[0]), kv[1]); err != nil {
			return err
		}
	}
	return nil
}
