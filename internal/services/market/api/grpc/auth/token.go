package auth

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/louisbranch/tollgate.space/internal/platform/config"
	apperrors "github.com/louisbranch/tollgate.space/internal/platform/errors"
)

// tokenEnv holds raw env values before post-parse validation.
type tokenEnv struct {
	Issuer    string `env:"MARKET_TOKEN_ISSUER"`
	Audience  string `env:"MARKET_TOKEN_AUDIENCE"`
	PublicKey string `env:"MARKET_TOKEN_PUBLIC_KEY"`
}

// TokenConfig defines how principal tokens are verified.
type TokenConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// Enabled reports whether token verification is configured.
func (c TokenConfig) Enabled() bool {
	return len(c.Key) > 0
}

// LoadTokenConfigFromEnv reads token verification configuration. An unset
// public key disables verification and yields a zero config.
func LoadTokenConfigFromEnv(now func() time.Time) (TokenConfig, error) {
	var raw tokenEnv
	if err := config.ParseEnv(&raw); err != nil {
		return TokenConfig{}, fmt.Errorf("parse token env: %w", err)
	}
	publicKey := strings.TrimSpace(raw.PublicKey)
	if publicKey == "" {
		return TokenConfig{}, nil
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	if issuer == "" {
		return TokenConfig{}, fmt.Errorf("%s is required", config.EnvName("MARKET_TOKEN_ISSUER"))
	}
	if audience == "" {
		return TokenConfig{}, fmt.Errorf("%s is required", config.EnvName("MARKET_TOKEN_AUDIENCE"))
	}
	keyBytes, err := DecodeKey(publicKey)
	if err != nil {
		return TokenConfig{}, fmt.Errorf("decode token public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return TokenConfig{}, fmt.Errorf("token public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return TokenConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// IssueToken signs a principal token valid for ttl from issuedAt.
func IssueToken(key ed25519.PrivateKey, issuer, audience, principal string, issuedAt time.Time, ttl time.Duration) (string, error) {
	principal = strings.TrimSpace(principal)
	if principal == "" {
		return "", errors.New("principal is required")
	}
	if len(key) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("token private key must be %d bytes", ed25519.PrivateKeySize)
	}
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   principal,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		NotBefore: jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
}

// VerifyToken checks a principal token and returns its subject.
func VerifyToken(token string, cfg TokenConfig) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperrors.New(apperrors.CodePrincipalRequired, "bearer token is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return "", errors.New("token verifier is not configured")
	}

	var parsed jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", mapJWTError(err)
	}

	if parsed.Issuer != cfg.Issuer {
		return "", apperrors.WithMetadata(apperrors.CodeInvalidToken, "token issuer mismatch", map[string]string{"Field": "issuer"})
	}
	if !slices.Contains(parsed.Audience, cfg.Audience) {
		return "", apperrors.WithMetadata(apperrors.CodeInvalidToken, "token audience mismatch", map[string]string{"Field": "audience"})
	}
	if parsed.ExpiresAt == nil {
		return "", apperrors.New(apperrors.CodeInvalidToken, "token exp is required")
	}
	now := cfg.Now().UTC()
	if !parsed.ExpiresAt.Time.After(now) {
		return "", apperrors.New(apperrors.CodeInvalidToken, "token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time) {
		return "", apperrors.New(apperrors.CodeInvalidToken, "token not active yet")
	}
	principal := strings.TrimSpace(parsed.Subject)
	if principal == "" {
		return "", apperrors.New(apperrors.CodeInvalidToken, "token subject is required")
	}
	return principal, nil
}

// DecodeKey decodes a base64 key in raw or padded standard encoding.
func DecodeKey(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeInvalidToken, "token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeInvalidToken, "token alg is invalid")
	}
	return apperrors.Wrap(apperrors.CodeInvalidToken, "token is invalid", err)
}
