// Package id generates opaque identifiers for journal records.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a lowercase, unpadded base32 rendering of a random v4 UUID.
func NewID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(u[:])), nil
}

// Parse decodes an identifier produced by NewID back into its UUID.
func Parse(value string) (uuid.UUID, error) {
	raw, err := encoding.DecodeString(strings.ToUpper(strings.TrimSpace(value)))
	if err != nil {
		return uuid.Nil, fmt.Errorf("decode id: %w", err)
	}
	u, err := uuid.FromBytes(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("decode id: %w", err)
	}
	return u, nil
}
