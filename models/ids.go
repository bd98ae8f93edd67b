package models

import (
	"strings"

	"github.com/google/uuid"
)

const (
	PrefixUser        = "user"
	PrefixInvestment  = "inv"
	PrefixTransaction = "txn"
	PrefixSession     = "sess"
)

// NewID returns prefix_<n hex chars> drawn from a random v4 uuid (n <= 32).
func NewID(prefix string, n int) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > 0 && n < len(hex) {
		hex = hex[:n]
	}
	return prefix + "_" + hex
}

// NewSessionToken mints an opaque bearer token.
func NewSessionToken() string {
	return NewID(PrefixSession, 32)
}
