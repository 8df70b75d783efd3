package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// APIKeyPrefixLength is the number of leading key characters stored in
// clear and used as the index filter during authentication.
const APIKeyPrefixLength = 17

// GenerateAPIKey returns a new random API key (256 bits, hex-encoded).
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, errRead := rand.Read(buf); errRead != nil {
		return "", fmt.Errorf("security: generate api key: %w", errRead)
	}
	return hex.EncodeToString(buf), nil
}

// APIKeyPrefix returns the indexable prefix of a raw key, or "" when the
// key is too short to carry one.
func APIKeyPrefix(raw string) string {
	if len(raw) < APIKeyPrefixLength {
		return ""
	}
	return raw[:APIKeyPrefixLength]
}

// GenerateInviteCode returns a new random invite code: 128 bits of
// entropy, hex-encoded and upper-cased for display consistency.
func GenerateInviteCode() (string, error) {
	buf := make([]byte, 16)
	if _, errRead := rand.Read(buf); errRead != nil {
		return "", fmt.Errorf("security: generate invite code: %w", errRead)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
