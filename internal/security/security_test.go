package security

import (
	"strings"
	"testing"
	"time"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifySecret(hash, "hunter22") {
		t.Fatalf("expected hash to verify")
	}
	if VerifySecret(hash, "hunter23") {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestSignUserToken_RoundTrip(t *testing.T) {
	signed, err := SignUserToken("secret", time.Hour, 42)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	userID, errParse := ParseUserToken("secret", signed)
	if errParse != nil {
		t.Fatalf("parse: %v", errParse)
	}
	if userID != 42 {
		t.Fatalf("expected user id 42, got %d", userID)
	}
}

func TestParseUserToken_WrongSecret(t *testing.T) {
	signed, err := SignUserToken("secret", time.Hour, 42)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, errParse := ParseUserToken("other", signed); errParse == nil {
		t.Fatalf("expected parse failure with wrong secret")
	}
}

func TestParseUserToken_Expired(t *testing.T) {
	signed, err := SignUserToken("secret", -time.Minute, 42)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, errParse := ParseUserToken("secret", signed); errParse == nil {
		t.Fatalf("expected parse failure for expired token")
	}
}

func TestGenerateInviteCode_Format(t *testing.T) {
	code, err := GenerateInviteCode()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(code) != 32 {
		t.Fatalf("expected 32 hex chars, got %d", len(code))
	}
	if code != strings.ToUpper(code) {
		t.Fatalf("expected upper-case code, got %q", code)
	}
}

func TestGenerateAPIKey_PrefixLength(t *testing.T) {
	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(key) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(key))
	}
	prefix := APIKeyPrefix(key)
	if len(prefix) != APIKeyPrefixLength {
		t.Fatalf("expected prefix length %d, got %d", APIKeyPrefixLength, len(prefix))
	}
	if APIKeyPrefix("short") != "" {
		t.Fatalf("expected empty prefix for short key")
	}
}
