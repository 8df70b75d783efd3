package security

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignUserToken issues an HS256 bearer token whose subject is the user ID.
func SignUserToken(secret string, expiry time.Duration, userID uint64) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("security: empty jwt secret")
	}
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, errSign := token.SignedString([]byte(secret))
	if errSign != nil {
		return "", fmt.Errorf("security: sign token: %w", errSign)
	}
	return signed, nil
}

// ParseUserToken verifies a bearer token and returns the subject user ID.
func ParseUserToken(secret, raw string) (uint64, error) {
	claims := &jwt.RegisteredClaims{}
	token, errParse := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if errParse != nil {
		return 0, fmt.Errorf("security: parse token: %w", errParse)
	}
	if !token.Valid {
		return 0, fmt.Errorf("security: invalid token")
	}
	userID, errAtoi := strconv.ParseUint(claims.Subject, 10, 64)
	if errAtoi != nil {
		return 0, fmt.Errorf("security: invalid token subject: %w", errAtoi)
	}
	return userID, nil
}
