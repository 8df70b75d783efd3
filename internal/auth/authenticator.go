package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smsrelay-dev/smsrelay-admin/internal/models"
	"github.com/smsrelay-dev/smsrelay-admin/internal/security"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrUnauthorized is returned for every credential failure. Callers must
// not leak which check rejected the request.
var ErrUnauthorized = errors.New("unauthorized")

type credentialKind int

const (
	credentialNone credentialKind = iota
	credentialBearer
	credentialAPIKey
)

// credential is the single credential extracted from a request. When a
// request presents both a bearer token and an API key, the bearer token
// wins.
type credential struct {
	kind  credentialKind
	token string
}

func extractCredential(c *gin.Context) credential {
	const bearerPrefix = "Bearer "
	if header := c.GetHeader("Authorization"); len(header) > len(bearerPrefix) && header[:len(bearerPrefix)] == bearerPrefix {
		return credential{kind: credentialBearer, token: header[len(bearerPrefix):]}
	}
	if key := c.GetHeader("x-api-key"); key != "" {
		return credential{kind: credentialAPIKey, token: key}
	}
	if key := c.Query("apiKey"); key != "" {
		return credential{kind: credentialAPIKey, token: key}
	}
	return credential{kind: credentialNone}
}

// Authenticator resolves request credentials to users.
type Authenticator struct {
	db        *gorm.DB
	jwtSecret string
}

func NewAuthenticator(conn *gorm.DB, jwtSecret string) *Authenticator {
	return &Authenticator{db: conn, jwtSecret: jwtSecret}
}

// Authenticate resolves a credential to its user. For API key auth the
// matched key row is returned as well; for bearer auth it is nil. All
// failures are ErrUnauthorized.
func (a *Authenticator) Authenticate(ctx context.Context, cred credential) (*models.User, *models.APIKey, error) {
	switch cred.kind {
	case credentialBearer:
		user, errBearer := a.authenticateBearer(ctx, cred.token)
		return user, nil, errBearer
	case credentialAPIKey:
		return a.authenticateAPIKey(ctx, cred.token)
	default:
		return nil, nil, ErrUnauthorized
	}
}

func (a *Authenticator) authenticateBearer(ctx context.Context, token string) (*models.User, error) {
	userID, errParse := security.ParseUserToken(a.jwtSecret, token)
	if errParse != nil {
		return nil, ErrUnauthorized
	}
	return a.resolveUser(ctx, userID)
}

func (a *Authenticator) authenticateAPIKey(ctx context.Context, raw string) (*models.User, *models.APIKey, error) {
	prefix := security.APIKeyPrefix(raw)
	if prefix == "" {
		return nil, nil, ErrUnauthorized
	}

	// The prefix narrows candidates to a handful of rows; the bcrypt
	// comparison decides the match.
	var candidates []models.APIKey
	errFind := a.db.WithContext(ctx).
		Where("key_prefix = ? AND revoked_at IS NULL", prefix).
		Find(&candidates).Error
	if errFind != nil {
		return nil, nil, fmt.Errorf("auth: lookup api key: %w", errFind)
	}

	for i := range candidates {
		if !security.VerifySecret(candidates[i].HashedKey, raw) {
			continue
		}
		matched := candidates[i]
		user, errResolve := a.resolveUser(ctx, matched.UserID)
		if errResolve != nil {
			return nil, nil, errResolve
		}
		a.touchAPIKey(matched.ID)
		return user, &matched, nil
	}
	return nil, nil, ErrUnauthorized
}

func (a *Authenticator) resolveUser(ctx context.Context, userID uint64) (*models.User, error) {
	var user models.User
	errFind := a.db.WithContext(ctx).First(&user, userID).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("auth: resolve user: %w", errFind)
	}
	return &user, nil
}

// touchAPIKey stamps last_used_at in the background; failures only log.
func (a *Authenticator) touchAPIKey(keyID uint64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errUpdate := a.db.WithContext(ctx).Model(&models.APIKey{}).
			Where("id = ?", keyID).
			Update("last_used_at", time.Now().UTC()).Error
		if errUpdate != nil {
			log.WithError(errUpdate).Warn("auth: touch api key failed")
		}
	}()
}
