package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smsrelay-dev/smsrelay-admin/internal/accesslog"
	"github.com/smsrelay-dev/smsrelay-admin/internal/models"

	log "github.com/sirupsen/logrus"
)

const (
	ctxUserKey   = "auth.user"
	ctxAPIKeyKey = "auth.apiKey"
)

// Middleware authenticates every request on the group via bearer token
// or API key, rejects banned users, and records the access.
func (a *Authenticator) Middleware(recorder *accesslog.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		cred := extractCredential(c)
		user, apiKey, errAuth := a.Authenticate(c.Request.Context(), cred)
		if errAuth != nil {
			if !errors.Is(errAuth, ErrUnauthorized) {
				log.WithError(errAuth).Error("auth: authentication failed")
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Banned principals get the same Forbidden shape as any other
		// authorization failure; only login names the ban explicitly.
		if user.IsBanned {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}

		c.Set(ctxUserKey, user)
		if apiKey != nil {
			c.Set(ctxAPIKeyKey, apiKey)
		}

		if recorder != nil {
			entry := accesslog.Entry{
				UserID: user.ID,
				Method: c.Request.Method,
				Path:   c.FullPath(),
			}
			if apiKey != nil {
				entry.APIKeyID = &apiKey.ID
			}
			recorder.Record(entry)
		}

		c.Next()
	}
}

// AdminOnly rejects requests from non-admin users. It must run after
// Middleware on the same group.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := UserFromContext(c)
		if !ok || user.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}

// UserFromContext returns the authenticated user set by Middleware.
func UserFromContext(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ctxUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

// APIKeyFromContext returns the matched API key for key-authenticated
// requests, if any.
func APIKeyFromContext(c *gin.Context) (*models.APIKey, bool) {
	value, exists := c.Get(ctxAPIKeyKey)
	if !exists {
		return nil, false
	}
	key, ok := value.(*models.APIKey)
	return key, ok
}
