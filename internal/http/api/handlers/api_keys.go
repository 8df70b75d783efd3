package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smsrelay-dev/smsrelay-admin/internal/auth"
	"github.com/smsrelay-dev/smsrelay-admin/internal/models"
	"github.com/smsrelay-dev/smsrelay-admin/internal/security"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// APIKeyHandler manages the caller's own API keys.
type APIKeyHandler struct {
	db *gorm.DB
}

// NewAPIKeyHandler constructs an APIKeyHandler.
func NewAPIKeyHandler(db *gorm.DB) *APIKeyHandler {
	return &APIKeyHandler{db: db}
}

// Create issues a new API key. The full key is returned exactly once;
// only its prefix and a bcrypt hash are stored.
func (h *APIKeyHandler) Create(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	raw, errGenerate := security.GenerateAPIKey()
	if errGenerate != nil {
		log.WithError(errGenerate).Error("api keys: generate failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generate api key failed"})
		return
	}
	hashed, errHash := security.HashPassword(raw)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash api key failed"})
		return
	}

	now := time.Now().UTC()
	key := models.APIKey{
		UserID:    user.ID,
		KeyPrefix: security.APIKeyPrefix(raw),
		HashedKey: hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&key).Error; errCreate != nil {
		log.WithError(errCreate).Error("api keys: create failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create api key failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":        key.ID,
		"apiKey":    raw,
		"keyPrefix": key.KeyPrefix,
		"createdAt": key.CreatedAt,
	})
}

// List returns the caller's non-revoked keys by prefix.
func (h *APIKeyHandler) List(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var rows []models.APIKey
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ? AND revoked_at IS NULL", user.ID).
		Order("created_at DESC").
		Find(&rows).Error; errFind != nil {
		log.WithError(errFind).Error("api keys: list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list api keys failed"})
		return
	}

	keys := make([]gin.H, 0, len(rows))
	for i := range rows {
		keys = append(keys, gin.H{
			"id":         rows[i].ID,
			"keyPrefix":  rows[i].KeyPrefix,
			"lastUsedAt": rows[i].LastUsedAt,
			"createdAt":  rows[i].CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"apiKeys": keys})
}

// Revoke disables one of the caller's keys. Revoked keys stop
// authenticating immediately but remain on record.
func (h *APIKeyHandler) Revoke(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	now := time.Now().UTC()
	res := h.db.WithContext(c.Request.Context()).Model(&models.APIKey{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL", id, user.ID).
		Updates(map[string]any{
			"revoked_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		log.WithError(res.Error).Error("api keys: revoke failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "revoke api key failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "api key not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
