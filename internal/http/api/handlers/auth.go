package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smsrelay-dev/smsrelay-admin/internal/auth"
	"github.com/smsrelay-dev/smsrelay-admin/internal/config"
	dbutil "github.com/smsrelay-dev/smsrelay-admin/internal/db"
	"github.com/smsrelay-dev/smsrelay-admin/internal/invites"
	"github.com/smsrelay-dev/smsrelay-admin/internal/models"
	"github.com/smsrelay-dev/smsrelay-admin/internal/ratelimit"
	"github.com/smsrelay-dev/smsrelay-admin/internal/security"
	"github.com/smsrelay-dev/smsrelay-admin/internal/turnstile"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Credential attempts allowed per client IP per window.
const (
	registerRateLimit = 5
	loginRateLimit    = 10
	authRateWindow    = time.Minute
)

// BotVerifier checks registration attempts for automated traffic.
type BotVerifier interface {
	Verify(ctx context.Context, token string) error
}

// AuthHandler serves registration, login, and account endpoints.
type AuthHandler struct {
	db        *gorm.DB
	jwtCfg    config.JWTConfig
	invites   *invites.Service
	turnstile BotVerifier
	limiter   ratelimit.Limiter
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig, inviteSvc *invites.Service, verifier BotVerifier, limiter ratelimit.Limiter) *AuthHandler {
	return &AuthHandler{
		db:        db,
		jwtCfg:    jwtCfg,
		invites:   inviteSvc,
		turnstile: verifier,
		limiter:   limiter,
	}
}

type registerRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Phone          string `json:"phone"`
	InviteCode     string `json:"inviteCode"`
	TurnstileToken string `json:"turnstileToken"`
}

// Register creates a new account. In invite-only mode a valid invite
// code is required and is consumed atomically with the account creation.
func (h *AuthHandler) Register(c *gin.Context) {
	if !h.allow(c, "register:"+c.ClientIP(), registerRateLimit) {
		return
	}

	var body registerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	email := strings.ToLower(strings.TrimSpace(body.Email))
	password := body.Password
	if name == "" || email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and email are required"})
		return
	}
	if len(password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
		return
	}

	if h.turnstile != nil {
		if errVerify := h.turnstile.Verify(c.Request.Context(), body.TurnstileToken); errVerify != nil {
			// An unreachable or misbehaving verifier rejects the attempt
			// as a client error; the caller retries, we never 500.
			if errors.Is(errVerify, turnstile.ErrUnavailable) {
				log.WithError(errVerify).Warn("auth: turnstile verify unavailable")
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to verify bot check. Please try again."})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "Turnstile verification failed"})
			return
		}
	}

	inviteCode := strings.TrimSpace(body.InviteCode)
	if h.invites.InviteOnlyMode() && inviteCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invite code is required"})
		return
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}

	now := time.Now().UTC()
	user := models.User{
		Name:      name,
		Email:     email,
		Password:  hash,
		Phone:     strings.TrimSpace(body.Phone),
		Role:      models.RoleRegular,
		CreatedAt: now,
		UpdatedAt: now,
	}

	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&user).Error; errCreate != nil {
			return errCreate
		}
		if inviteCode != "" {
			return invites.Consume(c.Request.Context(), tx, inviteCode, user.ID)
		}
		return nil
	})
	if errTx != nil {
		switch {
		case dbutil.IsUniqueViolation(errTx):
			c.JSON(http.StatusConflict, gin.H{"error": "Email is already registered"})
		case errors.Is(errTx, invites.ErrInvalidCode),
			errors.Is(errTx, invites.ErrRevoked),
			errors.Is(errTx, invites.ErrExpired),
			errors.Is(errTx, invites.ErrExhausted):
			c.JSON(http.StatusBadRequest, gin.H{"error": errTx.Error()})
		default:
			log.WithError(errTx).Error("auth: register failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	token, errSign := security.SignUserToken(h.jwtCfg.Secret, h.jwtCfg.Expiry, user.ID)
	if errSign != nil {
		log.WithError(errSign).Error("auth: sign token failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign token failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"accessToken": token,
		"user":        toUserResponse(&user),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges email and password for a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	if !h.allow(c, "login:"+c.ClientIP(), loginRateLimit) {
		return
	}

	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	var user models.User
	errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		log.WithError(errFind).Error("auth: login lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if !security.VerifySecret(user.Password, body.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if user.IsBanned {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is banned"})
		return
	}

	token, errSign := security.SignUserToken(h.jwtCfg.Secret, h.jwtCfg.Expiry, user.ID)
	if errSign != nil {
		log.WithError(errSign).Error("auth: sign token failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign token failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken": token,
		"user":        toUserResponse(&user),
	})
}

type validateInviteRequest struct {
	Code string `json:"code"`
}

// ValidateInvite reports whether a code would currently be accepted.
// It never consumes a use; registration remains the only consumer.
func (h *AuthHandler) ValidateInvite(c *gin.Context) {
	var body validateInviteRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	valid, errValidate := h.invites.ValidateOnly(c.Request.Context(), body.Code)
	if errValidate != nil {
		log.WithError(errValidate).Error("auth: validate invite failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validate invite failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid})
}

// allow applies the per-IP fixed-window limit and writes the 429
// response itself when the caller is over budget.
func (h *AuthHandler) allow(c *gin.Context, key string, limit int) bool {
	if h.limiter == nil {
		return true
	}
	res, errLimit := h.limiter.Allow(c.Request.Context(), key, limit, authRateWindow, time.Now())
	if errLimit != nil {
		log.WithError(errLimit).Error("auth: rate limit check failed")
		return true
	}
	if !res.Allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts, please try again later"})
		return false
	}
	return true
}

// Me returns the authenticated user's own account.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}
