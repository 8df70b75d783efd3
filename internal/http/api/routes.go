package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smsrelay-dev/smsrelay-admin/internal/accesslog"
	"github.com/smsrelay-dev/smsrelay-admin/internal/admin"
	"github.com/smsrelay-dev/smsrelay-admin/internal/auth"
	"github.com/smsrelay-dev/smsrelay-admin/internal/config"
	"github.com/smsrelay-dev/smsrelay-admin/internal/http/api/handlers"
	"github.com/smsrelay-dev/smsrelay-admin/internal/invites"
	"github.com/smsrelay-dev/smsrelay-admin/internal/ratelimit"
	"github.com/smsrelay-dev/smsrelay-admin/internal/turnstile"
	"gorm.io/gorm"
)

// RegisterRoutes registers routes, middleware, and handlers.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config) {
	if r == nil || db == nil || cfg == nil {
		return
	}

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, errDB := db.DB()
		if errDB != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	recorder := accesslog.NewRecorder(db)
	authenticator := auth.NewAuthenticator(db, cfg.JWT.Secret)
	inviteSvc := invites.NewService(db, cfg.Registration.InviteOnly())
	adminSvc := admin.NewService(db)
	verifier := turnstile.NewClient(cfg.Registration.TurnstileSecret)
	limiter := ratelimit.NewMemoryLimiter()

	v1 := r.Group("/api/v1")

	authHandler := handlers.NewAuthHandler(db, cfg.JWT, inviteSvc, verifier, limiter)
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/validate-invite", authHandler.ValidateInvite)

	authed := v1.Group("")
	authed.Use(authenticator.Middleware(recorder))

	authed.GET("/auth/me", authHandler.Me)

	apiKeyHandler := handlers.NewAPIKeyHandler(db)
	authed.GET("/auth/api-keys", apiKeyHandler.List)
	authed.POST("/auth/api-keys", apiKeyHandler.Create)
	authed.DELETE("/auth/api-keys/:id", apiKeyHandler.Revoke)

	adminGroup := authed.Group("/admin")
	adminGroup.Use(auth.AdminOnly())

	userHandler := handlers.NewUserHandler(adminSvc)
	adminGroup.GET("/users", userHandler.List)
	adminGroup.GET("/users/:id", userHandler.Get)
	adminGroup.PATCH("/users/:id/role", userHandler.UpdateRole)
	adminGroup.PATCH("/users/:id/ban", userHandler.Ban)
	adminGroup.PATCH("/users/:id/unban", userHandler.Unban)
	adminGroup.DELETE("/users/:id", userHandler.Delete)

	inviteHandler := handlers.NewInviteHandler(inviteSvc)
	adminGroup.POST("/invites", inviteHandler.Create)
	adminGroup.GET("/invites", inviteHandler.List)
	adminGroup.GET("/invites/:id", inviteHandler.Get)
	adminGroup.POST("/invites/:id/revoke", inviteHandler.Revoke)
	adminGroup.DELETE("/invites/:id", inviteHandler.Delete)

	statsHandler := handlers.NewStatsHandler(adminSvc)
	adminGroup.GET("/stats", statsHandler.Get)
}
