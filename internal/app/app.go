package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/smsrelay-dev/smsrelay-admin/internal/config"
	"github.com/smsrelay-dev/smsrelay-admin/internal/db"
	"github.com/smsrelay-dev/smsrelay-admin/internal/http/api"
	"github.com/smsrelay-dev/smsrelay-admin/internal/security"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RunServer boots the API server with database-backed components and
// blocks until ctx is cancelled or the server fails.
func RunServer(ctx context.Context, cfg config.Config, port int) error {
	conn, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errSeed := seedAdminFromEnv(conn); errSeed != nil {
		return errSeed
	}

	if cfg.JWT.Secret == "" {
		return fmt.Errorf("app: jwt secret is required (set %s or jwt.secret in config)", config.EnvJWTSecret)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	api.RegisterRoutes(engine, conn, &cfg)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s (registration mode: %s)", server.Addr, cfg.Registration.Mode)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return fmt.Errorf("app: shutdown: %w", errShutdown)
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// seedAdminFromEnv creates the bootstrap admin account when ADMIN_EMAIL
// and ADMIN_PASSWORD are set and no admin exists yet.
func seedAdminFromEnv(conn *gorm.DB) error {
	email := strings.TrimSpace(os.Getenv(config.EnvAdminEmail))
	password := os.Getenv(config.EnvAdminPassword)
	if email == "" || password == "" {
		return nil
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return errHash
	}
	return db.EnsureAdmin(conn, os.Getenv(config.EnvAdminName), email, hash)
}

// requestLogger emits one structured line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}).Info("request")
	}
}
