package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smsrelay-dev/smsrelay-admin/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.APIKey{},
		&models.Invite{},
		&models.Device{},
		&models.SMS{},
		&models.AccessLog{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	// ddl defines an index or DDL statement to apply.
	type ddl struct {
		name string // Human-readable name for error reporting.
		sql  string // SQL to execute.
	}
	ddls := []ddl{
		{
			name: "idx_invites_created_at_id",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_invites_created_at_id
				ON invites (created_at DESC, id DESC)
			`,
		},
		{
			name: "idx_api_keys_prefix_active",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_api_keys_prefix_active
				ON api_keys (key_prefix)
				WHERE revoked_at IS NULL
			`,
		},
		{
			name: "idx_sms_user_id_type",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_sms_user_id_type
				ON sms (user_id, type)
			`,
		},
		{
			name: "idx_devices_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_devices_user_id_created_at
				ON devices (user_id, created_at DESC)
			`,
		},
		{
			name: "idx_access_logs_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_access_logs_user_id_created_at
				ON access_logs (user_id, created_at DESC)
			`,
		},
	}
	for _, item := range ddls {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}

	return nil
}

// EnsureAdmin creates an ADMIN account when none exists yet.
// The password must already be hashed by the caller.
func EnsureAdmin(conn *gorm.DB, name, email, hashedPassword string) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(hashedPassword) == "" {
		return fmt.Errorf("db: admin email and password are required")
	}

	var existing models.User
	errFind := conn.Where("role = ?", models.RoleAdmin).First(&existing).Error
	if errFind == nil {
		return nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db: query admin: %w", errFind)
	}

	admin := models.User{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: hashedPassword,
		Role:     models.RoleAdmin,
	}
	if admin.Name == "" {
		admin.Name = "Administrator"
	}
	if errCreate := conn.Create(&admin).Error; errCreate != nil {
		return fmt.Errorf("db: create admin: %w", errCreate)
	}
	return nil
}
