package db

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smsrelay-dev/smsrelay-admin/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		t.Fatalf("sql db: %v", errDB)
	}
	sqlDB.SetMaxOpenConns(1)
	return conn
}

func TestMigrate_Idempotent(t *testing.T) {
	conn := openTestDB(t)
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("second migrate should be a no-op, got %v", errMigrate)
	}

	// The schema accepts rows for every model.
	user := models.User{Name: "User", Email: "user@example.com", Password: "x", Role: models.RoleRegular}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
}

func TestMigrate_UniqueEmail(t *testing.T) {
	conn := openTestDB(t)
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	first := models.User{Name: "A", Email: "dupe@example.com", Password: "x", Role: models.RoleRegular}
	if errCreate := conn.Create(&first).Error; errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	second := models.User{Name: "B", Email: "dupe@example.com", Password: "x", Role: models.RoleRegular}
	errDup := conn.Create(&second).Error
	if errDup == nil {
		t.Fatalf("expected unique violation for duplicate email")
	}
	if !IsUniqueViolation(errDup) {
		t.Fatalf("expected IsUniqueViolation to match, got %v", errDup)
	}
}

func TestEnsureAdmin(t *testing.T) {
	conn := openTestDB(t)
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	if errSeed := EnsureAdmin(conn, "Root", "root@example.com", "hashed"); errSeed != nil {
		t.Fatalf("ensure admin: %v", errSeed)
	}
	// A second call with different inputs must not create another admin.
	if errSeed := EnsureAdmin(conn, "Other", "other@example.com", "hashed"); errSeed != nil {
		t.Fatalf("ensure admin again: %v", errSeed)
	}

	var count int64
	if errCount := conn.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; errCount != nil {
		t.Fatalf("count: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected exactly one admin, got %d", count)
	}

	if errSeed := EnsureAdmin(conn, "", "", ""); errSeed == nil {
		t.Fatalf("expected error for missing credentials")
	}
}
