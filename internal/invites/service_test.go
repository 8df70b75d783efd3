package invites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smsrelay-dev/smsrelay-admin/internal/db"
	"github.com/smsrelay-dev/smsrelay-admin/internal/models"
	"gorm.io/gorm"
)

// newTestDB opens a private in-memory database with the full schema and
// a seeded admin user.
func newTestDB(t *testing.T) (*gorm.DB, models.User) {
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
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	admin := models.User{
		Name:     "Root Admin",
		Email:    "admin@example.com",
		Password: "x",
		Role:     models.RoleAdmin,
	}
	if errCreate := conn.Create(&admin).Error; errCreate != nil {
		t.Fatalf("seed admin: %v", errCreate)
	}
	return conn, admin
}

func seedUser(t *testing.T, conn *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{Name: "User", Email: email, Password: "x", Role: models.RoleRegular}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("seed user: %v", errCreate)
	}
	return user
}

func TestCreate_Defaults(t *testing.T) {
	conn, admin := newTestDB(t)
	svc := NewService(conn, false)

	before := time.Now().UTC()
	invite, err := svc.Create(context.Background(), CreateOptions{}, admin.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if invite.MaxUses != 1 {
		t.Fatalf("expected default max uses 1, got %d", invite.MaxUses)
	}
	if invite.CurrentUses != 0 {
		t.Fatalf("expected zero uses, got %d", invite.CurrentUses)
	}
	if len(invite.Code) != 32 || invite.Code != strings.ToUpper(invite.Code) {
		t.Fatalf("unexpected code format: %q", invite.Code)
	}
	wantExpiry := before.Add(7 * 24 * time.Hour)
	if invite.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || invite.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Fatalf("expected expiry ~7 days out, got %s", invite.ExpiresAt)
	}
}

func TestValidateAndConsume_ExhaustsAfterMaxUses(t *testing.T) {
	conn, admin := newTestDB(t)
	svc := NewService(conn, false)

	invite, err := svc.Create(context.Background(), CreateOptions{MaxUses: 3}, admin.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var lastUser models.User
	for i := 0; i < 3; i++ {
		lastUser = seedUser(t, conn, fmt.Sprintf("user%d@example.com", i))
		if errConsume := svc.ValidateAndConsume(context.Background(), invite.Code, lastUser.ID); errConsume != nil {
			t.Fatalf("consume %d: %v", i, errConsume)
		}
	}

	extra := seedUser(t, conn, "extra@example.com")
	if errConsume := svc.ValidateAndConsume(context.Background(), invite.Code, extra.ID); !errors.Is(errConsume, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", errConsume)
	}

	var row models.Invite
	if errFind := conn.First(&row, invite.ID).Error; errFind != nil {
		t.Fatalf("reload: %v", errFind)
	}
	if row.CurrentUses != 3 {
		t.Fatalf("expected 3 uses, got %d", row.CurrentUses)
	}
	if row.UsedByID == nil || *row.UsedByID != lastUser.ID {
		t.Fatalf("expected used_by to track last consumer")
	}
}

func TestValidateAndConsume_CaseInsensitive(t *testing.T) {
	conn, admin := newTestDB(t)
	svc := NewService(conn, false)

	invite, err := svc.Create(context.Background(), CreateOptions{}, admin.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	user := seedUser(t, conn, "user@example.com")
	if errConsume := svc.ValidateAndConsume(context.Background(), strings.ToLower(invite.Code), user.ID); errConsume != nil {
		t.Fatalf("expected lower-cased code to consume, got %v", errConsume)
	}
}

func TestValidateAndConsume_FailureReasons(t *testing.T) {
	conn, admin := newTestDB(t)
	svc := NewService(conn, false)
	user := seedUser(t, conn, "user@example.com")

	if errConsume := svc.ValidateAndConsume(context.Background(), "DOESNOTEXIST", user.ID); !errors.Is(errConsume, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", errConsume)
	}

	revoked := models.Invite{
		Code: "AAAA000011112222AAAA000011112222", CreatedByID: admin.ID,
		MaxUses: 1, ExpiresAt: time.Now().UTC().Add(time.Hour), IsRevoked: true,
	}
	if errCreate := conn.Create(&revoked).Error; errCreate != nil {
		t.Fatalf("seed revoked: %v", errCreate)
	}
	if errConsume := svc.ValidateAndConsume(context.Background(), revoked.Code, user.ID); !errors.Is(errConsume, ErrRevoked) {
		t.Fatalf("expected ErrRevoked, got %v", errConsume)
	}

	expired := models.Invite{
		Code: "BBBB000011112222BBBB000011112222", CreatedByID: admin.ID,
		MaxUses: 5, ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	if errCreate := conn.Create(&expired).Error; errCreate != nil {
		t.Fatalf("seed expired: %v", errCreate)
	}
	if errConsume := svc.ValidateAndConsume(context.Background(), expired.Code, user.ID); !errors.Is(errConsume, ErrExpired) {
		t.Fatalf("expected ErrExpired even with uses left, got %v", errConsume)
	}
}

func TestConcurrentConsume_NeverOversells(t *testing.T) {
	conn, admin := newTestDB(t)
	svc := NewService(conn, false)

	const maxUses = 2
	const attempts = 6
	invite, err := svc.Create(context.Background(), CreateOptions{MaxUses: maxUses}, admin.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	users := make([]models.User, attempts)
	for i := range users {
		users[i] = seedUser(t, conn, fmt.Sprintf("racer%d@example.com", i))
	}

	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.ValidateAndConsume(context.Background(), invite.Code, users[i].ID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for i, errConsume := range results {
		if errConsume == nil {
			successes++
			continue
		}
		if !errors.Is(errConsume, ErrExhausted) {
			t.Fatalf("attempt %d: unexpected error %v", i, errConsume)
		}
	}
	if successes != maxUses {
		t.Fatalf("expected exactly %d successes, got %d", maxUses, successes)
	}
}

func TestRevoke_Idempotent(t *testing.T) {
	conn, admin := newTestDB(t)
	svc := NewService(conn, false)

	invite, err := svc.Create(context.Background(), CreateOptions{}, admin.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if errRevoke := svc.Revoke(context.Background(), invite.ID); errRevoke != nil {
		t.Fatalf("revoke: %v", errRevoke)
	}
	if errRevoke := svc.Revoke(context.Background(), invite.ID); errRevoke != nil {
		t.Fatalf("second revoke should be idempotent, got %v", errRevoke)
	}

	var row models.Invite
	if errFind := conn.First(&row, invite.ID).Error; errFind != nil {
		t.Fatalf("reload: %v", errFind)
	}
	if !row.IsRevoked {
		t.Fatalf("expected invite to stay revoked")
	}

	if errRevoke := svc.Revoke(context.Background(), 99999); !errors.Is(errRevoke, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", errRevoke)
	}
}

func TestDelete_HardRemoves(t *testing.T) {
	conn, admin := newTestDB(t)
	svc := NewService(conn, false)

	invite, err := svc.Create(context.Background(), CreateOptions{}, admin.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if errDelete := svc.Delete(context.Background(), invite.ID); errDelete != nil {
		t.Fatalf("delete: %v", errDelete)
	}
	if _, errGet := svc.GetByID(context.Background(), invite.ID); !errors.Is(errGet, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", errGet)
	}
	if errDelete := svc.Delete(context.Background(), invite.ID); !errors.Is(errDelete, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeated delete, got %v", errDelete)
	}
}

func TestList_PaginationAndIdentities(t *testing.T) {
	conn, admin := newTestDB(t)
	svc := NewService(conn, false)

	for i := 0; i < 3; i++ {
		invite := models.Invite{
			Code:        fmt.Sprintf("CCCC00001111222%d%s", i, "CCCC000011112222"),
			CreatedByID: admin.ID,
			MaxUses:     1,
			ExpiresAt:   time.Now().UTC().Add(time.Hour),
			CreatedAt:   time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		if errCreate := conn.Create(&invite).Error; errCreate != nil {
			t.Fatalf("seed invite: %v", errCreate)
		}
	}

	rows, total, err := svc.List(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !rows[0].CreatedAt.After(rows[1].CreatedAt) {
		t.Fatalf("expected newest-first ordering")
	}
	if rows[0].CreatedBy == nil || rows[0].CreatedBy.Email != admin.Email {
		t.Fatalf("expected issuer identity to be resolved")
	}
	if rows[0].CreatedBy.Password != "" {
		t.Fatalf("issuer identity must not carry the password hash")
	}
}

func TestValidateOnly_DoesNotMutate(t *testing.T) {
	conn, admin := newTestDB(t)
	svc := NewService(conn, false)

	invite, err := svc.Create(context.Background(), CreateOptions{}, admin.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, errValidate := svc.ValidateOnly(context.Background(), strings.ToLower(invite.Code))
	if errValidate != nil {
		t.Fatalf("validate: %v", errValidate)
	}
	if !ok {
		t.Fatalf("expected fresh invite to validate")
	}

	var row models.Invite
	if errFind := conn.First(&row, invite.ID).Error; errFind != nil {
		t.Fatalf("reload: %v", errFind)
	}
	if row.CurrentUses != 0 {
		t.Fatalf("validate must not consume, got %d uses", row.CurrentUses)
	}

	ok, errValidate = svc.ValidateOnly(context.Background(), "NOPE")
	if errValidate != nil {
		t.Fatalf("validate: %v", errValidate)
	}
	if ok {
		t.Fatalf("expected unknown code to be invalid")
	}
}
