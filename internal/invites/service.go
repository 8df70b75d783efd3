package invites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smsrelay-dev/smsrelay-admin/internal/db"
	"github.com/smsrelay-dev/smsrelay-admin/internal/models"
	"github.com/smsrelay-dev/smsrelay-admin/internal/security"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Invite failure reasons. Consumption checks are evaluated in this
// order: unknown code, revoked, expired, exhausted.
var (
	ErrNotFound    = errors.New("invite not found")
	ErrInvalidCode = errors.New("invalid invite code")
	ErrRevoked     = errors.New("invite code has been revoked")
	ErrExpired     = errors.New("invite code has expired")
	ErrExhausted   = errors.New("invite code has reached its maximum uses")
)

// Creation defaults.
const (
	DefaultMaxUses       = 1
	DefaultExpiresInDays = 7
)

// CreateOptions carries invite creation parameters. Zero values select
// the defaults; negative values are rejected by the handler layer.
type CreateOptions struct {
	MaxUses       int
	ExpiresInDays int
	Note          string
}

// Service owns the invite lifecycle.
type Service struct {
	db         *gorm.DB
	inviteOnly bool
}

// NewService constructs an invite Service.
func NewService(conn *gorm.DB, inviteOnly bool) *Service {
	return &Service{db: conn, inviteOnly: inviteOnly}
}

// InviteOnlyMode reports whether registration requires an invite code.
func (s *Service) InviteOnlyMode() bool { return s.inviteOnly }

// Create generates a random code and persists a new invite. A code
// collision is retried once with fresh entropy before failing.
func (s *Service) Create(ctx context.Context, opts CreateOptions, issuerID uint64) (*models.Invite, error) {
	maxUses := opts.MaxUses
	if maxUses == 0 {
		maxUses = DefaultMaxUses
	}
	expiresInDays := opts.ExpiresInDays
	if expiresInDays == 0 {
		expiresInDays = DefaultExpiresInDays
	}
	if maxUses < 0 || expiresInDays < 0 {
		return nil, fmt.Errorf("invites: invalid create options")
	}

	now := time.Now().UTC()
	for attempt := 0; attempt < 2; attempt++ {
		code, errGenerate := security.GenerateInviteCode()
		if errGenerate != nil {
			return nil, errGenerate
		}
		invite := models.Invite{
			Code:        code,
			CreatedByID: issuerID,
			MaxUses:     maxUses,
			CurrentUses: 0,
			ExpiresAt:   now.Add(time.Duration(expiresInDays) * 24 * time.Hour),
			Note:        strings.TrimSpace(opts.Note),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		errCreate := s.db.WithContext(ctx).Create(&invite).Error
		if errCreate == nil {
			return &invite, nil
		}
		if !db.IsUniqueViolation(errCreate) {
			return nil, fmt.Errorf("invites: create: %w", errCreate)
		}
		log.WithField("attempt", attempt+1).Warn("invites: code collision, regenerating")
	}
	return nil, fmt.Errorf("invites: create: code collision persisted after retry")
}

// List returns invites newest-first with issuer and consumer identities
// resolved, plus the total unfiltered count.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Invite, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	identity := func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "name", "email")
	}

	var rows []models.Invite
	if errFind := s.db.WithContext(ctx).
		Preload("CreatedBy", identity).
		Preload("UsedBy", identity).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; errFind != nil {
		return nil, 0, fmt.Errorf("invites: list: %w", errFind)
	}

	var total int64
	if errCount := s.db.WithContext(ctx).Model(&models.Invite{}).Count(&total).Error; errCount != nil {
		return nil, 0, fmt.Errorf("invites: count: %w", errCount)
	}
	return rows, total, nil
}

// GetByID returns an invite with resolved identities, or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id uint64) (*models.Invite, error) {
	identity := func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "name", "email")
	}

	var invite models.Invite
	errFind := s.db.WithContext(ctx).
		Preload("CreatedBy", identity).
		Preload("UsedBy", identity).
		First(&invite, id).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("invites: get: %w", errFind)
	}
	return &invite, nil
}

// Revoke marks an invite revoked. Revoking an already-revoked invite is
// not an error.
func (s *Service) Revoke(ctx context.Context, id uint64) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Invite{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_revoked": true,
			"updated_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("invites: revoke: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete hard-removes an invite.
func (s *Service) Delete(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Delete(&models.Invite{}, id)
	if res.Error != nil {
		return fmt.Errorf("invites: delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ValidateAndConsume atomically consumes one use of a code for userID.
// See Consume.
func (s *Service) ValidateAndConsume(ctx context.Context, code string, userID uint64) error {
	return Consume(ctx, s.db, code, userID)
}

// Consume atomically consumes one use of a code for userID on conn,
// which may be a transaction. The guard is a single conditional UPDATE
// so concurrent consumers of a near-exhausted code cannot both succeed;
// on zero rows affected the row is re-read to derive the failure reason.
func Consume(ctx context.Context, conn *gorm.DB, code string, userID uint64) error {
	normalized := normalizeCode(code)
	if normalized == "" {
		return ErrInvalidCode
	}

	now := time.Now().UTC()
	res := conn.WithContext(ctx).Model(&models.Invite{}).
		Where("code = ? AND is_revoked = ? AND expires_at > ? AND current_uses < max_uses",
			normalized, false, now).
		Updates(map[string]any{
			"current_uses": gorm.Expr("current_uses + 1"),
			"used_by_id":   userID,
			"updated_at":   now,
		})
	if res.Error != nil {
		return fmt.Errorf("invites: consume: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return classifyFailure(ctx, conn, normalized, now)
}

// ValidateOnly runs the consumption checks without mutating state. It
// exists for pre-submission UX only; registration must go through
// Consume, which is the sole authority.
func (s *Service) ValidateOnly(ctx context.Context, code string) (bool, error) {
	normalized := normalizeCode(code)
	if normalized == "" {
		return false, nil
	}

	var invite models.Invite
	errFind := s.db.WithContext(ctx).Where("code = ?", normalized).First(&invite).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("invites: validate: %w", errFind)
	}
	if invite.IsRevoked {
		return false, nil
	}
	if !invite.ExpiresAt.After(time.Now().UTC()) {
		return false, nil
	}
	if invite.CurrentUses >= invite.MaxUses {
		return false, nil
	}
	return true, nil
}

// classifyFailure re-reads the row to report which guard rejected the
// consumption, in check order. The read is diagnostic; the conditional
// UPDATE in Consume remains the only authority for success.
func classifyFailure(ctx context.Context, conn *gorm.DB, normalized string, now time.Time) error {
	var invite models.Invite
	errFind := conn.WithContext(ctx).Where("code = ?", normalized).First(&invite).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("invites: consume: %w", errFind)
	}
	switch {
	case invite.IsRevoked:
		return ErrRevoked
	case !invite.ExpiresAt.After(now):
		return ErrExpired
	default:
		// Lost a race against a concurrent consumer or the code was
		// already exhausted; either way no uses remain for this caller.
		return ErrExhausted
	}
}

// normalizeCode upper-cases a presented code for case-insensitive lookup.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
