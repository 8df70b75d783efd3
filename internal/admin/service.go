package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smsrelay-dev/smsrelay-admin/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyBanned = errors.New("user is already banned")
	ErrNotBanned     = errors.New("user is not banned")
	ErrInvalidRole   = errors.New("invalid role")
)

// Stats is the aggregate snapshot served to the admin dashboard.
type Stats struct {
	TotalUsers       int64 `json:"totalUsers"`
	ActiveUsers      int64 `json:"activeUsers"`
	BannedUsers      int64 `json:"bannedUsers"`
	AdminUsers       int64 `json:"adminUsers"`
	TotalDevices     int64 `json:"totalDevices"`
	TotalSMSSent     int64 `json:"totalSmsSent"`
	TotalSMSReceived int64 `json:"totalSmsReceived"`
}

// Service owns user administration and platform stats.
type Service struct {
	db *gorm.DB
}

func NewService(conn *gorm.DB) *Service {
	return &Service{db: conn}
}

// ListUsers returns users newest-first plus the total count.
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var rows []models.User
	if errFind := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; errFind != nil {
		return nil, 0, fmt.Errorf("admin: list users: %w", errFind)
	}

	var total int64
	if errCount := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; errCount != nil {
		return nil, 0, fmt.Errorf("admin: count users: %w", errCount)
	}
	return rows, total, nil
}

// GetUser returns a single user or ErrNotFound.
func (s *Service) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	errFind := s.db.WithContext(ctx).First(&user, id).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("admin: get user: %w", errFind)
	}
	return &user, nil
}

// UpdateRole sets a user's role. Re-setting the current role succeeds.
func (s *Service) UpdateRole(ctx context.Context, id uint64, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"role":       role,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("admin: update role: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetUser(ctx, id)
}

// Ban marks a user banned. Banning an already-banned user fails with
// ErrAlreadyBanned.
func (s *Service) Ban(ctx context.Context, id uint64) (*models.User, error) {
	return s.setBanned(ctx, id, true, ErrAlreadyBanned)
}

// Unban clears a user's ban. Unbanning a user who is not banned fails
// with ErrNotBanned.
func (s *Service) Unban(ctx context.Context, id uint64) (*models.User, error) {
	return s.setBanned(ctx, id, false, ErrNotBanned)
}

func (s *Service) setBanned(ctx context.Context, id uint64, banned bool, conflict error) (*models.User, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_banned = ?", id, !banned).
		Updates(map[string]any{
			"is_banned":  banned,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("admin: set banned: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Either the user does not exist or it is already in the target
		// state; re-read to tell the two apart.
		if _, errGet := s.GetUser(ctx, id); errGet != nil {
			return nil, errGet
		}
		return nil, conflict
	}
	return s.GetUser(ctx, id)
}

// DeleteUser removes a user and all rows owned by it in one transaction.
func (s *Service) DeleteUser(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if errFind := tx.First(&user, id).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("admin: delete user: %w", errFind)
		}

		owned := []any{
			&models.Device{},
			&models.SMS{},
			&models.APIKey{},
			&models.AccessLog{},
		}
		for _, model := range owned {
			if errDelete := tx.Where("user_id = ?", id).Delete(model).Error; errDelete != nil {
				return fmt.Errorf("admin: delete user data: %w", errDelete)
			}
		}
		if errDelete := tx.Delete(&models.User{}, id).Error; errDelete != nil {
			return fmt.Errorf("admin: delete user: %w", errDelete)
		}
		return nil
	})
}

// GetStats aggregates platform-wide counters.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	conn := s.db.WithContext(ctx)
	stats := &Stats{}

	counts := []struct {
		dst *int64
		run func() *gorm.DB
	}{
		{&stats.TotalUsers, func() *gorm.DB { return conn.Model(&models.User{}) }},
		{&stats.BannedUsers, func() *gorm.DB { return conn.Model(&models.User{}).Where("is_banned = ?", true) }},
		{&stats.AdminUsers, func() *gorm.DB { return conn.Model(&models.User{}).Where("role = ?", models.RoleAdmin) }},
		{&stats.TotalDevices, func() *gorm.DB { return conn.Model(&models.Device{}) }},
		{&stats.TotalSMSSent, func() *gorm.DB { return conn.Model(&models.SMS{}).Where("type = ?", models.SMSTypeSent) }},
		{&stats.TotalSMSReceived, func() *gorm.DB { return conn.Model(&models.SMS{}).Where("type = ?", models.SMSTypeReceived) }},
	}
	for _, c := range counts {
		if errCount := c.run().Count(c.dst).Error; errCount != nil {
			return nil, fmt.Errorf("admin: stats: %w", errCount)
		}
	}
	stats.ActiveUsers = stats.TotalUsers - stats.BannedUsers
	return stats, nil
}
