package models

import "time"

// APIKey stores a hashed gateway credential owned by a user.
//
// The raw key is shown to the caller once at creation time. Only its
// leading prefix is stored in clear so candidate rows can be narrowed
// through an index before the bcrypt comparison of the full secret.
type APIKey struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Owning user ID.
	User   *User  `gorm:"foreignKey:UserID"` // Owning user.

	KeyPrefix string `gorm:"type:text;not null;index"` // Leading characters of the raw key.
	HashedKey string `gorm:"type:text;not null"`       // bcrypt hash of the full key.

	LastUsedAt *time.Time `gorm:""`      // Last successful authentication.
	RevokedAt  *time.Time `gorm:"index"` // Revocation timestamp, nil while active.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
