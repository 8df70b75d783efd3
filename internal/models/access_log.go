package models

import (
	"time"

	"gorm.io/datatypes"
)

// AccessLog records an authenticated request for auditing.
type AccessLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID   uint64  `gorm:"not null;index"` // Authenticated user ID.
	APIKeyID *uint64 `gorm:"index"`          // API key used, nil for bearer tokens.

	Method string `gorm:"type:text"` // HTTP method.
	Path   string `gorm:"type:text"` // Request path.

	Metadata datatypes.JSON `gorm:"type:jsonb"` // Client IP, user agent and friends.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Request timestamp.
}
