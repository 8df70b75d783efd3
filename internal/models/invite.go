package models

import "time"

// Invite represents a registration code consumable a bounded number of times.
type Invite struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Code string `gorm:"type:text;not null;uniqueIndex"` // Upper-case hex code, immutable.

	CreatedByID uint64  `gorm:"not null;index"`         // Issuing admin ID.
	CreatedBy   *User   `gorm:"foreignKey:CreatedByID"` // Issuing admin.
	UsedByID    *uint64 `gorm:"index"`                  // Last consumer ID.
	UsedBy      *User   `gorm:"foreignKey:UsedByID"`    // Last consumer.

	MaxUses     int       `gorm:"not null;default:1"`     // Maximum consumptions.
	CurrentUses int       `gorm:"not null;default:0"`     // Consumptions so far.
	ExpiresAt   time.Time `gorm:"not null"`               // Absolute expiry.
	Note        string    `gorm:"type:text"`              // Optional admin note.
	IsRevoked   bool      `gorm:"not null;default:false"` // Revocation flag, never cleared.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
