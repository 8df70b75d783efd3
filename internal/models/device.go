package models

import "time"

// Device represents a registered Android gateway device.
type Device struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Owning user ID.
	User   *User  `gorm:"foreignKey:UserID"` // Owning user.

	Name    string `gorm:"type:text"`             // Device label.
	Model   string `gorm:"type:text"`             // Hardware model string.
	Enabled bool   `gorm:"not null;default:true"` // Whether the device accepts work.

	LastSeenAt *time.Time `gorm:""` // Last heartbeat.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
