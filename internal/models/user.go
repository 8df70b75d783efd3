package models

import "time"

// User roles.
const (
	// RoleAdmin grants access to the admin surface.
	RoleAdmin = "ADMIN"
	// RoleRegular is the default role for registered accounts.
	RoleRegular = "REGULAR"
)

// ValidRole reports whether role is a known user role.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleRegular
}

// User represents a gateway account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string `gorm:"type:text;not null"`             // Display name.
	Email    string `gorm:"type:text;not null;uniqueIndex"` // Login email.
	Password string `gorm:"type:text;not null"`             // Hashed password.
	Phone    string `gorm:"type:text"`                      // Optional phone number.

	Role     string `gorm:"type:text;not null;default:'REGULAR'"` // ADMIN or REGULAR.
	IsBanned bool   `gorm:"not null;default:false"`               // Ban flag.

	APIKeys []APIKey `gorm:"foreignKey:UserID"` // Related API keys.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
