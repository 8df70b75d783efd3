package models

import "time"

// SMS direction values.
const (
	// SMSTypeSent marks an outbound message.
	SMSTypeSent = "sent"
	// SMSTypeReceived marks an inbound message.
	SMSTypeReceived = "received"
)

// SMS represents a message record relayed through a device.
type SMS struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID   uint64  `gorm:"not null;index"`      // Owning user ID.
	User     *User   `gorm:"foreignKey:UserID"`   // Owning user.
	DeviceID *uint64 `gorm:"index"`               // Relaying device ID.
	Device   *Device `gorm:"foreignKey:DeviceID"` // Relaying device.

	Type      string `gorm:"type:text;not null;index"` // sent or received.
	Recipient string `gorm:"type:text"`                // Destination number (sent).
	Sender    string `gorm:"type:text"`                // Source number (received).
	Body      string `gorm:"type:text"`                // Message body.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName pins the table name so it is not re-pluralized.
func (SMS) TableName() string { return "sms" }

