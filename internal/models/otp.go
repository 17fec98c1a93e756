package models

import "time"

// Типы одноразовых кодов.
const (
	OtpTypeRegister = "register"
	OtpTypeLogin    = "login"
	OtpTypeForgot   = "forgot"
)

// Otp — одноразовый код, привязанный к email.
// Строки не удаляются: код либо истекает по expires_at, либо гасится used=true.
type Otp struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	Email     string    `gorm:"index;size:255;not null" json:"email"`
	Code      string    `gorm:"size:6;not null" json:"-"`
	Type      string    `gorm:"size:16;not null;default:register" json:"type"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	Used      bool      `gorm:"not null;default:false" json:"used"`
}
