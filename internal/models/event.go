package models

import (
	"time"

	"gorm.io/datatypes"
)

// Виды событий аудита.
const (
	EventOtpIssued   = "otp_issued"
	EventOtpConsumed = "otp_consumed"
	EventLogin       = "login"
	EventRefresh     = "refresh"
	EventLogout      = "logout"
	EventUserCreated = "user_created"
)

// AuthEvent — запись аудита. Пишется best-effort: ошибка записи
// логируется и не влияет на ответ клиенту.
type AuthEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	UserID *uint          `gorm:"index" json:"user_id,omitempty"`
	Email  string         `gorm:"index;size:255" json:"email"`
	Kind   string         `gorm:"size:32;not null" json:"kind"`
	Detail datatypes.JSON `json:"detail,omitempty"`
}
