package models

import "time"

// RefreshToken — выданный refresh-токен. Наличие строки и есть признак
// «не отозван»: при logout или при невалидной подписи строка удаляется.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;size:512;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}
