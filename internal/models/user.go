package models

import "time"

// Роли пользователей (значения хранятся в БД как есть).
const (
	RoleAdmin   = "Admin"
	RoleManager = "Manager"
	RoleUser    = "User"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name       string `gorm:"size:255;not null" json:"name"`
	Email      string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password   string `gorm:"size:255;not null" json:"-"`
	Role       string `gorm:"size:32;not null;default:User" json:"role"`
	IsVerified bool   `gorm:"not null;default:false" json:"is_verified"`
}
