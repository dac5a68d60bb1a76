package models

import (
	"time"
)

type User struct {
	ID                   uint64    `gorm:"primarykey" json:"id"`
	Username             string    `gorm:"type:varchar(80);uniqueIndex;not null" json:"username"`
	Email                string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"email"`
	PasswordHash         string    `gorm:"type:varchar(255);not null" json:"-"`
	Role                 string    `gorm:"type:varchar(20);not null" json:"role"`
	NotificationsEnabled bool      `gorm:"not null" json:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	// Relations
	Items []Item `gorm:"foreignKey:OwnerID" json:"-"`
}
