package models

import (
	"time"

	"github.com/freshmart/storefront-backend/pkg/enums"
)

// User represents a storefront account.
type User struct {
	ID           uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	Username     string     `gorm:"column:username;size:100;not null"`
	Email        string     `gorm:"column:email;size:255;not null;uniqueIndex:uniq_users_email"`
	PasswordHash string     `gorm:"column:password_hash;size:255;not null"`
	Address      string     `gorm:"column:address;size:255;not null;default:''"`
	Contact      string     `gorm:"column:contact;size:50;not null;default:''"`
	Role         enums.Role `gorm:"column:role;size:20;not null;default:'user'"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }
