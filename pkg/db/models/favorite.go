package models

import "time"

// Favorite links a user to a liked product.
type Favorite struct {
	UserID    uint64    `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	ProductID uint64    `gorm:"column:product_id;primaryKey;autoIncrement:false;index:idx_favorites_product"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Favorite) TableName() string { return "favorites" }
