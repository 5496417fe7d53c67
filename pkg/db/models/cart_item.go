package models

import "time"

// CartItem is one row of the persistent cart mirror. It is written through from
// the session cart and never read back into it.
type CartItem struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"column:user_id;not null;uniqueIndex:uniq_cart_user_product"`
	ProductID uint64    `gorm:"column:product_id;not null;uniqueIndex:uniq_cart_user_product"`
	Quantity  int       `gorm:"column:quantity;not null;default:1"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartItem) TableName() string { return "cart_items" }
