package models

import "time"

// Review is a single shopper rating of a product.
type Review struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID uint64    `gorm:"column:product_id;not null;index:idx_product_reviews_product"`
	UserID    uint64    `gorm:"column:user_id;not null;index:idx_product_reviews_user"`
	Rating    int       `gorm:"column:rating;not null"`
	Comment   string    `gorm:"column:comment;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Review) TableName() string { return "product_reviews" }
