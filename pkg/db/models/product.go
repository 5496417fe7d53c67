package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog listing. Stock lives in the quantity column.
type Product struct {
	ID                 uint64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name               string           `gorm:"column:name;size:255;not null"`
	Price              decimal.Decimal  `gorm:"column:price;type:decimal(10,2);not null"`
	DiscountPercentage *decimal.Decimal `gorm:"column:discount_percentage;type:decimal(5,2)"`
	Stock              int              `gorm:"column:quantity;not null;default:0"`
	Category           string           `gorm:"column:category;size:100;not null;default:''"`
	Description        string           `gorm:"column:description;type:text"`
	Image              string           `gorm:"column:image;size:255;not null;default:''"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
