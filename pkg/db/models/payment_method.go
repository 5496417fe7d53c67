package models

import "time"

// PaymentMethod is the single saved card of a shopper. Only the last four digits
// of the card number are ever stored.
type PaymentMethod struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"column:user_id;not null;uniqueIndex:uniq_payment_methods_user"`
	Last4     string    `gorm:"column:last4;size:4;not null"`
	CardName  string    `gorm:"column:card_name;size:255;not null;default:''"`
	Label     string    `gorm:"column:label;size:100;not null;default:''"`
	Expiry    string    `gorm:"column:expiry;size:5;not null;default:''"`
	CVV       string    `gorm:"column:cvv;size:4;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (PaymentMethod) TableName() string { return "payment_methods" }
