package paymentmethods

import (
	"context"
	"errors"

	"github.com/freshmart/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists the single saved card per user.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a payment method repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByUser returns the saved card or nil when the user has none.
func (r *Repository) FindByUser(ctx context.Context, userID uint64) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&method).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &method, nil
}

// Upsert inserts or replaces the user's saved card.
func (r *Repository) Upsert(ctx context.Context, method *models.PaymentMethod) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last4", "card_name", "label", "expiry", "cvv", "updated_at"}),
		}).
		Create(method).Error
}

// DeleteByUser removes the saved card, if any.
func (r *Repository) DeleteByUser(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.PaymentMethod{}).Error
}
