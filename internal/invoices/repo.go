package invoices

import (
	"context"

	"github.com/freshmart/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository stores invoices. Invoices are immutable once written, so there is
// no update path.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an invoice repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the header and its items in one statement batch and fills the ids.
func (r *Repository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

// FindByID loads an invoice with items. When userID is set the invoice must
// belong to that user. Returns gorm.ErrRecordNotFound otherwise.
func (r *Repository) FindByID(ctx context.Context, id uint64, userID *uint64) (*models.Invoice, error) {
	query := r.withItems(ctx).Where("id = ?", id)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	var invoice models.Invoice
	if err := query.First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// FindLatestForUser returns the user's most recent invoice.
func (r *Repository) FindLatestForUser(ctx context.Context, userID uint64) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.withItems(ctx).
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Order("id DESC").
		Take(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *Repository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id ASC")
	})
}
