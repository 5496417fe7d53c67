package reviews

import (
	"context"

	"github.com/freshmart/storefront-backend/internal/catalog"
	"github.com/freshmart/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

// ProductPageLimit bounds the reviews shown on a product page.
const ProductPageLimit = 20

// Repository persists product reviews.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a reviews repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts review and fills its id.
func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// ListForProduct returns the newest reviews of a product with the author name.
func (r *Repository) ListForProduct(ctx context.Context, productID uint64, limit int) ([]ReviewDTO, error) {
	if limit <= 0 {
		limit = ProductPageLimit
	}
	var rows []ReviewDTO
	err := r.db.WithContext(ctx).
		Table("product_reviews r").
		Select("r.id, r.product_id, r.user_id, COALESCE(u.username, '') AS username, r.rating, COALESCE(r.comment, '') AS comment, r.created_at").
		Joins("LEFT JOIN users u ON u.id = r.user_id").
		Where("r.product_id = ?", productID).
		Order("r.created_at DESC").
		Order("r.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListForUser returns every review the user wrote, newest first, with product details.
func (r *Repository) ListForUser(ctx context.Context, userID uint64) ([]UserReviewDTO, error) {
	var rows []UserReviewDTO
	err := r.db.WithContext(ctx).
		Table("product_reviews r").
		Select("r.id, r.product_id, p.name AS product_name, COALESCE(p.image, '') AS product_image, r.rating, COALESCE(r.comment, '') AS comment, r.created_at").
		Joins("JOIN products p ON p.id = r.product_id").
		Where("r.user_id = ?", userID).
		Order("r.created_at DESC").
		Order("r.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].ProductImage = catalog.ImageURL(rows[i].ProductImage)
	}
	return rows, nil
}
