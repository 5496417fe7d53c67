package catalog

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/freshmart/storefront-backend/pkg/db/models"
	"github.com/freshmart/storefront-backend/pkg/pricing"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const discountExpr = "COALESCE(p.discount_percentage, 0)"

// Repository reads and writes products.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type productRecord struct {
	ID                 uint64           `gorm:"column:id"`
	Name               string           `gorm:"column:name"`
	Price              decimal.Decimal  `gorm:"column:price"`
	DiscountPercentage *decimal.Decimal `gorm:"column:discount_percentage"`
	Stock              int              `gorm:"column:quantity"`
	Category           string           `gorm:"column:category"`
	Description        *string          `gorm:"column:description"`
	Image              string           `gorm:"column:image"`
	CreatedAt          time.Time        `gorm:"column:created_at"`
	AverageRating      float64          `gorm:"column:average_rating"`
	ReviewCount        int              `gorm:"column:review_count"`
}

func (r productRecord) toDTO() ProductDTO {
	dto := ProductDTO{
		ID:            r.ID,
		Name:          r.Name,
		Price:         pricing.Round2(r.Price),
		Stock:         r.Stock,
		Category:      r.Category,
		Image:         ImageURL(r.Image),
		ImageFile:     r.Image,
		AverageRating: math.Round(r.AverageRating*10) / 10,
		ReviewCount:   r.ReviewCount,
		CreatedAt:     r.CreatedAt,
	}
	if r.Description != nil {
		dto.Description = *r.Description
	}
	if r.DiscountPercentage != nil && r.DiscountPercentage.IsPositive() {
		pct := pricing.Round2(*r.DiscountPercentage)
		dto.DiscountPercentage = &pct
		if discounted, ok := pricing.DiscountPrice(dto.Price, &pct); ok {
			dto.DiscountPrice = &discounted
		}
	}
	return dto
}

func (r *Repository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("products p").
		Select(`p.id, p.name, p.price, p.discount_percentage, p.quantity, p.category, p.description, p.image, p.created_at,
COALESCE(AVG(r.rating), 0) AS average_rating, COUNT(r.id) AS review_count`).
		Joins("LEFT JOIN product_reviews r ON r.product_id = p.id").
		Group("p.id")
}

// List returns products matching filter with their rating aggregate.
func (r *Repository) List(ctx context.Context, filter Filter) ([]ProductDTO, error) {
	query := r.baseQuery(ctx)

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + escapeLike(search) + "%"
		query = query.Where(
			"(LOWER(p.name) LIKE ? ESCAPE '!' OR LOWER(p.category) LIKE ? ESCAPE '!' OR LOWER(COALESCE(p.description, '')) LIKE ? ESCAPE '!')",
			like, like, like,
		)
	}
	if category := strings.ToLower(strings.TrimSpace(filter.Category)); category != "" {
		query = query.Where("LOWER(p.category) = ?", category)
	}

	for _, clause := range orderFor(filter.Sort) {
		query = query.Order(clause)
	}

	var records []productRecord
	if err := query.Scan(&records).Error; err != nil {
		return nil, err
	}
	out := make([]ProductDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.toDTO())
	}
	return out, nil
}

// FindByID returns gorm.ErrRecordNotFound when the product is gone.
func (r *Repository) FindByID(ctx context.Context, id uint64) (*ProductDTO, error) {
	var records []productRecord
	if err := r.baseQuery(ctx).Where("p.id = ?", id).Limit(1).Scan(&records).Error; err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	dto := records[0].toDTO()
	return &dto, nil
}

// FindByIDs returns the products that still exist, in id order.
func (r *Repository) FindByIDs(ctx context.Context, ids []uint64) ([]ProductDTO, error) {
	if len(ids) == 0 {
		return []ProductDTO{}, nil
	}
	var records []productRecord
	if err := r.baseQuery(ctx).Where("p.id IN ?", ids).Order("p.id ASC").Scan(&records).Error; err != nil {
		return nil, err
	}
	out := make([]ProductDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.toDTO())
	}
	return out, nil
}

// Categories lists the distinct non-empty categories.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category <> ''").
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// Create inserts a product and returns its id.
func (r *Repository) Create(ctx context.Context, input ProductInput) (uint64, error) {
	product := models.Product{
		Name:               input.Name,
		Price:              input.Price,
		DiscountPercentage: input.DiscountPercentage,
		Stock:              input.Stock,
		Category:           input.Category,
		Description:        input.Description,
		Image:              input.Image,
	}
	if err := r.db.WithContext(ctx).Create(&product).Error; err != nil {
		return 0, err
	}
	return product.ID, nil
}

// Update overwrites the product. Returns gorm.ErrRecordNotFound when nothing matched.
func (r *Repository) Update(ctx context.Context, id uint64, input ProductInput) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":                input.Name,
			"price":               input.Price,
			"discount_percentage": input.DiscountPercentage,
			"quantity":            input.Stock,
			"category":            input.Category,
			"description":         input.Description,
			"image":               input.Image,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete hard-deletes the product. Returns gorm.ErrRecordNotFound when nothing matched.
func (r *Repository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ImageNames returns every image file name referenced by a product.
func (r *Repository) ImageNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("image <> ''").
		Distinct().
		Pluck("image", &names).Error
	return names, err
}

// DecrementStock subtracts qty when enough stock remains. The boolean is false
// when the guard rejected the update.
func (r *Repository) DecrementStock(ctx context.Context, id uint64, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		"UPDATE products SET quantity = quantity - ? WHERE id = ? AND quantity >= ?",
		qty, id, qty,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func orderFor(sort string) []string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case SortPriceAsc:
		return []string{"p.price ASC", "p.id ASC"}
	case SortPriceDesc:
		return []string{"p.price DESC", "p.id ASC"}
	case SortNameAsc:
		return []string{"p.name ASC", "p.id ASC"}
	case SortNameDesc:
		return []string{"p.name DESC", "p.id ASC"}
	case SortDiscountAsc:
		return []string{discountExpr + " ASC", "p.name ASC", "p.id ASC"}
	case SortDiscountDesc:
		return []string{discountExpr + " DESC", "p.name ASC", "p.id ASC"}
	default:
		return []string{"p.id ASC"}
	}
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return replacer.Replace(value)
}
