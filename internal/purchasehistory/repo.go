package purchasehistory

import (
	"context"
	"strings"
	"time"

	"github.com/freshmart/storefront-backend/internal/catalog"
	"github.com/freshmart/storefront-backend/pkg/db/models"
	"github.com/freshmart/storefront-backend/pkg/pricing"
	"gorm.io/gorm"
)

// Repository is the append-only purchase log.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a purchase history repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBulk records one row per line and returns the new row ids.
func (r *Repository) CreateBulk(ctx context.Context, userID uint64, purchasedAt time.Time, lines []Line) ([]uint64, error) {
	rows := make([]models.PurchaseHistory, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == 0 || line.Quantity <= 0 {
			continue
		}
		rows = append(rows, models.PurchaseHistory{
			UserID:              userID,
			ProductID:           line.ProductID,
			ProductName:         line.ProductName,
			Quantity:            line.Quantity,
			UnitPriceAtPurchase: pricing.Round2(line.UnitPrice),
			Total:               pricing.LineSubtotal(line.UnitPrice, line.Quantity),
			PurchasedAt:         purchasedAt,
		})
	}
	if len(rows) == 0 {
		return []uint64{}, nil
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// LinkInvoice back-fills invoice_id on rows written before the invoice existed.
func (r *Repository) LinkInvoice(ctx context.Context, ids []uint64, invoiceID uint64) error {
	if len(ids) == 0 || invoiceID == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.PurchaseHistory{}).
		Where("id IN ? AND invoice_id IS NULL", ids).
		Update("invoice_id", invoiceID).
		Error
}

// ListForUser returns a user's purchases newest first, optionally filtered by
// product name.
func (r *Repository) ListForUser(ctx context.Context, userID uint64, search string) ([]EntryDTO, error) {
	return r.list(ctx, &userID, search)
}

// ListAll returns every purchase with the buyer's username.
func (r *Repository) ListAll(ctx context.Context, search string) ([]EntryDTO, error) {
	return r.list(ctx, nil, search)
}

func (r *Repository) list(ctx context.Context, userID *uint64, search string) ([]EntryDTO, error) {
	query := r.db.WithContext(ctx).
		Table("purchase_history ph").
		Select(`ph.id, ph.user_id, COALESCE(u.username, '') AS username, ph.product_id,
COALESCE(NULLIF(ph.product_name, ''), p.name, '') AS product_name, COALESCE(p.image, '') AS product_image,
ph.quantity, ph.unit_price_at_purchase, ph.total, ph.purchased_at, ph.invoice_id`).
		Joins("LEFT JOIN products p ON p.id = ph.product_id").
		Joins("LEFT JOIN users u ON u.id = ph.user_id")

	if userID != nil {
		query = query.Where("ph.user_id = ?", *userID)
	}
	if needle := strings.ToLower(strings.TrimSpace(search)); needle != "" {
		query = query.Where("LOWER(COALESCE(NULLIF(ph.product_name, ''), p.name, '')) LIKE ?", "%"+needle+"%")
	}

	var rows []EntryDTO
	if err := query.Order("ph.purchased_at DESC").Order("ph.id DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].ProductImage = catalog.ImageURL(rows[i].ProductImage)
	}
	return rows, nil
}
