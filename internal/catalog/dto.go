package catalog

import (
	"strings"
	"time"

	"github.com/freshmart/storefront-backend/pkg/pricing"
	"github.com/shopspring/decimal"
)

// PlaceholderImage is shown for products without an image.
const PlaceholderImage = "/images/placeholder-product.jpg"

// Sort orders accepted by List.
const (
	SortPriceAsc     = "price-asc"
	SortPriceDesc    = "price-desc"
	SortNameAsc      = "name-asc"
	SortNameDesc     = "name-desc"
	SortDiscountAsc  = "discount-asc"
	SortDiscountDesc = "discount-desc"
)

// Filter narrows the shopping list.
type Filter struct {
	Search   string
	Category string
	Sort     string
}

// ProductDTO is a catalog entry with its review aggregate.
type ProductDTO struct {
	ID                 uint64           `json:"id"`
	Name               string           `json:"name"`
	Price              decimal.Decimal  `json:"price"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage,omitempty"`
	DiscountPrice      *decimal.Decimal `json:"discountPrice,omitempty"`
	Stock              int              `json:"stock"`
	Category           string           `json:"category"`
	Description        string           `json:"description"`
	Image              string           `json:"image"`
	ImageFile          string           `json:"-"`
	AverageRating      float64          `json:"averageRating"`
	ReviewCount        int              `json:"reviewCount"`
	CreatedAt          time.Time        `json:"createdAt"`
}

// EffectivePrice is what a shopper pays per unit right now.
func (p ProductDTO) EffectivePrice() decimal.Decimal {
	return pricing.EffectivePrice(p.Price, p.DiscountPercentage)
}

// ProductInput is the admin create/update form after upload handling.
// Image is a stored file name; empty on update keeps the current one.
type ProductInput struct {
	Name               string
	Price              decimal.Decimal
	Stock              int
	Category           string
	Description        string
	DiscountPercentage *decimal.Decimal
	Image              string
}

// ImageURL resolves a stored image value into the path the browser loads.
func ImageURL(image string) string {
	image = strings.TrimSpace(image)
	switch {
	case image == "":
		return PlaceholderImage
	case strings.HasPrefix(image, "http"), strings.HasPrefix(image, "/"):
		return image
	default:
		return "/images/" + image
	}
}
