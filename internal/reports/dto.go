package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardDTO is the admin overview page.
type DashboardDTO struct {
	TotalRevenue  decimal.Decimal   `json:"totalRevenue"`
	OrderCount    int64             `json:"orderCount"`
	BestSeller    *BestSellerDTO    `json:"bestSeller,omitempty"`
	TopCustomer   *TopCustomerDTO   `json:"topCustomer,omitempty"`
	LowStock      []LowStockDTO     `json:"lowStock"`
	RecentOrders  []RecentOrderDTO  `json:"recentOrders"`
	DailyRevenue  []DailyRevenueDTO `json:"dailyRevenue"`
	LowStockLimit int               `json:"lowStockThreshold"`
}

type BestSellerDTO struct {
	ProductID   uint64 `db:"product_id" json:"productId"`
	ProductName string `db:"product_name" json:"productName"`
	Quantity    int64  `db:"quantity" json:"quantity"`
}

type TopCustomerDTO struct {
	UserID     uint64          `db:"user_id" json:"userId"`
	Username   string          `db:"username" json:"username"`
	TotalSpent decimal.Decimal `db:"total_spent" json:"totalSpent"`
	Orders     int64           `db:"orders" json:"orders"`
}

type LowStockDTO struct {
	ID       uint64 `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Stock    int    `db:"stock" json:"stock"`
	Category string `db:"category" json:"category"`
}

type RecentOrderDTO struct {
	ID           uint64          `db:"id" json:"id"`
	Number       string          `db:"number" json:"number"`
	IssuedAt     time.Time       `db:"issued_at" json:"issuedAt"`
	CustomerName string          `db:"customer_name" json:"customerName"`
	Username     string          `db:"username" json:"username"`
	Total        decimal.Decimal `db:"total" json:"total"`
}

// DailyRevenueDTO is one calendar day (UTC) of invoice totals.
type DailyRevenueDTO struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type revenueRow struct {
	IssuedAt time.Time       `db:"issued_at"`
	Total    decimal.Decimal `db:"total"`
}
