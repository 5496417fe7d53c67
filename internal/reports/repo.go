package reports

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/freshmart/storefront-backend/pkg/db"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Repository runs the dashboard aggregates with hand-written SQL that stays
// portable across mysql, postgres and sqlite.
type Repository struct {
	DB *sqlx.DB
}

func NewRepository(conn *sqlx.DB) *Repository {
	return &Repository{DB: conn}
}

// NewRepositoryFromClient shares the gorm connection pool with sqlx.
func NewRepositoryFromClient(client *db.Client) (*Repository, error) {
	sqlDB, err := client.DB().DB()
	if err != nil {
		return nil, err
	}
	return NewRepository(sqlx.NewDb(sqlDB, client.SQLDriverName())), nil
}

func (r *Repository) Totals(ctx context.Context) (decimal.Decimal, int64, error) {
	var row struct {
		Revenue decimal.Decimal `db:"revenue"`
		Orders  int64           `db:"orders"`
	}
	query := `SELECT COALESCE(SUM(total), 0) AS revenue, COUNT(*) AS orders FROM invoices`
	if err := r.DB.GetContext(ctx, &row, query); err != nil {
		return decimal.Zero, 0, err
	}
	return row.Revenue, row.Orders, nil
}

func (r *Repository) BestSeller(ctx context.Context) (*BestSellerDTO, error) {
	var best BestSellerDTO
	query := `
        SELECT ph.product_id, COALESCE(MAX(p.name), MAX(ph.product_name), '') AS product_name, SUM(ph.quantity) AS quantity
        FROM purchase_history ph
        LEFT JOIN products p ON p.id = ph.product_id
        GROUP BY ph.product_id
        ORDER BY quantity DESC, ph.product_id ASC
        LIMIT 1
    `
	if err := r.DB.GetContext(ctx, &best, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &best, nil
}

func (r *Repository) TopCustomer(ctx context.Context) (*TopCustomerDTO, error) {
	var top TopCustomerDTO
	query := `
        SELECT i.user_id, COALESCE(MAX(u.username), '') AS username, SUM(i.total) AS total_spent, COUNT(*) AS orders
        FROM invoices i
        LEFT JOIN users u ON u.id = i.user_id
        GROUP BY i.user_id
        ORDER BY total_spent DESC, i.user_id ASC
        LIMIT 1
    `
	if err := r.DB.GetContext(ctx, &top, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &top, nil
}

func (r *Repository) LowStock(ctx context.Context, threshold int) ([]LowStockDTO, error) {
	products := []LowStockDTO{}
	query := r.DB.Rebind(`
        SELECT id, name, quantity AS stock, category
        FROM products
        WHERE quantity <= ?
        ORDER BY quantity ASC, name ASC
    `)
	if err := r.DB.SelectContext(ctx, &products, query, threshold); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *Repository) RecentOrders(ctx context.Context, limit int) ([]RecentOrderDTO, error) {
	orders := []RecentOrderDTO{}
	query := r.DB.Rebind(`
        SELECT i.id, i.number, i.issued_at, i.customer_name, COALESCE(u.username, '') AS username, i.total
        FROM invoices i
        LEFT JOIN users u ON u.id = i.user_id
        ORDER BY i.issued_at DESC, i.id DESC
        LIMIT ?
    `)
	if err := r.DB.SelectContext(ctx, &orders, query, limit); err != nil {
		return nil, err
	}
	return orders, nil
}

// RevenueSince returns raw invoice totals; bucketing by day happens in Go so the
// query needs no dialect-specific date functions.
func (r *Repository) RevenueSince(ctx context.Context, since time.Time) ([]revenueRow, error) {
	rows := []revenueRow{}
	query := r.DB.Rebind(`SELECT issued_at, total FROM invoices WHERE issued_at >= ? ORDER BY issued_at ASC`)
	if err := r.DB.SelectContext(ctx, &rows, query, since.UTC()); err != nil {
		return nil, err
	}
	return rows, nil
}
