package reports

import (
	"context"
	"testing"
	"time"

	"github.com/freshmart/storefront-backend/pkg/config"
	"github.com/freshmart/storefront-backend/pkg/db/dbtest"
	"github.com/freshmart/storefront-backend/pkg/db/models"
	"github.com/freshmart/storefront-backend/pkg/enums"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

var reportNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func seedStore(t *testing.T) *Repository {
	t.Helper()
	conn := dbtest.Open(t, "reports")
	sqlDB, err := conn.DB()
	require.NoError(t, err)

	ana := models.User{Username: "ana", Email: "ana@example.com", PasswordHash: "x", Role: enums.RoleUser}
	ben := models.User{Username: "ben", Email: "ben@example.com", PasswordHash: "x", Role: enums.RoleUser}
	require.NoError(t, conn.Create(&ana).Error)
	require.NoError(t, conn.Create(&ben).Error)

	products := []models.Product{
		{Name: "Apple", Price: dec("1.20"), Stock: 100, Category: "Fruit"},
		{Name: "Bread", Price: dec("3.00"), Stock: 20, Category: "Bakery"},
		{Name: "Eggs", Price: dec("4.50"), Stock: 3, Category: "Dairy"},
	}
	require.NoError(t, conn.Create(&products).Error)

	invoices := []models.Invoice{
		{UserID: ana.ID, Number: "INV-1", IssuedAt: reportNow.AddDate(0, 0, -10), CustomerName: "Ana", PaymentMethod: "Card", Subtotal: dec("40"), Total: dec("43.60")},
		{UserID: ana.ID, Number: "INV-2", IssuedAt: reportNow.AddDate(0, 0, -1), CustomerName: "Ana", PaymentMethod: "Card", Subtotal: dec("10"), Total: dec("15.90")},
		{UserID: ben.ID, Number: "INV-3", IssuedAt: reportNow.Add(-2 * time.Hour), CustomerName: "Ben", PaymentMethod: "PayNow / PayLah QR", Subtotal: dec("50"), Total: dec("54.50")},
		{UserID: ben.ID, Number: "INV-4", IssuedAt: reportNow.Add(-time.Hour), CustomerName: "Ben", PaymentMethod: "Card", Subtotal: dec("1.20"), Total: dec("6.31")},
	}
	require.NoError(t, conn.Create(&invoices).Error)

	history := []models.PurchaseHistory{
		{UserID: ana.ID, ProductID: products[0].ID, ProductName: "Apple", Quantity: 4, UnitPriceAtPurchase: dec("1.20"), Total: dec("4.80"), PurchasedAt: reportNow},
		{UserID: ben.ID, ProductID: products[1].ID, ProductName: "Bread", Quantity: 3, UnitPriceAtPurchase: dec("3.00"), Total: dec("9.00"), PurchasedAt: reportNow},
		{UserID: ben.ID, ProductID: products[0].ID, ProductName: "Apple", Quantity: 2, UnitPriceAtPurchase: dec("1.20"), Total: dec("2.40"), PurchasedAt: reportNow},
	}
	require.NoError(t, conn.Create(&history).Error)

	return NewRepository(sqlx.NewDb(sqlDB, "sqlite3"))
}

func TestDashboardAggregates(t *testing.T) {
	repo := seedStore(t)
	svc, err := NewService(ServiceParams{
		Repo:   repo,
		Config: config.StoreConfig{LowStockThreshold: 20, RecentOrders: 3, RevenueDays: 7},
		Now:    func() time.Time { return reportNow },
	})
	require.NoError(t, err)

	dash, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.True(t, dash.TotalRevenue.Equal(dec("120.31")), "got %s", dash.TotalRevenue)
	assert.Equal(t, int64(4), dash.OrderCount)

	require.NotNil(t, dash.BestSeller)
	assert.Equal(t, "Apple", dash.BestSeller.ProductName)
	assert.Equal(t, int64(6), dash.BestSeller.Quantity)

	require.NotNil(t, dash.TopCustomer)
	assert.Equal(t, "ben", dash.TopCustomer.Username)
	assert.True(t, dash.TopCustomer.TotalSpent.Equal(dec("60.81")), "got %s", dash.TopCustomer.TotalSpent)
	assert.Equal(t, int64(2), dash.TopCustomer.Orders)

	require.Len(t, dash.LowStock, 2)
	assert.Equal(t, "Eggs", dash.LowStock[0].Name)
	assert.Equal(t, "Bread", dash.LowStock[1].Name)
	assert.Equal(t, 20, dash.LowStockLimit)

	require.Len(t, dash.RecentOrders, 3)
	assert.Equal(t, "INV-4", dash.RecentOrders[0].Number)
	assert.Equal(t, "ben", dash.RecentOrders[0].Username)
	assert.Equal(t, "INV-2", dash.RecentOrders[2].Number)

	require.Len(t, dash.DailyRevenue, 7)
	assert.Equal(t, "2026-03-04", dash.DailyRevenue[0].Date)
	today := dash.DailyRevenue[6]
	assert.Equal(t, "2026-03-10", today.Date)
	assert.Equal(t, 2, today.Orders)
	assert.True(t, today.Revenue.Equal(dec("60.81")), "got %s", today.Revenue)
	yesterday := dash.DailyRevenue[5]
	assert.True(t, yesterday.Revenue.Equal(dec("15.90")), "got %s", yesterday.Revenue)
	assert.True(t, dash.DailyRevenue[0].Revenue.IsZero())
}

func TestDashboardEmptyStore(t *testing.T) {
	conn := dbtest.Open(t, "reports_empty")
	sqlDB, err := conn.DB()
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{Repo: NewRepository(sqlx.NewDb(sqlDB, "sqlite3"))})
	require.NoError(t, err)

	dash, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.True(t, dash.TotalRevenue.IsZero())
	assert.Zero(t, dash.OrderCount)
	assert.Nil(t, dash.BestSeller)
	assert.Nil(t, dash.TopCustomer)
	assert.Empty(t, dash.LowStock)
	assert.Empty(t, dash.RecentOrders)
	assert.Len(t, dash.DailyRevenue, 7)
}

func TestNewServiceRequiresRepo(t *testing.T) {
	t.Parallel()

	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error without repo")
	}
}

func TestDayWindowCrossesMonth(t *testing.T) {
	t.Parallel()

	days := dayWindow(time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC), 3)
	got := []string{}
	for _, d := range days {
		got = append(got, d.Format(time.DateOnly))
	}
	want := []string{"2026-02-28", "2026-03-01", "2026-03-02"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("day %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
