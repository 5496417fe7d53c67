package reports

import (
	"context"
	"time"

	"github.com/freshmart/storefront-backend/pkg/config"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

type Service interface {
	Dashboard(ctx context.Context) (*DashboardDTO, error)
}

type store interface {
	Totals(ctx context.Context) (decimal.Decimal, int64, error)
	BestSeller(ctx context.Context) (*BestSellerDTO, error)
	TopCustomer(ctx context.Context) (*TopCustomerDTO, error)
	LowStock(ctx context.Context, threshold int) ([]LowStockDTO, error)
	RecentOrders(ctx context.Context, limit int) ([]RecentOrderDTO, error)
	RevenueSince(ctx context.Context, since time.Time) ([]revenueRow, error)
}

type ServiceParams struct {
	Repo   store
	Config config.StoreConfig
	Now    func() time.Time
}

type service struct {
	repo store
	cfg  config.StoreConfig
	now  func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reports repo is required")
	}
	cfg := params.Config
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = 20
	}
	if cfg.RecentOrders <= 0 {
		cfg.RecentOrders = 6
	}
	if cfg.RevenueDays <= 0 {
		cfg.RevenueDays = 7
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, cfg: cfg, now: now}, nil
}

func (s *service) Dashboard(ctx context.Context) (*DashboardDTO, error) {
	revenue, orders, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, wrap(err, "load totals")
	}
	best, err := s.repo.BestSeller(ctx)
	if err != nil {
		return nil, wrap(err, "load best seller")
	}
	top, err := s.repo.TopCustomer(ctx)
	if err != nil {
		return nil, wrap(err, "load top customer")
	}
	if top != nil {
		top.TotalSpent = top.TotalSpent.Round(2)
	}
	low, err := s.repo.LowStock(ctx, s.cfg.LowStockThreshold)
	if err != nil {
		return nil, wrap(err, "load low stock")
	}
	recent, err := s.repo.RecentOrders(ctx, s.cfg.RecentOrders)
	if err != nil {
		return nil, wrap(err, "load recent orders")
	}

	days := dayWindow(s.now(), s.cfg.RevenueDays)
	rows, err := s.repo.RevenueSince(ctx, days[0])
	if err != nil {
		return nil, wrap(err, "load daily revenue")
	}

	return &DashboardDTO{
		TotalRevenue:  revenue.Round(2),
		OrderCount:    orders,
		BestSeller:    best,
		TopCustomer:   top,
		LowStock:      low,
		RecentOrders:  recent,
		DailyRevenue:  bucketByDay(days, rows),
		LowStockLimit: s.cfg.LowStockThreshold,
	}, nil
}

// dayWindow returns the UTC midnights of the last n days, oldest first.
func dayWindow(now time.Time, n int) []time.Time {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := make([]time.Time, n)
	for i := 0; i < n; i++ {
		days[i] = today.AddDate(0, 0, i-(n-1))
	}
	return days
}

func bucketByDay(days []time.Time, rows []revenueRow) []DailyRevenueDTO {
	out := make([]DailyRevenueDTO, len(days))
	index := make(map[string]int, len(days))
	for i, day := range days {
		key := day.Format(time.DateOnly)
		out[i] = DailyRevenueDTO{Date: key, Revenue: decimal.Zero}
		index[key] = i
	}
	for _, row := range rows {
		i, ok := index[row.IssuedAt.UTC().Format(time.DateOnly)]
		if !ok {
			continue
		}
		out[i].Revenue = out[i].Revenue.Add(row.Total)
		out[i].Orders++
	}
	for i := range out {
		out[i].Revenue = out[i].Revenue.Round(2)
	}
	return out
}

func wrap(err error, action string) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
