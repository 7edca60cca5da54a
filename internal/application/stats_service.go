package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	recentOrdersLimit = 50
	defaultTopN       = 5
	maxTopN           = 50
	dateLayout        = "2006-01-02"
)

// StatsService builds the dashboard payload from stored data only
type StatsService struct {
	tenants ports.TenantRepository
	stats   ports.StatsRepository
	logger  zerolog.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(tenants ports.TenantRepository, stats ports.StatsRepository, logger zerolog.Logger) *StatsService {
	return &StatsService{tenants: tenants, stats: stats, logger: logger}
}

// ParseStatsQuery turns YYYY-MM-DD bounds into a half-open UTC window.
// The end date is inclusive of the whole day. A range is only applied when
// both bounds are given.
func ParseStatsQuery(startDate, endDate string, top int) (domain.StatsQuery, error) {
	q := domain.StatsQuery{TopN: top}
	if q.TopN <= 0 {
		q.TopN = defaultTopN
	}
	if q.TopN > maxTopN {
		q.TopN = maxTopN
	}
	if startDate == "" || endDate == "" {
		return q, nil
	}

	from, err := time.ParseInLocation(dateLayout, startDate, time.UTC)
	if err != nil {
		return q, fmt.Errorf("%w: startDate must be YYYY-MM-DD", domain.ErrMalformedPayload)
	}
	to, err := time.ParseInLocation(dateLayout, endDate, time.UTC)
	if err != nil {
		return q, fmt.Errorf("%w: endDate must be YYYY-MM-DD", domain.ErrMalformedPayload)
	}
	if to.Before(from) {
		return q, fmt.Errorf("%w: endDate is before startDate", domain.ErrMalformedPayload)
	}
	q.From = from
	q.To = to.AddDate(0, 0, 1)
	return q, nil
}

// Stats returns totals, recent orders, the daily series and top customers
func (s *StatsService) Stats(ctx context.Context, tenantID string, q domain.StatsQuery) (*domain.Stats, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}
	if tenant == nil {
		return nil, domain.ErrTenantNotFound
	}
	if q.TopN <= 0 {
		q.TopN = defaultTopN
	}

	totalSales, orderCount, err := s.stats.SalesSummary(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}
	productCount, err := s.stats.CountProducts(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	customerCount, err := s.stats.CountCustomers(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	recent, err := s.stats.RecentOrders(ctx, tenantID, q, recentOrdersLimit)
	if err != nil {
		return nil, err
	}
	inRange, err := s.stats.OrdersInRange(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}
	top, err := s.stats.TopCustomers(ctx, tenantID, q.TopN)
	if err != nil {
		return nil, err
	}

	return &domain.Stats{
		Stats: domain.StatsTotals{
			TotalSales:     totalSales.Round(2),
			OrderCount:     orderCount,
			ProductCount:   productCount,
			CustomerCount:  customerCount,
			AvgOrderValue:  safeDiv(totalSales, orderCount),
			RevPerCustomer: safeDiv(totalSales, customerCount),
		},
		Orders:       recent,
		ChartData:    DailySeries(inRange),
		TopCustomers: top,
		IsConnected:  tenant.IsConnected(),
		ShopDomain:   tenant.Shop(),
	}, nil
}

func safeDiv(total decimal.Decimal, n int64) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(n)).Round(2)
}

// DailySeries groups orders by UTC calendar day, ascending by date
func DailySeries(orders []domain.Order) []domain.DailyPoint {
	byDay := make(map[string]*domain.DailyPoint)
	for _, o := range orders {
		day := o.CreatedAt.UTC().Format(dateLayout)
		point, ok := byDay[day]
		if !ok {
			point = &domain.DailyPoint{Date: day, Sales: decimal.Zero}
			byDay[day] = point
		}
		point.Sales = point.Sales.Add(o.TotalPrice)
		point.Orders++
	}

	series := make([]domain.DailyPoint, 0, len(byDay))
	for _, p := range byDay {
		series = append(series, *p)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series
}
