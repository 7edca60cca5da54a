package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatsQuery selects the order window for a dashboard read.
// Zero From/To means no date filter.
type StatsQuery struct {
	From time.Time
	To   time.Time
	TopN int
}

// HasRange reports whether both bounds are set
func (q StatsQuery) HasRange() bool {
	return !q.From.IsZero() && !q.To.IsZero()
}

// StatsTotals are the headline numbers on the dashboard
type StatsTotals struct {
	TotalSales     decimal.Decimal `json:"totalSales"`
	OrderCount     int64           `json:"orderCount"`
	ProductCount   int64           `json:"productCount"`
	CustomerCount  int64           `json:"customerCount"`
	AvgOrderValue  decimal.Decimal `json:"avgOrderValue"`
	RevPerCustomer decimal.Decimal `json:"revPerCustomer"`
}

// DailyPoint is one day of the sales series
type DailyPoint struct {
	Date   string          `json:"date"`
	Sales  decimal.Decimal `json:"sales"`
	Orders int             `json:"orders"`
}

// Stats is the full dashboard payload
type Stats struct {
	Stats        StatsTotals  `json:"stats"`
	Orders       []Order      `json:"orders"`
	ChartData    []DailyPoint `json:"chartData"`
	TopCustomers []Customer   `json:"topCustomers"`
	IsConnected  bool         `json:"isConnected"`
	ShopDomain   string       `json:"shopDomain,omitempty"`
}
