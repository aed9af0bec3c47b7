package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type Pagination struct {
	Page  int
	Limit int
}

func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Pagination{Page: page, Limit: limit}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

func (p Pagination) TotalPages(total int) int {
	if total == 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

type (
	ProductFilter struct {
		Category   Category
		Type       ProductType
		StoreID    string
		CreatorID  string
		Search     string
		ActiveOnly bool
		SortBy     string
		SortAsc    bool
		Pagination
	}

	StoreFilter struct {
		Search string
		Pagination
	}

	OrderFilter struct {
		CustomerID string
		StoreID    string
		Status     OrderStatus
		Search     string
		Pagination
	}

	CommissionFilter struct {
		ReferrerID string
		// Paid filters by commission payout state when set.
		Paid *bool
		Pagination
	}

	ReferralFilter struct {
		ReferrerID string
		// Converted filters paid plans (true) or the free plan (false).
		Converted *bool
		Pagination
	}
)

var productSortColumns = map[string]bool{
	"createdAt": true, "price": true, "sales": true, "views": true, "name": true,
}

func ValidProductSort(s string) bool {
	return productSortColumns[s]
}

type Timeframe string

const (
	Timeframe7d  Timeframe = "7d"
	Timeframe30d Timeframe = "30d"
	Timeframe90d Timeframe = "90d"
	Timeframe1y  Timeframe = "1y"
)

// Since returns the start of the timeframe. Unknown values mean 30 days.
func (t Timeframe) Since(now time.Time) time.Time {
	switch t {
	case Timeframe7d:
		return now.AddDate(0, 0, -7)
	case Timeframe90d:
		return now.AddDate(0, 0, -90)
	case Timeframe1y:
		return now.AddDate(-1, 0, 0)
	}
	return now.AddDate(0, 0, -30)
}

func ParseTimeframe(s string) Timeframe {
	switch t := Timeframe(s); t {
	case Timeframe7d, Timeframe30d, Timeframe90d, Timeframe1y:
		return t
	}
	return Timeframe30d
}

type (
	OrderSummary struct {
		TotalOrders      int64
		TotalRevenue     decimal.Decimal
		PendingOrders    int64
		ProcessingOrders int64
		ShippedOrders    int64
		CompletedOrders  int64
		CancelledOrders  int64
		AverageOrder     decimal.Decimal
	}

	DailyStat struct {
		Day     string
		Orders  int64
		Revenue decimal.Decimal
		// Commission is set for affiliate statistics only.
		Commission decimal.Decimal
	}

	CommissionSummary struct {
		Total       decimal.Decimal
		Paid        decimal.Decimal
		Unpaid      decimal.Decimal
		TotalOrders int64
	}

	ReferralDay struct {
		Day         string
		Referrals   int64
		Conversions int64
	}
)
