package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amaraokeke/pearlstrands-backend/pkg/db/models"
	pkgerrors "github.com/amaraokeke/pearlstrands-backend/pkg/errors"
)

const (
	defaultRangeDays = 30
	defaultTopLimit  = 10
	maxTopLimit      = 50
)

// Range is a half-open reporting window [From, To).
type Range struct {
	From time.Time
	To   time.Time
}

// DashboardReport is the admin landing figures for a period, with
// period-over-period growth against the immediately preceding window of the
// same length.
type DashboardReport struct {
	Range             Range            `json:"range"`
	OrderCount        int64            `json:"orderCount"`
	Revenue           int64            `json:"revenue"`
	AverageOrderValue int64            `json:"averageOrderValue"`
	DistinctCustomers int64            `json:"distinctCustomers"`
	NewCustomers      int64            `json:"newCustomers"`
	RevenueGrowth     float64          `json:"revenueGrowth"`
	OrderGrowth       float64          `json:"orderGrowth"`
	LowStock          []models.Product `json:"lowStock"`
}

type SalesReport struct {
	Range  Range        `json:"range"`
	Series []DailySales `json:"series"`
}

type ProductsReport struct {
	Range Range          `json:"range"`
	Top   []ProductSales `json:"top"`
}

type CustomersReport struct {
	Range Range           `json:"range"`
	Top   []CustomerSpend `json:"top"`
}

// PaymentShare carries the method's percentage of the period's orders.
type PaymentShare struct {
	PaymentMethodSlice
	Share float64 `json:"share"`
}

type RevenueReport struct {
	Range          Range             `json:"range"`
	Total          int64             `json:"total"`
	ByCategory     []CategoryRevenue `json:"byCategory"`
	PaymentMethods []PaymentShare    `json:"paymentMethods"`
}

// Service serves the admin reporting endpoints. Read-only.
type Service interface {
	Dashboard(ctx context.Context, rng Range) (*DashboardReport, error)
	Sales(ctx context.Context, rng Range) (*SalesReport, error)
	Products(ctx context.Context, rng Range, limit int) (*ProductsReport, error)
	Customers(ctx context.Context, rng Range, limit int) (*CustomersReport, error)
	Revenue(ctx context.Context, rng Range) (*RevenueReport, error)
}

type lowStockLister interface {
	ListLowStock(ctx context.Context) ([]models.Product, error)
}

type service struct {
	repo     Repository
	lowStock lowStockLister
	now      func() time.Time
}

// NewService builds the analytics service. The low-stock lister is the
// product repository; the report reuses its threshold query.
func NewService(repo Repository, lowStock lowStockLister) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	if lowStock == nil {
		return nil, fmt.Errorf("low stock lister required")
	}
	return &service{
		repo:     repo,
		lowStock: lowStock,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Growth returns the period-over-period change in percent. A zero previous
// value cannot produce a ratio, so the dashboard convention applies: 100 when
// the current period has any activity, otherwise 0.
func Growth(current, previous int64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	ratio := decimal.NewFromInt(current - previous).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(previous)).
		Round(2)
	result, _ := ratio.Float64()
	return result
}

// normalize fills an empty range with the trailing default window and rejects
// inverted bounds.
func (s *service) normalize(rng Range) (Range, error) {
	if rng.From.IsZero() && rng.To.IsZero() {
		now := s.now()
		return Range{From: now.AddDate(0, 0, -defaultRangeDays), To: now}, nil
	}
	if rng.To.IsZero() {
		rng.To = s.now()
	}
	if rng.From.IsZero() {
		rng.From = rng.To.AddDate(0, 0, -defaultRangeDays)
	}
	if !rng.From.Before(rng.To) {
		return Range{}, pkgerrors.New(pkgerrors.CodeValidation, "range start must precede range end")
	}
	return rng, nil
}

// previousWindow is the window of identical length ending where rng begins.
func previousWindow(rng Range) Range {
	length := rng.To.Sub(rng.From)
	return Range{From: rng.From.Add(-length), To: rng.From}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultTopLimit
	}
	if limit > maxTopLimit {
		return maxTopLimit
	}
	return limit
}

func (s *service) Dashboard(ctx context.Context, rng Range) (*DashboardReport, error) {
	rng, err := s.normalize(rng)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.OrderTotals(ctx, rng.From, rng.To)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate current period")
	}
	prev := previousWindow(rng)
	previous, err := s.repo.OrderTotals(ctx, prev.From, prev.To)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate previous period")
	}
	newCustomers, err := s.repo.NewCustomers(ctx, rng.From, rng.To)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count new customers")
	}
	lowStock, err := s.lowStock.ListLowStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list low stock products")
	}

	report := &DashboardReport{
		Range:             rng,
		OrderCount:        current.OrderCount,
		Revenue:           current.Revenue,
		DistinctCustomers: current.Customers,
		NewCustomers:      newCustomers,
		RevenueGrowth:     Growth(current.Revenue, previous.Revenue),
		OrderGrowth:       Growth(current.OrderCount, previous.OrderCount),
		LowStock:          lowStock,
	}
	if current.OrderCount > 0 {
		report.AverageOrderValue = decimal.NewFromInt(current.Revenue).
			Div(decimal.NewFromInt(current.OrderCount)).
			Truncate(0).
			IntPart()
	}
	return report, nil
}

func (s *service) Sales(ctx context.Context, rng Range) (*SalesReport, error) {
	rng, err := s.normalize(rng)
	if err != nil {
		return nil, err
	}
	series, err := s.repo.SalesByDay(ctx, rng.From, rng.To)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate daily sales")
	}
	return &SalesReport{Range: rng, Series: series}, nil
}

func (s *service) Products(ctx context.Context, rng Range, limit int) (*ProductsReport, error) {
	rng, err := s.normalize(rng)
	if err != nil {
		return nil, err
	}
	top, err := s.repo.TopProducts(ctx, rng.From, rng.To, normalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rank products")
	}
	return &ProductsReport{Range: rng, Top: top}, nil
}

func (s *service) Customers(ctx context.Context, rng Range, limit int) (*CustomersReport, error) {
	rng, err := s.normalize(rng)
	if err != nil {
		return nil, err
	}
	top, err := s.repo.TopCustomers(ctx, rng.From, rng.To, normalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rank customers")
	}
	return &CustomersReport{Range: rng, Top: top}, nil
}

func (s *service) Revenue(ctx context.Context, rng Range) (*RevenueReport, error) {
	rng, err := s.normalize(rng)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.OrderTotals(ctx, rng.From, rng.To)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate revenue")
	}
	byCategory, err := s.repo.RevenueByCategory(ctx, rng.From, rng.To)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate revenue by category")
	}
	methods, err := s.repo.PaymentMethodDistribution(ctx, rng.From, rng.To)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate payment methods")
	}

	shares := make([]PaymentShare, 0, len(methods))
	for _, slice := range methods {
		share := 0.0
		if totals.OrderCount > 0 {
			value := decimal.NewFromInt(slice.Orders).
				Mul(decimal.NewFromInt(100)).
				Div(decimal.NewFromInt(totals.OrderCount)).
				Round(2)
			share, _ = value.Float64()
		}
		shares = append(shares, PaymentShare{PaymentMethodSlice: slice, Share: share})
	}

	return &RevenueReport{
		Range:          rng,
		Total:          totals.Revenue,
		ByCategory:     byCategory,
		PaymentMethods: shares,
	}, nil
}
