package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/amaraokeke/pearlstrands-backend/pkg/db/models"
	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
	pkgerrors "github.com/amaraokeke/pearlstrands-backend/pkg/errors"
)

type stubRepo struct {
	totalsByWindow map[time.Time]OrderTotals
	methods        []PaymentMethodSlice
}

func (s *stubRepo) OrderTotals(ctx context.Context, from, to time.Time) (OrderTotals, error) {
	return s.totalsByWindow[from], nil
}

func (s *stubRepo) SalesByDay(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	return nil, nil
}

func (s *stubRepo) RevenueByCategory(ctx context.Context, from, to time.Time) ([]CategoryRevenue, error) {
	return nil, nil
}

func (s *stubRepo) PaymentMethodDistribution(ctx context.Context, from, to time.Time) ([]PaymentMethodSlice, error) {
	return s.methods, nil
}

func (s *stubRepo) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]ProductSales, error) {
	return nil, nil
}

func (s *stubRepo) TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]CustomerSpend, error) {
	return nil, nil
}

func (s *stubRepo) NewCustomers(ctx context.Context, from, to time.Time) (int64, error) {
	return 0, nil
}

type stubLowStock struct {
	rows []models.Product
}

func (s *stubLowStock) ListLowStock(ctx context.Context) ([]models.Product, error) {
	return s.rows, nil
}

func TestGrowthSentinel(t *testing.T) {
	cases := []struct {
		name     string
		current  int64
		previous int64
		want     float64
	}{
		{"zero base with activity", 5000, 0, 100},
		{"zero base no activity", 0, 0, 0},
		{"doubling", 20000, 10000, 100},
		{"decline", 5000, 10000, -50},
		{"fractional", 10500, 10000, 5},
		{"rounded", 10001, 30000, -66.66},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Growth(tc.current, tc.previous); got != tc.want {
				t.Fatalf("Growth(%d, %d) = %v, want %v", tc.current, tc.previous, got, tc.want)
			}
		})
	}
}

func TestDashboardComputesAOVAndGrowth(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	prevFrom := from.Add(-to.Sub(from))

	repo := &stubRepo{totalsByWindow: map[time.Time]OrderTotals{
		from:     {OrderCount: 4, Revenue: 45000, Customers: 3},
		prevFrom: {OrderCount: 2, Revenue: 15000, Customers: 2},
	}}
	svc, err := NewService(repo, &stubLowStock{rows: []models.Product{{Name: "Argan Oil"}}})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	report, err := svc.Dashboard(context.Background(), Range{From: from, To: to})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if report.AverageOrderValue != 11250 {
		t.Fatalf("expected AOV 11250, got %d", report.AverageOrderValue)
	}
	if report.RevenueGrowth != 200 {
		t.Fatalf("expected revenue growth 200, got %v", report.RevenueGrowth)
	}
	if report.OrderGrowth != 100 {
		t.Fatalf("expected order growth 100, got %v", report.OrderGrowth)
	}
	if len(report.LowStock) != 1 {
		t.Fatalf("expected low stock report to pass through")
	}
}

func TestDashboardZeroOrders(t *testing.T) {
	repo := &stubRepo{totalsByWindow: map[time.Time]OrderTotals{}}
	svc, err := NewService(repo, &stubLowStock{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	report, err := svc.Dashboard(context.Background(), Range{})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if report.AverageOrderValue != 0 || report.RevenueGrowth != 0 || report.OrderGrowth != 0 {
		t.Fatalf("expected zeroed report, got %+v", report)
	}
}

func TestRevenueShares(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	repo := &stubRepo{
		totalsByWindow: map[time.Time]OrderTotals{
			from: {OrderCount: 8, Revenue: 80000},
		},
		methods: []PaymentMethodSlice{
			{Method: enums.PaymentMethodMobileMoney, Orders: 6, Revenue: 60000},
			{Method: enums.PaymentMethodCashOnDelivery, Orders: 2, Revenue: 20000},
		},
	}
	svc, err := NewService(repo, &stubLowStock{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	report, err := svc.Revenue(context.Background(), Range{From: from, To: to})
	if err != nil {
		t.Fatalf("revenue: %v", err)
	}
	if report.Total != 80000 {
		t.Fatalf("expected total 80000, got %d", report.Total)
	}
	if report.PaymentMethods[0].Share != 75 || report.PaymentMethods[1].Share != 25 {
		t.Fatalf("unexpected shares: %+v", report.PaymentMethods)
	}
}

func TestRangeValidation(t *testing.T) {
	repo := &stubRepo{totalsByWindow: map[time.Time]OrderTotals{}}
	svc, err := NewService(repo, &stubLowStock{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	now := time.Now().UTC()
	_, err = svc.Sales(context.Background(), Range{From: now, To: now.Add(-time.Hour)})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for inverted range, got %v", err)
	}
}
