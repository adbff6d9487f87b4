package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amaraokeke/pearlstrands-backend/pkg/db/models"
	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
)

// OrderTotals is the base aggregate over a period. Cancelled orders are
// excluded so revenue reflects money actually committed.
type OrderTotals struct {
	OrderCount int64
	Revenue    int64
	Customers  int64
}

type DailySales struct {
	Day     string
	Orders  int64
	Revenue int64
}

type CategoryRevenue struct {
	Category enums.ProductCategory
	Units    int64
	Revenue  int64
}

type PaymentMethodSlice struct {
	Method  enums.PaymentMethod
	Orders  int64
	Revenue int64
}

type ProductSales struct {
	ProductID uuid.UUID
	Name      string
	SKU       string
	Units     int64
	Revenue   int64
}

type CustomerSpend struct {
	UserID    uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Orders    int64
	Spend     int64
}

// Repository runs the read-side aggregate queries for reporting.
type Repository interface {
	OrderTotals(ctx context.Context, from, to time.Time) (OrderTotals, error)
	SalesByDay(ctx context.Context, from, to time.Time) ([]DailySales, error)
	RevenueByCategory(ctx context.Context, from, to time.Time) ([]CategoryRevenue, error)
	PaymentMethodDistribution(ctx context.Context, from, to time.Time) ([]PaymentMethodSlice, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]ProductSales, error)
	TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]CustomerSpend, error)
	NewCustomers(ctx context.Context, from, to time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds the analytics repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) countedOrders(ctx context.Context, from, to time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("orders.status <> ?", enums.OrderStatusCancelled).
		Where("orders.created_at >= ? AND orders.created_at < ?", from, to)
}

func (r *repository) OrderTotals(ctx context.Context, from, to time.Time) (OrderTotals, error) {
	var row OrderTotals
	err := r.countedOrders(ctx, from, to).
		Select("COUNT(*) AS order_count, COALESCE(SUM(total), 0) AS revenue, COUNT(DISTINCT user_id) AS customers").
		Scan(&row).Error
	return row, err
}

func (r *repository) SalesByDay(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	var rows []DailySales
	err := r.countedOrders(ctx, from, to).
		Select("DATE(orders.created_at) AS day, COUNT(*) AS orders, COALESCE(SUM(total), 0) AS revenue").
		Group("DATE(orders.created_at)").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) RevenueByCategory(ctx context.Context, from, to time.Time) ([]CategoryRevenue, error) {
	var rows []CategoryRevenue
	err := r.countedOrders(ctx, from, to).
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Select("products.category AS category, COALESCE(SUM(order_items.quantity), 0) AS units, COALESCE(SUM(order_items.subtotal), 0) AS revenue").
		Group("products.category").
		Order("revenue DESC, products.category ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) PaymentMethodDistribution(ctx context.Context, from, to time.Time) ([]PaymentMethodSlice, error) {
	var rows []PaymentMethodSlice
	err := r.countedOrders(ctx, from, to).
		Select("payment_method AS method, COUNT(*) AS orders, COALESCE(SUM(total), 0) AS revenue").
		Group("payment_method").
		Order("orders DESC, payment_method ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]ProductSales, error) {
	var rows []ProductSales
	err := r.countedOrders(ctx, from, to).
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Select("order_items.product_id AS product_id, order_items.product_name AS name, order_items.sku AS sku, COALESCE(SUM(order_items.quantity), 0) AS units, COALESCE(SUM(order_items.subtotal), 0) AS revenue").
		Group("order_items.product_id, order_items.product_name, order_items.sku").
		Order("revenue DESC, product_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *repository) TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]CustomerSpend, error) {
	var rows []CustomerSpend
	err := r.countedOrders(ctx, from, to).
		Joins("JOIN users ON users.id = orders.user_id").
		Select("orders.user_id AS user_id, users.first_name AS first_name, users.last_name AS last_name, users.email AS email, COUNT(*) AS orders, COALESCE(SUM(orders.total), 0) AS spend").
		Group("orders.user_id, users.first_name, users.last_name, users.email").
		Order("spend DESC, user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *repository) NewCustomers(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", enums.UserRoleCustomer).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&count).Error
	return count, err
}
