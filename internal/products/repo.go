package products

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amaraokeke/pearlstrands-backend/pkg/db/models"
	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
	"github.com/amaraokeke/pearlstrands-backend/pkg/pagination"
)

// ListFilter narrows catalog listings.
type ListFilter struct {
	Category *enums.ProductCategory
	Status   *enums.ProductStatus
	Query    string
}

// Repository wires together product persistence, including the guarded
// stock mutations used by the order engine.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, filter ListFilter, limit int, cursor *pagination.Cursor) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error)
	RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error
	SyncStockStatus(ctx context.Context, id uuid.UUID) error
	ListLowStock(ctx context.Context) ([]models.Product, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindByID loads the product, excluding soft-deleted rows.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads the product by its URL slug, excluding soft-deleted rows.
func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("slug = ? AND deleted_at IS NULL", slug).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns a page of products matching the filter, newest first.
func (r *repository) List(ctx context.Context, filter ListFilter, limit int, cursor *pagination.Cursor) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("deleted_at IS NULL")

	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Product
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts a new product.
func (r *repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update persists the full product row.
func (r *repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// SoftDelete marks the product deleted without touching historical orders.
func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("deleted_at", at).Error
}

// IncrementViewCount bumps the product's view counter in place.
func (r *repository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// DecrementStock atomically reserves quantity. The WHERE guard rejects the
// update when remaining stock is insufficient, so concurrent orders can
// never drive stock_quantity negative. Returns false when the guard failed.
func (r *repository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND deleted_at IS NULL AND stock_quantity >= ?", id, quantity).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", quantity),
			"sales_count":    gorm.Expr("sales_count + ?", quantity),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RestoreStock reverses a prior decrement when an order is cancelled.
func (r *repository) RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity + ?", quantity),
			"sales_count":    gorm.Expr("sales_count - ?", quantity),
		}).Error
}

// SyncStockStatus reconciles status with the current stock level: a drained
// product flips to OUT_OF_STOCK and a replenished OUT_OF_STOCK product
// returns to ACTIVE. Other statuses are left alone.
func (r *repository) SyncStockStatus(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx).Model(&models.Product{})
	err := tx.
		Where("id = ? AND stock_quantity <= 0 AND status = ?", id, enums.ProductStatusActive).
		UpdateColumn("status", enums.ProductStatusOutOfStock).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock_quantity > 0 AND status = ?", id, enums.ProductStatusOutOfStock).
		UpdateColumn("status", enums.ProductStatusActive).Error
}

// ListLowStock returns non-deleted products at or below their own threshold.
func (r *repository) ListLowStock(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL AND stock_quantity <= low_stock_threshold").
		Order("stock_quantity ASC, name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
