package discounts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amaraokeke/pearlstrands-backend/pkg/db/models"
	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
)

// Repository exposes discount code persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, code *models.DiscountCode) (*models.DiscountCode, error)
	Update(ctx context.Context, code *models.DiscountCode) (*models.DiscountCode, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error)
	FindByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	List(ctx context.Context) ([]models.DiscountCode, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ConsumeUse(ctx context.Context, id uuid.UUID) (bool, error)
	CountUserOrders(ctx context.Context, userID, discountCodeID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a discounts repo bound to the provided GORM DB.
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

// Create inserts a new discount code.
func (r *repository) Create(ctx context.Context, code *models.DiscountCode) (*models.DiscountCode, error) {
	if err := r.db.WithContext(ctx).Create(code).Error; err != nil {
		return nil, err
	}
	return code, nil
}

// Update persists the full discount row.
func (r *repository) Update(ctx context.Context, code *models.DiscountCode) (*models.DiscountCode, error) {
	if err := r.db.WithContext(ctx).Save(code).Error; err != nil {
		return nil, err
	}
	return code, nil
}

// FindByID loads a discount code by its UUID.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	var code models.DiscountCode
	if err := r.db.WithContext(ctx).First(&code, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

// FindByCode loads a discount by its case-insensitive code.
func (r *repository) FindByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var row models.DiscountCode
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// List returns all discount codes, newest first.
func (r *repository) List(ctx context.Context) ([]models.DiscountCode, error) {
	var rows []models.DiscountCode
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes a code. Existing orders keep their discount_amount snapshot;
// the foreign key nulls their code reference.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.DiscountCode{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ConsumeUse bumps used_count under a guard so the global cap can never be
// exceeded by concurrent checkouts. Returns false when the cap is hit.
func (r *repository) ConsumeUse(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("id = ? AND (max_uses IS NULL OR used_count < max_uses)", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CountUserOrders returns how many non-cancelled orders the user has placed
// with the given discount code.
func (r *repository) CountUserOrders(ctx context.Context, userID, discountCodeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ? AND discount_code_id = ? AND status <> ?", userID, discountCodeID, enums.OrderStatusCancelled).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
