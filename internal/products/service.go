package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amaraokeke/pearlstrands-backend/pkg/db"
	"github.com/amaraokeke/pearlstrands-backend/pkg/db/models"
	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
	pkgerrors "github.com/amaraokeke/pearlstrands-backend/pkg/errors"
	"github.com/amaraokeke/pearlstrands-backend/pkg/pagination"
)

// Service exposes catalog reads for the storefront and product management
// for the back office.
type Service interface {
	ListCatalog(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[models.Product], error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListAdmin(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[models.Product], error)
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	Delete(ctx context.Context, productID uuid.UUID) error
	AdjustInventory(ctx context.Context, productID uuid.UUID, input InventoryInput) (*models.Product, error)
	ListLowStock(ctx context.Context) ([]models.Product, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	SKU               string                `json:"sku" validate:"required"`
	Name              string                `json:"name" validate:"required"`
	Description       *string               `json:"description,omitempty"`
	Category          enums.ProductCategory `json:"category" validate:"required"`
	Price             int64                 `json:"price" validate:"required,gt=0"`
	CompareAtPrice    *int64                `json:"compareAtPrice,omitempty"`
	StockQuantity     int                   `json:"stockQuantity" validate:"gte=0"`
	LowStockThreshold *int                  `json:"lowStockThreshold,omitempty"`
	Image             *string               `json:"image,omitempty"`
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name              *string                `json:"name,omitempty"`
	Description       *string                `json:"description,omitempty"`
	Category          *enums.ProductCategory `json:"category,omitempty"`
	Price             *int64                 `json:"price,omitempty"`
	CompareAtPrice    *int64                 `json:"compareAtPrice,omitempty"`
	LowStockThreshold *int                   `json:"lowStockThreshold,omitempty"`
	Status            *enums.ProductStatus   `json:"status,omitempty"`
	Image             *string                `json:"image,omitempty"`
}

// InventoryInput adjusts absolute stock for a product.
type InventoryInput struct {
	StockQuantity int     `json:"stockQuantity" validate:"gte=0"`
	Reason        *string `json:"reason,omitempty"`
}

type service struct {
	repo              Repository
	db                *db.Client
	lowStockThreshold int
}

// NewService constructs a product service instance.
func NewService(repo Repository, dbClient *db.Client, lowStockThreshold int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("database client required")
	}
	if lowStockThreshold <= 0 {
		lowStockThreshold = 5
	}
	return &service{repo: repo, db: dbClient, lowStockThreshold: lowStockThreshold}, nil
}

// ListCatalog serves the public storefront. Only ACTIVE and OUT_OF_STOCK
// products are visible; INACTIVE and DISCONTINUED stay back-office only.
func (s *service) ListCatalog(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[models.Product], error) {
	if filter.Status == nil {
		active := enums.ProductStatusActive
		filter.Status = &active
	} else if !publiclyVisible(*filter.Status) {
		return pagination.Page[models.Product]{}, pkgerrors.New(pkgerrors.CodeValidation, "status filter not available")
	}
	return s.list(ctx, filter, params)
}

// GetBySlug loads a single product for its detail page and counts the view.
func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product")
	}
	if !publiclyVisible(product.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	// View counting is best effort and must not fail the read.
	if err := s.repo.IncrementViewCount(ctx, product.ID); err == nil {
		product.ViewCount++
	}
	return product, nil
}

// ListAdmin serves the back office and applies no visibility filter.
func (s *service) ListAdmin(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[models.Product], error) {
	return s.list(ctx, filter, params)
}

func (s *service) list(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[models.Product], error) {
	if filter.Category != nil && !filter.Category.IsValid() {
		return pagination.Page[models.Product]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	params.Limit = pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Product]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, filter, params.Limit, cursor)
	if err != nil {
		return pagination.Page[models.Product]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return pagination.BuildPage(rows, params.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	}), nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if input.Price <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
	}

	threshold := s.lowStockThreshold
	if input.LowStockThreshold != nil {
		if *input.LowStockThreshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "low stock threshold cannot be negative")
		}
		threshold = *input.LowStockThreshold
	}

	status := enums.ProductStatusActive
	if input.StockQuantity == 0 {
		status = enums.ProductStatusOutOfStock
	}

	product := &models.Product{
		SKU:               strings.TrimSpace(input.SKU),
		Slug:              Slugify(input.Name),
		Name:              strings.TrimSpace(input.Name),
		Description:       input.Description,
		Category:          input.Category,
		Price:             input.Price,
		CompareAtPrice:    input.CompareAtPrice,
		StockQuantity:     input.StockQuantity,
		LowStockThreshold: threshold,
		Status:            status,
		Image:             input.Image,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku or slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.findExisting(ctx, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
		product.Slug = Slugify(name)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
		}
		product.Category = *input.Category
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.Price = *input.Price
	}
	if input.CompareAtPrice != nil {
		product.CompareAtPrice = input.CompareAtPrice
	}
	if input.LowStockThreshold != nil {
		if *input.LowStockThreshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "low stock threshold cannot be negative")
		}
		product.LowStockThreshold = *input.LowStockThreshold
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
		}
		product.Status = *input.Status
	}
	if input.Image != nil {
		product.Image = input.Image
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku or slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	return updated, nil
}

// Delete soft-deletes the product. Existing order items keep their frozen
// snapshot, so nothing historical is lost.
func (s *service) Delete(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.findExisting(ctx, productID); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, productID, time.Now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

// AdjustInventory sets an absolute stock level and reconciles the
// OUT_OF_STOCK flip in the same transaction.
func (s *service) AdjustInventory(ctx context.Context, productID uuid.UUID, input InventoryInput) (*models.Product, error) {
	if input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
	}

	var product *models.Product
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product")
		}

		existing.StockQuantity = input.StockQuantity
		if _, err := repo.Update(ctx, existing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update stock")
		}
		if err := repo.SyncStockStatus(ctx, productID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sync stock status")
		}

		product, err = repo.FindByID(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) ListLowStock(ctx context.Context) ([]models.Product, error) {
	rows, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list low stock")
	}
	return rows, nil
}

func (s *service) findExisting(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product")
	}
	return product, nil
}

func publiclyVisible(status enums.ProductStatus) bool {
	return status == enums.ProductStatusActive || status == enums.ProductStatusOutOfStock
}

// Slugify lowercases the name and collapses non-alphanumeric runs into
// single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
