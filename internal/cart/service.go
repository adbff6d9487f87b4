package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amaraokeke/pearlstrands-backend/pkg/db/models"
	pkgerrors "github.com/amaraokeke/pearlstrands-backend/pkg/errors"
)

// ItemInput is one requested cart line.
type ItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// PutCartInput replaces the whole cart in one call.
type PutCartInput struct {
	Items []ItemInput `json:"items" validate:"dive"`
}

// CartDTO is the cart projection returned to clients, priced from the
// current catalog.
type CartDTO struct {
	ID       uuid.UUID     `json:"id"`
	Items    []CartItemDTO `json:"items"`
	Subtotal int64         `json:"subtotal"`
}

// CartItemDTO is one priced cart line.
type CartItemDTO struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	Image       *string   `json:"image,omitempty"`
	Quantity    int       `json:"quantity"`
	UnitPrice   int64     `json:"unitPrice"`
	Subtotal    int64     `json:"subtotal"`
	InStock     bool      `json:"inStock"`
}

// Service manages the single open cart per user.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	Put(ctx context.Context, userID uuid.UUID, input PutCartInput) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx       txRunner
	repo     Repository
	products productLoader
}

// NewService builds the cart service.
func NewService(tx txRunner, repo Repository, products productLoader) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{tx: tx, repo: repo, products: products}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	record, err := s.findOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, record)
}

// Put replaces the cart contents. Every line must reference a purchasable
// product; quantities above current stock are rejected up front so checkout
// failures surface early.
func (s *service) Put(ctx context.Context, userID uuid.UUID, input PutCartInput) (*CartDTO, error) {
	seen := make(map[uuid.UUID]bool, len(input.Items))
	items := make([]models.CartItem, 0, len(input.Items))
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if seen[line.ProductID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in cart")
		}
		seen[line.ProductID] = true

		product, err := s.products.FindByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product")
		}
		if !product.Purchasable() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
		}
		if product.StockQuantity < line.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock for "+product.Name)
		}

		items = append(items, models.CartItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
	}

	record, err := s.findOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for i := range items {
			items[i].CartID = record.ID
		}
		if err := s.repo.WithTx(tx).ReplaceItems(ctx, record.ID, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace cart items")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	record.Items = items
	return s.project(ctx, record)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	record, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart")
	}
	if err := s.repo.ClearItems(ctx, record.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) findOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	record, err := s.repo.FindByUser(ctx, userID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart")
	}
	created, err := s.repo.Create(ctx, &models.Cart{UserID: userID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	return created, nil
}

// project prices each line against the live catalog so stale carts surface
// price and stock drift instead of hiding it.
func (s *service) project(ctx context.Context, record *models.Cart) (*CartDTO, error) {
	dto := &CartDTO{ID: record.ID, Items: make([]CartItemDTO, 0, len(record.Items))}
	for _, item := range record.Items {
		line := CartItemDTO{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err == nil {
			line.ProductName = product.Name
			line.Image = product.Image
			line.UnitPrice = product.Price
			line.InStock = product.Purchasable() && product.StockQuantity >= item.Quantity
		}
		line.Subtotal = line.UnitPrice * int64(item.Quantity)
		dto.Subtotal += line.Subtotal
		dto.Items = append(dto.Items, line)
	}
	return dto, nil
}
