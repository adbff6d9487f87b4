package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amaraokeke/pearlstrands-backend/pkg/db/models"
	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
	pkgerrors "github.com/amaraokeke/pearlstrands-backend/pkg/errors"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubCartRepo struct {
	cart     *models.Cart
	replaced [][]models.CartItem
	cleared  int
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCartRepo) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if s.cart == nil || s.cart.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.cart, nil
}

func (s *stubCartRepo) Create(ctx context.Context, record *models.Cart) (*models.Cart, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.cart = record
	return record, nil
}

func (s *stubCartRepo) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error {
	s.replaced = append(s.replaced, items)
	s.cart.Items = items
	return nil
}

func (s *stubCartRepo) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	s.cleared++
	s.cart.Items = nil
	return nil
}

type stubProductLoader struct {
	products map[uuid.UUID]*models.Product
}

func (s *stubProductLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type cartFixture struct {
	svc      Service
	repo     *stubCartRepo
	products *stubProductLoader
	userID   uuid.UUID
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()

	f := &cartFixture{
		repo:     &stubCartRepo{},
		products: &stubProductLoader{products: map[uuid.UUID]*models.Product{}},
		userID:   uuid.New(),
	}
	svc, err := NewService(stubTx{}, f.repo, f.products)
	if err != nil {
		t.Fatalf("build cart service: %v", err)
	}
	f.svc = svc
	return f
}

func (f *cartFixture) addProduct(t *testing.T, price int64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:            uuid.New(),
		Name:          "Hydrating Curl Conditioner",
		Price:         price,
		StockQuantity: stock,
		Status:        enums.ProductStatusActive,
	}
	f.products.products[p.ID] = p
	return p
}

func TestPutReplacesCartAndSnapshotsPrices(t *testing.T) {
	f := newCartFixture(t)
	shampoo := f.addProduct(t, 4500, 10)
	oil := f.addProduct(t, 2500, 10)

	dto, err := f.svc.Put(context.Background(), f.userID, PutCartInput{Items: []ItemInput{
		{ProductID: shampoo.ID, Quantity: 2},
		{ProductID: oil.ID, Quantity: 1},
	}})
	if err != nil {
		t.Fatalf("put cart: %v", err)
	}

	if len(dto.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(dto.Items))
	}
	if dto.Subtotal != 2*4500+2500 {
		t.Fatalf("expected subtotal 11500, got %d", dto.Subtotal)
	}
	if len(f.repo.replaced) != 1 {
		t.Fatalf("expected one wholesale replace, got %d", len(f.repo.replaced))
	}
	if f.repo.replaced[0][0].UnitPrice != 4500 {
		t.Fatalf("expected snapshot price 4500, got %d", f.repo.replaced[0][0].UnitPrice)
	}

	// A second Put fully replaces the previous contents.
	dto, err = f.svc.Put(context.Background(), f.userID, PutCartInput{Items: []ItemInput{
		{ProductID: oil.ID, Quantity: 3},
	}})
	if err != nil {
		t.Fatalf("put cart: %v", err)
	}
	if len(dto.Items) != 1 || dto.Subtotal != 3*2500 {
		t.Fatalf("cart not replaced wholesale: %+v", dto)
	}
}

func TestPutRejectsNonPositiveQuantity(t *testing.T) {
	f := newCartFixture(t)
	product := f.addProduct(t, 4500, 10)

	for _, qty := range []int{0, -1} {
		_, err := f.svc.Put(context.Background(), f.userID, PutCartInput{Items: []ItemInput{
			{ProductID: product.ID, Quantity: qty},
		}})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for quantity %d, got %v", qty, err)
		}
	}
}

func TestPutRejectsOversell(t *testing.T) {
	f := newCartFixture(t)
	product := f.addProduct(t, 4500, 2)

	_, err := f.svc.Put(context.Background(), f.userID, PutCartInput{Items: []ItemInput{
		{ProductID: product.ID, Quantity: 3},
	}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error on oversell, got %v", err)
	}
	if len(f.repo.replaced) != 0 {
		t.Fatalf("cart written on rejected put")
	}
}

func TestPutRejectsUnpurchasableProducts(t *testing.T) {
	f := newCartFixture(t)

	inactive := f.addProduct(t, 4500, 10)
	inactive.Status = enums.ProductStatusInactive

	deletedAt := time.Now().UTC()
	deleted := f.addProduct(t, 4500, 10)
	deleted.DeletedAt = &deletedAt

	for _, p := range []*models.Product{inactive, deleted} {
		_, err := f.svc.Put(context.Background(), f.userID, PutCartInput{Items: []ItemInput{
			{ProductID: p.ID, Quantity: 1},
		}})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for unavailable product, got %v", err)
		}
	}

	_, err := f.svc.Put(context.Background(), f.userID, PutCartInput{Items: []ItemInput{
		{ProductID: uuid.New(), Quantity: 1},
	}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}
}

func TestPutRejectsDuplicateLines(t *testing.T) {
	f := newCartFixture(t)
	product := f.addProduct(t, 4500, 10)

	_, err := f.svc.Put(context.Background(), f.userID, PutCartInput{Items: []ItemInput{
		{ProductID: product.ID, Quantity: 1},
		{ProductID: product.ID, Quantity: 2},
	}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for duplicate product, got %v", err)
	}
}

func TestGetCreatesCartOnFirstRead(t *testing.T) {
	f := newCartFixture(t)

	dto, err := f.svc.Get(context.Background(), f.userID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if dto.ID == uuid.Nil {
		t.Fatalf("expected a cart to be created")
	}
	if len(dto.Items) != 0 || dto.Subtotal != 0 {
		t.Fatalf("expected an empty cart, got %+v", dto)
	}
	if f.repo.cart == nil || f.repo.cart.UserID != f.userID {
		t.Fatalf("cart not persisted for user")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	f := newCartFixture(t)

	// No cart yet: nothing to clear and no error.
	if err := f.svc.Clear(context.Background(), f.userID); err != nil {
		t.Fatalf("clear without cart: %v", err)
	}
	if f.repo.cleared != 0 {
		t.Fatalf("clear touched a missing cart")
	}

	product := f.addProduct(t, 4500, 10)
	if _, err := f.svc.Put(context.Background(), f.userID, PutCartInput{Items: []ItemInput{
		{ProductID: product.ID, Quantity: 1},
	}}); err != nil {
		t.Fatalf("put cart: %v", err)
	}

	if err := f.svc.Clear(context.Background(), f.userID); err != nil {
		t.Fatalf("clear cart: %v", err)
	}
	if f.repo.cleared != 1 {
		t.Fatalf("expected one clear, got %d", f.repo.cleared)
	}

	dto, err := f.svc.Get(context.Background(), f.userID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(dto.Items) != 0 {
		t.Fatalf("cart not emptied: %+v", dto.Items)
	}
}
