package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/amaraokeke/pearlstrands-backend/internal/addresses"
	"github.com/amaraokeke/pearlstrands-backend/internal/analytics"
	authsvc "github.com/amaraokeke/pearlstrands-backend/internal/auth"
	"github.com/amaraokeke/pearlstrands-backend/internal/cart"
	"github.com/amaraokeke/pearlstrands-backend/internal/discounts"
	"github.com/amaraokeke/pearlstrands-backend/internal/orders"
	"github.com/amaraokeke/pearlstrands-backend/internal/products"
	pkgAuth "github.com/amaraokeke/pearlstrands-backend/pkg/auth"
	"github.com/amaraokeke/pearlstrands-backend/pkg/config"
	"github.com/amaraokeke/pearlstrands-backend/pkg/db/models"
	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
	"github.com/amaraokeke/pearlstrands-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error { return nil }

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req authsvc.RegisterRequest) (*authsvc.AuthResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Login(ctx context.Context, req authsvc.LoginRequest) (*authsvc.AuthResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubAddressService struct{}

func (stubAddressService) Create(ctx context.Context, userID uuid.UUID, input addresses.AddressInput) (*models.Address, error) {
	return nil, nil
}

func (stubAddressService) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	return nil, nil
}

func (stubAddressService) Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	return nil, nil
}

func (stubAddressService) Update(ctx context.Context, userID, addressID uuid.UUID, input addresses.AddressInput) (*models.Address, error) {
	return nil, nil
}

func (stubAddressService) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	return nil
}

type stubProductService struct{}

func (stubProductService) ListCatalog(ctx context.Context, filter products.ListFilter, params pagination.Params) (pagination.Page[models.Product], error) {
	return pagination.Page[models.Product]{}, nil
}

func (stubProductService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return &models.Product{Slug: slug}, nil
}

func (stubProductService) ListAdmin(ctx context.Context, filter products.ListFilter, params pagination.Params) (pagination.Page[models.Product], error) {
	return pagination.Page[models.Product]{}, nil
}

func (stubProductService) Create(ctx context.Context, input products.CreateProductInput) (*models.Product, error) {
	return nil, nil
}

func (stubProductService) Update(ctx context.Context, productID uuid.UUID, input products.UpdateProductInput) (*models.Product, error) {
	return nil, nil
}

func (stubProductService) Delete(ctx context.Context, productID uuid.UUID) error { return nil }

func (stubProductService) AdjustInventory(ctx context.Context, productID uuid.UUID, input products.InventoryInput) (*models.Product, error) {
	return nil, nil
}

func (stubProductService) ListLowStock(ctx context.Context) ([]models.Product, error) {
	return nil, nil
}

type stubDiscountService struct{}

func (stubDiscountService) Validate(ctx context.Context, userID uuid.UUID, code string, subtotal int64) (*discounts.Quote, error) {
	return nil, nil
}

func (stubDiscountService) Resolve(ctx context.Context, code string) (*models.DiscountCode, error) {
	return nil, nil
}

func (stubDiscountService) CheckEligibility(ctx context.Context, row *models.DiscountCode, userID uuid.UUID, subtotal int64) error {
	return nil
}

func (stubDiscountService) Create(ctx context.Context, input discounts.CreateDiscountInput) (*models.DiscountCode, error) {
	return nil, nil
}

func (stubDiscountService) Update(ctx context.Context, id uuid.UUID, input discounts.UpdateDiscountInput) (*models.DiscountCode, error) {
	return nil, nil
}

func (stubDiscountService) List(ctx context.Context) ([]models.DiscountCode, error) {
	return nil, nil
}

func (stubDiscountService) Delete(ctx context.Context, id uuid.UUID) error { return nil }

type stubCartService struct{}

func (stubCartService) Get(ctx context.Context, userID uuid.UUID) (*cart.CartDTO, error) {
	return &cart.CartDTO{}, nil
}

func (stubCartService) Put(ctx context.Context, userID uuid.UUID, input cart.PutCartInput) (*cart.CartDTO, error) {
	return &cart.CartDTO{}, nil
}

func (stubCartService) Clear(ctx context.Context, userID uuid.UUID) error { return nil }

type stubOrderService struct{}

func (stubOrderService) Create(ctx context.Context, userID uuid.UUID, input orders.CreateOrderInput) (*models.Order, error) {
	return nil, nil
}

func (stubOrderService) Get(ctx context.Context, actor orders.Actor, orderID uuid.UUID) (*models.Order, error) {
	return nil, nil
}

func (stubOrderService) List(ctx context.Context, actor orders.Actor, status *enums.OrderStatus, params pagination.Params) (pagination.Page[models.Order], error) {
	return pagination.Page[models.Order]{}, nil
}

func (stubOrderService) UpdateStatus(ctx context.Context, actor orders.Actor, orderID uuid.UUID, input orders.UpdateStatusInput) (*models.Order, error) {
	return nil, nil
}

func (stubOrderService) AssignDelivery(ctx context.Context, actor orders.Actor, orderID uuid.UUID, input orders.AssignDeliveryInput) (*models.Order, error) {
	return nil, nil
}

func (stubOrderService) MarkDelivered(ctx context.Context, actor orders.Actor, orderID uuid.UUID) (*models.Order, error) {
	return nil, nil
}

func (stubOrderService) Cancel(ctx context.Context, actor orders.Actor, orderID uuid.UUID, input orders.CancelInput) (*models.Order, error) {
	return nil, nil
}

type stubNotificationService struct{}

func (stubNotificationService) OrderCreated(ctx context.Context, order *models.Order) {}

func (stubNotificationService) OrderStatusChanged(ctx context.Context, order *models.Order, previous enums.OrderStatus) {
}

func (stubNotificationService) DeliveryAssigned(ctx context.Context, order *models.Order, deliveryUserID uuid.UUID) {
}

func (stubNotificationService) LowStock(ctx context.Context, product *models.Product, adminIDs []uuid.UUID) {
}

func (stubNotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params pagination.Params) (pagination.Page[models.Notification], error) {
	return pagination.Page[models.Notification]{}, nil
}

func (stubNotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubAnalyticsService struct{}

func (stubAnalyticsService) Dashboard(ctx context.Context, rng analytics.Range) (*analytics.DashboardReport, error) {
	return &analytics.DashboardReport{}, nil
}

func (stubAnalyticsService) Sales(ctx context.Context, rng analytics.Range) (*analytics.SalesReport, error) {
	return &analytics.SalesReport{}, nil
}

func (stubAnalyticsService) Products(ctx context.Context, rng analytics.Range, limit int) (*analytics.ProductsReport, error) {
	return &analytics.ProductsReport{}, nil
}

func (stubAnalyticsService) Customers(ctx context.Context, rng analytics.Range, limit int) (*analytics.CustomersReport, error) {
	return &analytics.CustomersReport{}, nil
}

func (stubAnalyticsService) Revenue(ctx context.Context, rng analytics.Range) (*analytics.RevenueReport, error) {
	return &analytics.RevenueReport{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	return NewRouter(cfg, nil, stubPinger{}, nil, nil, stubSessionManager{}, Services{
		Auth:          stubAuthService{},
		Users:         nil,
		Addresses:     stubAddressService{},
		Products:      stubProductService{},
		Discounts:     stubDiscountService{},
		Cart:          stubCartService{},
		Orders:        stubOrderService{},
		Notifications: stubNotificationService{},
		Analytics:     stubAnalyticsService{},
	})
}

func mintToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.UserRoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminGroupRequiresBackOfficeRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/admin/v1/ping", nil)
	customer.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.UserRoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, customer)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d", rec.Code)
	}

	for _, role := range []enums.UserRole{enums.UserRoleAdmin, enums.UserRoleStaff} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/ping", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, role))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", role, rec.Code)
		}
	}
}

func TestDeliveryGroupRequiresDeliveryRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	admin := httptest.NewRequest(http.MethodGet, "/api/delivery/v1/orders/", nil)
	admin.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.UserRoleAdmin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, admin)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for admin on delivery surface, got %d", rec.Code)
	}

	courier := httptest.NewRequest(http.MethodGet, "/api/delivery/v1/orders/", nil)
	courier.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.UserRoleDelivery))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, courier)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for courier, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCatalogIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for public catalog, got %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(testConfig())
	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", path, rec.Code)
		}
	}
}
