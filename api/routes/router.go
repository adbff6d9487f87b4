package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amaraokeke/pearlstrands-backend/api/controllers"
	"github.com/amaraokeke/pearlstrands-backend/api/middleware"
	"github.com/amaraokeke/pearlstrands-backend/internal/addresses"
	"github.com/amaraokeke/pearlstrands-backend/internal/analytics"
	authsvc "github.com/amaraokeke/pearlstrands-backend/internal/auth"
	"github.com/amaraokeke/pearlstrands-backend/internal/cart"
	"github.com/amaraokeke/pearlstrands-backend/internal/discounts"
	"github.com/amaraokeke/pearlstrands-backend/internal/notifications"
	"github.com/amaraokeke/pearlstrands-backend/internal/orders"
	"github.com/amaraokeke/pearlstrands-backend/internal/products"
	"github.com/amaraokeke/pearlstrands-backend/internal/users"
	"github.com/amaraokeke/pearlstrands-backend/pkg/auth/session"
	"github.com/amaraokeke/pearlstrands-backend/pkg/config"
	"github.com/amaraokeke/pearlstrands-backend/pkg/db"
	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
	"github.com/amaraokeke/pearlstrands-backend/pkg/logger"
	"github.com/amaraokeke/pearlstrands-backend/pkg/metrics"
	"github.com/amaraokeke/pearlstrands-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Services bundles everything the router wires into handlers.
type Services struct {
	Auth          authsvc.Service
	Users         *users.Repository
	Addresses     addresses.Service
	Products      products.Service
	Discounts     discounts.Service
	Cart          cart.Service
	Orders        orders.Service
	Notifications notifications.Service
	Analytics     analytics.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	sessions sessionManager,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	var cache db.Pinger
	if redisClient != nil {
		cache = redisClient
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, cache, logg))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessions, cfg.JWT, logg))
		r.Post("/logout", controllers.AuthLogout(sessions, cfg.JWT, logg))
	})

	// Catalog reads are public. Everything below requires a session.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(svcs.Products, logg))
		r.Get("/{slug}", controllers.ProductBySlug(svcs.Products, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/me", func(r chi.Router) {
			r.Get("/", controllers.ProfileGet(svcs.Users, logg))
			r.Put("/", controllers.ProfileUpdate(svcs.Users, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(svcs.Addresses, logg))
			r.Post("/", controllers.AddressCreate(svcs.Addresses, logg))
			r.Get("/{addressId}", controllers.AddressGet(svcs.Addresses, logg))
			r.Put("/{addressId}", controllers.AddressUpdate(svcs.Addresses, logg))
			r.Delete("/{addressId}", controllers.AddressDelete(svcs.Addresses, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(svcs.Cart, logg))
			r.Put("/", controllers.CartPut(svcs.Cart, logg))
			r.Delete("/", controllers.CartClear(svcs.Cart, logg))
		})

		r.Post("/discounts/validate", controllers.DiscountValidate(svcs.Discounts, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderGet(svcs.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(svcs.Orders, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationList(svcs.Notifications, logg))
			r.Get("/unread-count", controllers.NotificationUnreadCount(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.NotificationMarkRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.NotificationMarkAllRead(svcs.Notifications, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole(logg, string(enums.UserRoleAdmin), string(enums.UserRoleStaff)))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.AdminPing())

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductList(svcs.Products, logg))
			r.Post("/", controllers.AdminProductCreate(svcs.Products, logg))
			r.Get("/low-stock", controllers.AdminProductLowStock(svcs.Products, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(svcs.Products, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(svcs.Products, logg))
			r.Put("/{productId}/inventory", controllers.AdminProductInventory(svcs.Products, logg))
		})

		r.Route("/discounts", func(r chi.Router) {
			r.Get("/", controllers.AdminDiscountList(svcs.Discounts, logg))
			r.Post("/", controllers.AdminDiscountCreate(svcs.Discounts, logg))
			r.Patch("/{discountId}", controllers.AdminDiscountUpdate(svcs.Discounts, logg))
			r.Delete("/{discountId}", controllers.AdminDiscountDelete(svcs.Discounts, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderGet(svcs.Orders, logg))
			r.Patch("/{orderId}/status", controllers.AdminOrderUpdateStatus(svcs.Orders, logg))
			r.Post("/{orderId}/assign-delivery", controllers.AdminOrderAssignDelivery(svcs.Orders, logg))
		})
		r.Get("/delivery-personnel", controllers.AdminDeliveryPersonnel(svcs.Users, logg))

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/dashboard", controllers.AnalyticsDashboard(svcs.Analytics, logg))
			r.Get("/sales", controllers.AnalyticsSales(svcs.Analytics, logg))
			r.Get("/products", controllers.AnalyticsProducts(svcs.Analytics, logg))
			r.Get("/customers", controllers.AnalyticsCustomers(svcs.Analytics, logg))
			r.Get("/revenue", controllers.AnalyticsRevenue(svcs.Analytics, logg))
		})
	})

	r.Route("/api/delivery/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole(logg, string(enums.UserRoleDelivery)))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderGet(svcs.Orders, logg))
			r.Post("/{orderId}/mark-delivered", controllers.DeliveryMarkDelivered(svcs.Orders, logg))
		})
	})

	return r
}
