package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/amaraokeke/pearlstrands-backend/api/routes"
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
	"github.com/amaraokeke/pearlstrands-backend/pkg/logger"
	"github.com/amaraokeke/pearlstrands-backend/pkg/metrics"
	"github.com/amaraokeke/pearlstrands-backend/pkg/migrate"
	"github.com/amaraokeke/pearlstrands-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	var dbClient *db.Client
	if cfg.FeatureFlags.UseSQLite {
		dbClient, err = db.NewSQLite(cfg.DB.DSN)
	} else {
		dbClient, err = db.New(context.Background(), cfg.DB, logg)
	}
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	addressRepo := addresses.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())
	discountRepo := discounts.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	notificationRepo := notifications.NewRepository(dbClient.DB())

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	addressService, err := addresses.NewService(dbClient, addressRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(productRepo, dbClient, cfg.Checkout.LowStockThreshold)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	discountService, err := discounts.NewService(discountRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create discount service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(dbClient, cartRepo, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notificationRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	var notifier orders.Notifier = orders.NopNotifier{}
	if cfg.Notifications.Enabled {
		notifier = notificationService
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Tx:           dbClient,
		Repo:         orderRepo,
		ProductRepo:  productRepo,
		CartRepo:     cartRepo,
		DiscountRepo: discountRepo,
		DiscountSvc:  discountService,
		Addresses:    addressRepo,
		Users:        userRepo,
		Notifier:     notifier,
		Checkout:     cfg.Checkout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	analyticsService, err := analytics.NewService(analytics.NewRepository(dbClient.DB()), productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, httpMetrics, sessionManager, routes.Services{
			Auth:          authService,
			Users:         userRepo,
			Addresses:     addressService,
			Products:      productService,
			Discounts:     discountService,
			Cart:          cartService,
			Orders:        orderService,
			Notifications: notificationService,
			Analytics:     analyticsService,
		}),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
