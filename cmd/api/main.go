package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/freshmart/storefront-backend/api/routes"
	"github.com/freshmart/storefront-backend/internal/auth"
	"github.com/freshmart/storefront-backend/internal/cart"
	"github.com/freshmart/storefront-backend/internal/catalog"
	"github.com/freshmart/storefront-backend/internal/checkout"
	"github.com/freshmart/storefront-backend/internal/favorites"
	"github.com/freshmart/storefront-backend/internal/invoices"
	"github.com/freshmart/storefront-backend/internal/media"
	"github.com/freshmart/storefront-backend/internal/paymentmethods"
	"github.com/freshmart/storefront-backend/internal/purchasehistory"
	"github.com/freshmart/storefront-backend/internal/reports"
	"github.com/freshmart/storefront-backend/internal/reviews"
	"github.com/freshmart/storefront-backend/internal/users"
	"github.com/freshmart/storefront-backend/pkg/auth/session"
	"github.com/freshmart/storefront-backend/pkg/config"
	"github.com/freshmart/storefront-backend/pkg/db"
	"github.com/freshmart/storefront-backend/pkg/logger"
	"github.com/freshmart/storefront-backend/pkg/metrics"
	"github.com/freshmart/storefront-backend/pkg/migrate"
	"github.com/freshmart/storefront-backend/pkg/redis"
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
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return multierr.Append(err, dbClient.Close())
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return multierr.Append(err, dbClient.Close())
	}
	defer func() {
		err = multierr.Combine(err, redisClient.Close(), dbClient.Close())
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.Session)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	paymentService, err := paymentmethods.NewService(paymentmethods.NewRepository(conn))
	if err != nil {
		return err
	}
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return err
	}
	userService, err := users.NewService(users.ServiceParams{
		Repo:           userRepo,
		PaymentMethods: paymentService,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return err
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(conn))
	if err != nil {
		return err
	}
	favoritesService, err := favorites.NewService(favorites.ServiceParams{
		Repo:    favorites.NewRepository(conn),
		Catalog: catalogService,
	})
	if err != nil {
		return err
	}
	reviewService, err := reviews.NewService(reviews.ServiceParams{
		Repo:    reviews.NewRepository(conn),
		Catalog: catalogService,
	})
	if err != nil {
		return err
	}

	mirror := cart.NewAsyncMirror(cart.NewRepository(conn), logg, cart.DefaultMirrorTimeout)
	defer mirror.Wait()
	cartManager, err := cart.NewManager(cart.ManagerParams{Catalog: catalogService, Mirror: mirror})
	if err != nil {
		return err
	}

	historyRepo := purchasehistory.NewRepository(conn)
	historyService, err := purchasehistory.NewService(historyRepo)
	if err != nil {
		return err
	}
	invoiceRepo := invoices.NewRepository(conn)
	invoiceService, err := invoices.NewService(invoiceRepo)
	if err != nil {
		return err
	}
	engine, err := checkout.NewEngine(checkout.EngineParams{
		Users:          userRepo,
		Catalog:        catalogService,
		History:        historyRepo,
		Invoices:       invoiceRepo,
		Mirror:         mirror,
		PaymentMethods: paymentService,
		Metrics:        metrics.NewCheckoutMetrics(registry),
		Logger:         logg,
	})
	if err != nil {
		return err
	}

	reportsRepo, err := reports.NewRepositoryFromClient(dbClient)
	if err != nil {
		return err
	}
	reportService, err := reports.NewService(reports.ServiceParams{Repo: reportsRepo, Config: cfg.Store})
	if err != nil {
		return err
	}
	mediaService, err := media.NewService(cfg.Upload, logg)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Dependencies{
		Config:          cfg,
		Logger:          logg,
		DB:              dbClient,
		Redis:           redisClient,
		Sessions:        sessionManager,
		Metrics:         metrics.NewHTTPMetrics(registry),
		Gatherer:        registry,
		Auth:            authService,
		Users:           userService,
		PaymentMethods:  paymentService,
		Catalog:         catalogService,
		Favorites:       favoritesService,
		Reviews:         reviewService,
		Cart:            cartManager,
		Checkout:        engine,
		Invoices:        invoiceService,
		PurchaseHistory: historyService,
		Reports:         reportService,
		Media:           mediaService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"addr":   addr,
		"driver": dbClient.Driver(),
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
