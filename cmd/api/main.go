package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kunwar-bir-singh/Online-Assessment/api/routes"
	"github.com/Kunwar-bir-singh/Online-Assessment/internal/auth"
	"github.com/Kunwar-bir-singh/Online-Assessment/internal/orders"
	"github.com/Kunwar-bir-singh/Online-Assessment/internal/products"
	"github.com/Kunwar-bir-singh/Online-Assessment/internal/stream"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/auth/session"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/config"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/db"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/logger"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/metrics"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/migrate"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/redis"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

const shutdownTimeout = 10 * time.Second

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(logg, "database client", err)

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	requireResource(logg, "redis client", err)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(logg, "session manager", err)

	promMetrics := metrics.New()
	hub := stream.NewHub()

	authService, err := auth.NewService(auth.ServiceParams{
		DB:             dbClient,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	requireResource(logg, "auth service", err)

	productsService, err := products.NewService(products.NewRepository(dbClient.DB()))
	requireResource(logg, "products service", err)

	ordersService, err := orders.NewService(orders.ServiceParams{
		DB:      dbClient,
		Hub:     hub,
		Metrics: promMetrics,
		Logger:  logg,
		Orders:  cfg.Orders,
	})
	requireResource(logg, "orders service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:         cfg,
			Logger:         logg,
			DBPinger:       dbClient,
			RedisPinger:    redisClient,
			SessionManager: sessionManager,
			AuthService:    authService,
			Products:       productsService,
			Orders:         ordersService,
			Hub:            hub,
			Metrics:        promMetrics,
		}),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(runCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "failed to drain in-flight requests", err)
	}

	if err := closeResources(hub, redisClient, dbClient); err != nil {
		logg.Error(context.Background(), "error releasing resources", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "api server stopped")
}

type closer interface {
	Close() error
}

// closeResources releases every long-lived resource in order, continuing past
// individual failures and reporting them all.
func closeResources(closers ...closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return multierr.Combine(errs...)
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
