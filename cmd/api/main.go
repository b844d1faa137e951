package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gharseva/gharseva-backend/api/routes"
	"github.com/gharseva/gharseva-backend/internal/auth"
	"github.com/gharseva/gharseva-backend/internal/automation"
	"github.com/gharseva/gharseva-backend/internal/bookings"
	"github.com/gharseva/gharseva-backend/internal/catalog"
	"github.com/gharseva/gharseva-backend/internal/notifications"
	"github.com/gharseva/gharseva-backend/internal/payments"
	"github.com/gharseva/gharseva-backend/internal/providers"
	"github.com/gharseva/gharseva-backend/internal/teams"
	"github.com/gharseva/gharseva-backend/internal/users"
	"github.com/gharseva/gharseva-backend/pkg/config"
	"github.com/gharseva/gharseva-backend/pkg/db"
	"github.com/gharseva/gharseva-backend/pkg/logger"
	"github.com/gharseva/gharseva-backend/pkg/mailer"
	"github.com/gharseva/gharseva-backend/pkg/metrics"
	"github.com/gharseva/gharseva-backend/pkg/migrate"
	"github.com/gharseva/gharseva-backend/pkg/razorpay"
	"github.com/gharseva/gharseva-backend/pkg/redis"
	"github.com/gharseva/gharseva-backend/pkg/vision"
)

const shutdownGrace = 10 * time.Second

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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	razorpayClient, err := razorpay.NewClient(cfg.Razorpay)
	if err != nil {
		fatal(logg, "failed to create razorpay client", err)
	}
	mailerClient, err := mailer.NewClient(cfg.Mailer)
	if err != nil {
		fatal(logg, "failed to create mailer client", err)
	}
	visionClient, err := vision.NewClient(cfg.Vision)
	if err != nil {
		fatal(logg, "failed to create vision client", err)
	}

	userRepo := users.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	bookingRepo := bookings.NewRepository(dbClient.DB())
	paymentRepo := payments.NewRepository(dbClient.DB())
	teamRepo := teams.NewRepository(dbClient.DB())
	notificationRepo := notifications.NewRepository(dbClient.DB())

	authService, err := auth.NewService(userRepo, cfg.JWT, cfg.Password)
	if err != nil {
		fatal(logg, "failed to create auth service", err)
	}
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		fatal(logg, "failed to create catalog service", err)
	}
	bookingService, err := bookings.NewService(bookingRepo, catalogRepo, userRepo)
	if err != nil {
		fatal(logg, "failed to create booking service", err)
	}
	paymentService, err := payments.NewService(paymentRepo, bookingRepo, razorpayClient)
	if err != nil {
		fatal(logg, "failed to create payment service", err)
	}
	providerService, err := providers.NewService(userRepo, visionClient, mailerClient, logg)
	if err != nil {
		fatal(logg, "failed to create provider service", err)
	}
	teamService, err := teams.NewService(teamRepo, userRepo)
	if err != nil {
		fatal(logg, "failed to create team service", err)
	}
	notificationService, err := notifications.NewService(notificationRepo, cfg.Notifications.RecentStatsLimit)
	if err != nil {
		fatal(logg, "failed to create notification service", err)
	}

	registry := prometheus.NewRegistry()
	notificationMetrics := metrics.NewNotificationMetrics(registry)

	engine, err := automation.NewEngine(notificationService, userRepo, logg)
	if err != nil {
		fatal(logg, "failed to create automation engine", err)
	}
	dispatcher, err := automation.NewDispatcher(
		engine,
		logg,
		notificationMetrics,
		cfg.Notifications.DispatchQueueSize,
		cfg.Notifications.DispatchWorkers,
	)
	if err != nil {
		fatal(logg, "failed to create notification dispatcher", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	dispatcher.Start(ctx)
	defer dispatcher.Close()

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:     cfg,
			Logger:     logg,
			DB:         dbClient,
			Redis:      redisClient,
			Metrics:    registry,
			Auth:       authService,
			Bookings:   bookingService,
			Payments:   paymentService,
			Providers:  providerService,
			Catalog:    catalogService,
			Teams:      teamService,
			Notifs:     notificationService,
			Engine:     engine,
			Dispatcher: dispatcher,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received, draining")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error during server shutdown", err)
		}
	}

	logg.Info(ctx, "api server shutting down gracefully")
}

func fatal(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
