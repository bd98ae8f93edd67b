package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ecodepin/ecodepin-api/catalog"
	"github.com/ecodepin/ecodepin-api/config"
	"github.com/ecodepin/ecodepin-api/handlers"
	"github.com/ecodepin/ecodepin-api/logger"
	"github.com/ecodepin/ecodepin-api/middleware"
	"github.com/ecodepin/ecodepin-api/scheduler"
	"github.com/ecodepin/ecodepin-api/services"
	"github.com/ecodepin/ecodepin-api/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}

	cat, err := catalog.Load()
	if err != nil {
		zlog.Fatal("failed to load plan catalog", zap.Error(err))
	}

	if cfg.StripeAPIKey == "" {
		zlog.Warn("STRIPE_API_KEY not configured; checkout runs in simulated mode")
	}

	identity := utils.NewIdentityProviderClient(cfg.AuthProviderURL, cfg.AuthProviderTimeout)
	authService := services.NewAuthService(db, identity, cfg.SessionTTL, zlog.Named("auth"))
	investmentService := services.NewInvestmentService(db, cat, zlog.Named("investments"))
	paymentService := services.NewPaymentService(db, cat, investmentService, zlog.Named("payments"))
	walletService := services.NewWalletService(db, cfg.Wallets, zlog.Named("wallets"))

	metrics := middleware.NewMetrics()
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, zlog.Named("ratelimit"))

	router := handlers.NewRouter(handlers.Dependencies{
		Config:      cfg,
		DB:          db,
		Log:         zlog.Named("http"),
		Catalog:     cat,
		Auth:        authService,
		Investments: investmentService,
		Payments:    paymentService,
		Wallets:     walletService,
		RateLimiter: limiter,
		Metrics:     metrics,
	})

	var cleanup *scheduler.CleanupScheduler
	if cfg.SessionCleanupCron != "" {
		cleanup = scheduler.NewCleanupScheduler(authService, limiter, metrics, zlog.Named("scheduler"))
		if err := cleanup.Start(cfg.SessionCleanupCron); err != nil {
			zlog.Fatal("invalid SESSION_CLEANUP_CRON", zap.String("schedule", cfg.SessionCleanupCron), zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("starting EcoDePIN API server", zap.String("port", cfg.Port), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down")

	if cleanup != nil {
		cleanup.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
