package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bowling-booking-backend/config"
	"bowling-booking-backend/internal/api"
	"bowling-booking-backend/internal/auth"
	"bowling-booking-backend/internal/availability"
	"bowling-booking-backend/internal/catalog"
	"bowling-booking-backend/internal/db"
	"bowling-booking-backend/internal/events"
	"bowling-booking-backend/internal/lifecycle"
	"bowling-booking-backend/internal/logging"
	"bowling-booking-backend/internal/notification"
	"bowling-booking-backend/internal/occupancy"
	"bowling-booking-backend/internal/reservation"
	"bowling-booking-backend/internal/seed"
	"bowling-booking-backend/internal/store"
	"bowling-booking-backend/internal/sweeper"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	logger, err := logging.New(cfg.Log.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("configuration loaded", zap.String("path", configPath))

	if cfg.Log.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	gormDB, isolation, err := db.Init(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	appStore := store.NewGormStore(gormDB, isolation)
	logger.Info("database initialized", zap.String("driver", cfg.Database.Driver))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := seed.Venue(ctx, appStore, cfg.Venue, logger); err != nil {
		logger.Fatal("failed to seed venue", zap.Error(err))
	}
	if _, err := seed.Owner(ctx, appStore, cfg.BootstrapOwner, logger); err != nil {
		logger.Fatal("failed to create bootstrap owner", zap.Error(err))
	}

	publisher, err := events.Open(cfg.Events.URL, cfg.Events.Exchange)
	if err != nil {
		logger.Fatal("failed to connect event publisher", zap.Error(err))
	}
	defer publisher.Close()

	var (
		channels       []notification.Channel
		webpushOptions = notification.WebPushOptions(cfg.Push)
	)
	if cfg.Mail.Enabled {
		channels = append(channels, notification.NewEmailSender(cfg.Mail))
	}
	if cfg.Push.Enabled() {
		channels = append(channels, notification.NewPushSender(appStore, webpushOptions, logger))
	} else {
		logger.Warn("VAPID keys not configured, web push disabled")
		webpushOptions = nil
	}
	pool := notification.NewWorkerPool(cfg.WorkerPool, logger, channels...)
	pool.Start(ctx)

	now := time.Now
	venue := catalog.New(appStore, cfg.Catalog.CacheTTL)
	tokens := auth.NewTokens(cfg.Auth, now)

	handler := api.NewHandler(api.Deps{
		Store:        appStore,
		Catalog:      venue,
		Accounts:     auth.NewService(appStore, tokens, logger),
		Tokens:       tokens,
		Availability: availability.NewService(venue, occupancy.NewIndex(appStore, now)),
		Reservations: reservation.NewEngine(appStore, venue, publisher, logger, cfg.Booking, now),
		Lifecycle:    lifecycle.NewManager(appStore, venue, pool, publisher, logger, now),
		WebPush:      webpushOptions,
		Log:          logger,
	})

	sweeperSvc := sweeper.NewService(cfg.Sweeper, appStore, publisher, logger, now)
	go sweeperSvc.Run(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(handler, cfg.Server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server Shutdown", zap.Error(err))
	}

	// Stop the sweeper and the notification workers.
	cancel()
	pool.Wait()

	logger.Info("server gracefully stopped")
}
