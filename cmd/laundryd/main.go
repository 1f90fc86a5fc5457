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

	"github.com/SherClockHolmes/webpush-go"
	"golang.org/x/time/rate"

	"washsync-backend/config"
	"washsync-backend/internal/api"
	"washsync-backend/internal/db"
	"washsync-backend/internal/machine"
	"washsync-backend/internal/mw"
	"washsync-backend/internal/notification"
	"washsync-backend/internal/reconcile"
	"washsync-backend/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "laundryd ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Auth.JWTSecret == "" {
		logger.Fatalf("auth.jwt_secret must be configured")
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Printf("database initialized (%s)", cfg.Database.Driver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	// Push delivery is optional; without VAPID keys notifications are only stored.
	var dispatcher notification.Dispatcher
	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions)
		pool.Start(ctx)
		dispatcher = pool
		logger.Printf("web push enabled with %d workers", cfg.WorkerPool.Size)
	} else {
		logger.Println("VAPID keys not configured, web push disabled")
	}

	center := notification.NewCenter(appStore, dispatcher)
	machines := machine.NewService(appStore, center)

	if cfg.Reconciler.Enabled {
		sweeper := reconcile.NewSweeper(appStore, reconcile.ServiceExpirer(machines), cfg.Reconciler.Interval)
		go sweeper.Run(ctx)
	} else {
		logger.Println("reconciler disabled, expired timers will not be released automatically")
	}

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := limiter.Forget(10 * time.Minute); n > 0 {
					logger.Printf("rate limiter dropped %d idle clients", n)
				}
			}
		}
	}()

	router := api.NewRouter(api.Deps{
		Store:     appStore,
		Machines:  machines,
		WebPush:   webpushOptions,
		JWTSecret: cfg.Auth.JWTSecret,
		Limiter:   limiter,
		CacheTTL:  time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server Shutdown: %v", err)
	}
	// Stops the sweeper and push workers after in-flight requests finished.
	cancel()

	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Println("Server gracefully stopped")
}
