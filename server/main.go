package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autoclaim/api/routes"
	"autoclaim/internal/notifications"
	"autoclaim/internal/shared/config"
	"autoclaim/internal/shared/database"
	"autoclaim/internal/shared/middleware"
	"autoclaim/pkg/logger"
	"autoclaim/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// Set by -ldflags at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)
	appLogger := logger.New()
	logger.SetDefault(appLogger)

	if envErr != nil {
		appLogger.Info("No .env file loaded, reading the process environment")
	}

	if err := cfg.Validate(); err != nil {
		appLogger.Error("Invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("Database startup failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	rateLimiter := newRateLimiter(cfg, db, appLogger)

	appRouter, err := routes.NewRouter(cfg, db, rateLimiter, appLogger)
	if err != nil {
		appLogger.Error("Failed to build services", slog.Any("error", err))
		os.Exit(1)
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	if stop := startNotifications(rootCtx, cfg, appRouter, appLogger); stop != nil {
		defer stop()
	}

	// Feed poll, sweep and deadline reminders run until rootCtx ends
	jobs := appRouter.Jobs()
	jobs.Start(rootCtx)
	defer jobs.Stop()

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        newEngine(appRouter, rateLimiter, appLogger),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("AutoClaim API listening",
			slog.String("address", srv.Addr),
			slog.String("base_path", cfg.GetAPIBasePath()),
			slog.String("version", Version),
			slog.String("commit", GitCommit),
			slog.String("built", BuildTime),
			slog.Bool("kafka", cfg.Kafka.Enabled),
			slog.Bool("feed", cfg.Pipeline.FeedURL != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server stopped", slog.Any("error", err))
			rootCancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		appLogger.Info("Shutdown requested", slog.String("signal", sig.String()))
	case <-rootCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}
	rootCancel()
	appLogger.Info("AutoClaim API stopped")
}

// newRateLimiter returns nil when rate limiting is switched off.
func newRateLimiter(cfg *config.Config, db *database.DB, log *logger.Logger) *ratelimit.RateLimiter {
	rl := cfg.RateLimit
	if !rl.Enabled {
		log.Info("Rate limiting disabled")
		return nil
	}

	limiter := ratelimit.NewRateLimiter(db.GetRedisClient(), &ratelimit.Config{
		Enabled:         rl.Enabled,
		WindowDuration:  rl.WindowDuration,
		DefaultRequests: rl.DefaultRequests,
		AuthRequests:    rl.AuthRequests,
		ParseRequests:   rl.ParseRequests,
		ClaimRequests:   rl.ClaimRequests,
		SubmitRequests:  rl.SubmitRequests,
		AdminRequests:   rl.AdminRequests,
		HealthRequests:  rl.HealthRequests,
		WhitelistedIPs:  rl.WhitelistedIPs,
	})
	log.Info("Rate limiting enabled",
		slog.Duration("window", rl.WindowDuration),
		slog.Int("default_requests", rl.DefaultRequests),
		slog.Int("whitelisted", len(rl.WhitelistedIPs)),
	)
	return limiter
}

// startNotifications wires claim emails through Kafka. Without Kafka the
// debug observer on the bus is the only consumer of claim events. The
// returned func, if any, stops the producer and consumers.
func startNotifications(ctx context.Context, cfg *config.Config, appRouter *routes.Router, log *logger.Logger) func() {
	if !cfg.Kafka.Enabled {
		log.Info("Kafka disabled: claim events are logged only")
		return nil
	}

	svc, err := notifications.NewEmailNotificationService(cfg, appRouter.Users(), appRouter.Claims(), log)
	if err != nil {
		log.Error("Claim emails unavailable", slog.Any("error", err))
		return nil
	}
	appRouter.EventBus().Register(svc.Notifier())

	if err := svc.Start(ctx); err != nil {
		log.Error("Failed to start notification consumers", slog.Any("error", err))
		return nil
	}
	log.Info("Claim emails enabled", slog.String("topic", cfg.Kafka.Topic), slog.Int("workers", cfg.Kafka.Workers))

	return func() {
		if err := svc.Stop(); err != nil {
			log.Error("Notification shutdown failed", slog.Any("error", err))
		}
	}
}

func newEngine(appRouter *routes.Router, rateLimiter *ratelimit.RateLimiter, log *logger.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLogger(log), gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
	}

	appRouter.SetupRoutes(engine)
	return engine
}
