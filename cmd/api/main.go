// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pegplug/pegplug-backend/internal/admin"
	"github.com/pegplug/pegplug-backend/internal/auth"
	"github.com/pegplug/pegplug-backend/internal/config"
	"github.com/pegplug/pegplug-backend/internal/core"
	"github.com/pegplug/pegplug-backend/internal/geofence"
	"github.com/pegplug/pegplug-backend/internal/health"
	"github.com/pegplug/pegplug-backend/internal/merchant"
	"github.com/pegplug/pegplug-backend/internal/middleware"
	"github.com/pegplug/pegplug-backend/internal/notify"
	"github.com/pegplug/pegplug-backend/internal/redemption"
	"github.com/pegplug/pegplug-backend/internal/reward"
	"github.com/pegplug/pegplug-backend/internal/server"
	"github.com/pegplug/pegplug-backend/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	verifier, err := auth.NewVerifier(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("token verifier initialized",
		"algorithm", "ES256",
		"key_id", verifier.GetKeyID(),
	)

	clock := core.SystemClock{}
	policy := reward.NewPolicy(cfg.Reward)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, policy.DailySpinAllotment, clock)
	userHandler := user.NewHandler(userSvc)

	merchantRepo := merchant.NewRepository(db.DB)
	merchantSvc := merchant.NewService(merchantRepo, clock)
	merchantHandler := merchant.NewHandler(merchantSvc)

	sender := &notify.LogSender{Logger: logger}
	scheduler := notify.NewScheduler(
		sender,
		clock,
		cfg.Redemption.ReminderLead,
		cfg.Redemption.MinLead,
		logger,
	)

	redemptionRepo := redemption.NewRepository(db.DB)
	redemptionSvc := redemption.NewService(
		redemptionRepo,
		scheduler,
		clock,
		cfg.Redemption.Validity,
		logger,
	)
	redemptionHandler := redemption.NewHandler(redemptionSvc, merchantSvc, clock)

	engine := reward.NewEngine(policy, nil)
	rewardSvc := reward.NewService(
		userSvc,
		merchantSvc,
		redemptionSvc,
		engine,
		logger,
	)
	rewardHandler := reward.NewHandler(rewardSvc, clock)

	trigger := geofence.NewTrigger(
		merchantSvc,
		redemptionSvc,
		scheduler,
		redis.Client,
		cfg.Geofence.PresenceTTL,
		logger,
	)
	geofenceHandler := geofence.NewHandler(trigger)

	healthHandler := health.NewHandler(db, redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", verifier.GetJWKSHandler())

	authenticator := middleware.Authenticator(verifier)
	adminOnly := middleware.RequireAdmin
	tieredLimit := middleware.TieredRateLimiter(
		redis.Client,
		middleware.DefaultTiers,
	)

	// The tiered limiter reads the tier claim, so it must sit inside
	// the authenticator.
	authed := func(next http.Handler) http.Handler {
		return authenticator(tieredLimit(next))
	}

	router.Route("/v1", func(r chi.Router) {
		merchantHandler.RegisterRoutes(r, authed)
		userHandler.RegisterRoutes(r, authed)
		rewardHandler.RegisterRoutes(r, authed)
		redemptionHandler.RegisterRoutes(r, authed)
		geofenceHandler.RegisterRoutes(r, authed)

		redemptionHandler.RegisterMerchantRoutes(r)

		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
