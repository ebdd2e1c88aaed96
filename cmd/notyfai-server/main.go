// Command notyfai-server starts the notyfai HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/and161185/notyfai/internal/config"
	"github.com/and161185/notyfai/internal/hooktoken"
	"github.com/and161185/notyfai/internal/identity"
	"github.com/and161185/notyfai/internal/limiter"
	"github.com/and161185/notyfai/internal/migrate"
	"github.com/and161185/notyfai/internal/notify"
	"github.com/and161185/notyfai/internal/push/fcm"
	"github.com/and161185/notyfai/internal/repository/postgres"
	httpserver "github.com/and161185/notyfai/internal/server/http"
	"github.com/and161185/notyfai/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and serves the API until SIGINT/SIGTERM.
func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr()),
	)

	signer, err := hooktoken.New([]byte(cfg.HookSecret))
	if err != nil {
		logger.Fatal("hook token signer", zap.Error(err))
	}
	if cfg.FirebaseServiceAccount == "" {
		logger.Warn("FIREBASE_SERVICE_ACCOUNT not set; push notifications will fail")
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Migrate {
		if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
			logger.Fatal("migrate up", zap.Error(err))
		}
	}

	// DB pool
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer pool.Close()

	// Repositories
	db := &postgres.DB{Pool: pool}
	instanceRepo := postgres.NewInstanceRepo(db)
	eventRepo := postgres.NewEventRepo(db)
	tokenRepo := postgres.NewPushTokenRepo(db)

	lim := limiter.NewPG(pool, 15*time.Minute, 5, 15*time.Minute)
	idp := identity.New(cfg.SupabaseURL, cfg.SupabasePublishableKey)

	notifier := notify.New(tokenRepo, fcm.New(cfg.FirebaseServiceAccount), logger)

	// Services
	authSvc := service.NewAuthService(idp, lim)
	instanceSvc := service.NewInstanceService(instanceRepo, signer, cfg.BaseURL)
	hookSvc := service.NewHookService(signer, instanceRepo, eventRepo, logger)
	deviceSvc := service.NewDeviceService(tokenRepo)

	gin.SetMode(gin.ReleaseMode)
	api := httpserver.New(authSvc, instanceSvc, hookSvc, deviceSvc, notifier, logger)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr()))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	// in-flight fan-outs finish before the pool closes
	if err := notifier.Wait(shutdownCtx); err != nil {
		logger.Warn("notifications still running at exit", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
