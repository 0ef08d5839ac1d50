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
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"marketing-api/internal/api"
	"marketing-api/internal/app"
	"marketing-api/internal/common/config"
	"marketing-api/internal/common/logger"
	"marketing-api/internal/common/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting marketing API",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := app.Build(ctx, cfg, log, obs, app.Options{Attempts: 10, InitialDelay: 2 * time.Second})
	if err != nil {
		zapLog.Fatal("service wiring failed", zap.Error(err))
	}
	defer services.Close()

	deps := api.Dependencies{
		App:           cfg.App,
		HTTP:          cfg.HTTP,
		Market:        services.Market,
		WebhookSecret: cfg.CRM.WebhookSecret,
		Checks:        services.Checks,
		Observability: obs,
		Logger:        log,
	}
	// Interface fields stay nil when the backend is off.
	if services.Leads != nil {
		deps.Leads = services.Leads
	}
	if services.Producer != nil {
		deps.Events = services.Producer
	}

	srv := api.NewServer(cfg.HTTP, api.NewRouter(deps))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLog.Info("HTTP server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("HTTP server stopped with error", zap.Error(err))
		return
	}
	zapLog.Info("Marketing API stopped gracefully")
}
