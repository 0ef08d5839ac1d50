// cmd/worker-manager/main.go
package main

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"marketing-api/internal/api"
	"marketing-api/internal/app"
	"marketing-api/internal/common/camunda"
	"marketing-api/internal/common/config"
	"marketing-api/internal/common/logger"
	"marketing-api/internal/common/observability"

	rb "marketing-api/internal/workers/leads/route-booking"
	rcf "marketing-api/internal/workers/leads/route-contact-form"
	rt "marketing-api/internal/workers/market/refresh-trends"
)

//go:embed processes/*.bpmn
var processes embed.FS

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs, err := observability.New("worker-manager")
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe client with retry ---
	var zeebe *camunda.Client
	err = app.Retry(ctx, 10, 2*time.Second, log, "Zeebe client initialization", func(context.Context) error {
		var err error
		zeebe, err = camunda.NewClient(cfg.Camunda)
		return err
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	if err := deployProcesses(ctx, zeebe, log); err != nil {
		zapLog.Fatal("process deployment failed", zap.Error(err))
	}

	services, err := app.Build(ctx, cfg, log, obs, app.Options{Attempts: 15, InitialDelay: 2 * time.Second})
	if err != nil {
		zapLog.Fatal("service wiring failed", zap.Error(err))
	}
	defer services.Close()
	zapLog.Info("All external service clients initialized")

	manager := camunda.NewManager(log)
	if err := addWorkers(manager, cfg, zeebe, services, log); err != nil {
		zapLog.Fatal("failed to create workers", zap.Error(err))
	}

	count, err := manager.RegisterAll()
	if err != nil {
		zapLog.Fatal("failed to register workers", zap.Error(err))
	}
	defer manager.Close()
	zapLog.Info("Workers registered successfully",
		zap.Int("count", count),
		zap.Strings("taskTypes", manager.TaskTypes()),
	)

	srv := &http.Server{
		Addr:              cfg.HTTP.MetricsAddress,
		Handler:           opsRouter(cfg, zeebe, services),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// deployProcesses uploads the bundled BPMN definitions. Zeebe ignores a
// resource whose content has not changed.
func deployProcesses(ctx context.Context, zeebe *camunda.Client, log logger.Logger) error {
	return fs.WalkDir(processes, "processes", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		definition, err := processes.ReadFile(path)
		if err != nil {
			return err
		}
		key, err := zeebe.Deploy(ctx, d.Name(), definition)
		if err != nil {
			return err
		}
		log.Info("Process deployed", map[string]interface{}{"resource": d.Name(), "deploymentKey": key})
		return nil
	})
}

func addWorkers(m *camunda.Manager, cfg *config.Config, zeebe *camunda.Client, services *app.Services, log logger.Logger) error {
	bookingOpts := rb.HandlerOptions{AppConfig: cfg, Camunda: zeebe, Logger: log}
	contactOpts := rcf.HandlerOptions{AppConfig: cfg, Camunda: zeebe, Logger: log}
	if services.Leads != nil {
		bookingOpts.Router = services.Leads
		contactOpts.Router = services.Leads
	}

	booking, err := rb.NewHandler(bookingOpts)
	if err != nil {
		return err
	}
	m.Add(booking)

	contact, err := rcf.NewHandler(contactOpts)
	if err != nil {
		return err
	}
	m.Add(contact)

	refresh, err := rt.NewHandler(rt.HandlerOptions{
		AppConfig: cfg,
		Camunda:   zeebe,
		Market:    services.Market,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	m.Add(refresh)
	return nil
}

func opsRouter(cfg *config.Config, zeebe *camunda.Client, services *app.Services) http.Handler {
	checks := map[string]api.Check{"camunda": zeebe.HealthCheck}
	for name, check := range services.Checks {
		checks[name] = check
	}
	health := api.NewHealthHandler("worker-manager", cfg.App.Version, checks)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/health", health.Health)
	engine.GET("/ready", health.Ready)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.Any("/debug/pprof/*path", gin.WrapH(http.DefaultServeMux))
	return engine
}
