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

	"github.com/go-chi/chi/v5"

	"github.com/drumcap/hooklabs-elite-sub004/internal/adapters/audit"
	httpHandlers "github.com/drumcap/hooklabs-elite-sub004/internal/adapters/http/handlers"
	httpMiddleware "github.com/drumcap/hooklabs-elite-sub004/internal/adapters/http/middleware"
	memorystorage "github.com/drumcap/hooklabs-elite-sub004/internal/adapters/storage/memory"
	redisstorage "github.com/drumcap/hooklabs-elite-sub004/internal/adapters/storage/redis"
	"github.com/drumcap/hooklabs-elite-sub004/internal/config"
	"github.com/drumcap/hooklabs-elite-sub004/internal/core/ports"
	"github.com/drumcap/hooklabs-elite-sub004/internal/core/services"
	"github.com/drumcap/hooklabs-elite-sub004/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := observability.NewLogger(cfg.Server.LogLevel)
	defer func() { _ = logger.Sync() }()

	metrics := observability.NewMetrics()

	registry, err := services.NewPolicyRegistry(cfg.Admission.DefaultPolicy, cfg.Admission.Policies)
	if err != nil {
		logger.Fatalw("failed to build policy registry", "err", err)
	}

	storage, closeFn, err := initStorage(cfg.Storage, registry)
	if err != nil {
		logger.Fatalw("failed to init storage", "err", err)
	}
	defer closeFn()

	auditSink := initAudit(cfg, storage, logger)

	limiter, err := services.NewWindowLimiter(storage, logger)
	if err != nil {
		logger.Fatalw("failed to create window limiter", "err", err)
	}

	detector, err := services.NewAbuseDetector(storage, services.AbuseConfig{
		Threshold:     cfg.Admission.Abuse.Threshold,
		Window:        cfg.Admission.Abuse.Window,
		BlockDuration: cfg.Admission.Abuse.BlockDuration,
	}, logger)
	if err != nil {
		logger.Fatalw("failed to create abuse detector", "err", err)
	}

	admission, err := services.NewAdmissionService(registry, limiter, detector, auditSink, metrics, logger, services.AdmissionConfig{
		FailClosedCategories: cfg.Admission.FailClosedCategories,
	})
	if err != nil {
		logger.Fatalw("failed to create admission service", "err", err)
	}

	r := chi.NewRouter()
	r.Handle("/metrics", metrics.Handler())
	r.Group(func(r chi.Router) {
		r.Use(httpMiddleware.NewAdmissionMiddleware(admission, httpMiddleware.Options{
			PrincipalHeader:    cfg.Admission.PrincipalHeader,
			TrustedIdentifiers: cfg.Admission.TrustedIdentifiers,
			TrustedNetworks:    cfg.Admission.TrustedNetworks,
			Metrics:            metrics,
			Logger:             logger,
		}))
		r.Get("/healthz", httpHandlers.HealthHandler)
		r.Get("/api/echo", httpHandlers.EchoHandler)
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infow("admission server starting", "port", cfg.Server.Port, "storage", cfg.Storage.Type)

	errCh := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("server error", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("graceful shutdown failed", "err", err)
	}
}

func initStorage(cfg config.StorageConfig, registry *services.PolicyRegistry) (ports.Storage, func(), error) {
	switch cfg.Type {
	case "memory":
		storage := memorystorage.New(memorystorage.Config{
			SweepInterval: registry.ShortestWindow(),
		})
		return storage, func() { _ = storage.Close() }, nil
	case "redis":
		redisCfg := redisstorage.Config{
			Addr:      fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			OpTimeout: cfg.Redis.OpTimeout,
		}
		storage, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, nil, err
		}
		return storage, func() {
			if err := storage.Close(); err != nil {
				log.Printf("failed to close redis storage: %v", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func initAudit(cfg config.Config, storage ports.Storage, logger *observability.Logger) ports.AuditSink {
	loggerSink := audit.NewLoggerSink(logger)

	if !cfg.Admission.AuditRedis {
		return loggerSink
	}

	redisStorage, ok := storage.(*redisstorage.Storage)
	if !ok {
		logger.Warnw("redis audit sink requires redis storage, using log sink only")
		return loggerSink
	}

	return audit.NewMultiSink(loggerSink, audit.NewRedisSink(redisStorage.Client()))
}
