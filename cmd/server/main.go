// Package main is the entry point for the admissions API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"admissions/internal/config"
	coresequence "admissions/internal/core/sequence"
	"admissions/internal/domain/auth"
	"admissions/internal/domain/candidate"
	"admissions/internal/domain/program"
	v1 "admissions/internal/infrastructure/http/v1"
	"admissions/internal/infrastructure/http/v1/handlers"
	"admissions/internal/infrastructure/metrics"
	"admissions/internal/infrastructure/sequence"
	"admissions/internal/infrastructure/storage/postgres"
	"admissions/internal/infrastructure/storage/postgres/candidate_repo"
	"admissions/internal/infrastructure/storage/postgres/program_repo"
	"admissions/internal/infrastructure/storage/postgres/staff_repo"
	redisstore "admissions/internal/infrastructure/storage/redis"
	"admissions/pkg/logger"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting admissions server", "version", version, "env", cfg.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.MaxConns = int32(cfg.Database.MaxConns)
	poolCfg.MinConns = int32(cfg.Database.MinConns)
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	if err := postgres.Migrate(ctx, txManager); err != nil {
		log.Fatalw("failed to migrate database", "error", err)
	}
	postgres.LogPoolStats(ctx, pool.Pool)

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	health := handlers.NewHealthHandler(pool, version)

	// --- Number allocation ---
	store, closeStore, err := newSequenceStore(ctx, cfg, txManager, health)
	if err != nil {
		log.Fatalw("failed to create sequence store", "backend", cfg.Sequence.Backend, "error", err)
	}
	defer closeStore()

	allocator := sequence.New(store, cfg.Sequence.Starts,
		sequence.WithMetrics(appMetrics),
		sequence.WithLogger(log.WithComponent("sequence")),
	)
	log.Infow("sequence allocator ready",
		"backend", cfg.Sequence.Backend,
		"registration_start", cfg.Sequence.Starts.Start(coresequence.RegistrationNumber),
		"application_start", cfg.Sequence.Starts.Start(coresequence.ApplicationNumber),
	)

	// --- Services ---
	jwtService := auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		AccessTokenTTL: cfg.JWT.TTL,
	})

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}

	programService := program.NewService(program_repo.NewRepo(txManager), txManager)

	candidateService := candidate.NewService(candidate.ServiceConfig{
		Repo:          candidate_repo.NewRepo(txManager),
		Allocator:     allocator,
		TxManager:     txManager,
		Programs:      programService,
		Tokens:        jwtService,
		Auditor:       auditService,
		Metrics:       appMetrics,
		Events:        postgres.NewOutboxPublisher(txManager),
		MaxRetries:    cfg.Signup.MaxRetries,
		AcademicYear:  cfg.Signup.AcademicYear,
		Transactional: cfg.Signup.Transactional,
	})

	staffService := auth.NewService(
		staff_repo.NewRepo(txManager),
		jwtService,
		auth.LogMailer{},
		auth.DefaultServiceConfig(),
	)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		Health:       health,
		Gatherer:     registry,
		JWTValidator: jwtService,
		Candidates:   candidateService,
		Applications: candidateService,
		Programs:     programService,
		StaffAuth:    staffService,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Infow("server starting", "port", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// newSequenceStore builds the counter store selected by SEQUENCE_BACKEND.
// The returned close function releases the backend's own connections.
func newSequenceStore(ctx context.Context, cfg *config.Config, txm *postgres.TxManager, health *handlers.HealthHandler) (coresequence.Store, func(), error) {
	switch cfg.Sequence.Backend {
	case config.BackendRedis:
		client, err := redisstore.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		health.AddCheck("redis", client.Health)
		return redisstore.NewSequenceStore(client.Client), func() { _ = client.Close() }, nil
	case config.BackendMemory:
		logger.Warn(ctx, "in-memory sequence store: numbers are not shared between instances and reset on restart")
		return sequence.NewMemoryStore(), func() {}, nil
	default:
		return postgres.NewSequenceStore(txm), func() {}, nil
	}
}
