package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/quillpay/ledger/internal/adapter/http"
	"github.com/quillpay/ledger/internal/adapter/http/handler"
	"github.com/quillpay/ledger/internal/adapter/http/middleware"
	postgresRepo "github.com/quillpay/ledger/internal/adapter/repository/postgres"
	redisRepo "github.com/quillpay/ledger/internal/adapter/repository/redis"
	"github.com/quillpay/ledger/internal/dispatcher"
	"github.com/quillpay/ledger/internal/infrastructure/config"
	"github.com/quillpay/ledger/internal/infrastructure/logger"
	"github.com/quillpay/ledger/internal/infrastructure/metrics"
	"github.com/quillpay/ledger/internal/infrastructure/postgres"
	"github.com/quillpay/ledger/internal/infrastructure/redis"
	"github.com/quillpay/ledger/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	txnRepo := postgresRepo.NewTransactionRepository(pool)
	webhookRepo := postgresRepo.NewWebhookRepository(pool)
	deliveryRepo := postgresRepo.NewDeliveryRepository(pool)
	apiKeyRepo := postgresRepo.NewAPIKeyRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(log)

	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	// Use cases
	accountUC := usecase.NewAccountUseCase(accountRepo, apiKeyRepo, idGen, cache, m)
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, txnRepo, webhookRepo, deliveryRepo, idGen, retrier, m)
	ledgerUC.SetTimeout(cfg.TransactionTimeout)
	webhookUC := usecase.NewWebhookUseCase(webhookRepo, deliveryRepo, idGen)

	// Webhook dispatcher
	dispatcherCtx, stopDispatcher := context.WithCancel(ctx)
	defer stopDispatcher()

	disp := dispatcher.New(dispatcher.Config{
		DeliveryRepo:     deliveryRepo,
		WebhookRepo:      webhookRepo,
		Logger:           log,
		BatchSize:        cfg.DispatcherBatchSize,
		Interval:         cfg.DispatcherInterval,
		Lease:            cfg.DispatcherLease,
		RequestTimeout:   cfg.WebhookRequestTimeout,
		DisableThreshold: cfg.WebhookDisableThreshold,
		Metrics:          m,
	})
	go func() {
		if err := disp.Start(dispatcherCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("dispatcher stopped")
		}
	}()

	// Rate limiter
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			SoftThreshold: cfg.RateLimitSoft,
			HardThreshold: cfg.RateLimitHard,
			Window:        cfg.RateLimitWindow,
			BlockDuration: cfg.RateLimitBlockTime,
		})
		go func() {
			ticker := time.NewTicker(cfg.RateLimitWindow)
			defer ticker.Stop()
			for {
				select {
				case <-dispatcherCtx.Done():
					return
				case <-ticker.C:
					rateLimiter.Cleanup()
				}
			}
		}()
	}

	// Handlers and router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:   handler.NewAccountHandler(accountUC),
		TransferHandler:  handler.NewTransferHandler(ledgerUC),
		WebhookHandler:   handler.NewWebhookHandler(webhookUC),
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),
		Authenticator:    accountUC,
		IdempotencyStore: idempotencyStore,
		RateLimiter:      rateLimiter,
		Logger:           log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopDispatcher()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
