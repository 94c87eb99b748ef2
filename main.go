package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"snack-gateway/auth"
	"snack-gateway/cart"
	"snack-gateway/clients"
	"snack-gateway/config"
	"snack-gateway/consumer"
	"snack-gateway/ephemeral"
	"snack-gateway/events"
	"snack-gateway/handlers"
	"snack-gateway/logging"
	"snack-gateway/orders"
	"snack-gateway/rabbitmq"
	"snack-gateway/review"
	"snack-gateway/session"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting snack gateway",
		zap.String("port", cfg.Port),
		zap.String("upstream", cfg.UpstreamURL),
		zap.Bool("events_enabled", cfg.EventsEnabled))

	// Set Gin mode based on environment
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	market := clients.NewMarketClient(cfg.UpstreamURL, cfg.UpstreamTimeout, logger)
	authService := auth.NewService(market, auth.NewTokenStore(cfg.SessionMaxAge), cfg.UserCacheTTL, logger)
	carts := cart.NewRegistry(market, logger, cfg.SessionMaxAge)

	store, closeStore := newEphemeralStore(cfg, logger)
	defer closeStore()

	tracker := consumer.NewActivityTracker(logger)
	publisher, stopEvents := newPublisher(cfg, tracker, logger)

	router := handlers.NewRouter(handlers.Deps{
		Market:    market,
		Auth:      authService,
		Carts:     carts,
		Submitter: orders.NewSubmitter(market, store, publisher, logger),
		Reviewer:  review.NewReviewer(market, publisher, logger),
		Tracker:   tracker,
		Sessions:  session.NewManager(cfg.SessionSecret, cfg.SessionMaxAge, cfg.SessionSecure, logger),
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	stopEvents()
	tracker.LogSummary()
	logger.Info("snack gateway shut down gracefully")
}

// newEphemeralStore uses Redis when REDIS_ADDR is set, otherwise process memory.
func newEphemeralStore(cfg *config.Config, logger *zap.Logger) (ephemeral.Store, func()) {
	if cfg.RedisAddr == "" {
		logger.Info("using in-memory ephemeral store")
		return ephemeral.NewMemoryStore(cfg.PurchaseCompleteTTL), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	logger.Info("using redis ephemeral store", zap.String("addr", cfg.RedisAddr))

	return ephemeral.NewRedisStore(client, cfg.PurchaseCompleteTTL), func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
}

// newPublisher routes order events through RabbitMQ when enabled. The consumer
// pool then feeds the tracker from the queue. Otherwise the tracker records
// events in process.
func newPublisher(cfg *config.Config, tracker *consumer.ActivityTracker, logger *zap.Logger) (events.Publisher, func()) {
	if !cfg.EventsEnabled {
		return tracker, func() {}
	}

	pool, err := rabbitmq.NewChannelPool(cfg.RabbitMQURL, cfg.RabbitMQQueue, cfg.ChannelPoolSize, logger)
	if err != nil {
		logger.Fatal("failed to create RabbitMQ channel pool", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	if cfg.NumWorkers > 0 {
		wg, err = consumer.StartPool(ctx, pool.Connection(), cfg.NumWorkers, pool.QueueName(), tracker, logger)
		if err != nil {
			cancel()
			pool.Close()
			logger.Fatal("failed to start consumer workers", zap.Error(err))
		}
	}

	return rabbitmq.NewPublisher(pool, cfg.RabbitMQQueue, logger), func() {
		cancel()
		wg.Wait()
		pool.Close()
	}
}
