package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"salesorder-api/internal/config"
	"salesorder-api/internal/db"
	"salesorder-api/internal/events"
	"salesorder-api/internal/httpserver"
	"salesorder-api/internal/logger"
	"salesorder-api/internal/metrics"
	customerrepo "salesorder-api/internal/repository/customer"
	salesorderrepo "salesorder-api/internal/repository/salesorder"
	customersvc "salesorder-api/internal/service/customer"
	salesordersvc "salesorder-api/internal/service/salesorder"
)

func main() {
	cfg, cfgErr := config.FromEnv()
	log, err := logger.New("salesorder-api", cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	if cfgErr != nil {
		log.Warn("config file ignored, using defaults and environment", zap.Error(cfgErr))
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		log.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	m := metrics.New()

	customerRepo := customerrepo.NewPostgres(dbpool, log)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis not reachable, customer cache will fall through", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cancel()
		customerRepo = customerrepo.NewCached(customerRepo, rdb, cfg.CustomerCacheTTL, log)
		log.Info("customer cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CustomerCacheTTL))
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrdersTopic, log)
		log.Info("event publishing enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaOrdersTopic))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("close publisher", zap.Error(err))
		}
	}()

	salesOrderRepo := salesorderrepo.NewPostgres(dbpool, log)
	customerService := customersvc.New(customerRepo, m, log)
	salesOrderService := salesordersvc.New(salesOrderRepo, customerRepo, publisher, m, log)

	srv, err := httpserver.New(cfg.HTTPAddr, log, dbpool, httpserver.Deps{
		SalesOrderSvc:  salesOrderService,
		CustomerSvc:    customerService,
		Metrics:        m,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		log.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	} else {
		log.Info("server stopped")
	}
}
