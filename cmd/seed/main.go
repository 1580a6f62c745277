package main

import (
	"context"

	"go.uber.org/zap"

	"salesorder-api/internal/config"
	"salesorder-api/internal/db"
	"salesorder-api/internal/logger"
	customerrepo "salesorder-api/internal/repository/customer"
	"salesorder-api/internal/seed"
)

func main() {
	cfg, cfgErr := config.FromEnv()
	log, err := logger.New("salesorder-seed", cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	if cfgErr != nil {
		log.Warn("config file ignored, using defaults and environment", zap.Error(cfgErr))
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		log.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	n, err := seed.Apply(ctx, customerrepo.NewPostgres(pool, log))
	if err != nil {
		log.Fatal("seed apply", zap.Error(err))
	}

	log.Info("seed applied", zap.Int("customers", n))
}
