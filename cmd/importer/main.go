package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"salesorder-api/internal/config"
	"salesorder-api/internal/db"
	"salesorder-api/internal/importer"
	"salesorder-api/internal/logger"
	"salesorder-api/internal/repository/customer"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to customer CSV export")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, cfgErr := config.FromEnv()
	log, err := logger.New("salesorder-importer", cfg.LogLevel)
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

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("open file", zap.String("file", filePath), zap.Error(err))
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, customer.NewPostgres(pool, log))

	start := time.Now()
	res, err := imp.Run(ctx)
	if err != nil {
		log.Fatal("import failed", zap.Int("upserted", res.Upserted), zap.Int("deleted", res.Deleted), zap.Error(err))
	}

	fmt.Printf("Imported %d customers, deleted %d, in %s\n", res.Upserted, res.Deleted, time.Since(start).Truncate(time.Millisecond))
}
