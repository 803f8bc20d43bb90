// availability-service exposes the rotation engine over a private admin HTTP
// surface: trigger a run, inspect inventory stats, health check.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/starrymeet/availability/internal/archive"
	"github.com/starrymeet/availability/internal/config"
	"github.com/starrymeet/availability/internal/events"
	"github.com/starrymeet/availability/internal/httpserver"
	"github.com/starrymeet/availability/internal/rotation"
	"github.com/starrymeet/availability/internal/store"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		logger.Fatal("ping db", zap.Error(err))
	}
	if err := store.RunMigrations(db, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	st := store.NewPGStore(db)
	deps := rotation.Deps{
		Store:  st,
		Logger: logger,
		Config: rotation.Config{
			BatchSize:          cfg.BatchSize,
			BatchDelay:         cfg.BatchDelay,
			RetentionDays:      cfg.RetentionDays,
			PerChannelCalendar: cfg.PerChannelCalendar,
		},
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewProducer(events.ProducerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		})
		if err != nil {
			logger.Fatal("init kafka producer", zap.Error(err))
		}
		defer producer.Close()
		deps.Publisher = producer
	}
	if cfg.ArchiveBucket != "" {
		archiver, err := archive.NewS3Archiver(context.Background(), cfg.ArchiveBucket, cfg.ArchivePrefix)
		if err != nil {
			logger.Fatal("init s3 archiver", zap.Error(err))
		}
		deps.Archiver = archiver
	}

	runner := rotation.New(deps)
	server := httpserver.New(runner, st, logger)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.Router(),
	}

	go func() {
		logger.Info("availability service listening", zap.String("addr", cfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	waitForShutdown(httpServer, logger)
}

func waitForShutdown(srv *http.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
