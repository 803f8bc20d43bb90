// availability-rotator runs one full availability generation cycle and
// exits. It is intended to be invoked on a schedule (daily or weekly cron).
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/starrymeet/availability/internal/archive"
	"github.com/starrymeet/availability/internal/config"
	"github.com/starrymeet/availability/internal/events"
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

	ctx := context.Background()
	deps := rotation.Deps{
		Store:  store.NewPGStore(db),
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
		archiver, err := archive.NewS3Archiver(ctx, cfg.ArchiveBucket, cfg.ArchivePrefix)
		if err != nil {
			logger.Fatal("init s3 archiver", zap.Error(err))
		}
		deps.Archiver = archiver
	}

	runner := rotation.New(deps)
	summary, err := runner.Run(ctx)
	if err != nil {
		logger.Fatal("rotation aborted", zap.Error(err))
	}

	logger.Info("rotation summary",
		zap.String("runId", summary.RunID.String()),
		zap.String("rotationId", summary.RotationID),
		zap.Int("profilesProcessed", summary.ProfilesProcessed),
		zap.Int("slotsGenerated", summary.SlotsGenerated),
		zap.Int("slotsSkipped", summary.SlotsSkipped),
		zap.Int("slotsIgnored", summary.SlotsIgnored),
		zap.Int("citiesUsed", summary.CitiesUsed),
		zap.Int("citiesInCooldown", summary.CitiesInCooldown),
		zap.Int64("slotsExpired", summary.SlotsExpired),
		zap.Int64("cooldownsRemoved", summary.CooldownsRemoved),
		zap.Float64("durationSeconds", summary.DurationSeconds),
		zap.Strings("errors", summary.Errors))

	if len(summary.Errors) > 0 {
		os.Exit(1)
	}
}
