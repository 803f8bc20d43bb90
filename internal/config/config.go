// Package config provides the environment-backed configuration shared by the
// rotator job and the admin service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr        string
	DatabaseURL string

	BatchSize          int
	BatchDelay         time.Duration
	RetentionDays      int
	PerChannelCalendar bool

	KafkaBrokers []string
	KafkaTopic   string

	ArchiveBucket string
	ArchivePrefix string
}

const (
	defaultAddr          = ":8070"
	defaultBatchSize     = 50
	defaultBatchDelay    = time.Second
	defaultRetentionDays = 30
	defaultKafkaTopic    = "availability.rotations"
)

func Load() (Config, error) {
	cfg := Config{
		Addr:               getEnv("AVAILABILITY_ADDR", defaultAddr),
		DatabaseURL:        firstNonEmpty(os.Getenv("AVAILABILITY_DATABASE_URL"), os.Getenv("DATABASE_URL")),
		BatchSize:          getInt("AVAILABILITY_BATCH_SIZE", defaultBatchSize),
		BatchDelay:         getDuration("AVAILABILITY_BATCH_DELAY", defaultBatchDelay),
		RetentionDays:      getInt("AVAILABILITY_RETENTION_DAYS", defaultRetentionDays),
		PerChannelCalendar: getBool("AVAILABILITY_PER_CHANNEL_CALENDAR", false),
		KafkaTopic:         getEnv("AVAILABILITY_KAFKA_TOPIC", defaultKafkaTopic),
		ArchiveBucket:      os.Getenv("AVAILABILITY_ARCHIVE_BUCKET"),
		ArchivePrefix:      os.Getenv("AVAILABILITY_ARCHIVE_PREFIX"),
	}
	if brokers := os.Getenv("AVAILABILITY_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL or AVAILABILITY_DATABASE_URL required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
