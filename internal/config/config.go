package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Server
	Port        string
	Environment string

	// NATS
	NATSURL string

	// Redis
	RedisURL string

	// Uploads
	UploadDir      string
	MaxFileSize    int64
	ProcessTimeout time.Duration

	// Forecasting
	ForecastHorizonDays int
	ForecastMinHistory  int

	// Pagination
	DefaultPageSize int
	MaxPageSize     int
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	maxFileSize, _ := strconv.ParseInt(getEnv("MAX_FILE_SIZE", "52428800"), 10, 64)
	processTimeout, _ := strconv.Atoi(getEnv("PROCESS_TIMEOUT_SECONDS", "600"))
	horizonDays, _ := strconv.Atoi(getEnv("FORECAST_HORIZON_DAYS", "30"))
	minHistory, _ := strconv.Atoi(getEnv("FORECAST_MIN_HISTORY", "10"))
	defaultPageSize, _ := strconv.Atoi(getEnv("DEFAULT_PAGE_SIZE", "20"))
	maxPageSize, _ := strconv.Atoi(getEnv("MAX_PAGE_SIZE", "100"))

	return &Config{
		// Database - fetch password from GCP Secret Manager if enabled
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: secrets.GetDBPassword(),
		DBName:     getEnv("DB_NAME", "ainventory_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// NATS
		NATSURL: getEnv("NATS_URL", ""),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Uploads
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxFileSize:    maxFileSize,
		ProcessTimeout: time.Duration(processTimeout) * time.Second,

		// Forecasting
		ForecastHorizonDays: horizonDays,
		ForecastMinHistory:  minHistory,

		// Pagination
		DefaultPageSize: defaultPageSize,
		MaxPageSize:     maxPageSize,
	}
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	// TranslateError lets callers match unique violations as gorm.ErrDuplicatedKey,
	// which the reference resolver relies on for race-safe auto-creation.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// InitRedis returns a Redis client, or nil when REDIS_URL is not configured.
func InitRedis(cfg *Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
