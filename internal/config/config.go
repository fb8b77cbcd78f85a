package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Config holds everything read from the environment at startup
type Config struct {
	Port    string
	GinMode string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PricingBatchSize int
	PricingSchedule  string
	PricingAtomic    bool
	PricingLockTTL   time.Duration

	// StorePickupEnabled offers in-store collection next to the configured
	// shipping methods
	StorePickupEnabled bool
	StorePickupFee     decimal.Decimal

	OTLPEndpoint string
	LogLevel     string
}

// Load reads configs/.env when present and falls back to defaults for anything unset
func Load() Config {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Debug().Msg("No configs/.env file found or error loading it")
	}

	return Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "postgres"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		PricingBatchSize: getInt("CATALOG_PRICING_BATCH_SIZE", 2000),
		PricingSchedule:  getEnv("CATALOG_PRICING_SCHEDULE", "@hourly"),
		PricingAtomic:    getBool("CATALOG_PRICING_ATOMIC", false),
		PricingLockTTL:   getDuration("CATALOG_PRICING_LOCK_TTL", 10*time.Minute),

		StorePickupEnabled: getBool("STORE_PICKUP_ENABLED", false),
		StorePickupFee:     getDecimal("STORE_PICKUP_FEE", decimal.Zero),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}
}

// DSN builds the postgres connection string
func (c Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSslMode
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid integer, using default")
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid boolean, using default")
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid duration, using default")
		return fallback
	}
	return d
}

func getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid amount, using default")
		return fallback
	}
	return d
}
