package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPHost string
	HTTPPort string

	OTLPEndpoint string

	Tracking TrackingConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// TrackingConfig carries the click validation, attribution and payout knobs.
// It is immutable after Load and threaded into each component at construction.
type TrackingConfig struct {
	DefaultAttributionModel string
	AttributionWindowDays   int
	DuplicateWindowHours    int
	SuspiciousIPThreshold   int
	CookieExpiryDays        int
	CustomerCookieDays      int
	CommissionHoldDays      int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "refgate"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  environment,
		HTTPHost:     getenv("HTTP_HOST", ""),
		HTTPPort:     getenv("HTTP_PORT", "8080"),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
		Tracking: TrackingConfig{
			DefaultAttributionModel: getenv("DEFAULT_ATTRIBUTION_MODEL", "last-click"),
			AttributionWindowDays:   getenvInt("ATTRIBUTION_WINDOW_DAYS", 30),
			DuplicateWindowHours:    getenvInt("DUPLICATE_CLICK_WINDOW_HOURS", 24),
			SuspiciousIPThreshold:   getenvInt("SUSPICIOUS_IP_THRESHOLD", 100),
			CookieExpiryDays:        getenvInt("COOKIE_EXPIRY_DAYS", 30),
			CustomerCookieDays:      getenvInt("CUSTOMER_COOKIE_DAYS", 365),
			CommissionHoldDays:      getenvInt("COMMISSION_HOLD_DAYS", 30),
		},
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "refgate"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),
		RedisAddr:         getenv("REDIS_ADDR", ""),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),
		RedisDB:           getenvInt("REDIS_DB", 0),
	}

	return cfg
}

// IsProduction reports whether the app runs with production hardening
// (Secure cookies, JSON logs).
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
