package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT (staff tokens)
	JWTSecret string

	// Blob storage
	StorageDriver      string
	StorageDir         string
	PublicBaseURL      string
	StorageSigningKey  string
	StorageTimeout     time.Duration
	AgreementURLTTL    time.Duration
	ConfirmationURLTTL time.Duration

	// Settings cache (optional)
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	SettingsCacheTTL time.Duration

	// Calendar day used by the daily limit guard
	ShopTimezone string

	// Public submission rate limit (requests per minute per IP)
	PublicRateLimit int

	// Server
	Port        string
	CORSOrigins string
	AppEnv      string
	SentryDSN   string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env file not loaded", "error", err)
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "shopservice"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		StorageDriver:      getEnv("STORAGE_DRIVER", "local"),
		StorageDir:         getEnv("STORAGE_DIR", "./storage"),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		StorageSigningKey:  getEnv("STORAGE_SIGNING_KEY", ""),
		StorageTimeout:     parseDuration(getEnv("STORAGE_TIMEOUT", "10s"), 10*time.Second),
		AgreementURLTTL:    parseDuration(getEnv("AGREEMENT_URL_TTL", "15m"), 15*time.Minute),
		ConfirmationURLTTL: parseDuration(getEnv("CONFIRMATION_URL_TTL", "72h"), 72*time.Hour),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          parseInt(getEnv("REDIS_DB", "0"), 0),
		SettingsCacheTTL: parseDuration(getEnv("SETTINGS_CACHE_TTL", "5m"), 5*time.Minute),

		ShopTimezone: getEnv("SHOP_TIMEZONE", "UTC"),

		PublicRateLimit: parseInt(getEnv("PUBLIC_RATE_LIMIT", "30"), 30),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// Location returns the time zone that defines a calendar day for the shop.
// Unknown zone names fall back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ShopTimezone)
	if err != nil {
		slog.Warn("unknown SHOP_TIMEZONE, using UTC", "timezone", c.ShopTimezone, "error", err)
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
