package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"site-content-store/internal/locale"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
)

type Config struct {
	// Server configuration
	ServerPort  string
	Environment string

	// Which backend the stores persist to
	StoreDriver string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	// Redis configuration
	RedisAddress string

	// Admin configuration
	JWTSecret         string
	JWTTTL            time.Duration
	AdminPasswordHash string
	AdminPassword     string

	// Locale configuration
	Locales       []string
	DefaultLocale string
	LocaleIcons   map[string]string

	// View counter
	ViewWorkers   int
	ViewQueueSize int
	ViewTimeout   time.Duration

	FrontendAddress string
}

// LoadConfig loads configuration from a .env file, if one is found, and the environment.
func LoadConfig(logger *slog.Logger) (*Config, error) {
	// Find .env file
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		// Try to find .env in parent directories
		envPath = filepath.Join("..", ".env")
		if _, err := os.Stat(envPath); os.IsNotExist(err) {
			envPath = filepath.Join("..", "..", ".env")
		}
	}

	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			logger.Warn("error loading .env file", slog.String("path", envPath), slog.Any("err", err))
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = generateRandomSecret(32)
		logger.Warn("JWT_SECRET not set, generated a random one; admin tokens won't survive a restart")
	}

	cfg := &Config{
		ServerPort:        getEnv("PORT", "8080"),
		Environment:       getEnv("ENV", "development"),
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "site_content"),
		SQLitePath:        getEnv("SQLITE_PATH", "content.db"),
		RedisAddress:      getEnv("REDIS_ADDRESS", "localhost:6379"),
		JWTSecret:         jwtSecret,
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		Locales:           splitList(getEnv("LOCALES", "en,nl")),
		DefaultLocale:     getEnv("DEFAULT_LOCALE", "en"),
		FrontendAddress:   getEnv("FRONTEND_ADDRESS", "https://www.erpmasterclasses.com"),
	}

	var err error
	if cfg.LocaleIcons, err = parsePairs(os.Getenv("LOCALE_ICONS")); err != nil {
		return nil, fmt.Errorf("LOCALE_ICONS: %w", err)
	}
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 72*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ViewTimeout, err = getDuration("VIEW_TIMEOUT", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.ViewWorkers, err = getInt("VIEW_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.ViewQueueSize, err = getInt("VIEW_QUEUE_SIZE", 1000); err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case DriverPostgres, DriverSQLite, DriverRedis:
	default:
		return nil, fmt.Errorf("STORE_DRIVER %q is not one of postgres, sqlite, redis", cfg.StoreDriver)
	}

	return cfg, nil
}

// LocaleTable builds the immutable locale table handed to every store.
func (c *Config) LocaleTable() (*locale.Table, error) {
	return locale.NewTable(c.Locales, c.DefaultLocale, c.LocaleIcons)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, value)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, value)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parsePairs reads "en=/flags/gb.svg,nl=/flags/nl.svg".
func parsePairs(value string) (map[string]string, error) {
	pairs := make(map[string]string)
	for _, part := range splitList(value) {
		k, v, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("malformed pair %q", part)
		}
		pairs[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return pairs, nil
}

// generateRandomSecret generates a random hex secret from length random bytes
func generateRandomSecret(length int) string {
	secret := make([]byte, length)
	if _, err := rand.Read(secret); err != nil {
		panic(err)
	}
	return hex.EncodeToString(secret)
}
