package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process configuration.
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Port string
	Env  string // development, staging, production

	Database DatabaseConfig
	Redis    RedisConfig // 결과 캐시
	Naver    NaverConfig // 외부 시세 소스

	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis settings.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// NaverConfig holds Naver Finance settings.
type NaverConfig struct {
	BaseURL      string
	ChartBaseURL string
	RatePerSec   float64 // 초당 요청 제한
}

// Load reads configuration from the environment, preferring a local
// .env file when one exists.
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "aegis_backtest"),
			User:            getEnv("DB_USER", "aegis_backtest"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		Naver: NaverConfig{
			BaseURL:      getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			ChartBaseURL: getEnv("NAVER_CHART_BASE_URL", "https://fchart.stock.naver.com"),
			RatePerSec:   getEnvAsFloat("NAVER_RATE_PER_SEC", 5.0),
		},

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.Env {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}
	return nil
}

// loadEnvFile probes the working directory and the executable's parent
// directories for a .env file.
func loadEnvFile() {
	paths := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(dir, ".env"),
			filepath.Join(dir, "..", ".env"),
			filepath.Join(dir, "..", "..", ".env"),
		)
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsDuration(key, fallback string) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}
