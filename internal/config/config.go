package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	// StoreDriver selects the remote store adapter: gorm or rest.
	StoreDriver string

	Log       LogConfig
	Telemetry TelemetryConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBAutoMigrate     bool

	Rest RestConfig

	Redis RedisConfig

	// Numbering selects how invoice numbers are issued: cache or redis.
	Numbering string

	InvoiceConfigPath string
}

type LogConfig struct {
	Level  string
	Format string
	// Output is a zap sink path; stdout is left to command output.
	Output string
}

// TelemetryConfig drives both the OTLP trace and metric exporters.
type TelemetryConfig struct {
	Enabled       bool
	Endpoint      string
	Protocol      string
	SamplingRatio float64
}

type RestConfig struct {
	URL        string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

const (
	StoreDriverGorm = "gorm"
	StoreDriverRest = "rest"

	NumberingCache = "cache"
	NumberingRedis = "redis"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "siino"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		StoreDriver: normalizeDriver(getenv("STORE_DRIVER", StoreDriverGorm)),

		Log: LogConfig{
			Level:  strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			Format: strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
			Output: strings.TrimSpace(getenv("LOG_OUTPUT", "stderr")),
		},
		Telemetry: TelemetryConfig{
			Enabled:       getenvBool("OTEL_ENABLED", false),
			Endpoint:      strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")),
			Protocol:      strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			SamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		},

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "siino"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "siino.db"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 20)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),
		DBAutoMigrate:     getenvBool("DATABASE_AUTO_MIGRATE", true),

		Rest: RestConfig{
			URL:        strings.TrimRight(strings.TrimSpace(getenv("REST_URL", "")), "/"),
			APIKey:     strings.TrimSpace(getenv("REST_API_KEY", "")),
			Timeout:    time.Duration(getenvInt64("REST_TIMEOUT_SECONDS", 15)) * time.Second,
			RetryCount: int(getenvInt64("REST_RETRY_COUNT", 2)),
		},

		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", "localhost:6379"),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       int(getenvInt64("REDIS_DB", 0)),
		},

		Numbering:         normalizeNumbering(getenv("INVOICE_NUMBERING", NumberingCache)),
		InvoiceConfigPath: strings.TrimSpace(getenv("INVOICE_CONFIG_PATH", "")),
	}

	return cfg
}

func (c Config) UsesRest() bool {
	return c.StoreDriver == StoreDriverRest
}

// Debug is true for debug logging or a local environment.
func (c Config) Debug() bool {
	if c.Log.Level == "debug" {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func normalizeDriver(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case StoreDriverRest, "postgrest", "supabase":
		return StoreDriverRest
	default:
		return StoreDriverGorm
	}
}

func normalizeNumbering(raw string) string {
	if strings.ToLower(strings.TrimSpace(raw)) == NumberingRedis {
		return NumberingRedis
	}
	return NumberingCache
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return def
	}
	return parsed
}
