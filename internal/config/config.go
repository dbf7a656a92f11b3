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

	HTTPAddr   string
	TerminalTZ string

	OTLPEndpoint string

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

	PolicyPath string

	Redis RedisConfig

	// Static role keys resolved by the auth middleware. An empty key
	// disables the role.
	TerminalKey string
	ManagerKey  string
	AdminKey    string

	SeedDemoData bool
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int

	// Terminal throttling and the cross-instance commit lock ride on
	// the same client.
	IdentifyRate      float64
	IdentifyBurst     int
	CommitLockTTLSecs int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "safeguard"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		HTTPAddr:   getenv("HTTP_ADDR", ":8080"),
		TerminalTZ: getenv("TERMINAL_TZ", ""),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "safeguard"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),

		PolicyPath: getenv("POLICY_PATH", ""),

		Redis: RedisConfig{
			Enabled:           getenvBool("REDIS_ENABLED", false),
			Addr:              strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password:          strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:                getenvInt("REDIS_DB", 0),
			IdentifyRate:      getenvFloat("REDIS_IDENTIFY_RATE", 2),
			IdentifyBurst:     getenvInt("REDIS_IDENTIFY_BURST", 5),
			CommitLockTTLSecs: getenvInt("REDIS_COMMIT_LOCK_TTL_SECONDS", 10),
		},

		TerminalKey: strings.TrimSpace(getenv("TERMINAL_API_KEY", "")),
		ManagerKey:  strings.TrimSpace(getenv("MANAGER_API_KEY", "")),
		AdminKey:    strings.TrimSpace(getenv("ADMIN_API_KEY", "")),

		SeedDemoData: getenvBool("SEED_DEMO_DATA", true),
	}

	if cfg.Redis.Enabled && cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}

	return cfg
}

func getenv(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
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

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}
