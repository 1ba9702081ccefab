package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	SeedModeReset  = "reset"
	SeedModeUpsert = "upsert"

	EnvDemo = "demo"
)

type Config struct {
	ServiceName string
	Environment string
	LogLevel    string

	ServerPort     int
	RequestTimeout time.Duration
	CORSOrigins    []string

	DatabaseURL    string
	SQLitePath     string
	ConnectTimeout time.Duration
	SeedMode       string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	OTPTTL        time.Duration

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "robotech-store"),
		Environment: EnvDefault("APP_ENV", "development"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		ServerPort:     EnvIntDefault("SERVER_PORT", 8888),
		RequestTimeout: EnvDurationDefault("REQUEST_TIMEOUT", 10*time.Second),
		CORSOrigins:    CSV(EnvDefault("CORS_ORIGINS", "*")),

		DatabaseURL:    databaseURL(),
		SQLitePath:     EnvDefault("SQLITE_PATH", "robotech_store.db"),
		ConnectTimeout: EnvDurationDefault("DB_CONNECT_TIMEOUT", 3*time.Second),
		SeedMode:       seedMode(os.Getenv("SEED_MODE")),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       EnvIntDefault("REDIS_DB", 0),
		OTPTTL:        EnvDurationDefault("OTP_TTL", 5*time.Minute),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),
	}
}

// PrimaryEnabled reports whether the network backend should be tried at all.
func (c Config) PrimaryEnabled() bool {
	return c.DatabaseURL != "" && !strings.EqualFold(c.Environment, EnvDemo)
}

func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(EnvDefault("DB_USER", "postgres"), os.Getenv("DB_PASSWORD")),
		Host:     fmt.Sprintf("%s:%s", host, EnvDefault("DB_PORT", "5432")),
		Path:     "/" + EnvDefault("DB_NAME", "robotech_store"),
		RawQuery: "sslmode=" + EnvDefault("DB_SSLMODE", "disable"),
	}
	return u.String()
}

func seedMode(v string) string {
	if strings.EqualFold(strings.TrimSpace(v), SeedModeUpsert) {
		return SeedModeUpsert
	}
	return SeedModeReset
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// EnvDurationDefault accepts Go durations ("750ms") and bare integers as seconds.
func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		if n <= 0 {
			return def
		}
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
