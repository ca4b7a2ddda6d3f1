package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

type Config struct {
	Env         string
	Port        int
	ServiceName string

	DBURL         string
	StoreDriver   string
	RunMigrations bool

	JWTSecret  string
	BcryptCost int

	CORSAllowedOrigins []string
	MaxBodyBytes       int64

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StatsCacheTTL time.Duration

	OTLPEndpoint string

	AdminEmail    string
	AdminPassword string
	AdminName     string
	AdminCountry  string
}

func Load() (Config, error) {
	// a missing .env file is normal outside local dev
	_ = godotenv.Load()

	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return Config{}, err
	}

	bcryptCost, err := getEnvInt("BCRYPT_COST", 10)
	if err != nil {
		return Config{}, err
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}

	maxBody, err := getEnvInt("MAX_BODY_BYTES", 1<<20)
	if err != nil {
		return Config{}, err
	}

	statsTTL, err := getEnvDuration("STATS_CACHE_TTL", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	runMigrations, err := getEnvBool("RUN_MIGRATIONS", true)
	if err != nil {
		return Config{}, err
	}

	driver := strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres))
	if driver != StoreDriverPostgres && driver != StoreDriverMemory {
		return Config{}, fmt.Errorf("invalid STORE_DRIVER %q", driver)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return Config{}, ErrMissingJWTSecret
	}

	return Config{
		Env:         getEnv("APP_ENV", "dev"),
		Port:        port,
		ServiceName: getEnv("SERVICE_NAME", "userhub"),

		DBURL:         getEnv("DB_URL", buildDBURL()),
		StoreDriver:   driver,
		RunMigrations: runMigrations,

		JWTSecret:  secret,
		BcryptCost: bcryptCost,

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		MaxBodyBytes:       int64(maxBody),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		StatsCacheTTL: statsTTL,

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
		AdminCountry:  getEnv("ADMIN_COUNTRY", "US"),
	}, nil
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "userhub")
	pass := getEnv("DB_PASSWORD", "userhub")
	name := getEnv("DB_NAME", "userhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout bounds a store call by duration while still honouring parent cancellation.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	num, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return num, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}

	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
