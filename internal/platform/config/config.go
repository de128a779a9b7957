package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the binaries read from the environment so main
// stays lean.
type Config struct {
	Addr string

	MongoURI      string
	MongoDatabase string

	Redis RedisConfig

	// CertificateSecret keys the security hash embedded in certificate
	// codes. The dev default must be overridden in production.
	CertificateSecret string
	FrontendBaseURL   string
	InstitutionName   string

	// CertificateRetention is how long expired certificate documents are
	// kept before passive TTL removal. Operational hygiene, not
	// correctness.
	CertificateRetention time.Duration

	// StorageTimeout bounds every store call.
	StorageTimeout time.Duration
}

// RedisConfig configures the go-redis client. An empty URL disables redis and
// in-memory fallbacks are used instead.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables with dev defaults.
func FromEnv() Config {
	return Config{
		Addr:              envOr("CLEARGATE_ADDR", ":8080"),
		MongoURI:          envOr("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:     envOr("MONGO_DATABASE", "cleargate"),
		CertificateSecret: envOr("CERTIFICATE_SECRET", "dev-secret-change-in-production"),
		FrontendBaseURL:   envOr("FRONTEND_BASE_URL", "http://localhost:3000"),
		InstitutionName:   envOr("INSTITUTION_NAME", "Mekdela Amba University"),

		CertificateRetention: envDuration("CERTIFICATE_RETENTION", 365*24*time.Hour),
		StorageTimeout:       envDuration("STORAGE_TIMEOUT", 5*time.Second),

		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
