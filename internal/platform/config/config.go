// Package config builds runtime configuration from environment variables so
// main stays lean. Every value has a development default; production
// deployments override via the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	JWTSigningKey   string
	ShutdownTimeout time.Duration

	Database    Database
	Redis       RedisConfig
	Kafka       Kafka
	Portal      Portal
	Suggestions Suggestions
	LogLevel    string
}

// Database holds PostgreSQL connection settings.
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings. An empty URL disables Redis
// and callers fall back to in-memory implementations.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka holds activity event streaming settings. Empty Brokers disables the
// outbox relay and the consumer; activity events stay in the outbox table.
type Kafka struct {
	Brokers       []string
	TopicPrefix   string
	ConsumerGroup string
}

// Portal holds evidence portal settings.
type Portal struct {
	TokenTTL time.Duration
}

// Suggestions holds the document review suggestion thresholds. A review whose
// documentation quality score falls below MinorBelow yields a MINOR_NC
// suggestion, below MajorBelow a MAJOR_NC suggestion. Percent values.
type Suggestions struct {
	MinorBelow float64
	MajorBelow float64
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:            getEnv("CONFORMA_ADDR", ":8080"),
		JWTSigningKey:   getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		Database: Database{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:       splitList(os.Getenv("KAFKA_BROKERS")),
			TopicPrefix:   getEnv("ACTIVITY_TOPIC_PREFIX", "conforma.activity"),
			ConsumerGroup: getEnv("ACTIVITY_CONSUMER_GROUP", "conforma-activity"),
		},
		Portal: Portal{
			TokenTTL: getDuration("PORTAL_TOKEN_TTL", 72*time.Hour),
		},
		Suggestions: Suggestions{
			MinorBelow: getFloat("SUGGEST_MINOR_BELOW", 80),
			MajorBelow: getFloat("SUGGEST_MAJOR_BELOW", 50),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
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
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
