package config

import (
	"os"
	"strings"
	"time"
)

// Config captures runtime configuration for the gymlog binaries.
type Config struct {
	HTTPAddress      string
	DatabaseURL      string
	JWTSecret        string
	JWTIssuer        string
	HTTPTimeout      time.Duration
	KafkaBrokers     []string
	ConsumerGroup    string
	ConsumerTopics   []string
	CompletionsTopic string
	MetricsAddress   string
	DefaultUserID    string
	ImportMinDate    string
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		HTTPAddress:      getEnv("HTTP_ADDRESS", ":8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:        getEnv("JWT_ISSUER", "gymlog.identity"),
		HTTPTimeout:      getDurationEnv("HTTP_TIMEOUT", 5*time.Second),
		KafkaBrokers:     splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		ConsumerGroup:    getEnv("CONSUMER_GROUP_ID", "gymlog-import-consumer"),
		ConsumerTopics:   splitAndTrim(getEnv("CONSUMER_TOPICS", "gymlog_import_requests")),
		CompletionsTopic: getEnv("COMPLETIONS_TOPIC", "gymlog_import_results"),
		MetricsAddress:   getEnv("METRICS_ADDRESS", ":9190"),
		DefaultUserID:    getEnv("DEFAULT_USER_ID", "me"),
		ImportMinDate:    getEnv("IMPORT_MIN_DATE", ""),
	}
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
