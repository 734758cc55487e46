package config

import (
	"os"
	"strconv"
	"time"
)

// DefaultMarcaAPIURL points at a locally running card-network validator.
const DefaultMarcaAPIURL = "http://localhost:8081/api/v1/procesador/tarjetas/validar"

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Downstream card network (MARCA)
	MarcaAPIURL    string
	MarcaTimeout   time.Duration
	StrictContract bool // reject responses without a validity flag

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Outbound service auth (disabled when secret is empty)
	MarcaAuthSecret   string
	MarcaAuthIssuer   string
	MarcaAuthAudience string
	MarcaAuthTTL      time.Duration

	// Normalization
	AllowZeroAmount bool

	// Logging
	PANPepper string

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		MarcaAPIURL:    getEnv("MARCA_API_URL", DefaultMarcaAPIURL),
		MarcaTimeout:   getEnvDuration("MARCA_TIMEOUT", 10*time.Second),
		StrictContract: getEnvBool("MARCA_STRICT_CONTRACT", false),

		MaxRetries:     getEnvInt("MARCA_MAX_RETRIES", 0),
		InitialBackoff: getEnvDuration("MARCA_INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MARCA_MAX_CONCURRENCY", 50),

		MarcaAuthSecret:   getEnv("MARCA_AUTH_SECRET", ""),
		MarcaAuthIssuer:   getEnv("MARCA_AUTH_ISSUER", "card-validation-bfa"),
		MarcaAuthAudience: getEnv("MARCA_AUTH_AUDIENCE", "marca"),
		MarcaAuthTTL:      getEnvDuration("MARCA_AUTH_TTL", time.Minute),

		AllowZeroAmount: getEnvBool("ALLOW_ZERO_AMOUNT", false),

		PANPepper: getEnv("LOG_PAN_PEPPER", ""),

		OTLPEndpoint: getEnvRaw("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvRaw keeps an explicitly empty value, so a variable can be set to "" to disable a feature.
func getEnvRaw(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
