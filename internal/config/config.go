// Package config loads process configuration from environment variables in
// one place. Values are read once and cached.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	// Packer tunables (zero leaves the engine default in place)
	PackerAttraction        float64 // companion / centroid spring strength
	PackerRepulsion         float64 // antagonist repulsion strength
	PackerCollisionStrength float64 // pairwise separation force scale
	PackerBoundaryForce     float64 // pull-back toward center scale
	PackerClusterPadding    float64 // target gap between cluster rims
	PackerMinSpacing        float64 // target gap between plant rims
	PackerMaxIterations     int     // relaxation iteration budget per phase
	PackerConvergence       float64 // energy-delta convergence threshold
	PackerDamping           float64 // velocity damping per step
	// Result cache
	CacheEnabled    bool
	CacheMaxSizeMB  int
	CacheMaxEntries int
	CacheTTLMin     int
	// Observability settings
	LogLevel          string  // log level: debug, info, warn, error
	OTELEnabled       bool    // enable OpenTelemetry tracing
	OTELEndpoint      string  // OpenTelemetry collector endpoint
	OTELSampleRate    float64 // trace sampling rate (0.0 to 1.0)
	SentryDSN         string  // Sentry DSN for error reporting
	SentryEnvironment string  // Sentry environment (dev, staging, production)
}

var cached *Config

// Load reads env vars once and caches them.
func Load() *Config {
	if cached != nil {
		return cached
	}
	cached = &Config{
		PackerAttraction:        GetEnvAsFloat("PACKER_ATTRACTION", 0),
		PackerRepulsion:         GetEnvAsFloat("PACKER_REPULSION", 0),
		PackerCollisionStrength: GetEnvAsFloat("PACKER_COLLISION_STRENGTH", 0),
		PackerBoundaryForce:     GetEnvAsFloat("PACKER_BOUNDARY_FORCE", 0),
		PackerClusterPadding:    GetEnvAsFloat("PACKER_CLUSTER_PADDING", 0),
		PackerMinSpacing:        GetEnvAsFloat("PACKER_MIN_SPACING", 0),
		PackerMaxIterations:     GetEnvAsInt("PACKER_MAX_ITERATIONS", 0),
		PackerConvergence:       GetEnvAsFloat("PACKER_CONVERGENCE_THRESHOLD", 0),
		PackerDamping:           GetEnvAsFloat("PACKER_DAMPING", 0),
		CacheEnabled:            GetEnvAsBool("CACHE_ENABLED", true),
		CacheMaxSizeMB:          GetEnvAsInt("CACHE_MAX_SIZE_MB", 64),
		CacheMaxEntries:         GetEnvAsInt("CACHE_MAX_ENTRIES", 1000),
		CacheTTLMin:             GetEnvAsInt("CACHE_TTL_MIN", 60),
		LogLevel:                strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
		OTELEnabled:             GetEnvAsBool("OTEL_ENABLED", false),
		OTELEndpoint:            strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTELSampleRate:          GetEnvAsFloat("OTEL_TRACE_SAMPLE_RATE", 0.1),
		SentryDSN:               strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		SentryEnvironment:       strings.TrimSpace(os.Getenv("SENTRY_ENVIRONMENT")),
	}
	if cached.LogLevel == "" {
		cached.LogLevel = "info"
	}
	if cached.SentryEnvironment == "" {
		if env := os.Getenv("ENV"); env != "" {
			cached.SentryEnvironment = env
		} else {
			cached.SentryEnvironment = "development"
		}
	}
	return cached
}

// ResetForTest clears cached config; for use in tests only.
func ResetForTest() { cached = nil }

// GetEnvAsBool parses a boolean environment variable with a default.
func GetEnvAsBool(key string, defaultVal bool) bool {
	val := strings.ToLower(os.Getenv(key))
	switch val {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return defaultVal
	}
}

// GetEnvAsInt retrieves an environment variable as an integer with a default fallback.
func GetEnvAsInt(name string, defaultVal int) int {
	if valStr := os.Getenv(name); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			return val
		}
	}
	return defaultVal
}

// GetEnvAsFloat retrieves an environment variable as a float64 with a default fallback.
func GetEnvAsFloat(name string, defaultVal float64) float64 {
	if valStr := os.Getenv(name); valStr != "" {
		if val, err := strconv.ParseFloat(valStr, 64); err == nil {
			return val
		}
	}
	return defaultVal
}
