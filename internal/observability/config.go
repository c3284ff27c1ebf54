package observability

import (
	"os"
	"strconv"
	"strings"

	"github.com/carebill/carebill/internal/config"
)

// Config holds observability configuration derived from environment variables.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

// LoadConfig derives observability settings from the application config.
func LoadConfig(cfg config.Config) Config {
	return Config{
		ServiceName:          cfg.AppName,
		Environment:          cfg.Environment,
		Version:              cfg.AppVersion,
		LogLevel:             envString("LOG_LEVEL", "info"),
		LogFormat:            envString("LOG_FORMAT", "json"),
		OtelEnabled:          envBool("OTEL_ENABLED", false),
		OtelExporterEndpoint: envString("OTEL_EXPORTER_ENDPOINT", cfg.OTLPEndpoint),
		OtelExporterProtocol: envString("OTEL_EXPORTER_PROTOCOL", "grpc"),
		OtelSamplingRatio:    envFloat("OTEL_SAMPLING_RATIO", 1.0),
	}
}

func (c Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug") || c.Environment == "development"
}

func envString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
