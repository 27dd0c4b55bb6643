// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
)

// ServiceConfig holds service identity and listener settings.
type ServiceConfig struct {
	Principal   string
	HTTPPort    string
	MetricsPort string
}

// OpenAIConfig holds settings for the AI provider.
type OpenAIConfig struct {
	APIKey              string
	BaseURL             string
	TranscribeModel     string
	ChatModel           string
	EmbeddingModel      string
	EmbeddingDimensions int
}

// StoreConfig selects and configures the session store backend.
type StoreConfig struct {
	Backend     string // "file" or "postgres"
	DataDir     string
	DatabaseURL string
}

// UploadConfig holds upload handling settings.
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// KafkaConfig holds event publishing settings.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel string
}

// Configuration is the root configuration for the service.
type Configuration struct {
	Service       ServiceConfig
	OpenAI        OpenAIConfig
	Store         StoreConfig
	Upload        UploadConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// Load reads configuration from the environment, applying defaults for
// anything unset.
func Load() *Configuration {
	return &Configuration{
		Service: ServiceConfig{
			Principal:   envOrDefault("SERVICE_PRINCIPAL", "svc-therapy-sessions"),
			HTTPPort:    envOrDefault("HTTP_PORT", "3000"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
		OpenAI: OpenAIConfig{
			APIKey:              os.Getenv("OPENAI_API_KEY"),
			BaseURL:             os.Getenv("OPENAI_BASE_URL"),
			TranscribeModel:     envOrDefault("OPENAI_TRANSCRIBE_MODEL", "whisper-1"),
			ChatModel:           envOrDefault("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			EmbeddingModel:      envOrDefault("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimensions: envOrDefaultInt("EMBEDDING_DIMENSIONS", 1536),
		},
		Store: StoreConfig{
			Backend:     envOrDefault("STORE_BACKEND", "file"),
			DataDir:     envOrDefault("DATA_DIR", "data/sessions"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Upload: UploadConfig{
			Dir:      envOrDefault("UPLOAD_DIR", "data/uploads"),
			MaxBytes: envOrDefaultInt64("UPLOAD_MAX_BYTES", 50*1024*1024),
		},
		Kafka: KafkaConfig{
			Enabled: envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   envOrDefault("KAFKA_TOPIC", "therapy.sessions.created"),
		},
		Observability: ObservabilityConfig{
			LogLevel: envOrDefault("LOG_LEVEL", "info"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envList(key string) []string {
	v := os.Getenv(key)
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
