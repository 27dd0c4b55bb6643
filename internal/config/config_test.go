package config

import (
	"os"
	"testing"
)

var configEnvVars = []string{
	"SERVICE_PRINCIPAL", "HTTP_PORT", "METRICS_PORT", "LOG_LEVEL",
	"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_TRANSCRIBE_MODEL",
	"OPENAI_CHAT_MODEL", "OPENAI_EMBEDDING_MODEL", "EMBEDDING_DIMENSIONS",
	"STORE_BACKEND", "DATA_DIR", "DATABASE_URL",
	"UPLOAD_DIR", "UPLOAD_MAX_BYTES",
	"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, v := range configEnvVars {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg := Load()

	// Service defaults
	if cfg.Service.Principal != "svc-therapy-sessions" {
		t.Errorf("expected default principal 'svc-therapy-sessions', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "3000" {
		t.Errorf("expected default HTTP port '3000', got %s", cfg.Service.HTTPPort)
	}
	if cfg.Service.MetricsPort != "9090" {
		t.Errorf("expected default metrics port '9090', got %s", cfg.Service.MetricsPort)
	}

	// OpenAI defaults
	if cfg.OpenAI.TranscribeModel != "whisper-1" {
		t.Errorf("expected default transcribe model 'whisper-1', got %s", cfg.OpenAI.TranscribeModel)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o-mini" {
		t.Errorf("expected default chat model 'gpt-4o-mini', got %s", cfg.OpenAI.ChatModel)
	}
	if cfg.OpenAI.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("expected default embedding model 'text-embedding-3-small', got %s", cfg.OpenAI.EmbeddingModel)
	}
	if cfg.OpenAI.EmbeddingDimensions != 1536 {
		t.Errorf("expected default embedding dimensions 1536, got %d", cfg.OpenAI.EmbeddingDimensions)
	}

	// Store defaults
	if cfg.Store.Backend != "file" {
		t.Errorf("expected default store backend 'file', got %s", cfg.Store.Backend)
	}
	if cfg.Store.DataDir != "data/sessions" {
		t.Errorf("expected default data dir 'data/sessions', got %s", cfg.Store.DataDir)
	}

	// Upload defaults
	if cfg.Upload.Dir != "data/uploads" {
		t.Errorf("expected default upload dir 'data/uploads', got %s", cfg.Upload.Dir)
	}
	if cfg.Upload.MaxBytes != 50*1024*1024 {
		t.Errorf("expected default max upload bytes 50MB, got %d", cfg.Upload.MaxBytes)
	}

	// Kafka defaults
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if cfg.Kafka.Topic != "therapy.sessions.created" {
		t.Errorf("expected default topic 'therapy.sessions.created', got %s", cfg.Kafka.Topic)
	}

	// Observability defaults
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearConfigEnv(t)

	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("HTTP_PORT", "8080")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("OPENAI_API_KEY", "sk-test")
	os.Setenv("OPENAI_CHAT_MODEL", "gpt-4o")
	os.Setenv("EMBEDDING_DIMENSIONS", "3")
	os.Setenv("STORE_BACKEND", "postgres")
	os.Setenv("DATABASE_URL", "postgres://localhost/sessions")
	os.Setenv("UPLOAD_MAX_BYTES", "1048576")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")

	defer clearConfigEnv(t)

	cfg := Load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "8080" {
		t.Errorf("expected HTTP port '8080', got %s", cfg.Service.HTTPPort)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Observability.LogLevel)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("expected API key 'sk-test', got %s", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o" {
		t.Errorf("expected chat model 'gpt-4o', got %s", cfg.OpenAI.ChatModel)
	}
	if cfg.OpenAI.EmbeddingDimensions != 3 {
		t.Errorf("expected embedding dimensions 3, got %d", cfg.OpenAI.EmbeddingDimensions)
	}
	if cfg.Store.Backend != "postgres" {
		t.Errorf("expected store backend 'postgres', got %s", cfg.Store.Backend)
	}
	if cfg.Store.DatabaseURL != "postgres://localhost/sessions" {
		t.Errorf("expected database URL to be set, got %s", cfg.Store.DatabaseURL)
	}
	if cfg.Upload.MaxBytes != 1048576 {
		t.Errorf("expected max upload bytes 1048576, got %d", cfg.Upload.MaxBytes)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "broker1:9092" || cfg.Kafka.Brokers[1] != "broker2:9092" {
		t.Errorf("expected two trimmed brokers, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoad_InvalidNumericValues(t *testing.T) {
	clearConfigEnv(t)

	os.Setenv("EMBEDDING_DIMENSIONS", "not-a-number")
	os.Setenv("UPLOAD_MAX_BYTES", "also-not-a-number")
	os.Setenv("KAFKA_ENABLED", "maybe")
	defer clearConfigEnv(t)

	cfg := Load()

	if cfg.OpenAI.EmbeddingDimensions != 1536 {
		t.Errorf("expected fallback to default dimensions 1536, got %d", cfg.OpenAI.EmbeddingDimensions)
	}
	if cfg.Upload.MaxBytes != 50*1024*1024 {
		t.Errorf("expected fallback to default max bytes, got %d", cfg.Upload.MaxBytes)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected fallback to Kafka disabled on unparsable value")
	}
}
