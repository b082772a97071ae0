package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Service ServiceConfig
	Upload  UploadConfig
	Events  EventsConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Environment    string `validate:"required"`
	LogFilePath    string `validate:"required"`
	Debug          bool
	RedisURL       string
	SessionProfile string `validate:"required"`
	StubPort       string `validate:"required,numeric"`
}

// ServiceConfig locates the remote agent service.
type ServiceConfig struct {
	BaseURL   string        `validate:"required,url"`
	Token     string
	JWTSecret string
	Timeout   time.Duration `validate:"gt=0"`
}

// UploadConfig holds the cosmetic pacing delays between upload stages.
type UploadConfig struct {
	ParseDelay  time.Duration `validate:"gte=0"`
	ChunkDelay  time.Duration `validate:"gte=0"`
	SettleDelay time.Duration `validate:"gte=0"`
}

type EventsConfig struct {
	Topic   string `validate:"required"`
	NatsURL string
}

// TracingConfig enables OTLP/HTTP span export of remote calls.
type TracingConfig struct {
	Enabled  bool
	Endpoint string `validate:"required_if=Enabled true"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Environment:    getEnv("GO_ENV", "development"),
			LogFilePath:    getEnv("LOG_FILE_PATH", "logs/assistant.log"),
			Debug:          getEnvAsBool("ASSISTANT_DEBUG", false),
			RedisURL:       getEnv("REDIS_URL", ""),
			SessionProfile: getEnv("SESSION_PROFILE", "default"),
			StubPort:       getEnv("STUB_PORT", "8001"),
		},
		Service: ServiceConfig{
			BaseURL:   getEnv("ASSISTANT_API_URL", "http://localhost:8001/api"),
			Token:     getEnv("ASSISTANT_API_TOKEN", ""),
			JWTSecret: getEnv("ASSISTANT_JWT_SECRET", ""),
			Timeout:   getEnvAsDuration("ASSISTANT_HTTP_TIMEOUT", 120*time.Second),
		},
		Upload: UploadConfig{
			ParseDelay:  getEnvAsDuration("ASSISTANT_PARSE_DELAY", 400*time.Millisecond),
			ChunkDelay:  getEnvAsDuration("ASSISTANT_CHUNK_DELAY", 300*time.Millisecond),
			SettleDelay: getEnvAsDuration("ASSISTANT_SETTLE_DELAY", 200*time.Millisecond),
		},
		Events: EventsConfig{
			Topic:   getEnv("EVENTS_TOPIC", "assistant.events"),
			NatsURL: getEnv("NATS_URL", ""),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("400ms") or a bare number of milliseconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
