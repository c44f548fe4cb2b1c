package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the talentlens server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Model    ModelConfig
	Engine   EngineConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL          string
	EventChannel string
}

// ModelConfig points at the sentiment model server.
type ModelConfig struct {
	BaseURL string
	Name    string
	Timeout time.Duration
	Warmup  bool
}

// EngineConfig tunes the analysis engine in front of the model.
type EngineConfig struct {
	MinCallInterval time.Duration
	CacheSize       int
	WarmupAttempts  int
	WarmupBaseDelay time.Duration
}

// WorkerConfig tunes the polling job worker.
type WorkerConfig struct {
	BatchSize    int
	Concurrency  int
	PollInterval time.Duration
	ErrorBackoff time.Duration
	MaxTopics    int
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("TALENTLENS_PORT", 8080),
			Env:  envString("TALENTLENS_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			EventChannel: envString("REDIS_EVENT_CHANNEL", "talentlens:events"),
		},
		Model: ModelConfig{
			BaseURL: os.Getenv("MODEL_BASE_URL"),
			Name:    envString("MODEL_NAME", "distilbert-sentiment"),
			Timeout: envDuration("MODEL_TIMEOUT", 30*time.Second),
			Warmup:  envBool("MODEL_WARMUP", false),
		},
		Engine: EngineConfig{
			MinCallInterval: envDuration("ENGINE_MIN_CALL_INTERVAL", 200*time.Millisecond),
			CacheSize:       envInt("ENGINE_CACHE_SIZE", 1000),
			WarmupAttempts:  envInt("ENGINE_WARMUP_ATTEMPTS", 3),
			WarmupBaseDelay: envDuration("ENGINE_WARMUP_BASE_DELAY", 2*time.Second),
		},
		Worker: WorkerConfig{
			BatchSize:    envInt("WORKER_BATCH_SIZE", 8),
			Concurrency:  envInt("WORKER_CONCURRENCY", 3),
			PollInterval: envDuration("WORKER_POLL_INTERVAL", 5*time.Second),
			ErrorBackoff: envDuration("WORKER_ERROR_BACKOFF", 10*time.Second),
			MaxTopics:    envInt("WORKER_MAX_TOPICS", 5),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Model.BaseURL == "" {
		return fmt.Errorf("MODEL_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Model.BaseURL, "http://") && !strings.HasPrefix(c.Model.BaseURL, "https://") {
		return fmt.Errorf("MODEL_BASE_URL must start with http:// or https://, got %q", c.Model.BaseURL)
	}

	if c.Engine.CacheSize <= 0 {
		return fmt.Errorf("ENGINE_CACHE_SIZE must be positive, got %d", c.Engine.CacheSize)
	}
	if c.Engine.WarmupAttempts <= 0 {
		return fmt.Errorf("ENGINE_WARMUP_ATTEMPTS must be positive, got %d", c.Engine.WarmupAttempts)
	}

	if c.Worker.BatchSize <= 0 {
		return fmt.Errorf("WORKER_BATCH_SIZE must be positive, got %d", c.Worker.BatchSize)
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive, got %d", c.Worker.Concurrency)
	}
	if c.Worker.Concurrency > c.Worker.BatchSize {
		return fmt.Errorf("WORKER_CONCURRENCY (%d) cannot exceed WORKER_BATCH_SIZE (%d)",
			c.Worker.Concurrency, c.Worker.BatchSize)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
