package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Sandbox   SandboxConfig
	API       APIConfig
	Studio    StudioConfig
	Generator GeneratorConfig
	Storage   StorageConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"*"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// SandboxConfig holds the headless page and runner settings.
type SandboxConfig struct {
	ExecTimeout  time.Duration `envconfig:"SANDBOX_EXEC_TIMEOUT" default:"5s"`
	Settle2D     time.Duration `envconfig:"SANDBOX_SETTLE_2D" default:"500ms"`
	Settle3D     time.Duration `envconfig:"SANDBOX_SETTLE_3D" default:"1s"`
	FPS          int           `envconfig:"SANDBOX_FPS" default:"60"`
	MountWidth   int           `envconfig:"SANDBOX_MOUNT_WIDTH" default:"800"`
	MountHeight  int           `envconfig:"SANDBOX_MOUNT_HEIGHT" default:"600"`
	MaxDuration  time.Duration `envconfig:"SANDBOX_MAX_DURATION" default:"30s"`
	MaxParallel  int           `envconfig:"SANDBOX_MAX_PARALLEL" default:"4"`
	QueueTimeout time.Duration `envconfig:"SANDBOX_QUEUE_TIMEOUT" default:"5s"`
}

// APIConfig holds the upstream animation service configuration.
type APIConfig struct {
	BaseURL string        `envconfig:"API_BASE_URL" default:"http://localhost:3000/api"`
	Timeout time.Duration `envconfig:"API_TIMEOUT" default:"60s"`
	Retries int           `envconfig:"API_RETRIES" default:"2"`
	RPS     float64       `envconfig:"API_RPS" default:"5"`
}

// StudioConfig holds the generate and fix orchestration settings.
type StudioConfig struct {
	FixAttempts int `envconfig:"FIX_ATTEMPTS" default:"3"`
}

// GeneratorConfig holds the direct model backend configuration. An empty
// key selects the upstream service instead.
type GeneratorConfig struct {
	APIKey    string `envconfig:"ANTHROPIC_API_KEY"`
	Model     string `envconfig:"GENERATOR_MODEL" default:"claude-sonnet-4-5"`
	MaxTokens int64  `envconfig:"GENERATOR_MAX_TOKENS" default:"4096"`
}

// StorageConfig holds local file locations.
type StorageConfig struct {
	HistoryDB       string `envconfig:"HISTORY_DB" default:"sketchbox.db"`
	CredentialsFile string `envconfig:"CREDENTIALS_FILE" default:"credentials.yaml"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Sandbox: SandboxConfig{
			ExecTimeout:  5 * time.Second,
			Settle2D:     500 * time.Millisecond,
			Settle3D:     time.Second,
			FPS:          60,
			MountWidth:   800,
			MountHeight:  600,
			MaxDuration:  30 * time.Second,
			MaxParallel:  4,
			QueueTimeout: 5 * time.Second,
		},
		API: APIConfig{
			BaseURL: "http://localhost:3000/api",
			Timeout: 60 * time.Second,
			Retries: 2,
			RPS:     5,
		},
		Studio: StudioConfig{
			FixAttempts: 3,
		},
		Generator: GeneratorConfig{
			Model:     "claude-sonnet-4-5",
			MaxTokens: 4096,
		},
		Storage: StorageConfig{
			HistoryDB:       "sketchbox.db",
			CredentialsFile: "credentials.yaml",
		},
	}
}
