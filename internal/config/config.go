// Package config loads the batch service configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	maxUserConcurrency = 32
	maxVariations      = 5
)

// Config is the full service configuration.
type Config struct {
	ProjectID       string `env:"PROJECT_ID"`
	CredentialsFile string `env:"FIREBASE_SERVICE_ACCOUNT_PATH"`
	StorageBucket   string `env:"FIREBASE_STORAGE_BUCKET"`

	UsersCollection  string `env:"USERS_COLLECTION" envDefault:"email_users"`
	ImagesCollection string `env:"IMAGES_COLLECTION" envDefault:"images"`
	VoicesCollection string `env:"VOICES_COLLECTION" envDefault:"voices"`
	// RunsCollection enables the Firestore run archive when set.
	RunsCollection string `env:"RUNS_COLLECTION"`

	DownloadDir  string `env:"DOWNLOAD_DIR" envDefault:"downloads"`
	MirrorBucket string `env:"MIRROR_BUCKET"`

	Fetch      FetchConfig
	Batch      BatchConfig
	Variations VariationsConfig
	Voice      VoiceSignatureConfig
	Workflow   WorkflowConfig

	Port     string `env:"PORT" envDefault:"8000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// FetchConfig bounds object downloads.
type FetchConfig struct {
	Timeout     time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`
	MaxAttempts int           `env:"FETCH_MAX_ATTEMPTS" envDefault:"3"`
	MaxBytes    int64         `env:"MAX_OBJECT_BYTES" envDefault:"536870912"`
}

// BatchConfig controls the orchestrator worker pool.
type BatchConfig struct {
	UserConcurrency int `env:"BATCH_USER_CONCURRENCY" envDefault:"1"`
}

// VariationsConfig configures Gemini image angle variations.
type VariationsConfig struct {
	Enabled bool   `env:"VARIATIONS_ENABLED" envDefault:"false"`
	Region  string `env:"VERTEX_AI_REGION" envDefault:"us-central1"`
	Model   string `env:"VARIATIONS_MODEL" envDefault:"gemini-2.5-flash-image"`
	Count   int    `env:"VARIATIONS_COUNT" envDefault:"5"`
}

// VoiceSignatureConfig configures ElevenLabs voice signatures for voice items.
// An empty VoiceID clones the uploaded sample; otherwise the named voice is used.
type VoiceSignatureConfig struct {
	Enabled bool          `env:"VOICE_SIGNATURE_ENABLED" envDefault:"false"`
	APIKey  string        `env:"ELEVENLABS_API_KEY"`
	Text    string        `env:"VOICE_SIGNATURE_TEXT" envDefault:"Hello, this is a voice signature"`
	ModelID string        `env:"VOICE_SIGNATURE_MODEL" envDefault:"eleven_monolingual_v1"`
	VoiceID string        `env:"VOICE_SIGNATURE_VOICE_ID"`
	Timeout time.Duration `env:"VOICE_SIGNATURE_TIMEOUT" envDefault:"60s"`
}

// WorkflowConfig names the workflow triggered after a completed run.
type WorkflowConfig struct {
	ID       string `env:"WORKFLOW_ID"`
	Location string `env:"WORKFLOW_LOCATION" envDefault:"us-central1"`
}

// Load reads an optional .env file, parses the environment and applies
// Sanitize and Validate.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Sanitize clamps numeric values into their supported ranges.
func (c *Config) Sanitize() {
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if c.Fetch.MaxAttempts < 1 {
		c.Fetch.MaxAttempts = 1
	}
	if c.Fetch.MaxBytes <= 0 {
		c.Fetch.MaxBytes = 512 << 20
	}
	if c.Batch.UserConcurrency < 1 {
		c.Batch.UserConcurrency = 1
	}
	if c.Batch.UserConcurrency > maxUserConcurrency {
		c.Batch.UserConcurrency = maxUserConcurrency
	}
	if c.Variations.Count < 1 {
		c.Variations.Count = 1
	}
	if c.Variations.Count > maxVariations {
		c.Variations.Count = maxVariations
	}
	if c.Voice.Timeout <= 0 {
		c.Voice.Timeout = time.Minute
	}
	c.StorageBucket = strings.TrimPrefix(c.StorageBucket, "gs://")
	c.MirrorBucket = strings.TrimPrefix(c.MirrorBucket, "gs://")
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	if c.Voice.Enabled && c.Voice.APIKey == "" {
		return fmt.Errorf("ELEVENLABS_API_KEY must be set when VOICE_SIGNATURE_ENABLED is true")
	}
	if c.DownloadDir == "" && c.MirrorBucket == "" {
		slog.Warn("No DOWNLOAD_DIR or MIRROR_BUCKET configured. Downloaded media will not be persisted.")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the JSON slog logger used by every entry point.
func (c *Config) NewLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: c.SlogLevel()}))
}
