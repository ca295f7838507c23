// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/maauso/versevideo/internal/storage"
)

// Static errors for configuration validation.
var (
	// ErrInvalidPort is returned when PORT is outside 1..65535.
	ErrInvalidPort = errors.New("config: PORT must be between 1 and 65535")
	// ErrInvalidMaxConcurrentProbes is returned when MAX_CONCURRENT_PROBES is not positive.
	ErrInvalidMaxConcurrentProbes = errors.New("config: MAX_CONCURRENT_PROBES must be positive")
	// ErrInvalidProbeTimeout is returned when PROBE_TIMEOUT is not positive.
	ErrInvalidProbeTimeout = errors.New("config: PROBE_TIMEOUT must be positive")
	// ErrInvalidRenderTimeout is returned when RENDER_TIMEOUT is negative.
	ErrInvalidRenderTimeout = errors.New("config: RENDER_TIMEOUT must not be negative")
	// ErrInvalidRenderRate is returned when RENDER_RATE_PER_MIN is not positive.
	ErrInvalidRenderRate = errors.New("config: RENDER_RATE_PER_MIN must be positive")
	// ErrInvalidRenderBurst is returned when RENDER_BURST is not positive.
	ErrInvalidRenderBurst = errors.New("config: RENDER_BURST must be positive")
	// ErrInvalidJobHistoryLimit is returned when JOB_HISTORY_LIMIT is not positive.
	ErrInvalidJobHistoryLimit = errors.New("config: JOB_HISTORY_LIMIT must be positive")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port             int     `env:"PORT, default=8080" json:"port"`
	AllowedOrigins   string  `env:"ALLOWED_ORIGINS, default=*" json:"allowed_origins"`
	RenderRatePerMin float64 `env:"RENDER_RATE_PER_MIN, default=30" json:"render_rate_per_min"`
	RenderBurst      int     `env:"RENDER_BURST, default=5" json:"render_burst"`

	// Storage settings
	TempDir string `env:"TEMP_DIR, default=/tmp/versevideo" json:"temp_dir"`

	// Engine settings
	FFmpegPath  string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	FFprobePath string `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path"`

	// Processing settings
	MaxConcurrentProbes int           `env:"MAX_CONCURRENT_PROBES, default=8" json:"max_concurrent_probes"`
	ProbeTimeout        time.Duration `env:"PROBE_TIMEOUT, default=10s" json:"probe_timeout"`
	RenderTimeout       time.Duration `env:"RENDER_TIMEOUT, default=0" json:"render_timeout"` // 0 disables the limit
	JobHistoryLimit     int           `env:"JOB_HISTORY_LIMIT, default=200" json:"job_history_limit"`

	// Variant settings
	VariantsFile string `env:"VARIANTS_FILE" json:"variants_file,omitempty"`

	// Optional S3 settings for s3:// narration and background addresses
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 address signing is configured.
func (c *Config) S3Enabled() bool {
	return c.S3Region != ""
}

// S3 returns the signer configuration.
func (c *Config) S3() storage.S3Config {
	return storage.S3Config{
		Region:          c.S3Region,
		Endpoint:        c.S3Endpoint,
		AccessKeyID:     c.AWSAccessKeyID,
		SecretAccessKey: c.AWSSecretAccessKey,
	}
}

// Origins returns the CORS allow list.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Load reads configuration from environment variables using go-envconfig
// and validates it.
func Load() (*Config, error) {
	return LoadWith(envconfig.OsLookuper())
}

// LoadWith reads configuration through lookuper and validates it.
func LoadWith(lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}

	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configured limits are usable.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.MaxConcurrentProbes <= 0 {
		return ErrInvalidMaxConcurrentProbes
	}
	if c.ProbeTimeout <= 0 {
		return ErrInvalidProbeTimeout
	}
	if c.RenderTimeout < 0 {
		return ErrInvalidRenderTimeout
	}
	if c.RenderRatePerMin <= 0 {
		return ErrInvalidRenderRate
	}
	if c.RenderBurst <= 0 {
		return ErrInvalidRenderBurst
	}
	if c.JobHistoryLimit <= 0 {
		return ErrInvalidJobHistoryLimit
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	return c.LoggerTo(os.Stdout)
}

// LoggerTo is NewLogger writing to w.
func (c *Config) LoggerTo(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, TempDir: %s, FFmpegPath: %s, FFprobePath: %s, MaxConcurrentProbes: %d, ProbeTimeout: %s, RenderTimeout: %s, RenderRatePerMin: %g, RenderBurst: %d, JobHistoryLimit: %d, VariantsFile: %s, S3Region: %s, S3Endpoint: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.TempDir,
		c.FFmpegPath,
		c.FFprobePath,
		c.MaxConcurrentProbes,
		c.ProbeTimeout,
		c.RenderTimeout,
		c.RenderRatePerMin,
		c.RenderBurst,
		c.JobHistoryLimit,
		c.VariantsFile,
		c.S3Region,
		c.S3Endpoint,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
