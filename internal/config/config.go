// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the service settings. Every key is read from the environment
// variable of the same name in upper case.
type Config struct {
	Port            string        `mapstructure:"port"`
	DatabasePath    string        `mapstructure:"database_path"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AuditWorkers    int           `mapstructure:"audit_workers"`

	OtelServiceName string  `mapstructure:"otel_service_name"`
	OtelEnvironment string  `mapstructure:"otel_environment"`
	OtelExporter    string  `mapstructure:"otel_exporter"`
	OtelInsecure    bool    `mapstructure:"otel_insecure"`
	OtelSampleRatio float64 `mapstructure:"otel_sample_ratio"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("database_path", "fuelops.db")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("shutdown_timeout", 5*time.Second)
	v.SetDefault("audit_workers", 2)
	v.SetDefault("otel_service_name", "fuelops")
	v.SetDefault("otel_environment", "development")
	v.SetDefault("otel_exporter", "stdout")
	v.SetDefault("otel_insecure", false)
	v.SetDefault("otel_sample_ratio", 1.0)
}

// Load reads envFiles (default ".env") into the process environment when
// present and builds a Config from defaults and environment variables.
// Variables already set in the environment win over the files.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that have no safe interpretation.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if c.DatabasePath == "" {
		return errors.New("DATABASE_PATH must not be empty")
	}
	if c.AuditWorkers < 1 {
		return fmt.Errorf("AUDIT_WORKERS must be at least 1, got %d", c.AuditWorkers)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	switch c.OtelExporter {
	case "stdout", "otlp", "none":
	default:
		return fmt.Errorf("OTEL_EXPORTER must be stdout, otlp or none, got %q", c.OtelExporter)
	}
	if c.OtelSampleRatio <= 0 || c.OtelSampleRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATIO must be in (0, 1], got %v", c.OtelSampleRatio)
	}
	return nil
}

// Logger builds the slog logger described by LOG_LEVEL and LOG_FORMAT.
func (c Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := c.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func (c Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
