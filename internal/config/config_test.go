package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/neomorfeo/fuelops/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "DATABASE_PATH", "JWT_SECRET", "LOG_LEVEL", "LOG_FORMAT", "SHUTDOWN_TIMEOUT", "AUDIT_WORKERS",
		"OTEL_SERVICE_NAME", "OTEL_ENVIRONMENT", "OTEL_EXPORTER", "OTEL_INSECURE", "OTEL_SAMPLE_RATIO"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DatabasePath != "fuelops.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "fuelops.db")
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("log = %s/%s, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %s, want 5s", cfg.ShutdownTimeout)
	}
	if cfg.AuditWorkers != 2 {
		t.Errorf("AuditWorkers = %d, want 2", cfg.AuditWorkers)
	}
	if cfg.OtelServiceName != "fuelops" || cfg.OtelEnvironment != "development" {
		t.Errorf("otel resource = %s/%s, want fuelops/development", cfg.OtelServiceName, cfg.OtelEnvironment)
	}
	if cfg.OtelExporter != "stdout" || cfg.OtelInsecure {
		t.Errorf("otel exporter = %s insecure=%v, want stdout insecure=false", cfg.OtelExporter, cfg.OtelInsecure)
	}
	if cfg.OtelSampleRatio != 1 {
		t.Errorf("OtelSampleRatio = %v, want 1", cfg.OtelSampleRatio)
	}
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "15s")
	t.Setenv("AUDIT_WORKERS", "4")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("OTEL_EXPORTER", "otlp")
	t.Setenv("OTEL_INSECURE", "true")
	t.Setenv("OTEL_SAMPLE_RATIO", "0.25")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Errorf("ShutdownTimeout = %s, want 15s", cfg.ShutdownTimeout)
	}
	if cfg.AuditWorkers != 4 {
		t.Errorf("AuditWorkers = %d, want 4", cfg.AuditWorkers)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Errorf("JWTSecret = %q, want %q", cfg.JWTSecret, "s3cret")
	}
	if cfg.OtelExporter != "otlp" || !cfg.OtelInsecure || cfg.OtelSampleRatio != 0.25 {
		t.Errorf("otel = %s insecure=%v ratio=%v, want otlp insecure=true ratio=0.25",
			cfg.OtelExporter, cfg.OtelInsecure, cfg.OtelSampleRatio)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")

	path := filepath.Join(t.TempDir(), "test.env")
	content := "PORT=1111\nDATABASE_PATH=/tmp/from-file.db\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("DATABASE_PATH") })

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "7000" {
		t.Errorf("Port = %q, want environment value %q", cfg.Port, "7000")
	}
	if cfg.DatabasePath != "/tmp/from-file.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "/tmp/from-file.db")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"LOG_FORMAT", "xml"},
		{"LOG_LEVEL", "loud"},
		{"AUDIT_WORKERS", "0"},
		{"OTEL_EXPORTER", "jaeger"},
		{"OTEL_SAMPLE_RATIO", "2"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := config.Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
				t.Errorf("Load with %s=%s: expected error", tt.key, tt.value)
			}
		})
	}
}

func TestLogger_JSON(t *testing.T) {
	cfg := config.Config{LogLevel: "debug", LogFormat: "json"}

	var buf bytes.Buffer
	logger, err := cfg.Logger(&buf)
	if err != nil {
		t.Fatalf("Logger: %v", err)
	}
	logger.Debug("hello", "k", "v")

	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("output = %q, want JSON record", buf.String())
	}
}
