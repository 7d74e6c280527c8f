package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, "./static/main", cfg.StaticDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 5.0, cfg.RateLimit)
	assert.Equal(t, 10, cfg.RateBurst)
	assert.Equal(t, "fr", cfg.ReportLang)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 200, cfg.BatchLimit)
	assert.Empty(t, cfg.TokenKey)
	assert.False(t, cfg.TLS())
}

func TestParse_Environment(t *testing.T) {
	t.Setenv("ADDR", ":9443")
	t.Setenv("TLS_CERT", "server.crt")
	t.Setenv("TLS_KEY", "server.key")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT", "0.5")
	t.Setenv("SHUTDOWN_TIMEOUT", "10s")
	t.Setenv("AGENTS_FILE", "/etc/gascalc/agents.yaml")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, ":9443", cfg.Addr)
	assert.True(t, cfg.TLS())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 0.5, cfg.RateLimit)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/etc/gascalc/agents.yaml", cfg.AgentsFile)
}

func TestParse_Invalid(t *testing.T) {
	t.Run("tls half configured", func(t *testing.T) {
		t.Setenv("TLS_CERT", "server.crt")
		_, err := Parse()
		assert.Error(t, err)
	})
	t.Run("rate burst not a number", func(t *testing.T) {
		t.Setenv("RATE_BURST", "many")
		_, err := Parse()
		assert.Error(t, err)
	})
	t.Run("zero batch limit", func(t *testing.T) {
		t.Setenv("BATCH_LIMIT", "0")
		_, err := Parse()
		assert.Error(t, err)
	})
}

func TestLoad_DotEnv(t *testing.T) {
	os.Clearenv()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TOKEN_KEY=secret\nREPORT_LANG=en\n"), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		os.Chdir(wd)
		os.Unsetenv("TOKEN_KEY")
		os.Unsetenv("REPORT_LANG")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.TokenKey)
	assert.Equal(t, "en", cfg.ReportLang)
}

func TestLoad_WithoutDotEnv(t *testing.T) {
	os.Clearenv()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Addr)
}
