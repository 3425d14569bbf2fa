package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.False(t, cfg.DB.Enabled())
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 3, cfg.Numbers.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.Lock.TTL)
	assert.Equal(t, 100, cfg.Outbox.BatchSize)
	assert.Equal(t, 1024, cfg.Audit.CompressThreshold)
	assert.True(t, cfg.Idempotency.Enabled)
	assert.Equal(t, "9091", cfg.Worker.MetricsPort)
	assert.Equal(t, time.Hour, cfg.Worker.CleanupInterval)
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"SERVER_PORT=9090\nIDENTIFIER_MAX_RETRIES=5\nRETURN_APPROVAL_RULE=total_refund > 50000\n",
	), 0o600))

	t.Setenv("APP_ENV", "development")
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.App.Port, "environment wins over the file")
	assert.Equal(t, 5, cfg.Numbers.MaxRetries)
	assert.Equal(t, "total_refund > 50000", cfg.Returns.ApprovalRule)
	assert.True(t, cfg.Redis.Enabled())

	// godotenv.Load sets variables for the process; drop them for other tests.
	os.Unsetenv("IDENTIFIER_MAX_RETRIES")
	os.Unsetenv("RETURN_APPROVAL_RULE")
}

func TestLoad_Validation(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("IDENTIFIER_MAX_RETRIES", "0")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
	assert.Contains(t, err.Error(), "IDENTIFIER_MAX_RETRIES must be at least 1")
}
