package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 30*24*time.Hour, cfg.Quoting.SubmissionTTL)
	assert.Equal(t, CatalogSourcePostgres, cfg.Quoting.CatalogSource)
	assert.Equal(t, 5*time.Minute, cfg.Quoting.Cache.TTL)
	assert.Equal(t, 3, cfg.Notify.Retry.MaxRetries)
	assert.True(t, cfg.Notify.Queue)
	assert.True(t, cfg.Worker.Enabled)
	assert.Equal(t, "quote-worker", cfg.Worker.WorkerID)
	assert.Equal(t, 7, cfg.Sweeper.TaskRetentionDays)
	assert.Same(t, cfg, Get())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
quoting:
  submission_ttl: 48h
  catalog_source: file
  catalog_file: catalog.yaml
  cache_ttl: 1m
notify:
  retry:
    max_retries: 5
    initial_backoff: 50ms
worker:
  num_workers: 4
`)
	t.Setenv("PORT", "9090")
	t.Setenv("CRM_WEBHOOK_URL", "https://crm.example.com/hooks/quotes")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://localhost/quotes")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 48*time.Hour, cfg.Quoting.SubmissionTTL)
	assert.Equal(t, CatalogSourceFile, cfg.Quoting.CatalogSource)
	assert.Equal(t, time.Minute, cfg.Quoting.Cache.TTL)
	assert.Equal(t, 5, cfg.Notify.Retry.MaxRetries)
	assert.Equal(t, 50*time.Millisecond, cfg.Notify.Retry.InitialBackoff)
	assert.Equal(t, "https://crm.example.com/hooks/quotes", cfg.Notify.WebhookURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.Worker.NumWorkers)
	assert.Equal(t, "postgres://localhost/quotes", GetDatabaseURL())
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"FileSourceWithoutPath", "quoting:\n  catalog_source: file\n", "catalog_file"},
		{"UnknownSource", "quoting:\n  catalog_source: redis\n", "unknown source"},
		{"ZeroTTL", "quoting:\n  submission_ttl: 0s\n", "submission_ttl"},
		{"BadPort", "server:\n  port: 70000\n", "server.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
