package config_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/docfront/config"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docfront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, config.Default(), s)
	assert.Equal(t, "documents", s.Store.Collection)
	assert.EqualValues(t, 100, s.Store.MaxItemCount)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, `
database:
  endpoint: http://localhost:8000
  region: eu-west-1
  access_key_id: key
  secret_access_key: secret
  collections: [audit]
store:
  collection: notes
  max_item_count: 25
  batch_concurrency: 4
logging:
  level: debug
`)

	s, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", s.Database.Endpoint)
	assert.Equal(t, "eu-west-1", s.Database.Region)
	assert.Equal(t, "notes", s.Store.Collection)
	assert.EqualValues(t, 25, s.Store.MaxItemCount)
	assert.Equal(t, 1000, s.Store.MaxBatchSize, "unset keys keep their defaults")
	assert.Equal(t, 4, s.Store.BatchConcurrency)

	conn := s.Conn()
	assert.Equal(t, "key", conn.AccessKeyID)
	assert.Equal(t, "secret", conn.SecretAccessKey)
	assert.Equal(t, []string{"audit", "notes"}, conn.Collections)

	cfg := s.StoreConfig()
	assert.Equal(t, "notes", cfg.Collection)
	assert.EqualValues(t, 25, cfg.MaxItemCount)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeFile(t, "store: [not, a, map")

	_, err := config.Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "database:\n  endpoint: http://from-file\n")
	t.Setenv("DOCFRONT_ENDPOINT", "http://from-env")
	t.Setenv("DOCFRONT_ACCESS_KEY_ID", "env-key")
	t.Setenv("DOCFRONT_SECRET_ACCESS_KEY", "env-secret")
	t.Setenv("DOCFRONT_COLLECTION", "env-docs")
	t.Setenv("DOCFRONT_COLLECTIONS", "a, b,,")
	t.Setenv("DOCFRONT_MAX_ITEM_COUNT", "7")

	s, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env", s.Database.Endpoint)
	assert.Equal(t, "env-key", s.Database.AccessKeyID)
	assert.Equal(t, "env-docs", s.Store.Collection)
	assert.Equal(t, []string{"a", "b"}, s.Database.Collections)
	assert.EqualValues(t, 7, s.Store.MaxItemCount)
	assert.Equal(t, []string{"a", "b", "env-docs"}, s.Conn().Collections)
}

func TestLoadEnvOverridesWithoutFile(t *testing.T) {
	t.Setenv("DOCFRONT_ENDPOINT", "http://from-env")

	s, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", s.Database.Endpoint)
}

func TestLoadBadEnvNumber(t *testing.T) {
	t.Setenv("DOCFRONT_MAX_ITEM_COUNT", "many")

	_, err := config.Load("")
	assert.ErrorContains(t, err, "DOCFRONT_MAX_ITEM_COUNT")
}

func TestNewLoggerLevel(t *testing.T) {
	tests := []struct {
		level      string
		debugShown bool
	}{
		{"debug", true},
		{"info", false},
		{"nonsense", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			s := config.Default()
			s.Logging.Level = tt.level

			var buf bytes.Buffer
			logger := s.NewLogger(&buf)

			assert.Equal(t, tt.debugShown, logger.Enabled(context.Background(), slog.LevelDebug))
			logger.Info("hello", "k", "v")
			assert.Contains(t, buf.String(), `"msg":"hello"`)
		})
	}
}

func TestConnDoesNotRepeatStoreCollection(t *testing.T) {
	s := config.Default()
	s.Database.Collections = []string{"notes", "audit"}
	s.Store.Collection = "notes"

	assert.Equal(t, []string{"notes", "audit"}, s.Conn().Collections)
}
