package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultBulkThreshold, cfg.Confirm.BulkThreshold)
	assert.Equal(t, DefaultPreviewLimit, cfg.Preview.Limit)
	assert.Equal(t, DefaultRotationDays, cfg.Logging.RotationDays)
	assert.True(t, cfg.HistoryEnabled())
	assert.Equal(t, "history.db", filepath.Base(cfg.History.Path))
	assert.Empty(t, cfg.Metrics.Textfile)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "trash.prom")
	dbFile := filepath.Join(dir, "h.db")

	path := writeConfig(t, strings.Join([]string{
		"confirm:",
		"  bulk_threshold: 40",
		"preview:",
		"  limit: 3",
		"history:",
		"  enabled: false",
		"  path: " + dbFile,
		"  retention_days: 90",
		"metrics:",
		"  textfile: " + metricsFile,
		"safety:",
		"  protected_paths:",
		"    - " + filepath.Join(dir, "keep", ".."),
	}, "\n"))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.Confirm.BulkThreshold)
	assert.Equal(t, 3, cfg.Preview.Limit)
	assert.False(t, cfg.HistoryEnabled())
	assert.Equal(t, dbFile, cfg.History.Path)
	assert.Equal(t, 90, cfg.History.RetentionDays)
	assert.Equal(t, metricsFile, cfg.Metrics.Textfile)
	assert.Equal(t, []string{dir}, cfg.Safety.ProtectedPaths)
	assert.Equal(t, DefaultRotationDays, cfg.Logging.RotationDays)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultBulkThreshold, cfg.Confirm.BulkThreshold)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative threshold", "confirm:\n  bulk_threshold: -1\n"},
		{"negative preview", "preview:\n  limit: -5\n"},
		{"negative retention", "history:\n  retention_days: -1\n"},
		{"relative history path", "history:\n  path: relative/h.db\n"},
		{"relative protected path", "safety:\n  protected_paths: [\"relative\"]\n"},
		{"malformed yaml", "confirm: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultPreviewLimit, cfg.Preview.Limit)
	})

	t.Run("existing file is loaded", func(t *testing.T) {
		cfg, err := LoadOrDefault(writeConfig(t, "preview:\n  limit: 7\n"))
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.Preview.Limit)
	})

	t.Run("existing invalid file is an error", func(t *testing.T) {
		_, err := LoadOrDefault(writeConfig(t, "preview:\n  limit: -1\n"))
		assert.Error(t, err)
	})
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
