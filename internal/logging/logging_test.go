package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLevels(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		wantLevel zerolog.Level
	}{
		{"quiet logs info to file", 0, zerolog.InfoLevel},
		{"info level", 1, zerolog.InfoLevel},
		{"debug level", 2, zerolog.DebugLevel},
		{"trace level", 3, zerolog.TraceLevel},
		{"high verbosity defaults to trace", 5, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closer, err := Setup(Options{Verbosity: tt.verbosity, Dir: t.TempDir(), Console: &bytes.Buffer{}})
			require.NoError(t, err)
			defer closer.Close()

			assert.Equal(t, tt.wantLevel, zerolog.GlobalLevel())
		})
	}
}

func TestComponentLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	closer, err := Setup(Options{Dir: dir})
	require.NoError(t, err)

	l := For("expand")
	l.Info().Str("pattern", "*.txt").Msg("expanded")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, logFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"expand"`)
	assert.Contains(t, string(data), `"pattern":"*.txt"`)
}

func TestQuietConsole(t *testing.T) {
	var console bytes.Buffer
	closer, err := Setup(Options{Dir: t.TempDir(), Console: &console})
	require.NoError(t, err)
	defer closer.Close()

	l := For("test")
	l.Warn().Msg("should stay in the file")
	assert.Empty(t, console.String())
}

func TestVerboseConsole(t *testing.T) {
	var console bytes.Buffer
	closer, err := Setup(Options{Verbosity: 1, Console: &console})
	require.NoError(t, err)
	defer closer.Close()

	l := For("test")
	l.Info().Msg("visible")
	assert.Contains(t, console.String(), "visible")
}

func TestRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, logFile)
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	old := time.Now().AddDate(0, 0, -40)
	require.NoError(t, os.Chtimes(path, old, old))

	stale := filepath.Join(dir, logFile+".20200101-000000")
	require.NoError(t, os.WriteFile(stale, []byte("stale\n"), 0o644))
	require.NoError(t, os.Chtimes(stale, old, old))

	closer, err := Setup(Options{Dir: dir, RotationDays: 30})
	require.NoError(t, err)
	require.NoError(t, closer.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var rotated []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), logFile+".") {
			rotated = append(rotated, e.Name())
		}
	}
	require.Len(t, rotated, 1)
	assert.Equal(t, logFile+"."+old.Format("20060102-150405"), rotated[0])

	data, err := os.ReadFile(filepath.Join(dir, rotated[0]))
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(data))

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "old")
}
