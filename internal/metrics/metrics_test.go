package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRun(t *testing.T) {
	r := New()

	r.RecordRun(3, true, false, 50*time.Millisecond)
	r.RecordRun(2, false, true, time.Second)
	r.RecordRun(1, false, false, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.RunsTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RunsTotal.WithLabelValues(ResultAborted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RunsTotal.WithLabelValues(ResultFailed)))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.ItemsTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.ItemsTotal.WithLabelValues(ResultAborted)))
	assert.Greater(t, testutil.ToFloat64(r.LastRunTimestamp), 0.0)
}

func TestRecordConfirmation(t *testing.T) {
	r := New()

	r.RecordConfirmation("prompt", true)
	r.RecordConfirmation("prompt", false)
	r.RecordConfirmation("prompt", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.ConfirmationsTotal.WithLabelValues("prompt", ResultApproved)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.ConfirmationsTotal.WithLabelValues("prompt", ResultDeclined)))
}

func TestRecordersAreIsolated(t *testing.T) {
	a, b := New(), New()
	a.RecordConfirmation("double", true)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.ConfirmationsTotal.WithLabelValues("double", ResultApproved)))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.RecordRun(4, true, false, time.Millisecond)

	path := filepath.Join(t.TempDir(), "textfile", "trash.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `trash_runs_total{result="success"} 1`)
	assert.Contains(t, string(data), `trash_items_total{result="success"} 4`)
	assert.Contains(t, string(data), "trash_run_duration_seconds_count 1")
	assert.Contains(t, string(data), "# HELP trash_run_duration_seconds Duration of the recycle bin call in seconds, prompts excluded.")
}
