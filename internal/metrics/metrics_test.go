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

func TestObserveSegment(t *testing.T) {
	m := New()

	m.ObserveSegment("Domestic", 100, 2*time.Second)
	m.ObserveSegment("Domestic", 50, 500*time.Millisecond)
	m.ObserveSegment("Foreign", 7, time.Second)

	assert.Equal(t, 150.0, testutil.ToFloat64(m.RecordsGenerated.WithLabelValues("Domestic")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.RecordsGenerated.WithLabelValues("Foreign")))
	assert.Equal(t, 0.5, testutil.ToFloat64(m.GenerationSeconds.WithLabelValues("Domestic")))
}

func TestObserveRun(t *testing.T) {
	m := New()
	finished := time.Unix(1_700_000_000, 0)

	m.ObserveRun(1500*time.Millisecond, finished)
	m.IncrementRunsFailed()

	assert.Equal(t, 1.5, testutil.ToFloat64(m.RunDuration))
	assert.Equal(t, 1_700_000_000.0, testutil.ToFloat64(m.LastRunTimestamp))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsFailed))
}

func TestIndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.IncrementRunsFailed()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.RunsFailed))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RunsFailed))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveSegment("Domestic", 3, time.Second)
	m.ObserveRun(time.Second, time.Unix(10, 0))

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, m.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, `fundsim_records_generated_total{segment="Domestic"} 3`)
	assert.Contains(t, out, "fundsim_run_duration_seconds 1")
	assert.Contains(t, out, "# TYPE fundsim_runs_failed_total counter")
}
