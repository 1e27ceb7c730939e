package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveTarget(t *testing.T) {
	r := New()
	r.ObserveTarget("sales", true, 2*time.Second, 1024)
	r.ObserveTarget("sales", false, time.Second, 0)
	r.ObserveTarget("hr", true, 3*time.Second, 10)

	assert.Equal(t, float64(1), testutil.ToFloat64(r.dumps.WithLabelValues("sales", StatusSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.dumps.WithLabelValues("sales", StatusFailure)))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.dumps.WithLabelValues("hr", StatusSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.duration.WithLabelValues("sales")))
	// failed dump leaves the last good size in place
	assert.Equal(t, float64(1024), testutil.ToFloat64(r.size.WithLabelValues("sales")))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.ObserveTarget("sales", true, time.Second, 42)
	r.RunFinished(time.Unix(100, 0))

	path := filepath.Join(t.TempDir(), "dump.prom")
	require.NoError(t, r.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	for _, want := range []string{
		`mysql_db_dump_total{database="sales",status="success"} 1`,
		`mysql_db_dump_size_bytes{database="sales"} 42`,
		"mysql_db_dump_last_run_timestamp_seconds 100",
	} {
		assert.True(t, strings.Contains(out, want), "missing %q in\n%s", want, out)
	}

	assert.Error(t, r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dump.prom")))
}
