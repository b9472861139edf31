package prometheus

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LatentMol/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LatentMol/pkg/errors"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	cfg := CollectorConfig{
		Namespace: "test",
		Subsystem: "unit",
	}
	c, err := NewMetricsCollector(cfg, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

// dumpText round-trips the registry through the textfile writer, which is
// how every production run reads its own metrics back.
func dumpText(t *testing.T, collector MetricsCollector) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, collector.WriteTextfile(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(raw)
}

func TestNewMetricsCollector_ValidConfig(t *testing.T) {
	c := newTestCollector(t)
	assert.NotNil(t, c)
}

func TestNewMetricsCollector_EmptyNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{Subsystem: "unit"}, logging.NewNopLogger())
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam), "got %v", err)
}

func TestNewMetricsCollector_WithProcessMetrics(t *testing.T) {
	cfg := CollectorConfig{
		Namespace:            "test",
		EnableProcessMetrics: true,
	}
	c, err := NewMetricsCollector(cfg, logging.NewNopLogger())
	require.NoError(t, err)

	assert.Contains(t, dumpText(t, c), "process_cpu_seconds_total")
}

func TestRegisterCounter_Success(t *testing.T) {
	c := newTestCollector(t)
	counter := c.RegisterCounter("runs_total", "Completed runs")
	counter.WithLabelValues().Inc()

	assert.Contains(t, dumpText(t, c), "test_unit_runs_total 1")
}

func TestRegisterCounter_WithLabels(t *testing.T) {
	c := newTestCollector(t)
	counter := c.RegisterCounter("molecules", "Molecules seen", "status")
	counter.WithLabelValues("valid").Add(5)

	assert.Contains(t, dumpText(t, c), `test_unit_molecules{status="valid"} 5`)
}

func TestRegisterCounter_DuplicateSharesVector(t *testing.T) {
	c := newTestCollector(t)
	c1 := c.RegisterCounter("dup_counter", "help")
	c2 := c.RegisterCounter("dup_counter", "help")

	c1.WithLabelValues().Inc()
	c2.WithLabelValues().Inc()

	// Both handles wrap the first registration.
	assert.Contains(t, dumpText(t, c), "test_unit_dup_counter 2")
}

func TestRegisterGauge_Success(t *testing.T) {
	c := newTestCollector(t)
	gauge := c.RegisterGauge("latent_dim", "Latent dimensionality")
	gauge.WithLabelValues().Set(64)

	assert.Contains(t, dumpText(t, c), "test_unit_latent_dim 64")
}

func TestRegisterHistogram_DefaultBuckets(t *testing.T) {
	c := newTestCollector(t)
	hist := c.RegisterHistogram("stage_seconds", "Stage duration", nil)
	hist.WithLabelValues().Observe(0.1)

	output := dumpText(t, c)
	assert.Contains(t, output, "test_unit_stage_seconds_bucket")
	assert.Contains(t, output, `le="0.005"`)
	assert.Contains(t, output, "test_unit_stage_seconds_count 1")
}

func TestTypeConflictFallsBackToNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("conflict", "help").WithLabelValues().Inc()

	// Same name, different type: the caller gets a no-op handle and the
	// original registration stays a counter.
	gauge := c.RegisterGauge("conflict", "help")
	gauge.WithLabelValues().Set(10)

	assert.Contains(t, dumpText(t, c), "# TYPE test_unit_conflict counter")
}

func TestTimer_MeasuresDuration(t *testing.T) {
	c := newTestCollector(t)
	hist := c.RegisterHistogram("timer_test", "Timer test", nil)

	timer := NewTimer(hist.WithLabelValues())
	time.Sleep(5 * time.Millisecond)
	timer.ObserveDuration()

	assert.Contains(t, dumpText(t, c), "test_unit_timer_test_count 1")
}

func TestTimer_NilHistogramIsSafe(t *testing.T) {
	timer := NewTimer(nil)
	timer.ObserveDuration()
}

func TestConcurrentRegistration(t *testing.T) {
	c := newTestCollector(t)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RegisterCounter("concurrent_metric", "help", "id").WithLabelValues("1").Inc()
		}()
	}
	wg.Wait()

	assert.Contains(t, dumpText(t, c), `test_unit_concurrent_metric{id="1"} 50`)
}

func TestWriteTextfile_ReportsFailure(t *testing.T) {
	c := newTestCollector(t)
	err := c.WriteTextfile(filepath.Join(t.TempDir(), "missing-dir", "metrics.prom"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeIOFailure), "got %v", err)
}

func TestGatherer_ExposesRegisteredFamilies(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("gathered_total", "help").WithLabelValues().Inc()

	families, err := c.Gatherer().Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "test_unit_gathered_total")
}
