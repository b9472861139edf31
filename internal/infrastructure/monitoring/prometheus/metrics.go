package prometheus

import "time"

// RunMetrics holds every metric a pipeline run records.
type RunMetrics struct {
	// Dataset
	MoleculesTotal CounterVec // status: valid | invalid
	DatasetRows    GaugeVec   // source

	// Stages
	StageDuration HistogramVec // stage: load | embed | score | normalize | persist
	StageErrors   CounterVec   // stage, code

	// Scoring
	ScorerDuration HistogramVec // scorer
	BatchSize      GaugeVec     // scorer

	// Run identity and outputs
	LatentDim     GaugeVec
	ArtifactBytes GaugeVec // artifact
	RunInfo       GaugeVec // run_id, objective; value fixed at 1
	RunDuration   GaugeVec // objective
}

// Default buckets, tuned for an offline batch tool rather than a serving
// path: stages run seconds to minutes, single-molecule scorers run well
// under a millisecond.
var (
	DefaultStageDurationBuckets  = []float64{.1, .5, 1, 5, 10, 30, 60, 300, 600, 1800}
	DefaultScorerDurationBuckets = []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1, .5}
)

// NewRunMetrics registers all run metrics and returns the RunMetrics struct.
func NewRunMetrics(collector MetricsCollector) *RunMetrics {
	m := &RunMetrics{}

	// Dataset
	m.MoleculesTotal = collector.RegisterCounter("molecules_total", "Molecules processed by validity status", "status")
	m.DatasetRows = collector.RegisterGauge("dataset_rows", "Rows read from the input dataset", "source")

	// Stages
	m.StageDuration = collector.RegisterHistogram("stage_duration_seconds", "Pipeline stage duration", DefaultStageDurationBuckets, "stage")
	m.StageErrors = collector.RegisterCounter("stage_errors_total", "Pipeline stage failures", "stage", "code")

	// Scoring
	m.ScorerDuration = collector.RegisterHistogram("scorer_duration_seconds", "Per-batch scorer duration", DefaultScorerDurationBuckets, "scorer")
	m.BatchSize = collector.RegisterGauge("scorer_batch_size", "Molecules handed to a scorer batch", "scorer")

	// Run identity and outputs
	m.LatentDim = collector.RegisterGauge("latent_dim", "Latent space dimensionality")
	m.ArtifactBytes = collector.RegisterGauge("artifact_bytes", "Size of a written run artifact", "artifact")
	m.RunInfo = collector.RegisterGauge("run_info", "Run identity (value is always 1)", "run_id", "objective")
	m.RunDuration = collector.RegisterGauge("run_duration_seconds", "Wall-clock duration of the whole run", "objective")

	return m
}

// Helpers

func RecordMolecule(metrics *RunMetrics, valid bool) {
	status := "valid"
	if !valid {
		status = "invalid"
	}
	metrics.MoleculesTotal.WithLabelValues(status).Inc()
}

func ObserveStage(metrics *RunMetrics, stage string, duration time.Duration) {
	metrics.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

func RecordStageError(metrics *RunMetrics, stage, code string) {
	metrics.StageErrors.WithLabelValues(stage, code).Inc()
}

func ObserveScorer(metrics *RunMetrics, scorer string, n int, duration time.Duration) {
	metrics.ScorerDuration.WithLabelValues(scorer).Observe(duration.Seconds())
	metrics.BatchSize.WithLabelValues(scorer).Set(float64(n))
}

func RecordArtifact(metrics *RunMetrics, name string, bytes int64) {
	metrics.ArtifactBytes.WithLabelValues(name).Set(float64(bytes))
}

func SetRunInfo(metrics *RunMetrics, runID, objective string) {
	metrics.RunInfo.WithLabelValues(runID, objective).Set(1)
}
