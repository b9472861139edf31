package pipeline_test

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LatentMol/internal/application/pipeline"
	"github.com/turtacn/LatentMol/internal/config"
	"github.com/turtacn/LatentMol/internal/experiment"
	"github.com/turtacn/LatentMol/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/LatentMol/internal/infrastructure/storage"
	"github.com/turtacn/LatentMol/pkg/errors"
)

// refCSV holds ethanol, benzene and cyclononane: the three molecules whose
// logP, QED, SA and cycle values are pinned in the scoring tests.
const refCSV = "smiles\nCCO\nc1ccccc1\nC1CCCCCCCC1\n"

// stubEmbedder returns a deterministic matrix so latent persistence can be
// asserted exactly. rows >= 0 forces a row count that ignores the input.
type stubEmbedder struct {
	dim  int
	rows int
	err  error

	gotSMILES []string
}

func newStubEmbedder(dim int) *stubEmbedder { return &stubEmbedder{dim: dim, rows: -1} }

func (e *stubEmbedder) Embed(ctx context.Context, smiles []string) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.err != nil {
		return nil, e.err
	}
	e.gotSMILES = append([]string(nil), smiles...)

	n := len(smiles)
	if e.rows >= 0 {
		n = e.rows
	}
	out := make([][]float64, n)
	for i := range out {
		row := make([]float64, e.dim)
		for j := range row {
			row[j] = float64(i) + float64(j)/8
		}
		out[i] = row
	}
	return out, nil
}

func (e *stubEmbedder) LatentDim() int { return e.dim }

func newRunSetup(t *testing.T, objective, csvContent string) (*config.Config, *experiment.Workspace) {
	t.Helper()
	var cfg config.Config
	config.ApplyDefaults(&cfg)
	cfg.Pipeline.Input = writeCSV(t, csvContent)
	cfg.Pipeline.Objective = objective
	cfg.Pipeline.Cutoff = -1
	cfg.Pipeline.ResultsDir = t.TempDir()

	ws, err := experiment.NewWorkspace(cfg.Pipeline.ResultsDir, cfg.Pipeline.Name)
	require.NoError(t, err)
	return &cfg, ws
}

func newRunService(t *testing.T, cfg *config.Config, ws *experiment.Workspace, emb *stubEmbedder) pipeline.Service {
	t.Helper()
	svc, err := pipeline.NewService(cfg, emb, ws, nil, nil)
	require.NoError(t, err)
	return svc
}

func writeQSARModel(t *testing.T, numBits int, weightFor func(bit int) float64, intercept float64) string {
	t.Helper()
	weights := make([]float64, numBits)
	for i := range weights {
		weights[i] = weightFor(i)
	}
	raw, err := json.Marshal(map[string]any{
		"num_bits":      numBits,
		"weights":       weights,
		"intercept":     intercept,
		"calibration_a": 1.0,
		"calibration_b": 0.0,
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "qsar_model.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

// zscores recomputes population z-scores independently of the scoring
// package, so composite targets are checked against first principles.
func zscores(values []float64) []float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(values)))

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - mean) / std
	}
	return out
}

func dataDirNames(t *testing.T, ws *experiment.Workspace) []string {
	t.Helper()
	entries, err := os.ReadDir(ws.DataDir())
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names
}

func TestNewService_Validation(t *testing.T) {
	cfg, ws := newRunSetup(t, "logp", refCSV)
	emb := newStubEmbedder(4)

	_, err := pipeline.NewService(nil, emb, ws, nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))

	_, err = pipeline.NewService(cfg, emb, nil, nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))

	svc, err := pipeline.NewService(cfg, emb, ws, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestServiceScore_WithoutEmbedder(t *testing.T) {
	cfg, ws := newRunSetup(t, "logp", refCSV)
	svc, err := pipeline.NewService(cfg, nil, ws, nil, nil)
	require.NoError(t, err)

	// Run needs the encoder; Score does not.
	_, err = svc.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam), "got %v", err)

	res, err := svc.Score(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.ValidCount)
	assert.Zero(t, res.LatentDim)

	assert.ElementsMatch(t, []string{
		"SA_scores.txt",
		"cycle_scores.txt",
		"logP_values.txt",
		"normalization_stats.json",
		"targets_logp.txt",
	}, dataDirNames(t, ws))
	assert.NoFileExists(t, ws.DataFile("latent_features.txt"))
}

func TestServiceRun_DockingFailsBeforeAnyArtifact(t *testing.T) {
	cfg, ws := newRunSetup(t, "docking", refCSV)
	emb := newStubEmbedder(4)
	svc := newRunService(t, cfg, ws, emb)

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotImplemented), "got %v", err)

	dataEntries, err := os.ReadDir(ws.DataDir())
	require.NoError(t, err)
	assert.Empty(t, dataEntries, "docking must not write data artifacts")

	logEntries, err := os.ReadDir(ws.LogsDir())
	require.NoError(t, err)
	assert.Empty(t, logEntries)
	assert.Nil(t, emb.gotSMILES, "docking must fail before embedding")

	_, err = svc.Score(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotImplemented), "got %v", err)
}

func TestServiceRun_UnknownObjectiveRejected(t *testing.T) {
	cfg, ws := newRunSetup(t, "maximize_vibes", refCSV)
	svc := newRunService(t, cfg, ws, newStubEmbedder(4))

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownObjective), "got %v", err)

	dataEntries, err := os.ReadDir(ws.DataDir())
	require.NoError(t, err)
	assert.Empty(t, dataEntries)
}

func TestServiceRun_LogPWritesReferenceArtifacts(t *testing.T) {
	cfg, ws := newRunSetup(t, "logp", refCSV)
	emb := newStubEmbedder(4)
	svc := newRunService(t, cfg, ws, emb)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ws.ID, res.RunID)
	assert.Equal(t, "logp", res.Objective)
	assert.Equal(t, 3, res.TotalRows)
	assert.Equal(t, 3, res.ValidCount)
	assert.Zero(t, res.InvalidCount)
	assert.Equal(t, 4, res.LatentDim)
	assert.Positive(t, res.Duration)
	assert.Equal(t, []string{"CCO", "c1ccccc1", "C1CCCCCCCC1"}, emb.gotSMILES)

	latents, err := storage.ReadMatrix(ws.DataFile("latent_features.txt"))
	require.NoError(t, err)
	require.Len(t, latents, 3)
	assert.Equal(t, 0.125, latents[0][1])
	assert.Equal(t, 2.375, latents[2][3])

	logP, err := storage.ReadVector(ws.DataFile("logP_values.txt"))
	require.NoError(t, err)
	require.Len(t, logP, 3)
	assert.InDelta(t, -0.0014, logP[0], 1e-9)
	assert.InDelta(t, 1.6866, logP[1], 1e-9)
	assert.InDelta(t, 3.5109, logP[2], 1e-9)

	sa, err := storage.ReadVector(ws.DataFile("SA_scores.txt"))
	require.NoError(t, err)
	assert.InDelta(t, -1.7921108848, sa[0], 1e-9)
	assert.InDelta(t, -1.3824536252, sa[1], 1e-9)
	assert.InDelta(t, -1.8621618474, sa[2], 1e-9)

	cycles, err := storage.ReadVector(ws.DataFile("cycle_scores.txt"))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, -3}, cycles)

	targets, err := storage.ReadVector(ws.DataFile("targets_logp.txt"))
	require.NoError(t, err)
	require.Len(t, targets, 3)
	zl, zs, zc := zscores(logP), zscores(sa), zscores(cycles)
	for i := range targets {
		assert.InDelta(t, zl[i]+zs[i]+zc[i], targets[i], 1e-12)
	}

	raw, err := os.ReadFile(ws.DataFile("normalization_stats.json"))
	require.NoError(t, err)
	var stats map[string]map[string]float64
	require.NoError(t, json.Unmarshal(raw, &stats))
	require.Contains(t, stats, "logp")
	require.Contains(t, stats, "sa")
	require.Contains(t, stats, "cycle")
	assert.InDelta(t, (-0.0014+1.6866+3.5109)/3, stats["logp"]["mean"], 1e-9)

	assert.ElementsMatch(t, []string{
		"SA_scores.txt",
		"cycle_scores.txt",
		"latent_features.txt",
		"logP_values.txt",
		"normalization_stats.json",
		"targets_logp.txt",
	}, dataDirNames(t, ws))
	assert.Len(t, res.Artifacts, 6)
	assert.NoFileExists(t, ws.HistogramPath())
}

func TestServiceRun_QEDWritesReferenceArtifacts(t *testing.T) {
	cfg, ws := newRunSetup(t, "qed", refCSV)
	svc := newRunService(t, cfg, ws, newStubEmbedder(4))

	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	qed, err := storage.ReadVector(ws.DataFile("qed_values.txt"))
	require.NoError(t, err)
	require.Len(t, qed, 3)
	assert.InDelta(t, 0.3920392361, qed[0], 1e-9)
	assert.InDelta(t, 0.3022914806, qed[1], 1e-9)
	assert.InDelta(t, 0.3084991168, qed[2], 1e-9)

	assert.ElementsMatch(t, []string{
		"SA_scores.txt",
		"cycle_scores.txt",
		"latent_features.txt",
		"normalization_stats.json",
		"qed_values.txt",
		"targets_qed.txt",
	}, dataDirNames(t, ws))
}

func TestServiceRun_QSARWritesTargets(t *testing.T) {
	cfg, ws := newRunSetup(t, "qsar", refCSV)
	cfg.QSAR.ModelPath = writeQSARModel(t, 2048, func(bit int) float64 {
		return float64(bit%13) / 100
	}, -0.2)
	// Deliberately wrong: the model's own width must win.
	cfg.QSAR.NumBits = 1024
	svc := newRunService(t, cfg, ws, newStubEmbedder(4))

	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	probs, err := storage.ReadVector(ws.DataFile("qsar_values.txt"))
	require.NoError(t, err)
	require.Len(t, probs, 3)
	for i, p := range probs {
		assert.Greater(t, p, 0.0, "probability %d", i)
		assert.Less(t, p, 1.0, "probability %d", i)
	}

	targets, err := storage.ReadVector(ws.DataFile("targets_qsar.txt"))
	require.NoError(t, err)
	require.Len(t, targets, 3)
	z := zscores(probs)
	for i := range targets {
		assert.InDelta(t, z[i], targets[i], 1e-12)
	}

	assert.ElementsMatch(t, []string{
		"latent_features.txt",
		"normalization_stats.json",
		"qsar_values.txt",
		"targets_qsar.txt",
	}, dataDirNames(t, ws))
}

func TestServiceRun_QSARDegenerateScoresFail(t *testing.T) {
	cfg, ws := newRunSetup(t, "qsar", refCSV)
	// Intercept-only classifier: every molecule gets the same probability.
	cfg.QSAR.ModelPath = writeQSARModel(t, 64, func(int) float64 { return 0 }, 0.7)
	svc := newRunService(t, cfg, ws, newStubEmbedder(4))

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDegenerateScores), "got %v", err)

	// Embeddings land before scoring; score files must not.
	assert.FileExists(t, ws.DataFile("latent_features.txt"))
	assert.NoFileExists(t, ws.DataFile("targets_qsar.txt"))
	assert.NoFileExists(t, ws.DataFile("qsar_values.txt"))
}

func TestServiceRun_ReportsInvalidRows(t *testing.T) {
	cfg, ws := newRunSetup(t, "logp", "smiles\nCCO\nnot_a_molecule(\nc1ccccc1\nQ\n")
	svc := newRunService(t, cfg, ws, newStubEmbedder(4))

	res, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, res.TotalRows)
	assert.Equal(t, 2, res.ValidCount)
	assert.Equal(t, 2, res.InvalidCount)

	report := ws.LogFile("invalid_smiles.txt")
	raw, err := os.ReadFile(report)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "2\tnot_a_molecule(\t"), "got %q", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "4\tQ\t"), "got %q", lines[1])
	assert.Contains(t, res.Artifacts, report)
}

func TestServiceRun_MissingDatasetFails(t *testing.T) {
	cfg, ws := newRunSetup(t, "logp", refCSV)
	cfg.Pipeline.Input = filepath.Join(t.TempDir(), "absent.csv")
	svc := newRunService(t, cfg, ws, newStubEmbedder(4))

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatasetMissing), "got %v", err)
}

func TestServiceRun_AllInvalidDatasetFails(t *testing.T) {
	cfg, ws := newRunSetup(t, "logp", "smiles\nC(\nX#\n")
	emb := newStubEmbedder(4)
	svc := newRunService(t, cfg, ws, emb)

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatasetEmpty), "got %v", err)
	assert.Nil(t, emb.gotSMILES)
}

func TestServiceRun_EmbedderRowMismatchFails(t *testing.T) {
	cfg, ws := newRunSetup(t, "logp", refCSV)
	emb := newStubEmbedder(4)
	emb.rows = 2
	svc := newRunService(t, cfg, ws, emb)

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmbedderOutput), "got %v", err)
	assert.NoFileExists(t, ws.DataFile("latent_features.txt"))
}

func TestServiceRun_EmbedderErrorPropagates(t *testing.T) {
	cfg, ws := newRunSetup(t, "logp", refCSV)
	emb := newStubEmbedder(4)
	emb.err = errors.Internal("encoder exploded")
	svc := newRunService(t, cfg, ws, emb)

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInternal), "got %v", err)
}

func TestServiceRun_CutoffLimitsBatch(t *testing.T) {
	cfg, ws := newRunSetup(t, "logp", "smiles\nC\nCC\nCCC\nCCCC\nCCCCC\n")
	cfg.Pipeline.Cutoff = 2
	emb := newStubEmbedder(4)
	svc := newRunService(t, cfg, ws, emb)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalRows)
	assert.Len(t, emb.gotSMILES, 2)

	latents, err := storage.ReadMatrix(ws.DataFile("latent_features.txt"))
	require.NoError(t, err)
	assert.Len(t, latents, 2)
}

func TestServiceRun_ContextCancelled(t *testing.T) {
	cfg, ws := newRunSetup(t, "logp", refCSV)
	svc := newRunService(t, cfg, ws, newStubEmbedder(4))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestServiceRun_WritesHistogramWhenEnabled(t *testing.T) {
	cfg, ws := newRunSetup(t, "logp", refCSV)
	cfg.Pipeline.WriteHistogram = true
	svc := newRunService(t, cfg, ws, newStubEmbedder(4))

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, ws.HistogramPath())
	assert.Contains(t, res.Artifacts, ws.HistogramPath())
}

func TestServiceRun_RecordsMetrics(t *testing.T) {
	cfg, ws := newRunSetup(t, "logp", refCSV)
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace: "latentmol",
		Subsystem: "run",
	}, nil)
	require.NoError(t, err)
	metrics := prometheus.NewRunMetrics(collector)

	svc, err := pipeline.NewService(cfg, newStubEmbedder(4), ws, nil, metrics)
	require.NoError(t, err)
	_, err = svc.Run(context.Background())
	require.NoError(t, err)

	path := ws.LogFile("metrics.prom")
	require.NoError(t, collector.WriteTextfile(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)

	assert.Contains(t, text, `latentmol_run_molecules_total{status="valid"} 3`)
	assert.Contains(t, text, `latentmol_run_molecules_total{status="invalid"} 0`)
	assert.Contains(t, text, `latentmol_run_run_info{objective="logp",run_id="`+ws.ID+`"} 1`)
	assert.Contains(t, text, "latentmol_run_latent_dim 4")
	assert.Contains(t, text, `latentmol_run_scorer_batch_size{scorer="logp"} 3`)
	assert.Contains(t, text, `latentmol_run_dataset_rows{source="`+cfg.Pipeline.Input+`"} 3`)
}

func TestServiceRun_RecordsStageErrorMetric(t *testing.T) {
	cfg, ws := newRunSetup(t, "logp", refCSV)
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace: "latentmol",
		Subsystem: "run",
	}, nil)
	require.NoError(t, err)
	metrics := prometheus.NewRunMetrics(collector)

	emb := newStubEmbedder(4)
	emb.rows = 1
	svc, err := pipeline.NewService(cfg, emb, ws, nil, metrics)
	require.NoError(t, err)
	_, err = svc.Run(context.Background())
	require.Error(t, err)

	path := ws.LogFile("metrics.prom")
	require.NoError(t, collector.WriteTextfile(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `latentmol_run_stage_errors_total{code="PIPE_004",stage="embed"} 1`)
}
