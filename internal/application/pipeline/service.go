package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/turtacn/LatentMol/internal/config"
	"github.com/turtacn/LatentMol/internal/domain/molecule"
	"github.com/turtacn/LatentMol/internal/domain/qsar"
	"github.com/turtacn/LatentMol/internal/domain/scoring"
	"github.com/turtacn/LatentMol/internal/experiment"
	"github.com/turtacn/LatentMol/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LatentMol/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/LatentMol/internal/infrastructure/storage"
	"github.com/turtacn/LatentMol/internal/intelligence/encoder"
	"github.com/turtacn/LatentMol/pkg/errors"
)

// Artifact names inside the run's data directory. The raw component names
// follow the files the downstream optimizer already reads.
const (
	latentFile  = "latent_features.txt"
	statsFile   = "normalization_stats.json"
	invalidFile = "invalid_smiles.txt"

	histogramBins = 30
)

var rawFileNames = map[string]string{
	"logp":  "logP_values.txt",
	"qed":   "qed_values.txt",
	"sa":    "SA_scores.txt",
	"cycle": "cycle_scores.txt",
	"qsar":  "qsar_values.txt",
}

func targetsFileName(objective string) string { return "targets_" + objective + ".txt" }

// CheckObjective gates a run before anything touches disk: docking and
// unknown modes fail with zero artifacts written. Callers that create run
// bookkeeping (workspaces, params files) should gate on it first.
func CheckObjective(objective string) error {
	switch objective {
	case "logp", "qed", "qsar":
		return nil
	case "docking":
		return errors.NotImplemented("docking objective is not implemented")
	default:
		return errors.Newf(errors.ErrCodeUnknownObjective, "unknown objective %q", objective)
	}
}

// Service defines the interface for embedding-pipeline runs.
type Service interface {
	// Run executes the full load → embed → score pipeline.
	Run(ctx context.Context) (*Result, error)

	// Score executes the scoring stages only, skipping the encoder. The
	// artifact set matches Run minus the latent matrix.
	Score(ctx context.Context) (*Result, error)
}

// Result summarises a finished run for the caller.
type Result struct {
	RunID        string        `json:"run_id"`
	Objective    string        `json:"objective"`
	TotalRows    int           `json:"total_rows"`
	ValidCount   int           `json:"valid_count"`
	InvalidCount int           `json:"invalid_count"`
	LatentDim    int           `json:"latent_dim"`
	Artifacts    []string      `json:"artifacts"`
	Duration     time.Duration `json:"duration"`
}

// String renders the one-line summary the CLI prints in text mode.
func (r *Result) String() string {
	return fmt.Sprintf("run %s: objective=%s molecules=%d/%d invalid=%d latent_dim=%d artifacts=%d took=%s",
		r.RunID, r.Objective, r.ValidCount, r.TotalRows, r.InvalidCount,
		r.LatentDim, len(r.Artifacts), r.Duration.Round(time.Millisecond))
}

// serviceImpl implements the Service interface.
type serviceImpl struct {
	cfg      *config.Config
	embedder encoder.Embedder
	ws       *experiment.Workspace
	logger   logging.Logger
	metrics  *prometheus.RunMetrics
}

// NewService creates an embedding-pipeline service. The embedder may be
// nil for score-only use; Run requires one. Logger and metrics may be nil;
// a nop logger and a private metric set are substituted so a caller
// without observability wiring still gets a working pipeline.
func NewService(cfg *config.Config, embedder encoder.Embedder, ws *experiment.Workspace,
	logger logging.Logger, metrics *prometheus.RunMetrics) (Service, error) {

	if cfg == nil {
		return nil, errors.InvalidParam("pipeline config must not be nil")
	}
	if ws == nil {
		return nil, errors.InvalidParam("pipeline workspace must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace: "latentmol",
			Subsystem: "run",
		}, logger)
		if err != nil {
			return nil, err
		}
		metrics = prometheus.NewRunMetrics(collector)
	}

	return &serviceImpl{
		cfg:      cfg,
		embedder: embedder,
		ws:       ws,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// Run executes the linear load → embed → persist → score → normalize →
// persist flow. There is no retry logic anywhere; a failed run is rerun.
func (s *serviceImpl) Run(ctx context.Context) (*Result, error) {
	objective := s.cfg.Pipeline.Objective
	if err := CheckObjective(objective); err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, errors.InvalidParam("run requires an embedder; use Score for score-only runs")
	}

	start := time.Now()
	prometheus.SetRunInfo(s.metrics, s.ws.ID, objective)
	s.logger.Info("run started",
		logging.String("run_id", s.ws.ID),
		logging.String("objective", objective),
		logging.String("input", s.cfg.Pipeline.Input),
		logging.Int("cutoff", s.cfg.Pipeline.Cutoff))

	result := &Result{
		RunID:     s.ws.ID,
		Objective: objective,
		LatentDim: s.embedder.LatentDim(),
	}

	ds, err := s.loadStage()
	if err != nil {
		return nil, err
	}
	result.TotalRows = ds.TotalRows
	result.ValidCount = ds.ValidCount()
	result.InvalidCount = len(ds.Invalid)

	if err := s.writeInvalidReport(ds, result); err != nil {
		return nil, err
	}

	latents, err := s.embedStage(ctx, ds.SMILES)
	if err != nil {
		return nil, err
	}
	if err := s.persistMatrix(s.ws.DataFile(latentFile), latents, result); err != nil {
		return nil, err
	}

	composite, err := s.scoreStage(ctx, objective, ds.Molecules, result)
	if err != nil {
		return nil, err
	}

	if s.cfg.Pipeline.WriteHistogram {
		if err := experiment.WriteScoreHistogram(s.ws.HistogramPath(), targetsFileName(objective), composite, histogramBins); err != nil {
			return nil, err
		}
		result.Artifacts = append(result.Artifacts, s.ws.HistogramPath())
	}

	result.Duration = time.Since(start)
	s.metrics.RunDuration.WithLabelValues(objective).Set(result.Duration.Seconds())
	s.logger.Info("run finished",
		logging.String("run_id", s.ws.ID),
		logging.Int("molecules", result.ValidCount),
		logging.Int("artifacts", len(result.Artifacts)),
		logging.Duration("took", result.Duration))
	return result, nil
}

// Score runs load → score → normalize → persist over the dataset without
// touching the encoder, for re-scoring an existing dataset under another
// objective.
func (s *serviceImpl) Score(ctx context.Context) (*Result, error) {
	objective := s.cfg.Pipeline.Objective
	if err := CheckObjective(objective); err != nil {
		return nil, err
	}

	start := time.Now()
	prometheus.SetRunInfo(s.metrics, s.ws.ID, objective)
	s.logger.Info("score run started",
		logging.String("run_id", s.ws.ID),
		logging.String("objective", objective),
		logging.String("input", s.cfg.Pipeline.Input))

	result := &Result{
		RunID:     s.ws.ID,
		Objective: objective,
	}

	ds, err := s.loadStage()
	if err != nil {
		return nil, err
	}
	result.TotalRows = ds.TotalRows
	result.ValidCount = ds.ValidCount()
	result.InvalidCount = len(ds.Invalid)

	if err := s.writeInvalidReport(ds, result); err != nil {
		return nil, err
	}

	composite, err := s.scoreStage(ctx, objective, ds.Molecules, result)
	if err != nil {
		return nil, err
	}

	if s.cfg.Pipeline.WriteHistogram {
		if err := experiment.WriteScoreHistogram(s.ws.HistogramPath(), targetsFileName(objective), composite, histogramBins); err != nil {
			return nil, err
		}
		result.Artifacts = append(result.Artifacts, s.ws.HistogramPath())
	}

	result.Duration = time.Since(start)
	s.metrics.RunDuration.WithLabelValues(objective).Set(result.Duration.Seconds())
	s.logger.Info("score run finished",
		logging.String("run_id", s.ws.ID),
		logging.Int("molecules", result.ValidCount),
		logging.Int("artifacts", len(result.Artifacts)),
		logging.Duration("took", result.Duration))
	return result, nil
}

func (s *serviceImpl) loadStage() (*Dataset, error) {
	start := time.Now()
	ds, err := LoadDataset(s.cfg.Pipeline.Input, s.cfg.Pipeline.Cutoff)
	if err != nil {
		prometheus.RecordStageError(s.metrics, "load", string(errors.GetCode(err)))
		return nil, err
	}
	prometheus.ObserveStage(s.metrics, "load", time.Since(start))

	s.metrics.MoleculesTotal.WithLabelValues("valid").Add(float64(ds.ValidCount()))
	s.metrics.MoleculesTotal.WithLabelValues("invalid").Add(float64(len(ds.Invalid)))
	s.metrics.DatasetRows.WithLabelValues(s.cfg.Pipeline.Input).Set(float64(ds.TotalRows))

	s.logger.Info("dataset loaded",
		logging.String("path", s.cfg.Pipeline.Input),
		logging.Int("rows", ds.TotalRows),
		logging.Int("valid", ds.ValidCount()),
		logging.Int("invalid", len(ds.Invalid)))
	return ds, nil
}

// writeInvalidReport records skipped rows to logs/invalid_smiles.txt, one
// row per line as "row<TAB>smiles<TAB>reason". Writes nothing when every
// row validated.
func (s *serviceImpl) writeInvalidReport(ds *Dataset, result *Result) error {
	if len(ds.Invalid) == 0 {
		return nil
	}
	lines := make([]string, len(ds.Invalid))
	for i, row := range ds.Invalid {
		lines[i] = fmt.Sprintf("%d\t%s\t%s", row.Row, row.SMILES, row.Reason)
	}
	path := s.ws.LogFile(invalidFile)
	if err := storage.WriteLines(path, lines); err != nil {
		prometheus.RecordStageError(s.metrics, "persist", string(errors.GetCode(err)))
		return err
	}
	result.Artifacts = append(result.Artifacts, path)
	s.logger.Warn("invalid smiles skipped",
		logging.Int("count", len(ds.Invalid)),
		logging.String("report", path))
	return nil
}

func (s *serviceImpl) embedStage(ctx context.Context, smiles []string) ([][]float64, error) {
	start := time.Now()
	latents, err := s.embedder.Embed(ctx, smiles)
	if err != nil {
		prometheus.RecordStageError(s.metrics, "embed", string(errors.GetCode(err)))
		return nil, err
	}
	if len(latents) != len(smiles) {
		prometheus.RecordStageError(s.metrics, "embed", string(errors.ErrCodeEmbedderOutput))
		return nil, errors.Newf(errors.ErrCodeEmbedderOutput,
			"embedder returned %d rows for %d molecules", len(latents), len(smiles))
	}
	prometheus.ObserveStage(s.metrics, "embed", time.Since(start))
	s.metrics.LatentDim.WithLabelValues().Set(float64(s.embedder.LatentDim()))

	s.logger.Info("molecules embedded",
		logging.Int("count", len(latents)),
		logging.Int("latent_dim", s.embedder.LatentDim()),
		logging.Duration("took", time.Since(start)))
	return latents, nil
}

// scoreStage computes the objective's raw components, normalizes them, and
// persists targets plus every raw component. It returns the composite
// objective vector.
func (s *serviceImpl) scoreStage(ctx context.Context, objective string, mols []*molecule.Molecule, result *Result) ([]float64, error) {
	scorers, err := s.scorersFor(objective)
	if err != nil {
		return nil, err
	}

	scoreStart := time.Now()
	components := make([][]float64, len(scorers))
	for i, sc := range scorers {
		batchStart := time.Now()
		values, err := scoring.ScoreBatch(ctx, sc, mols)
		if err != nil {
			prometheus.RecordStageError(s.metrics, "score", string(errors.GetCode(err)))
			return nil, err
		}
		prometheus.ObserveScorer(s.metrics, sc.Name(), len(mols), time.Since(batchStart))
		components[i] = values
	}
	prometheus.ObserveStage(s.metrics, "score", time.Since(scoreStart))
	s.logger.Info("scores computed",
		logging.String("objective", objective),
		logging.Int("components", len(components)),
		logging.Duration("took", time.Since(scoreStart)))

	normStart := time.Now()
	normalized, stats, err := scoring.NormalizeComponents(components)
	if err != nil {
		prometheus.RecordStageError(s.metrics, "normalize", string(errors.GetCode(err)))
		return nil, err
	}
	composite, err := scoring.Composite(normalized...)
	if err != nil {
		prometheus.RecordStageError(s.metrics, "normalize", string(errors.GetCode(err)))
		return nil, err
	}
	prometheus.ObserveStage(s.metrics, "normalize", time.Since(normStart))
	for i, sc := range scorers {
		s.logger.Debug("component normalized",
			logging.String("scorer", sc.Name()),
			logging.Float64("mean", stats[i].Mean),
			logging.Float64("std", stats[i].Std))
	}

	if err := s.persistVector(s.ws.DataFile(targetsFileName(objective)), composite, result); err != nil {
		return nil, err
	}
	for i, sc := range scorers {
		if err := s.persistVector(s.ws.DataFile(rawFileNames[sc.Name()]), components[i], result); err != nil {
			return nil, err
		}
	}
	if err := s.persistStats(scorers, stats, result); err != nil {
		return nil, err
	}
	return composite, nil
}

// scorersFor assembles the component scorers of an objective mode. The
// qsar mode loads the classifier artifact here, once per run.
func (s *serviceImpl) scorersFor(objective string) ([]scoring.Scorer, error) {
	switch objective {
	case "logp":
		return []scoring.Scorer{scoring.NewLogPScorer(), scoring.NewSAScorer(), scoring.NewCycleScorer()}, nil
	case "qed":
		return []scoring.Scorer{scoring.NewQEDScorer(), scoring.NewSAScorer(), scoring.NewCycleScorer()}, nil
	case "qsar":
		model, err := qsar.LoadModel(s.cfg.QSAR.ModelPath)
		if err != nil {
			return nil, err
		}
		if s.cfg.QSAR.NumBits != 0 && s.cfg.QSAR.NumBits != model.NumBits {
			s.logger.Warn("configured fingerprint width differs from model, using the model's",
				logging.Int("configured", s.cfg.QSAR.NumBits),
				logging.Int("model", model.NumBits))
		}
		scorer, err := qsar.NewActivityScorer(model, s.cfg.QSAR.Radius)
		if err != nil {
			return nil, err
		}
		s.logger.Info("qsar model loaded",
			logging.String("path", s.cfg.QSAR.ModelPath),
			logging.Int("num_bits", model.NumBits))
		return []scoring.Scorer{scorer}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnknownObjective, "unknown objective %q", objective)
	}
}

func (s *serviceImpl) persistMatrix(path string, rows [][]float64, result *Result) error {
	start := time.Now()
	if err := storage.WriteMatrix(path, rows); err != nil {
		prometheus.RecordStageError(s.metrics, "persist", string(errors.GetCode(err)))
		return err
	}
	s.recordArtifact(path, time.Since(start), result)
	return nil
}

func (s *serviceImpl) persistVector(path string, values []float64, result *Result) error {
	start := time.Now()
	if err := storage.WriteVector(path, values); err != nil {
		prometheus.RecordStageError(s.metrics, "persist", string(errors.GetCode(err)))
		return err
	}
	s.recordArtifact(path, time.Since(start), result)
	return nil
}

// persistStats dumps the per-component normalization moments so model
// outputs can be mapped back to raw score space after optimization.
func (s *serviceImpl) persistStats(scorers []scoring.Scorer, stats []scoring.Stats, result *Result) error {
	doc := make(map[string]scoring.Stats, len(stats))
	for i, sc := range scorers {
		doc[sc.Name()] = stats[i]
	}
	raw, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "marshalling normalization stats")
	}
	raw = append(raw, '\n')

	start := time.Now()
	path := s.ws.DataFile(statsFile)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		prometheus.RecordStageError(s.metrics, "persist", string(errors.ErrCodeArtifactWrite))
		return errors.Wrap(err, errors.ErrCodeArtifactWrite, "writing "+path)
	}
	s.recordArtifact(path, time.Since(start), result)
	return nil
}

func (s *serviceImpl) recordArtifact(path string, took time.Duration, result *Result) {
	prometheus.ObserveStage(s.metrics, "persist", took)
	if info, err := os.Stat(path); err == nil {
		prometheus.RecordArtifact(s.metrics, filepath.Base(path), info.Size())
	}
	result.Artifacts = append(result.Artifacts, path)
	s.logger.Debug("artifact written", logging.String("path", path))
}
