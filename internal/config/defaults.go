// Package config provides configuration loading, defaults, and validation
// for the LatentMol toolkit.
package config

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultInput      = "data/250k_zinc.csv"
	DefaultObjective  = "logp"
	DefaultCutoff     = 2000
	DefaultRunName    = "250k"
	DefaultResultsDir = "results"

	DefaultEncoderWeights = "data/encoder_weights.json"
	DefaultLatentDim      = 64
	DefaultHiddenDim      = 64
	DefaultNumLayers      = 3
	DefaultMaxAtoms       = 200
	DefaultBatchSize      = 32

	DefaultFingerprintRadius = 3
	DefaultFingerprintBits   = 2048

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	DefaultMetricsTextfile = "metrics.prom"
)

// ApplyDefaults fills every zero-value field in cfg with the toolkit
// default. Fields already set by the caller are left unchanged so that
// explicit configuration always wins. Call after unmarshalling and before
// Validate so optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	if cfg.Pipeline.Input == "" {
		cfg.Pipeline.Input = DefaultInput
	}
	if cfg.Pipeline.Objective == "" {
		cfg.Pipeline.Objective = DefaultObjective
	}
	if cfg.Pipeline.Cutoff == 0 {
		cfg.Pipeline.Cutoff = DefaultCutoff
	}
	if cfg.Pipeline.Name == "" {
		cfg.Pipeline.Name = DefaultRunName
	}
	if cfg.Pipeline.ResultsDir == "" {
		cfg.Pipeline.ResultsDir = DefaultResultsDir
	}

	// ── Encoder ───────────────────────────────────────────────────────────────
	if cfg.Encoder.WeightsPath == "" {
		cfg.Encoder.WeightsPath = DefaultEncoderWeights
	}
	if cfg.Encoder.LatentDim == 0 {
		cfg.Encoder.LatentDim = DefaultLatentDim
	}
	if cfg.Encoder.HiddenDim == 0 {
		cfg.Encoder.HiddenDim = DefaultHiddenDim
	}
	if cfg.Encoder.NumLayers == 0 {
		cfg.Encoder.NumLayers = DefaultNumLayers
	}
	if cfg.Encoder.MaxAtoms == 0 {
		cfg.Encoder.MaxAtoms = DefaultMaxAtoms
	}
	if cfg.Encoder.BatchSize == 0 {
		cfg.Encoder.BatchSize = DefaultBatchSize
	}

	// ── QSAR ──────────────────────────────────────────────────────────────────
	if cfg.QSAR.Radius == 0 {
		cfg.QSAR.Radius = DefaultFingerprintRadius
	}
	if cfg.QSAR.NumBits == 0 {
		cfg.QSAR.NumBits = DefaultFingerprintBits
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.TextfileName == "" {
		cfg.Metrics.TextfileName = DefaultMetricsTextfile
	}
}
