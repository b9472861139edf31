// Package config defines all configuration structures for the LatentMol
// toolkit. No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import "fmt"

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// PipelineConfig holds the embedding-pipeline run parameters. These mirror
// the CLI flags of the embed command; flags override file values.
type PipelineConfig struct {
	// Input is the path of the molecule dataset, a CSV with a "smiles"
	// column in any position.
	Input string `mapstructure:"input"`

	// Objective selects the scoring mode: "logp" | "qed" | "qsar" | "docking".
	Objective string `mapstructure:"objective"`

	// Cutoff limits the dataset to its first N rows; -1 keeps all rows.
	Cutoff int `mapstructure:"cutoff"`

	// Name labels the run; output files land in <results_dir>/runs/<name>.
	Name string `mapstructure:"name"`

	// ResultsDir is the root directory for run workspaces.
	ResultsDir string `mapstructure:"results_dir"`

	// WriteHistogram controls the quick-look PNG of the composite
	// objective distribution.
	WriteHistogram bool `mapstructure:"write_histogram"`
}

// EncoderConfig holds the latent encoder model parameters. Dimensions must
// agree with the weights artifact; LoadWeights rejects mismatches.
type EncoderConfig struct {
	WeightsPath string `mapstructure:"weights_path"`
	LatentDim   int    `mapstructure:"latent_dim"`
	HiddenDim   int    `mapstructure:"hidden_dim"`
	NumLayers   int    `mapstructure:"num_layers"`
	MaxAtoms    int    `mapstructure:"max_atoms"`
	BatchSize   int    `mapstructure:"batch_size"`
}

// QSARConfig holds the activity-classifier parameters for the qsar
// objective. Radius and NumBits fix the Morgan fingerprint the classifier
// was fit on.
type QSARConfig struct {
	ModelPath string `mapstructure:"model_path"`
	Radius    int    `mapstructure:"radius"`
	NumBits   int    `mapstructure:"num_bits"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "console" | "json"
	OutputPaths []string `mapstructure:"output_paths"`
}

// MetricsConfig holds run-metrics parameters. Metrics are gathered on a
// private registry and dumped as a Prometheus textfile into the run's logs
// directory when the run finishes.
type MetricsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	TextfileName string `mapstructure:"textfile_name"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the toolkit. Every
// component reads its settings from the relevant sub-struct.
type Config struct {
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Encoder  EncoderConfig  `mapstructure:"encoder"`
	QSAR     QSARConfig     `mapstructure:"qsar"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers treat any error as fatal
// and refuse to start a run.
//
// The "docking" objective passes validation deliberately: it is a declared
// mode, and the pipeline rejects it with a not-implemented error so the
// failure reads as what it is rather than as a config typo.
func (c *Config) Validate() error {
	// Pipeline
	if c.Pipeline.Input == "" {
		return fmt.Errorf("config: pipeline.input is required")
	}
	switch c.Pipeline.Objective {
	case "logp", "qed", "qsar", "docking":
	default:
		return fmt.Errorf("config: pipeline.objective %q is invalid; expected logp|qed|qsar|docking", c.Pipeline.Objective)
	}
	if c.Pipeline.Cutoff == 0 || c.Pipeline.Cutoff < -1 {
		return fmt.Errorf("config: pipeline.cutoff must be positive or -1 (all rows), got %d", c.Pipeline.Cutoff)
	}
	if c.Pipeline.Name == "" {
		return fmt.Errorf("config: pipeline.name is required")
	}
	if c.Pipeline.ResultsDir == "" {
		return fmt.Errorf("config: pipeline.results_dir is required")
	}

	// Encoder
	if c.Encoder.LatentDim < 1 {
		return fmt.Errorf("config: encoder.latent_dim must be ≥ 1, got %d", c.Encoder.LatentDim)
	}
	if c.Encoder.HiddenDim < 1 {
		return fmt.Errorf("config: encoder.hidden_dim must be ≥ 1, got %d", c.Encoder.HiddenDim)
	}
	if c.Encoder.NumLayers < 1 {
		return fmt.Errorf("config: encoder.num_layers must be ≥ 1, got %d", c.Encoder.NumLayers)
	}
	if c.Encoder.MaxAtoms < 1 {
		return fmt.Errorf("config: encoder.max_atoms must be ≥ 1, got %d", c.Encoder.MaxAtoms)
	}
	if c.Encoder.BatchSize < 1 {
		return fmt.Errorf("config: encoder.batch_size must be ≥ 1, got %d", c.Encoder.BatchSize)
	}

	// QSAR
	if c.QSAR.Radius < 0 {
		return fmt.Errorf("config: qsar.radius must be ≥ 0, got %d", c.QSAR.Radius)
	}
	if c.QSAR.NumBits < 1 {
		return fmt.Errorf("config: qsar.num_bits must be ≥ 1, got %d", c.QSAR.NumBits)
	}
	if c.Pipeline.Objective == "qsar" && c.QSAR.ModelPath == "" {
		return fmt.Errorf("config: qsar.model_path is required for the qsar objective")
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected console|json", c.Log.Format)
	}

	return nil
}
