package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config that passes Validate; tests mutate single
// fields to probe individual rules.
func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_RejectsBadFields(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty input", func(c *Config) { c.Pipeline.Input = "" }, "pipeline.input"},
		{"unknown objective", func(c *Config) { c.Pipeline.Objective = "entropy" }, "pipeline.objective"},
		{"zero cutoff", func(c *Config) { c.Pipeline.Cutoff = 0 }, "pipeline.cutoff"},
		{"cutoff below -1", func(c *Config) { c.Pipeline.Cutoff = -7 }, "pipeline.cutoff"},
		{"empty name", func(c *Config) { c.Pipeline.Name = "" }, "pipeline.name"},
		{"empty results dir", func(c *Config) { c.Pipeline.ResultsDir = "" }, "pipeline.results_dir"},
		{"zero latent dim", func(c *Config) { c.Encoder.LatentDim = 0 }, "encoder.latent_dim"},
		{"negative hidden dim", func(c *Config) { c.Encoder.HiddenDim = -1 }, "encoder.hidden_dim"},
		{"zero layers", func(c *Config) { c.Encoder.NumLayers = 0 }, "encoder.num_layers"},
		{"zero max atoms", func(c *Config) { c.Encoder.MaxAtoms = 0 }, "encoder.max_atoms"},
		{"zero batch size", func(c *Config) { c.Encoder.BatchSize = 0 }, "encoder.batch_size"},
		{"negative radius", func(c *Config) { c.QSAR.Radius = -1 }, "qsar.radius"},
		{"zero num bits", func(c *Config) { c.QSAR.NumBits = 0 }, "qsar.num_bits"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidate_QSARModelPathRequiredForQSARObjective(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Pipeline.Objective = "qsar"
	cfg.QSAR.ModelPath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qsar.model_path")

	cfg.QSAR.ModelPath = "models/clf.json"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_DockingObjectivePassesValidation(t *testing.T) {
	t.Parallel()

	// docking is a declared mode; rejecting it is the pipeline's job so the
	// failure surfaces as not-implemented, not as a config typo.
	cfg := validConfig()
	cfg.Pipeline.Objective = "docking"
	assert.NoError(t, cfg.Validate())
}
