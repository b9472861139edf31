// Package config provides configuration loading, defaults, and validation
// for the LatentMol toolkit.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for all toolkit settings.
const envPrefix = "LATENTMOL"

// knownKeys lists every configuration key so environment variables are
// visible to Unmarshal even when no config file supplies the key. Viper
// only surfaces automatic-env values for keys it already knows about.
var knownKeys = []string{
	"pipeline.input",
	"pipeline.objective",
	"pipeline.cutoff",
	"pipeline.name",
	"pipeline.results_dir",
	"pipeline.write_histogram",
	"encoder.weights_path",
	"encoder.latent_dim",
	"encoder.hidden_dim",
	"encoder.num_layers",
	"encoder.max_atoms",
	"encoder.batch_size",
	"qsar.model_path",
	"qsar.radius",
	"qsar.num_bits",
	"log.level",
	"log.format",
	"log.output_paths",
	"metrics.enabled",
	"metrics.textfile_name",
}

// newViper builds a pre-configured Viper instance: YAML file type,
// LATENTMOL_ env prefix, automatic env binding, and a key replacer mapping
// "." → "_" so that nested keys like "pipeline.objective" resolve to
// LATENTMOL_PIPELINE_OBJECTIVE.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range knownKeys {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads the YAML file at configPath, merges LATENTMOL_* environment
// overrides, applies defaults for unset fields, and validates the result.
// It returns a fully-populated *Config or a descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from LATENTMOL_* environment
// variables and defaults, with no config file required. Used when the
// embed command runs without --config.
func LoadFromEnv() (*Config, error) {
	v := newViper()
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// Intended for main(), where a config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
