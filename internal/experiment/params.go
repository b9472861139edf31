package experiment

import (
	"encoding/json"
	"math"
	"os"

	"github.com/turtacn/LatentMol/internal/config"
	"github.com/turtacn/LatentMol/pkg/errors"
)

// Params is the flat key/value snapshot of a run's effective settings,
// dumped to params.json so a finished run can be reproduced and so
// downstream consumers can pick up the run by name without re-reading the
// live configuration. Keys mirror the configuration file keys.
type Params map[string]any

// ParamsFromConfig flattens the resolved configuration into run params.
// The config already carries defaults, file values and flag overrides
// merged in that order, so the snapshot is the effective run setup.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		"input":           cfg.Pipeline.Input,
		"objective":       cfg.Pipeline.Objective,
		"cutoff":          cfg.Pipeline.Cutoff,
		"name":            cfg.Pipeline.Name,
		"results_dir":     cfg.Pipeline.ResultsDir,
		"write_histogram": cfg.Pipeline.WriteHistogram,

		"weights_path": cfg.Encoder.WeightsPath,
		"latent_dim":   cfg.Encoder.LatentDim,
		"hidden_dim":   cfg.Encoder.HiddenDim,
		"num_layers":   cfg.Encoder.NumLayers,
		"max_atoms":    cfg.Encoder.MaxAtoms,
		"batch_size":   cfg.Encoder.BatchSize,

		"model_path": cfg.QSAR.ModelPath,
		"radius":     cfg.QSAR.Radius,
		"num_bits":   cfg.QSAR.NumBits,
	}
}

// Set records one extra key, overwriting any previous value.
func (p Params) Set(key string, value any) { p[key] = value }

// Update merges all entries of m into p, overwriting on key collision.
func (p Params) Update(m map[string]any) {
	for k, v := range m {
		p[k] = v
	}
}

// Dump writes the params as indented JSON to path.
func (p Params) Dump(path string) error {
	raw, err := json.MarshalIndent(p, "", "    ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "marshalling run params")
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeIOFailure, "writing "+path)
	}
	return nil
}

// LoadParams reads a params.json written by Dump.
func LoadParams(path string) (Params, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIOFailure, "reading "+path)
	}
	var p Params
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "parsing "+path)
	}
	return p, nil
}

// String returns the value for key as a string.
func (p Params) String(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

// Bool returns the value for key as a bool.
func (p Params) Bool(key string) (bool, bool) {
	b, ok := p[key].(bool)
	return b, ok
}

// Float returns the value for key as a float64. Integer values stored
// before a dump round-trip are converted.
func (p Params) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Int returns the value for key as an int. JSON numbers decode as float64,
// so whole floats are accepted; fractional values are not.
func (p Params) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}
