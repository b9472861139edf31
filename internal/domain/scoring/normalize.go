package scoring

import (
	"gonum.org/v1/gonum/stat"

	"github.com/turtacn/LatentMol/pkg/errors"
)

// degenerateStdEps is the population standard deviation below which a
// score batch is considered constant and cannot be normalized.
const degenerateStdEps = 1e-12

// Stats records the population moments used to normalize one score
// component. They are persisted with the run so downstream consumers can
// map model outputs back to raw score space.
type Stats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Normalize z-scores values against their own population statistics:
// each output is (v - mean) / std with the population (not sample)
// standard deviation. Batches smaller than two values carry no variance
// information and are rejected; a batch with (near-)zero variance is a
// data error, not a numerical one, and is reported as degenerate rather
// than silently divided by epsilon.
func Normalize(values []float64) ([]float64, Stats, error) {
	if len(values) < 2 {
		return nil, Stats{}, errors.Newf(errors.ErrCodeBatchTooSmall,
			"normalization requires at least 2 values, got %d", len(values))
	}
	mean := stat.Mean(values, nil)
	std := stat.PopStdDev(values, nil)
	if std < degenerateStdEps {
		return nil, Stats{}, errors.DegenerateScores(
			"score batch has zero variance and cannot be normalized")
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = stat.StdScore(v, mean, std)
	}
	return out, Stats{Mean: mean, Std: std}, nil
}

// Composite sums the component vectors element-wise into the single
// objective column. Components are expected to be normalized already so
// each contributes on a comparable scale.
func Composite(components ...[]float64) ([]float64, error) {
	if len(components) == 0 {
		return nil, errors.New(errors.ErrCodeScoringFailed, "no score components to combine")
	}
	n := len(components[0])
	out := make([]float64, n)
	for i, comp := range components {
		if len(comp) != n {
			return nil, errors.Newf(errors.ErrCodeLengthMismatch,
				"score component %d has %d values, expected %d", i, len(comp), n)
		}
		for j, v := range comp {
			out[j] += v
		}
	}
	return out, nil
}

// NormalizeComponents normalizes each component vector independently and
// returns the per-component statistics alongside. All components must
// have the same length, one entry per molecule.
func NormalizeComponents(components [][]float64) ([][]float64, []Stats, error) {
	if len(components) == 0 {
		return nil, nil, errors.New(errors.ErrCodeScoringFailed, "no score components to normalize")
	}
	n := len(components[0])
	out := make([][]float64, len(components))
	stats := make([]Stats, len(components))
	for i, comp := range components {
		if len(comp) != n {
			return nil, nil, errors.Newf(errors.ErrCodeLengthMismatch,
				"score component %d has %d values, expected %d", i, len(comp), n)
		}
		normalized, st, err := Normalize(comp)
		if err != nil {
			return nil, nil, err
		}
		out[i] = normalized
		stats[i] = st
	}
	return out, stats, nil
}
