// Package scoring implements the molecular property scorers used as
// optimization objectives: octanol-water partition (logP), quantitative
// drug-likeness (QED), synthetic accessibility and macrocycle penalties,
// plus the population z-score normalizer that turns raw score batches into
// regression targets.
//
// Every scorer is oriented so that higher is better. Penalty-style
// quantities (synthetic accessibility, cycle penalty) negate internally;
// the orientation is carried on the Scorer so downstream consumers never
// re-apply signs.
package scoring

import (
	"context"

	"github.com/turtacn/LatentMol/internal/domain/molecule"
	"github.com/turtacn/LatentMol/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Scorer Interface
// ─────────────────────────────────────────────────────────────────────────────

// Direction states how a scorer's values are oriented.
type Direction int

const (
	// HigherIsBetter marks scores where larger values are preferred.
	// All built-in scorers use this orientation.
	HigherIsBetter Direction = iota

	// LowerIsBetter marks penalty-style scores. No built-in scorer
	// exposes this; it exists for external scorers plugged into the
	// pipeline.
	LowerIsBetter
)

func (d Direction) String() string {
	if d == LowerIsBetter {
		return "lower_is_better"
	}
	return "higher_is_better"
}

// Scorer computes one property value for a parsed molecule.
// Implementations must be deterministic and safe for concurrent use.
type Scorer interface {
	// Name returns the stable identifier used in logs and output files.
	Name() string

	// Direction returns the scorer's orientation.
	Direction() Direction

	// Score computes the property value for m.
	Score(m *molecule.Molecule) (float64, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Batch Evaluation
// ─────────────────────────────────────────────────────────────────────────────

// ScoreBatch evaluates s over mols in order, returning one value per
// molecule. The context is checked between molecules so long candidate
// sets can be cancelled.
func ScoreBatch(ctx context.Context, s Scorer, mols []*molecule.Molecule) ([]float64, error) {
	out := make([]float64, len(mols))
	for i, m := range mols {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeScoringFailed, "score batch cancelled")
		}
		v, err := s.Score(m)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeScoringFailed,
				"scorer "+s.Name()+" failed").WithDetail(m.SMILES)
		}
		out[i] = v
	}
	return out, nil
}

// Components evaluates several scorers over the same molecules and
// returns one raw vector per scorer, in scorer order. This is the shape
// the normalizer consumes when an objective stacks multiple components.
func Components(ctx context.Context, scorers []Scorer, mols []*molecule.Molecule) ([][]float64, error) {
	out := make([][]float64, len(scorers))
	for i, s := range scorers {
		vals, err := ScoreBatch(ctx, s, mols)
		if err != nil {
			return nil, err
		}
		out[i] = vals
	}
	return out, nil
}
