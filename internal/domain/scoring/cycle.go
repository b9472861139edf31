package scoring

import (
	"github.com/turtacn/LatentMol/internal/domain/molecule"
	"github.com/turtacn/LatentMol/pkg/errors"
)

// cyclePenaltyThreshold is the largest ring size that goes unpenalised.
// Six-membered rings are the backbone of drug-like chemistry; every atom
// beyond six in the largest basis cycle costs one point.
const cyclePenaltyThreshold = 6

// RawCyclePenalty returns the excess size of the largest basis cycle over
// the threshold, 0 for acyclic molecules and ordinary rings.
func RawCyclePenalty(m *molecule.Molecule) float64 {
	excess := m.LargestRingSize() - cyclePenaltyThreshold
	if excess < 0 {
		excess = 0
	}
	return float64(excess)
}

// CycleScorer scores molecules by negated macrocycle penalty: molecules
// without oversized rings score 0, and each extra ring atom beyond six
// subtracts one.
type CycleScorer struct{}

// NewCycleScorer returns a cycle penalty scorer.
func NewCycleScorer() *CycleScorer { return &CycleScorer{} }

func (s *CycleScorer) Name() string { return "cycle" }

func (s *CycleScorer) Direction() Direction { return HigherIsBetter }

func (s *CycleScorer) Score(m *molecule.Molecule) (float64, error) {
	if m == nil {
		return 0, errors.New(errors.ErrCodeScoringFailed, "cycle scorer requires a molecule")
	}
	return -RawCyclePenalty(m), nil
}
