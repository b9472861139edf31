package scoring

import (
	"github.com/turtacn/LatentMol/internal/domain/molecule"
)

// Oracle wraps a Scorer for callers that hold raw SMILES strings rather
// than parsed molecules, such as the Bayesian optimization loop scoring
// decoded candidates. Unlike the pipeline's validate-then-skip policy,
// the oracle keeps positional alignment: rows that fail to parse or
// score contribute 0 so the caller can index results by candidate
// position.
type Oracle struct {
	scorer Scorer
}

// NewOracle wraps s in a position-preserving batch oracle.
func NewOracle(s Scorer) *Oracle { return &Oracle{scorer: s} }

// NewQEDOracle returns the drug-likeness oracle used to score decoded
// candidates.
func NewQEDOracle() *Oracle { return NewOracle(NewQEDScorer()) }

// Name returns the wrapped scorer's identifier.
func (o *Oracle) Name() string { return o.scorer.Name() }

// Scores evaluates every input, zero-filling failures. It never returns
// an error; the zero-fill contract is part of the oracle's interface.
func (o *Oracle) Scores(inputs []string) []float64 {
	out := make([]float64, len(inputs))
	for i, s := range inputs {
		m, err := molecule.ParseSMILES(s)
		if err != nil {
			continue
		}
		v, err := o.scorer.Score(m)
		if err != nil {
			continue
		}
		out[i] = v
	}
	return out
}
