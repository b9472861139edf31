package qsar

import (
	"github.com/turtacn/LatentMol/internal/domain/molecule"
	"github.com/turtacn/LatentMol/internal/domain/scoring"
	"github.com/turtacn/LatentMol/pkg/errors"
)

// ActivityScorer adapts the classifier to the Scorer interface so the
// qsar objective composes with the rest of the scoring pipeline. It
// fingerprints each molecule at the configured radius and the model's
// bit width, then predicts the calibrated activity probability.
type ActivityScorer struct {
	model  *Model
	radius int
}

// NewActivityScorer wraps model as a molecule scorer.
func NewActivityScorer(model *Model, radius int) (*ActivityScorer, error) {
	if model == nil {
		return nil, errors.New(errors.ErrCodeQSARArtifactMissing,
			"activity scorer requires a loaded classifier")
	}
	if radius < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParam,
			"fingerprint radius must be non-negative, got %d", radius)
	}
	return &ActivityScorer{model: model, radius: radius}, nil
}

func (s *ActivityScorer) Name() string { return "qsar" }

func (s *ActivityScorer) Direction() scoring.Direction { return scoring.HigherIsBetter }

// Score returns the positive-class probability for m.
func (s *ActivityScorer) Score(m *molecule.Molecule) (float64, error) {
	if m == nil {
		return 0, errors.New(errors.ErrCodeScoringFailed, "qsar scorer requires a molecule")
	}
	fp, err := molecule.MorganFingerprint(m, s.radius, s.model.NumBits)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeScoringFailed,
			"fingerprinting failed").WithDetail(m.SMILES)
	}
	return s.model.PredictOne(fp)
}
