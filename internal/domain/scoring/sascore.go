package scoring

import (
	"math"

	"github.com/turtacn/LatentMol/internal/domain/molecule"
	"github.com/turtacn/LatentMol/pkg/errors"
)

// Synthetic accessibility estimation in the spirit of Ertl & Schuffenhauer
// (2009): a fragment-familiarity term approximated from atom composition,
// minus complexity penalties for size, ring fusion, stereo centres and
// macrocycles, rescaled to the conventional 1 (easy) to 10 (hard) range.

// Composition weights of the familiarity surrogate. Heteroatom-rich,
// rare-element and charged compositions are less familiar.
const (
	saHeteroWeight  = 1.0
	saRareWeight    = 1.5
	saChargedWeight = 2.0
)

// saMacrocycleRing is the ring size above which the macrocycle penalty
// applies.
const saMacrocycleRing = 8

// RawSyntheticAccessibility returns the SA estimate on the 1-10 scale,
// where larger values mean harder to synthesise.
func RawSyntheticAccessibility(m *molecule.Molecule) (float64, error) {
	heavy := m.HeavyAtomCount()
	if heavy == 0 {
		return 0, errors.New(errors.ErrCodeScoringFailed,
			"synthetic accessibility requires at least one heavy atom").WithDetail(m.SMILES)
	}

	var nitroOxy, rare, charged int
	for i := range m.Atoms {
		a := m.Atoms[i]
		switch a.Element {
		case "H":
			continue
		case "N", "O":
			nitroOxy++
		case "C":
		default:
			rare++
		}
		if a.Charge != 0 {
			charged++
		}
	}

	n := float64(heavy)
	familiarity := 2.0 -
		saHeteroWeight*float64(nitroOxy)/n -
		saRareWeight*float64(rare)/n -
		saChargedWeight*float64(charged)/n

	sizePenalty := math.Pow(n, 1.005) - n
	fusionPenalty := math.Log10(float64(m.SharedRingAtomCount())/2 + 1)
	stereoPenalty := math.Log10(float64(m.ChiralCenterCount()) + 1)
	macroPenalty := 0.0
	if m.LargestRingSize() > saMacrocycleRing {
		macroPenalty = math.Log10(2)
	}

	combined := familiarity - sizePenalty - fusionPenalty - stereoPenalty - macroPenalty

	// Map the combined score onto the 1-10 scale with the published
	// smoothing of the hard tail.
	sa := 11.0 - (combined+5.0)/6.5*9.0
	if sa > 8 {
		sa = 8 + math.Log(sa+1-9)
	}
	if sa < 1 {
		sa = 1
	}
	if sa > 10 {
		sa = 10
	}
	return sa, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scorer
// ─────────────────────────────────────────────────────────────────────────────

// SAScorer scores molecules by negated synthetic accessibility, so easier
// syntheses score higher and the scorer composes with the other
// higher-is-better objectives without sign handling at call sites.
type SAScorer struct{}

// NewSAScorer returns a synthetic accessibility scorer.
func NewSAScorer() *SAScorer { return &SAScorer{} }

func (s *SAScorer) Name() string { return "sa" }

func (s *SAScorer) Direction() Direction { return HigherIsBetter }

func (s *SAScorer) Score(m *molecule.Molecule) (float64, error) {
	if m == nil {
		return 0, errors.New(errors.ErrCodeScoringFailed, "sa scorer requires a molecule")
	}
	raw, err := RawSyntheticAccessibility(m)
	if err != nil {
		return 0, err
	}
	return -raw, nil
}
