package scoring

import (
	"github.com/turtacn/LatentMol/internal/domain/molecule"
	"github.com/turtacn/LatentMol/pkg/errors"
)

// Wildman-Crippen atomic contributions, reduced to the atom classes that
// occur in drug-like candidate sets. Contributions for carbon, nitrogen
// and oxygen split on aromaticity, attached hydrogens and neighbouring
// heteroatoms; halogens, sulfur and phosphorus use single class values.
const (
	crippenCAliphatic    = 0.1441  // carbon with only C/H neighbours
	crippenCHetero       = -0.2035 // carbon bonded to a heteroatom
	crippenCAromaticH    = 0.1581  // aromatic CH
	crippenCAromaticSub  = 0.1360  // substituted aromatic carbon
	crippenHOnCarbon     = 0.1230
	crippenHOnHetero     = -0.2677
	crippenNAromatic     = -0.3239
	crippenNPrimary      = -1.0190 // >=2 attached hydrogens
	crippenNSecondary    = -0.7096 // 1 attached hydrogen
	crippenNTertiary     = -0.3187 // no attached hydrogens
	crippenOAromatic     = 0.1552
	crippenOHydroxyl     = -0.2893
	crippenOEther        = -0.0684
	crippenOCarbonyl     = -0.1526
	crippenF             = 0.4202
	crippenCl            = 0.6895
	crippenBr            = 0.8456
	crippenI             = 0.8857
	crippenS             = 0.6482
	crippenSAromatic     = 0.6237
	crippenP             = 0.8612
)

// CrippenLogP returns the estimated octanol-water partition coefficient
// as the sum of per-atom contributions, including implicit hydrogens.
func CrippenLogP(m *molecule.Molecule) float64 {
	var logp float64
	for i := range m.Atoms {
		logp += heavyAtomContribution(m, i)
		logp += hydrogenContribution(m.Atoms[i])
	}
	return logp
}

func heavyAtomContribution(m *molecule.Molecule, i int) float64 {
	a := m.Atoms[i]
	switch a.Element {
	case "C":
		if a.Aromatic {
			if a.ImplicitH > 0 {
				return crippenCAromaticH
			}
			return crippenCAromaticSub
		}
		for _, j := range m.Neighbors(i) {
			if e := m.Atoms[j].Element; e != "C" && e != "H" {
				return crippenCHetero
			}
		}
		return crippenCAliphatic
	case "N":
		if a.Aromatic {
			return crippenNAromatic
		}
		switch {
		case a.ImplicitH >= 2:
			return crippenNPrimary
		case a.ImplicitH == 1:
			return crippenNSecondary
		default:
			return crippenNTertiary
		}
	case "O":
		if a.Aromatic {
			return crippenOAromatic
		}
		if hasPlainDoubleBond(m, i) {
			return crippenOCarbonyl
		}
		if a.ImplicitH > 0 {
			return crippenOHydroxyl
		}
		return crippenOEther
	case "F":
		return crippenF
	case "Cl":
		return crippenCl
	case "Br":
		return crippenBr
	case "I":
		return crippenI
	case "S":
		if a.Aromatic {
			return crippenSAromatic
		}
		return crippenS
	case "P":
		return crippenP
	default:
		return 0
	}
}

// hydrogenContribution sums the implicit hydrogens attached to one atom.
func hydrogenContribution(a molecule.Atom) float64 {
	if a.ImplicitH == 0 {
		return 0
	}
	per := crippenHOnHetero
	if a.Element == "C" {
		per = crippenHOnCarbon
	}
	return float64(a.ImplicitH) * per
}

// hasPlainDoubleBond reports whether atom i carries a non-aromatic double
// bond.
func hasPlainDoubleBond(m *molecule.Molecule, i int) bool {
	for _, bi := range m.IncidentBonds(i) {
		b := m.Bonds[bi]
		if !b.Aromatic && b.Order == molecule.BondDouble {
			return true
		}
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Scorer
// ─────────────────────────────────────────────────────────────────────────────

// LogPScorer scores molecules by estimated logP. Higher means more
// lipophilic, which is the raw optimization direction of the logp
// objective.
type LogPScorer struct{}

// NewLogPScorer returns a LogP scorer.
func NewLogPScorer() *LogPScorer { return &LogPScorer{} }

func (s *LogPScorer) Name() string { return "logp" }

func (s *LogPScorer) Direction() Direction { return HigherIsBetter }

func (s *LogPScorer) Score(m *molecule.Molecule) (float64, error) {
	if m == nil {
		return 0, errors.New(errors.ErrCodeScoringFailed, "logp scorer requires a molecule")
	}
	return CrippenLogP(m), nil
}
