package scoring

import (
	"math"

	"github.com/turtacn/LatentMol/internal/domain/molecule"
	"github.com/turtacn/LatentMol/pkg/errors"
)

// QED (quantitative estimate of drug-likeness, Bickerton et al. 2012)
// maps eight physicochemical descriptors through asymmetric double
// sigmoid desirability functions and combines them as the geometric mean
// of the individual desirabilities.

// qedDescriptors is the fixed descriptor order of the parameter table.
var qedDescriptors = [...]string{
	"MW", "ALOGP", "HBA", "HBD", "PSA", "ROTB", "AROM", "ALERTS",
}

// adsParams holds one descriptor's asymmetric double sigmoid coefficients
// plus the normalising maximum DMax.
type adsParams struct {
	A, B, C, D, E, F float64
	DMax             float64
}

// qedParams are the published ADS coefficients, indexed like
// qedDescriptors.
var qedParams = [...]adsParams{
	{2.817065973, 392.5754953, 290.7489764, 2.419764353, 49.22325677, 65.37051707, 104.9805561},  // MW
	{3.172690585, 137.8624751, 2.534937431, 4.581497897, 0.822739154, 0.576295591, 131.3186604},  // ALOGP
	{2.948620388, 160.4605972, 3.615294657, 4.435986202, 0.290141953, 1.300669958, 148.7763046},  // HBA
	{1.618662227, 1010.051101, 0.985094388, 0.000000001, 0.713820843, 0.920922555, 258.1632616},  // HBD
	{1.876861559, 125.8493437, 62.90773554, 87.83366614, 12.01999824, 28.51324732, 104.5686167},  // PSA
	{0.010000000, 272.4121427, 2.558379970, 1.565547684, 1.271567166, 2.758063707, 105.4420403},  // ROTB
	{3.217788970, 957.7374108, 2.274627939, 0.000000001, 1.317690384, 0.375760881, 312.3372610},  // AROM
	{0.010000000, 1199.094025, -0.09002883, 0.000000001, 0.185904477, 0.875193782, 417.7253140},  // ALERTS
}

// qedFloor keeps individual desirabilities away from zero so the
// geometric mean stays finite.
const qedFloor = 1e-9

// ads evaluates the asymmetric double sigmoid at x.
func (p adsParams) ads(x float64) float64 {
	rise := 1 + math.Exp(-(x-p.C+p.D/2)/p.E)
	fall := 1 + math.Exp(-(x-p.C-p.D/2)/p.F)
	return p.A + p.B/rise*(1-1/fall)
}

// QEDProperties are the eight descriptors feeding the QED desirability
// functions, exposed for diagnostics output.
type QEDProperties struct {
	MW     float64 `json:"mw"`
	ALogP  float64 `json:"alogp"`
	HBA    int     `json:"hba"`
	HBD    int     `json:"hbd"`
	PSA    float64 `json:"psa"`
	ROTB   int     `json:"rotb"`
	AROM   int     `json:"arom"`
	Alerts int     `json:"alerts"`
}

// ComputeQEDProperties extracts the QED descriptor vector from a parsed
// molecule.
func ComputeQEDProperties(m *molecule.Molecule) QEDProperties {
	return QEDProperties{
		MW:     m.MolecularWeight(),
		ALogP:  CrippenLogP(m),
		HBA:    m.HBondAcceptorCount(),
		HBD:    m.HBondDonorCount(),
		PSA:    m.TPSA(),
		ROTB:   m.RotatableBondCount(),
		AROM:   m.AromaticRingCount(),
		Alerts: m.AlertCount(),
	}
}

func (p QEDProperties) vector() [8]float64 {
	return [8]float64{
		p.MW, p.ALogP, float64(p.HBA), float64(p.HBD),
		p.PSA, float64(p.ROTB), float64(p.AROM), float64(p.Alerts),
	}
}

// QEDFromProperties combines an already-computed descriptor vector into
// the scalar QED value in (0, 1).
func QEDFromProperties(props QEDProperties) float64 {
	x := props.vector()
	var logSum float64
	for i := range x {
		d := qedParams[i].ads(x[i]) / qedParams[i].DMax
		if d < qedFloor {
			d = qedFloor
		}
		logSum += math.Log(d)
	}
	return math.Exp(logSum / float64(len(x)))
}

// QED computes the quantitative estimate of drug-likeness for m.
func QED(m *molecule.Molecule) float64 {
	return QEDFromProperties(ComputeQEDProperties(m))
}

// ─────────────────────────────────────────────────────────────────────────────
// Scorer
// ─────────────────────────────────────────────────────────────────────────────

// QEDScorer scores molecules by drug-likeness in (0, 1).
type QEDScorer struct{}

// NewQEDScorer returns a QED scorer.
func NewQEDScorer() *QEDScorer { return &QEDScorer{} }

func (s *QEDScorer) Name() string { return "qed" }

func (s *QEDScorer) Direction() Direction { return HigherIsBetter }

func (s *QEDScorer) Score(m *molecule.Molecule) (float64, error) {
	if m == nil {
		return 0, errors.New(errors.ErrCodeScoringFailed, "qed scorer requires a molecule")
	}
	return QED(m), nil
}
