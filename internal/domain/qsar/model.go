// Package qsar loads and applies the pre-fit activity classifier used by
// the qsar objective mode. The model is a calibrated linear classifier
// over Morgan fingerprint bits, persisted as a JSON artifact; training
// happens offline and is out of scope here.
package qsar

import (
	"encoding/json"
	"math"
	"os"
	"strconv"

	"github.com/turtacn/LatentMol/internal/domain/molecule"
	"github.com/turtacn/LatentMol/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Model Artifact
// ─────────────────────────────────────────────────────────────────────────────

// Model is the persisted classifier: a weight per fingerprint bit, an
// intercept, and Platt scaling coefficients mapping the raw margin to a
// calibrated probability.
type Model struct {
	NumBits      int       `json:"num_bits"`
	Weights      []float64 `json:"weights"`
	Intercept    float64   `json:"intercept"`
	CalibrationA float64   `json:"calibration_a"`
	CalibrationB float64   `json:"calibration_b"`
}

// LoadModel reads and validates the classifier artifact. A missing or
// inconsistent artifact is a configuration error; callers treat it as
// fatal rather than degrading to another objective.
func LoadModel(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrCodeQSARArtifactMissing,
				"QSAR classifier artifact not found").WithDetail(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeQSARArtifactInvalid,
			"QSAR classifier artifact unreadable").WithDetail(path)
	}

	var m Model
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeQSARArtifactInvalid,
			"QSAR classifier artifact is not valid JSON").WithDetail(path)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) validate() error {
	if m.NumBits <= 0 {
		return errors.Newf(errors.ErrCodeQSARArtifactInvalid,
			"classifier num_bits must be positive, got %d", m.NumBits)
	}
	if len(m.Weights) != m.NumBits {
		return errors.Newf(errors.ErrCodeQSARArtifactInvalid,
			"classifier has %d weights for %d bits", len(m.Weights), m.NumBits)
	}
	for i, w := range m.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return errors.Newf(errors.ErrCodeQSARArtifactInvalid,
				"classifier weight %d is not finite", i)
		}
	}
	if math.IsNaN(m.Intercept) || math.IsInf(m.Intercept, 0) {
		return errors.New(errors.ErrCodeQSARArtifactInvalid,
			"classifier intercept is not finite")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Prediction
// ─────────────────────────────────────────────────────────────────────────────

// PredictOne returns the calibrated positive-class probability for a
// single fingerprint.
func (m *Model) PredictOne(fp *molecule.Fingerprint) (float64, error) {
	if fp == nil {
		return 0, errors.New(errors.ErrCodeQSARDimensionMismatch,
			"cannot predict on a nil fingerprint")
	}
	if fp.Length != m.NumBits {
		return 0, errors.Newf(errors.ErrCodeQSARDimensionMismatch,
			"fingerprint has %d bits, classifier expects %d", fp.Length, m.NumBits)
	}

	margin := m.Intercept
	for _, bit := range fp.OnBits() {
		margin += m.Weights[bit]
	}
	return sigmoid(m.CalibrationA*margin + m.CalibrationB), nil
}

// PredictProba applies the classifier to a batch of fingerprints,
// returning one probability per input in order.
func (m *Model) PredictProba(fps []*molecule.Fingerprint) ([]float64, error) {
	out := make([]float64, len(fps))
	for i, fp := range fps {
		p, err := m.PredictOne(fp)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeQSARDimensionMismatch,
				"prediction failed for fingerprint "+strconv.Itoa(i))
		}
		out[i] = p
	}
	return out, nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
