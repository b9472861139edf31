package encoder

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/turtacn/LatentMol/pkg/errors"
)

// ---------------------------------------------------------------------------
// Weights artifact
// ---------------------------------------------------------------------------

// LayerWeights holds one message-passing layer. Self transforms the
// node's own state, Neighbor transforms the summed neighbor state
// concatenated with the summed bond one-hots.
type LayerWeights struct {
	Self     [][]float64 `json:"self"`
	Neighbor [][]float64 `json:"neighbor"`
	Bias     []float64   `json:"bias"`
}

// ReadoutWeights is the affine projection from the pooled graph state to
// the latent space.
type ReadoutWeights struct {
	Weight [][]float64 `json:"weight"`
	Bias   []float64   `json:"bias"`
}

// Weights is the persisted encoder parameter set. The dimension fields
// make the artifact self-describing; LoadWeights cross-checks them
// against both the featuriser constants and the encoder Config.
type Weights struct {
	NodeDim   int            `json:"node_dim"`
	EdgeDim   int            `json:"edge_dim"`
	HiddenDim int            `json:"hidden_dim"`
	LatentDim int            `json:"latent_dim"`
	Layers    []LayerWeights `json:"layers"`
	Readout   ReadoutWeights `json:"readout"`
}

// LoadWeights reads the weights artifact and validates its shape against
// cfg. Any inconsistency is a fatal configuration error: an encoder with
// wrong-shaped weights would produce garbage latents, not a degraded
// approximation.
func LoadWeights(path string, cfg Config) (*Weights, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrCodeEncoderWeightsMissing,
				"encoder weights artifact not found").WithDetail(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeEncoderWeightsInvalid,
			"encoder weights artifact unreadable").WithDetail(path)
	}

	var w Weights
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEncoderWeightsInvalid,
			"encoder weights artifact is not valid JSON").WithDetail(path)
	}
	if err := w.validate(cfg); err != nil {
		return nil, err
	}
	return &w, nil
}

func (w *Weights) validate(cfg Config) error {
	if w.NodeDim != NodeFeatureDim {
		return weightsErr("artifact node_dim %d, featuriser produces %d", w.NodeDim, NodeFeatureDim)
	}
	if w.EdgeDim != EdgeFeatureDim {
		return weightsErr("artifact edge_dim %d, featuriser produces %d", w.EdgeDim, EdgeFeatureDim)
	}
	if w.HiddenDim != cfg.HiddenDim {
		return weightsErr("artifact hidden_dim %d, config expects %d", w.HiddenDim, cfg.HiddenDim)
	}
	if w.LatentDim != cfg.LatentDim {
		return weightsErr("artifact latent_dim %d, config expects %d", w.LatentDim, cfg.LatentDim)
	}
	if len(w.Layers) != cfg.NumLayers {
		return weightsErr("artifact has %d layers, config expects %d", len(w.Layers), cfg.NumLayers)
	}

	// Layer 0 consumes raw node features; deeper layers consume hidden
	// state. The neighbor matrix always sees EdgeFeatureDim extra columns
	// for the summed bond one-hots.
	inDim := NodeFeatureDim
	for l := range w.Layers {
		layer := &w.Layers[l]
		if err := checkMatrix(layer.Self, w.HiddenDim, inDim, l, "self"); err != nil {
			return err
		}
		if err := checkMatrix(layer.Neighbor, w.HiddenDim, inDim+EdgeFeatureDim, l, "neighbor"); err != nil {
			return err
		}
		if len(layer.Bias) != w.HiddenDim {
			return weightsErr("layer %d bias has length %d, expected %d", l, len(layer.Bias), w.HiddenDim)
		}
		if err := checkFinite(layer.Bias, l, "bias"); err != nil {
			return err
		}
		inDim = w.HiddenDim
	}

	if err := checkMatrix(w.Readout.Weight, w.LatentDim, w.HiddenDim, -1, "readout"); err != nil {
		return err
	}
	if len(w.Readout.Bias) != w.LatentDim {
		return weightsErr("readout bias has length %d, expected %d", len(w.Readout.Bias), w.LatentDim)
	}
	return checkFinite(w.Readout.Bias, -1, "readout bias")
}

func checkMatrix(m [][]float64, rows, cols, layer int, name string) error {
	if len(m) != rows {
		return weightsErr("%s matrix (layer %d) has %d rows, expected %d", name, layer, len(m), rows)
	}
	for r, row := range m {
		if len(row) != cols {
			return weightsErr("%s matrix (layer %d) row %d has %d columns, expected %d",
				name, layer, r, len(row), cols)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return weightsErr("%s matrix (layer %d) row %d contains a non-finite value", name, layer, r)
			}
		}
	}
	return nil
}

func checkFinite(v []float64, layer int, name string) error {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return weightsErr("%s (layer %d) contains a non-finite value", name, layer)
		}
	}
	return nil
}

func weightsErr(format string, args ...any) error {
	return errors.New(errors.ErrCodeEncoderWeightsInvalid, fmt.Sprintf(format, args...))
}

// ---------------------------------------------------------------------------
// Linear algebra helpers
// ---------------------------------------------------------------------------

// matVec computes w·x. Shapes are validated at load time, so no bounds
// checks here.
func matVec(w [][]float64, x []float64) []float64 {
	out := make([]float64, len(w))
	for r, row := range w {
		var sum float64
		for c, v := range row {
			sum += v * x[c]
		}
		out[r] = sum
	}
	return out
}

func addInPlace(dst, src []float64) {
	for i := range dst {
		dst[i] += src[i]
	}
}

func reluInPlace(v []float64) {
	for i := range v {
		if v[i] < 0 {
			v[i] = 0
		}
	}
}
