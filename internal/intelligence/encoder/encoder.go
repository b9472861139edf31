// Package encoder implements the in-process molecular encoder behind the
// pipeline's Embedder interface: SMILES in, unit-norm latent vectors out.
// The model is a small message-passing network whose parameters come from
// a JSON weights artifact; there is no training code, only a
// deterministic forward pass.
package encoder

import (
	"context"
	"math"

	"github.com/turtacn/LatentMol/internal/domain/molecule"
	"github.com/turtacn/LatentMol/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LatentMol/pkg/errors"
)

// ---------------------------------------------------------------------------
// Embedder interface
// ---------------------------------------------------------------------------

// Embedder turns SMILES strings into latent vectors. The pipeline depends
// only on this interface, so a remote model server could replace the
// in-process encoder without touching orchestration code.
type Embedder interface {
	// Embed returns one latent vector per input, in input order.
	Embed(ctx context.Context, smiles []string) ([][]float64, error)

	// LatentDim returns the dimensionality of the produced vectors.
	LatentDim() int
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// Config holds the encoder hyperparameters. Dimensions must agree with
// the weights artifact; LoadWeights rejects mismatches.
type Config struct {
	WeightsPath string `json:"weights_path" yaml:"weights_path"`
	LatentDim   int    `json:"latent_dim" yaml:"latent_dim"`
	HiddenDim   int    `json:"hidden_dim" yaml:"hidden_dim"`
	NumLayers   int    `json:"num_layers" yaml:"num_layers"`
	MaxAtoms    int    `json:"max_atoms" yaml:"max_atoms"`
	BatchSize   int    `json:"batch_size" yaml:"batch_size"`
}

// DefaultConfig returns the encoder defaults used when no configuration
// file overrides them.
func DefaultConfig() Config {
	return Config{
		WeightsPath: "data/encoder_weights.json",
		LatentDim:   64,
		HiddenDim:   64,
		NumLayers:   3,
		MaxAtoms:    200,
		BatchSize:   32,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.LatentDim <= 0 {
		return errors.Newf(errors.ErrCodeEncoderConfigInvalid,
			"latent_dim must be positive, got %d", c.LatentDim)
	}
	if c.HiddenDim <= 0 {
		return errors.Newf(errors.ErrCodeEncoderConfigInvalid,
			"hidden_dim must be positive, got %d", c.HiddenDim)
	}
	if c.NumLayers <= 0 {
		return errors.Newf(errors.ErrCodeEncoderConfigInvalid,
			"num_layers must be positive, got %d", c.NumLayers)
	}
	if c.MaxAtoms <= 0 {
		return errors.Newf(errors.ErrCodeEncoderConfigInvalid,
			"max_atoms must be positive, got %d", c.MaxAtoms)
	}
	if c.BatchSize <= 0 {
		return errors.Newf(errors.ErrCodeEncoderConfigInvalid,
			"batch_size must be positive, got %d", c.BatchSize)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Encoder
// ---------------------------------------------------------------------------

// normEpsilon is the L2 norm below which a latent vector is rejected as
// degenerate rather than divided toward infinity.
const normEpsilon = 1e-12

// Encoder is the in-process Embedder implementation.
type Encoder struct {
	config  Config
	weights *Weights
	logger  logging.Logger
}

// New constructs an Encoder from an already-loaded weight set.
func New(cfg Config, w *Weights, logger logging.Logger) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if w == nil {
		return nil, errors.New(errors.ErrCodeEncoderWeightsMissing,
			"encoder requires a loaded weight set")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Encoder{config: cfg, weights: w, logger: logger}, nil
}

// Load reads the weights artifact named by cfg and constructs the
// Encoder. This is the production entry point used by the CLI.
func Load(cfg Config, logger logging.Logger) (*Encoder, error) {
	w, err := LoadWeights(cfg.WeightsPath, cfg)
	if err != nil {
		return nil, err
	}
	return New(cfg, w, logger)
}

// LatentDim returns the dimensionality of the produced latent vectors.
func (e *Encoder) LatentDim() int { return e.config.LatentDim }

// Embed encodes every input SMILES into a unit-norm latent vector,
// processing the batch in chunks of Config.BatchSize with a context check
// per chunk. Inputs are expected to be pre-validated; a parse failure
// here still returns a typed error rather than panicking.
func (e *Encoder) Embed(ctx context.Context, smiles []string) ([][]float64, error) {
	out := make([][]float64, len(smiles))
	for start := 0; start < len(smiles); start += e.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "embedding cancelled")
		}
		end := start + e.config.BatchSize
		if end > len(smiles) {
			end = len(smiles)
		}
		for i := start; i < end; i++ {
			vec, err := e.embedOne(smiles[i])
			if err != nil {
				return nil, err
			}
			out[i] = vec
		}
		e.logger.Debug("embedded chunk",
			logging.Int("from", start),
			logging.Int("to", end),
			logging.Int("total", len(smiles)))
	}
	return out, nil
}

func (e *Encoder) embedOne(smiles string) ([]float64, error) {
	m, err := molecule.ParseSMILES(smiles)
	if err != nil {
		return nil, err
	}
	if m.NumAtoms() > e.config.MaxAtoms {
		return nil, errors.Newf(errors.ErrCodeEncoderInputTooLarge,
			"molecule has %d atoms, encoder limit is %d", m.NumAtoms(), e.config.MaxAtoms).
			WithDetail(smiles)
	}
	vec, err := e.forward(buildGraph(m))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEmbeddingDegenerate,
			"encoding failed").WithDetail(smiles)
	}
	return vec, nil
}

// ---------------------------------------------------------------------------
// Forward pass
// ---------------------------------------------------------------------------

// forward runs the message-passing layers, mean-pools the node states,
// projects to latent space, and L2-normalises:
//
//	h⁰_i   = x_i
//	h^l+1_i = ReLU(W_self·h^l_i + W_nbr·[Σ_j h^l_j ; Σ_j e_ij] + b)
//	g      = mean_i h^L_i
//	z      = W_out·g + b_out, then z / ‖z‖₂
func (e *Encoder) forward(g *molGraph) ([]float64, error) {
	h := g.nodes
	for l := range e.weights.Layers {
		layer := &e.weights.Layers[l]
		next := make([][]float64, len(h))
		for i := range h {
			nbrSum := make([]float64, len(h[i])+EdgeFeatureDim)
			for _, j := range g.nbrs[i] {
				addInPlace(nbrSum[:len(h[i])], h[j])
			}
			copy(nbrSum[len(h[i]):], g.edgeSums[i])

			state := matVec(layer.Self, h[i])
			addInPlace(state, matVec(layer.Neighbor, nbrSum))
			addInPlace(state, layer.Bias)
			reluInPlace(state)
			next[i] = state
		}
		h = next
	}

	pooled := make([]float64, e.weights.HiddenDim)
	for i := range h {
		addInPlace(pooled, h[i])
	}
	inv := 1.0 / float64(len(h))
	for i := range pooled {
		pooled[i] *= inv
	}

	z := matVec(e.weights.Readout.Weight, pooled)
	addInPlace(z, e.weights.Readout.Bias)

	var norm float64
	for _, v := range z {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm < normEpsilon {
		return nil, errors.New(errors.ErrCodeEmbeddingDegenerate,
			"latent vector has near-zero norm")
	}
	for i := range z {
		z[i] /= norm
	}
	return z, nil
}
