package encoder

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LatentMol/pkg/errors"
)

var _ Embedder = (*Encoder)(nil)

func tinyEncoder(t *testing.T) *Encoder {
	t.Helper()
	e, err := New(tinyConfig(), tinyWeights(), nil)
	require.NoError(t, err)
	return e
}

func l2(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"latent_dim", func(c *Config) { c.LatentDim = 0 }},
		{"hidden_dim", func(c *Config) { c.HiddenDim = -1 }},
		{"num_layers", func(c *Config) { c.NumLayers = 0 }},
		{"max_atoms", func(c *Config) { c.MaxAtoms = 0 }},
		{"batch_size", func(c *Config) { c.BatchSize = 0 }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeEncoderConfigInvalid))
		})
	}
}

func TestNew_RequiresWeights(t *testing.T) {
	t.Parallel()

	_, err := New(tinyConfig(), nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEncoderWeightsMissing))
}

func TestLoad_FromArtifact(t *testing.T) {
	t.Parallel()

	cfg := tinyConfig()
	cfg.WeightsPath = writeWeights(t, tinyWeights())

	e, err := Load(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.LatentDim, e.LatentDim())

	out, err := e.Embed(context.Background(), []string{"CCO"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Len(t, out[0], cfg.LatentDim)
}

func TestEmbed_ShapeAndUnitNorm(t *testing.T) {
	t.Parallel()

	e := tinyEncoder(t)
	inputs := []string{"CCO", "c1ccccc1", "CC(=O)Oc1ccccc1C(=O)O", "C"}

	out, err := e.Embed(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, out, len(inputs))

	for i, vec := range out {
		assert.Len(t, vec, e.LatentDim(), inputs[i])
		assert.InDelta(t, 1.0, l2(vec), 1e-9, inputs[i])
	}
}

func TestEmbed_Deterministic(t *testing.T) {
	t.Parallel()

	e := tinyEncoder(t)
	inputs := []string{"CCO", "c1ccc2ccccc2c1"}

	first, err := e.Embed(context.Background(), inputs)
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), inputs)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEmbed_DiscriminatesStructures(t *testing.T) {
	t.Parallel()

	e := tinyEncoder(t)
	out, err := e.Embed(context.Background(), []string{"CCO", "c1ccccc1"})
	require.NoError(t, err)
	assert.NotEqual(t, out[0], out[1])
}

func TestEmbed_ChunkingDoesNotChangeResults(t *testing.T) {
	t.Parallel()

	inputs := []string{"C", "CC", "CCC", "CCCC", "CCCCC"}

	small := tinyEncoder(t) // BatchSize 2, forces three chunks
	large, err := New(Config{
		LatentDim: 4, HiddenDim: 3, NumLayers: 2, MaxAtoms: 50, BatchSize: 100,
	}, tinyWeights(), nil)
	require.NoError(t, err)

	a, err := small.Embed(context.Background(), inputs)
	require.NoError(t, err)
	b, err := large.Embed(context.Background(), inputs)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEmbed_EmptyInput(t *testing.T) {
	t.Parallel()

	out, err := tinyEncoder(t).Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEmbed_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tinyEncoder(t).Embed(ctx, []string{"CCO"})
	require.Error(t, err)
}

func TestEmbed_InvalidSMILES(t *testing.T) {
	t.Parallel()

	_, err := tinyEncoder(t).Embed(context.Background(), []string{"C1CC"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnclosedRing))
}

func TestEmbed_AtomLimit(t *testing.T) {
	t.Parallel()

	cfg := tinyConfig()
	cfg.MaxAtoms = 3
	e, err := New(cfg, tinyWeights(), nil)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), []string{"CCCC"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEncoderInputTooLarge))

	// Right at the limit is fine.
	_, err = e.Embed(context.Background(), []string{"CCC"})
	assert.NoError(t, err)
}

func TestEmbed_DegenerateLatent(t *testing.T) {
	t.Parallel()

	// All-zero parameters collapse every latent to the zero vector.
	w := tinyWeights()
	for l := range w.Layers {
		for r := range w.Layers[l].Self {
			for c := range w.Layers[l].Self[r] {
				w.Layers[l].Self[r][c] = 0
			}
		}
		for r := range w.Layers[l].Neighbor {
			for c := range w.Layers[l].Neighbor[r] {
				w.Layers[l].Neighbor[r][c] = 0
			}
		}
		for i := range w.Layers[l].Bias {
			w.Layers[l].Bias[i] = 0
		}
	}
	for r := range w.Readout.Weight {
		for c := range w.Readout.Weight[r] {
			w.Readout.Weight[r][c] = 0
		}
	}
	for i := range w.Readout.Bias {
		w.Readout.Bias[i] = 0
	}

	e, err := New(tinyConfig(), w, nil)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), []string{"CCO"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmbeddingDegenerate))
}

func BenchmarkEmbed(b *testing.B) {
	e, err := New(tinyConfig(), tinyWeights(), nil)
	if err != nil {
		b.Fatal(err)
	}
	inputs := []string{"CC(=O)Oc1ccccc1C(=O)O"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Embed(context.Background(), inputs); err != nil {
			b.Fatal(err)
		}
	}
}
