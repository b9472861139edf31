package evaluate_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LatentMol/internal/application/evaluate"
	"github.com/turtacn/LatentMol/pkg/errors"
)

// testVocab indexes: C=0 O=1 c=2 1=3 (=4 )=5 pad=6.
func testVocab(t *testing.T) *evaluate.Vocabulary {
	t.Helper()
	v, err := evaluate.NewVocabulary([]string{"C", "O", "c", "1", "(", ")", "\n"})
	require.NoError(t, err)
	return v
}

var (
	ethanolIdx = []int{0, 0, 1, 6}                   // CCO
	benzeneIdx = []int{2, 3, 2, 2, 2, 2, 2, 3, 6}    // c1ccccc1
	corruptIdx = []int{2, 3, 2, 2, 2, 2, 2, 4, 6}    // c1ccccc( does not parse
	reverseIdx = []int{1, 0, 0, 6}                   // OCC, valid but not CCO
)

func TestNewVocabulary(t *testing.T) {
	_, err := evaluate.NewVocabulary(nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))

	v, err := evaluate.NewVocabulary([]string{"C", "\n"})
	require.NoError(t, err)
	assert.Equal(t, 2, v.Size())
}

func TestVocabulary_Decode(t *testing.T) {
	v := testVocab(t)

	s, err := v.Decode(ethanolIdx)
	require.NoError(t, err)
	assert.Equal(t, "CCO\n", s)

	_, err = v.Decode([]int{0, 9})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = v.Decode([]int{-1})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestVocabulary_DecodeMultiCharTokens(t *testing.T) {
	v, err := evaluate.NewVocabulary([]string{"C", "Cl", "\n"})
	require.NoError(t, err)

	s, err := v.Decode([]int{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, "CCl\n", s)
}

func TestLoadVocabulary_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tokens":["C","O","\n"]}`), 0o644))

	v, err := evaluate.LoadVocabulary(path)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Size())

	s, err := v.Decode([]int{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, "CO\n", s)
}

func TestLoadVocabulary_Errors(t *testing.T) {
	_, err := evaluate.LoadVocabulary(filepath.Join(t.TempDir(), "absent.json"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeIOFailure))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = evaluate.LoadVocabulary(bad)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"tokens":[]}`), 0o644))
	_, err = evaluate.LoadVocabulary(empty)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestCompareIndices(t *testing.T) {
	v := testVocab(t)
	refs := [][]int{ethanolIdx, benzeneIdx, ethanolIdx}
	outs := [][]int{ethanolIdx, corruptIdx, reverseIdx}

	report, err := evaluate.CompareIndices(refs, outs, v)
	require.NoError(t, err)

	require.Len(t, report.Pairs, 3)
	assert.Equal(t, evaluate.Pair{Input: "CCO", Output: "CCO"}, report.Pairs[0])
	assert.Equal(t, evaluate.Pair{Input: "c1ccccc1", Output: "c1ccccc("}, report.Pairs[1])
	assert.Equal(t, evaluate.Pair{Input: "CCO", Output: "OCC"}, report.Pairs[2])

	// Row 2 reconstructs a valid molecule that is not its reference.
	assert.InDelta(t, 2.0/3.0, report.FracValid, 1e-12)
	assert.InDelta(t, 1.0/3.0, report.FracIdentical, 1e-12)
}

func TestCompareIndices_PaddingInsensitive(t *testing.T) {
	v := testVocab(t)
	padded := append(append([]int(nil), ethanolIdx...), 6, 6)

	report, err := evaluate.CompareIndices([][]int{ethanolIdx}, [][]int{padded}, v)
	require.NoError(t, err)
	assert.Equal(t, 1.0, report.FracIdentical)
	assert.Equal(t, 1.0, report.FracValid)
}

func TestCompareIndices_Errors(t *testing.T) {
	v := testVocab(t)

	_, err := evaluate.CompareIndices([][]int{ethanolIdx}, [][]int{ethanolIdx}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))

	_, err = evaluate.CompareIndices([][]int{ethanolIdx, benzeneIdx}, [][]int{ethanolIdx}, v)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = evaluate.CompareIndices(nil, nil, v)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))

	_, err = evaluate.CompareIndices([][]int{{42}}, [][]int{ethanolIdx}, v)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestValidSamples(t *testing.T) {
	v := testVocab(t)
	outs := [][]int{ethanolIdx, {0, 4, 6}, benzeneIdx}

	kept, frac, err := evaluate.ValidSamples(outs, v)
	require.NoError(t, err)
	assert.Equal(t, []string{"CCO", "c1ccccc1"}, kept)
	assert.InDelta(t, 2.0/3.0, frac, 1e-12)

	_, _, err = evaluate.ValidSamples(nil, v)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))
}

func TestDecodeProbabilities(t *testing.T) {
	v, err := evaluate.NewVocabulary([]string{"C", "O", "\n"})
	require.NoError(t, err)

	probs := [][][]float64{{
		{0.7, 0.2, 0.1},
		{0.1, 0.8, 0.1},
		{0.5, 0.5, 0.0}, // tie resolves to the lowest index
		{0.0, 0.1, 0.9},
	}}
	indices, err := evaluate.DecodeProbabilities(probs, v)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 0, 2}}, indices)

	s, err := v.Decode(indices[0])
	require.NoError(t, err)
	assert.Equal(t, "COC\n", s)
}

func TestDecodeProbabilities_WidthMismatch(t *testing.T) {
	v, err := evaluate.NewVocabulary([]string{"C", "O", "\n"})
	require.NoError(t, err)

	_, err = evaluate.DecodeProbabilities([][][]float64{{{0.5, 0.5}}}, v)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestDecodeProbabilities_FeedsComparison(t *testing.T) {
	v, err := evaluate.NewVocabulary([]string{"C", "O", "\n"})
	require.NoError(t, err)

	probs := [][][]float64{{
		{0.9, 0.05, 0.05},
		{0.9, 0.05, 0.05},
		{0.1, 0.8, 0.1},
		{0.0, 0.0, 1.0},
	}}
	indices, err := evaluate.DecodeProbabilities(probs, v)
	require.NoError(t, err)

	report, err := evaluate.CompareIndices([][]int{{0, 0, 1, 2}}, indices, v)
	require.NoError(t, err)
	assert.Equal(t, 1.0, report.FracIdentical)
	assert.Equal(t, 1.0, report.FracValid)
}
