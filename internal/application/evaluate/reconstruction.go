package evaluate

import (
	"strconv"
	"strings"

	"github.com/turtacn/LatentMol/internal/domain/molecule"
	"github.com/turtacn/LatentMol/pkg/errors"
)

// Pair is one reference/reconstruction row, trailing padding stripped.
type Pair struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Report summarises a reconstruction comparison. FracIdentical counts
// rows whose decoded strings match exactly after padding removal; an
// identical pair counts even when both sides fail to parse.
type Report struct {
	Pairs         []Pair  `json:"pairs"`
	FracValid     float64 `json:"frac_valid"`
	FracIdentical float64 `json:"frac_identical"`
}

// CompareIndices decodes reference and reconstructed index rows and
// measures how many reconstructions parse as molecules and how many
// reproduce their reference exactly.
func CompareIndices(refs, outs [][]int, vocab *Vocabulary) (*Report, error) {
	if vocab == nil {
		return nil, errors.InvalidParam("comparison needs a vocabulary")
	}
	if len(outs) != len(refs) {
		return nil, errors.Newf(errors.ErrCodeValidation,
			"got %d reconstructions for %d references", len(outs), len(refs))
	}
	if len(refs) == 0 {
		return nil, errors.InvalidParam("nothing to compare")
	}

	report := &Report{Pairs: make([]Pair, len(refs))}
	valid, identical := 0, 0
	for i := range refs {
		in, err := vocab.Decode(refs[i])
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation,
				"decoding reference row "+strconv.Itoa(i))
		}
		out, err := vocab.Decode(outs[i])
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation,
				"decoding reconstruction row "+strconv.Itoa(i))
		}
		in = strings.TrimRight(in, padToken)
		out = strings.TrimRight(out, padToken)
		report.Pairs[i] = Pair{Input: in, Output: out}

		if _, err := molecule.ParseSMILES(out); err == nil {
			valid++
		}
		if in == out {
			identical++
		}
	}
	report.FracValid = float64(valid) / float64(len(refs))
	report.FracIdentical = float64(identical) / float64(len(refs))
	return report, nil
}

// ValidSamples decodes freshly sampled index rows with no reference to
// compare against, keeping only the ones that parse. The fraction is
// valid rows over all rows.
func ValidSamples(outs [][]int, vocab *Vocabulary) ([]string, float64, error) {
	if vocab == nil {
		return nil, 0, errors.InvalidParam("sampling needs a vocabulary")
	}
	if len(outs) == 0 {
		return nil, 0, errors.InvalidParam("nothing to decode")
	}

	var kept []string
	for i, row := range outs {
		out, err := vocab.Decode(row)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeValidation,
				"decoding sample row "+strconv.Itoa(i))
		}
		out = strings.TrimRight(out, padToken)
		if _, err := molecule.ParseSMILES(out); err == nil {
			kept = append(kept, out)
		}
	}
	return kept, float64(len(kept)) / float64(len(outs)), nil
}

// DecodeProbabilities argmax-decodes per-position token distributions.
// probs[i][t] is the distribution over vocabulary tokens at position t of
// sequence i; ties resolve to the lowest index.
func DecodeProbabilities(probs [][][]float64, vocab *Vocabulary) ([][]int, error) {
	if vocab == nil {
		return nil, errors.InvalidParam("decoding needs a vocabulary")
	}
	out := make([][]int, len(probs))
	for i, seq := range probs {
		indices := make([]int, len(seq))
		for t, dist := range seq {
			if len(dist) != vocab.Size() {
				return nil, errors.Newf(errors.ErrCodeValidation,
					"sequence %d position %d has %d probabilities for a %d-token vocabulary",
					i, t, len(dist), vocab.Size())
			}
			best := 0
			for v := 1; v < len(dist); v++ {
				if dist[v] > dist[best] {
					best = v
				}
			}
			indices[t] = best
		}
		out[i] = indices
	}
	return out, nil
}
