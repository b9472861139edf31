// Package evaluate measures reconstruction quality of a generative
// checkpoint: integer index matrices are decoded back to SMILES through a
// token vocabulary, then compared against their references for validity
// and identity. The package is pure bookkeeping; nothing here touches the
// encoder itself.
package evaluate

import (
	"encoding/json"
	"os"

	"github.com/turtacn/LatentMol/pkg/errors"
)

// padToken terminates a decoded sequence; everything after the payload is
// padded with it. Comparisons and validity checks strip trailing pads.
const padToken = "\n"

// Vocabulary maps integer indices to SMILES tokens. Tokens may be longer
// than one character (Cl, Br, bracket atoms).
type Vocabulary struct {
	tokens []string
}

// vocabularyArtifact is the persisted JSON form.
type vocabularyArtifact struct {
	Tokens []string `json:"tokens"`
}

// NewVocabulary builds a vocabulary from an ordered token list. The slice
// index is the token's integer code.
func NewVocabulary(tokens []string) (*Vocabulary, error) {
	if len(tokens) == 0 {
		return nil, errors.InvalidParam("vocabulary must contain at least one token")
	}
	return &Vocabulary{tokens: append([]string(nil), tokens...)}, nil
}

// LoadVocabulary reads a vocabulary artifact from path.
func LoadVocabulary(path string) (*Vocabulary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIOFailure, "reading vocabulary "+path)
	}
	var artifact vocabularyArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation,
			"vocabulary "+path+" is not valid JSON")
	}
	if len(artifact.Tokens) == 0 {
		return nil, errors.Newf(errors.ErrCodeValidation,
			"vocabulary %s has no tokens", path)
	}
	return &Vocabulary{tokens: artifact.Tokens}, nil
}

// Size returns the number of tokens.
func (v *Vocabulary) Size() int { return len(v.tokens) }

// Decode joins the tokens of an index sequence into a string. Padding is
// kept; callers strip it where it matters.
func (v *Vocabulary) Decode(indices []int) (string, error) {
	var b []byte
	for pos, idx := range indices {
		if idx < 0 || idx >= len(v.tokens) {
			return "", errors.Newf(errors.ErrCodeValidation,
				"index %d at position %d is out of range for a %d-token vocabulary",
				idx, pos, len(v.tokens))
		}
		b = append(b, v.tokens[idx]...)
	}
	return string(b), nil
}
