package molecule

// ValidationResult records the outcome of parsing one batch row. Invalid
// rows keep their index and input string so the pipeline can write the
// rejects file with stable ordering.
type ValidationResult struct {
	Index  int
	SMILES string
	Mol    *Molecule
	Err    error
}

// Valid reports whether the row parsed successfully.
func (r ValidationResult) Valid() bool { return r.Mol != nil }

// ValidateBatch parses every input string, never stopping on failures.
// The returned slice is index-aligned with inputs; invalid rows carry a
// nil Mol and the typed parse error.
func ValidateBatch(inputs []string) []ValidationResult {
	results := make([]ValidationResult, len(inputs))
	for i, s := range inputs {
		m, err := ParseSMILES(s)
		results[i] = ValidationResult{Index: i, SMILES: s, Mol: m, Err: err}
	}
	return results
}

// CountValid returns the number of successfully parsed rows.
func CountValid(results []ValidationResult) int {
	n := 0
	for i := range results {
		if results[i].Valid() {
			n++
		}
	}
	return n
}
