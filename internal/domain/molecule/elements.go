package molecule

// Element data used by the parser and property calculators. Values cover
// the organic subset plus the bracket-atom elements that occur in the ZINC
// candidate sets; unknown symbols are rejected at parse time.

// atomicNumbers maps element symbols to atomic numbers.
var atomicNumbers = map[string]int{
	"H": 1, "Li": 3, "B": 5, "C": 6, "N": 7, "O": 8, "F": 9,
	"Na": 11, "Mg": 12, "Si": 14, "P": 15, "S": 16, "Cl": 17,
	"K": 19, "Ca": 20, "Fe": 26, "Zn": 30, "As": 33, "Se": 34,
	"Br": 35, "I": 53,
}

// atomicMasses maps element symbols to standard atomic weights.
var atomicMasses = map[string]float64{
	"H": 1.008, "Li": 6.94, "B": 10.81, "C": 12.011, "N": 14.007,
	"O": 15.999, "F": 18.998, "Na": 22.990, "Mg": 24.305, "Si": 28.085,
	"P": 30.974, "S": 32.06, "Cl": 35.45, "K": 39.098, "Ca": 40.078,
	"Fe": 55.845, "Zn": 65.38, "As": 74.922, "Se": 78.971, "Br": 79.904,
	"I": 126.904,
}

// defaultValences lists the standard valence alternatives per element,
// ascending. Implicit hydrogens on organic-subset atoms are derived from
// the smallest valence that covers the explicit bond order sum.
var defaultValences = map[string][]int{
	"B":  {3},
	"C":  {4},
	"N":  {3, 5},
	"O":  {2},
	"P":  {3, 5},
	"S":  {2, 4, 6},
	"F":  {1},
	"Cl": {1},
	"Br": {1},
	"I":  {1},
}

// organicSubset lists elements that may appear outside brackets.
var organicSubset = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true,
}

// aromaticSymbols maps lowercase aromatic tokens to element symbols.
// "se" and "as" occur only inside brackets.
var aromaticSymbols = map[string]string{
	"b": "B", "c": "C", "n": "N", "o": "O", "p": "P", "s": "S",
	"se": "Se", "as": "As",
}

// massOf returns the standard atomic weight for symbol, 0 for unknown
// elements (unknown symbols never survive parsing).
func massOf(symbol string) float64 {
	return atomicMasses[symbol]
}

// lowestValence returns the smallest standard valence for symbol, or 0
// when the element has no implicit-hydrogen model.
func lowestValence(symbol string) int {
	vs := defaultValences[symbol]
	if len(vs) == 0 {
		return 0
	}
	return vs[0]
}

// smallestValenceAtLeast returns the smallest standard valence ≥ n, or 0
// when none covers n (hypervalent atoms get no implicit hydrogens).
func smallestValenceAtLeast(symbol string, n int) int {
	for _, v := range defaultValences[symbol] {
		if v >= n {
			return v
		}
	}
	return 0
}
