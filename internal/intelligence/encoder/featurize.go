package encoder

import (
	"github.com/turtacn/LatentMol/internal/domain/molecule"
)

// ---------------------------------------------------------------------------
// Atom / Bond feature encoding
// ---------------------------------------------------------------------------

// Node features extracted per atom. Total dimension = NodeFeatureDim.
//
// Layout (one-hot unless noted):
//   [0..10]   Element (C, N, O, F, P, S, Cl, Br, I, B, other)
//   [11..16]  Heavy-atom degree (0..5, clamped)
//   [17..21]  Formal charge (-2..+2, clamped)
//   [22..26]  Implicit hydrogen count (0..4, clamped)
//   [27]      Is aromatic (binary)
//   [28]      Is in ring (binary)

const (
	elementBins  = 11
	degreeBins   = 6
	chargeBins   = 5
	hydrogenBins = 5
	flagBins     = 2 // is_aromatic, is_in_ring

	// NodeFeatureDim is the per-atom feature vector length. The weights
	// artifact must be shaped against it.
	NodeFeatureDim = elementBins + degreeBins + chargeBins + hydrogenBins + flagBins

	// EdgeFeatureDim is the per-bond feature vector length: a bond order
	// one-hot (single, double, triple, aromatic).
	EdgeFeatureDim = 4
)

// elementBin maps element symbols to their one-hot position. Anything
// outside the common organic set shares the final "other" bin.
var elementBin = map[string]int{
	"C": 0, "N": 1, "O": 2, "F": 3, "P": 4,
	"S": 5, "Cl": 6, "Br": 7, "I": 8, "B": 9,
}

const elementOtherBin = elementBins - 1

// molGraph is the numeric graph the forward pass consumes. Edge features
// are pre-summed per atom: bond structure never changes between layers,
// so Σ_j e_ij is a constant of the graph.
type molGraph struct {
	nodes    [][]float64 // [atom][NodeFeatureDim]
	nbrs     [][]int     // [atom][neighbor atom indices]
	edgeSums [][]float64 // [atom][EdgeFeatureDim]
}

// buildGraph featurises a parsed molecule into tensors.
func buildGraph(m *molecule.Molecule) *molGraph {
	n := m.NumAtoms()
	g := &molGraph{
		nodes:    make([][]float64, n),
		nbrs:     make([][]int, n),
		edgeSums: make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		g.nodes[i] = encodeAtom(m, i)
		g.nbrs[i] = m.Neighbors(i)
		g.edgeSums[i] = make([]float64, EdgeFeatureDim)
	}
	for _, b := range m.Bonds {
		class := bondClass(b)
		g.edgeSums[b.From][class]++
		g.edgeSums[b.To][class]++
	}
	return g
}

// encodeAtom produces the NodeFeatureDim-length feature vector for atom i.
func encodeAtom(m *molecule.Molecule, i int) []float64 {
	a := m.Atoms[i]
	f := make([]float64, NodeFeatureDim)
	offset := 0

	bin, ok := elementBin[a.Element]
	if !ok {
		bin = elementOtherBin
	}
	f[offset+bin] = 1
	offset += elementBins

	f[offset+clampBin(m.Degree(i), degreeBins)] = 1
	offset += degreeBins

	// Charge bins are shifted so that -2 maps to 0.
	f[offset+clampBin(a.Charge+2, chargeBins)] = 1
	offset += chargeBins

	f[offset+clampBin(a.ImplicitH, hydrogenBins)] = 1
	offset += hydrogenBins

	if a.Aromatic {
		f[offset] = 1
	}
	offset++
	if m.AtomInRing(i) {
		f[offset] = 1
	}
	return f
}

// bondClass maps a bond to its one-hot position: 0 single, 1 double,
// 2 triple, 3 aromatic.
func bondClass(b molecule.Bond) int {
	if b.Aromatic {
		return 3
	}
	switch b.Order {
	case molecule.BondDouble:
		return 1
	case molecule.BondTriple:
		return 2
	default:
		return 0
	}
}

func clampBin(v, bins int) int {
	if v < 0 {
		return 0
	}
	if v >= bins {
		return bins - 1
	}
	return v
}
