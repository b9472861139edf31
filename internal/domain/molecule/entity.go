// Package molecule provides the core chemistry domain model for the
// LatentMol pipeline.  A Molecule is an explicit hydrogen-suppressed graph
// parsed from SMILES notation; atoms carry element, charge, aromaticity and
// implicit hydrogen counts, and bonds carry integer orders.  All property
// calculators (weight, rings, descriptors, fingerprints) operate on this
// graph without reaching back to the input string.
package molecule

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// Graph Value Objects
// ─────────────────────────────────────────────────────────────────────────────

// Atom is a single heavy atom (or explicit [H]) in the molecular graph.
type Atom struct {
	// Element is the symbol as found in the periodic table ("C", "Cl").
	Element string `json:"element"`

	// AtomicNum is the element's atomic number.
	AtomicNum int `json:"atomic_num"`

	// Aromatic is true for atoms written in lowercase aromatic form.
	Aromatic bool `json:"aromatic"`

	// Charge is the formal charge, only settable through bracket notation.
	Charge int `json:"charge,omitempty"`

	// Isotope is the isotope mass number from bracket notation, 0 if unset.
	Isotope int `json:"isotope,omitempty"`

	// ImplicitH is the number of attached hydrogens.  For bracket atoms it
	// is the explicit H count from the brackets; otherwise it is derived
	// from the element's default valence and the bond order sum.
	ImplicitH int `json:"implicit_h"`

	// Chiral is true when the atom carried a tetrahedral stereo marker.
	Chiral bool `json:"chiral,omitempty"`

	// bracket records whether the atom came from bracket notation, which
	// freezes its hydrogen count.
	bracket bool
}

// BondOrder enumerates explicit bond orders.
type BondOrder int

const (
	BondSingle BondOrder = 1
	BondDouble BondOrder = 2
	BondTriple BondOrder = 3
)

// Bond is an undirected edge between two atoms, identified by their indices
// into Molecule.Atoms.
type Bond struct {
	From     int       `json:"from"`
	To       int       `json:"to"`
	Order    BondOrder `json:"order"`
	Aromatic bool      `json:"aromatic"`
}

// OrderSum returns the bond's contribution to an atom's valence count.
// Aromatic bonds contribute 1.5 as in the Daylight aromaticity model.
func (b Bond) OrderSum() float64 {
	if b.Aromatic {
		return 1.5
	}
	return float64(b.Order)
}

// Other returns the bond endpoint opposite to atom index i.
func (b Bond) Other(i int) int {
	if b.From == i {
		return b.To
	}
	return b.From
}

// ─────────────────────────────────────────────────────────────────────────────
// Molecule Aggregate
// ─────────────────────────────────────────────────────────────────────────────

// Molecule is a parsed molecular graph.  Instances are immutable after
// construction by ParseSMILES; all derived quantities (adjacency, ring
// basis) are computed once during finalisation.
type Molecule struct {
	// SMILES is the input string the molecule was parsed from.
	SMILES string `json:"smiles"`

	Atoms []Atom `json:"atoms"`
	Bonds []Bond `json:"bonds"`

	// adjacency[i] lists the bond indices incident to atom i.
	adjacency [][]int

	// rings is the minimum cycle basis of the graph (atom index cycles).
	rings [][]int

	// ringAtomCount[i] is the number of basis rings atom i belongs to.
	ringAtomCount []int

	// ringBonds marks bonds that lie on at least one basis ring.
	ringBonds []bool
}

// NumAtoms returns the number of explicit atoms in the graph.
func (m *Molecule) NumAtoms() int { return len(m.Atoms) }

// NumBonds returns the number of explicit bonds in the graph.
func (m *Molecule) NumBonds() int { return len(m.Bonds) }

// HeavyAtomCount returns the number of non-hydrogen atoms.
func (m *Molecule) HeavyAtomCount() int {
	n := 0
	for i := range m.Atoms {
		if m.Atoms[i].Element != "H" {
			n++
		}
	}
	return n
}

// Degree returns the number of explicit neighbours of atom i.
func (m *Molecule) Degree(i int) int { return len(m.adjacency[i]) }

// Neighbors returns the atom indices bonded to atom i.
func (m *Molecule) Neighbors(i int) []int {
	out := make([]int, 0, len(m.adjacency[i]))
	for _, bi := range m.adjacency[i] {
		out = append(out, m.Bonds[bi].Other(i))
	}
	return out
}

// IncidentBonds returns the bond indices incident to atom i.
func (m *Molecule) IncidentBonds(i int) []int { return m.adjacency[i] }

// BondBetween returns the bond joining atoms i and j, if one exists.
func (m *Molecule) BondBetween(i, j int) (Bond, bool) {
	for _, bi := range m.adjacency[i] {
		if m.Bonds[bi].Other(i) == j {
			return m.Bonds[bi], true
		}
	}
	return Bond{}, false
}

// BondOrderSum returns the total explicit bond order at atom i, with
// aromatic bonds counted as 1.5.
func (m *Molecule) BondOrderSum(i int) float64 {
	var sum float64
	for _, bi := range m.adjacency[i] {
		sum += m.Bonds[bi].OrderSum()
	}
	return sum
}

// MolecularWeight returns the average molecular weight including implicit
// hydrogens.
func (m *Molecule) MolecularWeight() float64 {
	var w float64
	for i := range m.Atoms {
		w += massOf(m.Atoms[i].Element)
		w += float64(m.Atoms[i].ImplicitH) * massOf("H")
	}
	return w
}

// Formula returns the molecular formula in Hill order (C first, H second,
// remaining elements alphabetically).
func (m *Molecule) Formula() string {
	counts := map[string]int{}
	for i := range m.Atoms {
		counts[m.Atoms[i].Element]++
		counts["H"] += m.Atoms[i].ImplicitH
	}
	if counts["H"] == 0 {
		delete(counts, "H")
	}

	symbols := make([]string, 0, len(counts))
	for sym := range counts {
		if sym != "C" && sym != "H" {
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)
	if counts["C"] > 0 {
		symbols = append([]string{"C", "H"}, symbols...)
		if counts["H"] == 0 {
			symbols = append(symbols[:1], symbols[2:]...)
		}
	} else if counts["H"] > 0 {
		symbols = append([]string{"H"}, symbols...)
	}

	var sb strings.Builder
	for _, sym := range symbols {
		n := counts[sym]
		if n == 0 {
			continue
		}
		sb.WriteString(sym)
		if n > 1 {
			fmt.Fprintf(&sb, "%d", n)
		}
	}
	return sb.String()
}

// TotalCharge returns the sum of formal charges.
func (m *Molecule) TotalCharge() int {
	c := 0
	for i := range m.Atoms {
		c += m.Atoms[i].Charge
	}
	return c
}

// ChiralCenterCount returns the number of atoms with tetrahedral stereo
// markers.
func (m *Molecule) ChiralCenterCount() int {
	n := 0
	for i := range m.Atoms {
		if m.Atoms[i].Chiral {
			n++
		}
	}
	return n
}

// ─────────────────────────────────────────────────────────────────────────────
// Finalisation
// ─────────────────────────────────────────────────────────────────────────────

// finalize computes adjacency, implicit hydrogen counts and the ring basis.
// It is called exactly once by the parser after the whole string has been
// consumed.
func (m *Molecule) finalize() {
	m.adjacency = make([][]int, len(m.Atoms))
	for bi := range m.Bonds {
		b := m.Bonds[bi]
		m.adjacency[b.From] = append(m.adjacency[b.From], bi)
		m.adjacency[b.To] = append(m.adjacency[b.To], bi)
	}
	m.assignImplicitHydrogens()
	m.computeRings()
}

// assignImplicitHydrogens fills Atom.ImplicitH for non-bracket atoms.
// Aromatic atoms use the element's lowest valence against the rounded bond
// order sum; aliphatic atoms use the smallest standard valence that covers
// the integer bond order sum.
func (m *Molecule) assignImplicitHydrogens() {
	for i := range m.Atoms {
		a := &m.Atoms[i]
		if a.bracket {
			continue
		}
		sum := m.BondOrderSum(i)
		if a.Aromatic {
			target := lowestValence(a.Element)
			rounded := int(sum + 0.5)
			if h := target - rounded; h > 0 {
				a.ImplicitH = h
			}
			continue
		}
		needed := int(math.Ceil(sum))
		if v := smallestValenceAtLeast(a.Element, needed); v > 0 {
			a.ImplicitH = v - needed
		}
	}
}
