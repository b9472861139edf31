package molecule

// Physicochemical descriptors consumed by the drug-likeness and synthetic
// accessibility scorers. All are derived purely from the parsed graph; no
// 3D geometry is involved.

// HBondAcceptorCount returns the number of nitrogen and oxygen atoms, the
// Lipinski acceptor definition.
func (m *Molecule) HBondAcceptorCount() int {
	n := 0
	for i := range m.Atoms {
		switch m.Atoms[i].Element {
		case "N", "O":
			n++
		}
	}
	return n
}

// HBondDonorCount returns the number of nitrogen or oxygen atoms carrying
// at least one hydrogen.
func (m *Molecule) HBondDonorCount() int {
	n := 0
	for i := range m.Atoms {
		switch m.Atoms[i].Element {
		case "N", "O":
			if m.Atoms[i].ImplicitH > 0 {
				n++
			}
		}
	}
	return n
}

// TPSA returns the topological polar surface area in Å² using the Ertl
// nitrogen and oxygen fragment contributions. Sulfur and phosphorus
// contributions are excluded, matching the common N/O-only convention.
func (m *Molecule) TPSA() float64 {
	var area float64
	for i := range m.Atoms {
		switch m.Atoms[i].Element {
		case "N":
			area += m.nitrogenTPSA(i)
		case "O":
			area += m.oxygenTPSA(i)
		}
	}
	return area
}

func (m *Molecule) nitrogenTPSA(i int) float64 {
	a := m.Atoms[i]
	if a.Aromatic {
		if a.ImplicitH > 0 {
			return 15.79
		}
		return 12.89
	}
	if m.hasBondOfOrder(i, BondTriple) {
		return 23.79
	}
	if m.hasBondOfOrder(i, BondDouble) {
		return 12.36
	}
	switch {
	case a.ImplicitH >= 2:
		return 26.02
	case a.ImplicitH == 1:
		return 12.03
	default:
		return 3.24
	}
}

func (m *Molecule) oxygenTPSA(i int) float64 {
	a := m.Atoms[i]
	if a.Aromatic {
		return 13.14
	}
	if a.Charge < 0 {
		return 23.06
	}
	if m.hasBondOfOrder(i, BondDouble) {
		return 17.07
	}
	if a.ImplicitH > 0 {
		return 20.23
	}
	return 9.23
}

// hasBondOfOrder reports whether atom i has a non-aromatic bond of the
// given order.
func (m *Molecule) hasBondOfOrder(i int, order BondOrder) bool {
	for _, bi := range m.adjacency[i] {
		if !m.Bonds[bi].Aromatic && m.Bonds[bi].Order == order {
			return true
		}
	}
	return false
}

// RotatableBondCount returns the number of single, non-ring, non-aromatic
// bonds whose endpoints both have degree greater than one. Terminal methyl
// and hydroxyl twists are excluded by the degree condition.
func (m *Molecule) RotatableBondCount() int {
	n := 0
	for bi := range m.Bonds {
		b := m.Bonds[bi]
		if b.Aromatic || b.Order != BondSingle || m.ringBonds[bi] {
			continue
		}
		if m.Degree(b.From) > 1 && m.Degree(b.To) > 1 {
			n++
		}
	}
	return n
}

// ─────────────────────────────────────────────────────────────────────────────
// Structural Alerts
// ─────────────────────────────────────────────────────────────────────────────

// alertPredicate is one undesirable-substructure check. Each contributes
// at most one count to AlertCount regardless of how many sites match.
type alertPredicate struct {
	name  string
	match func(m *Molecule) bool
}

var alertPredicates = []alertPredicate{
	{"nitro", hasNitro},
	{"aldehyde", hasAldehyde},
	{"acyl_halide", hasAcylHalide},
	{"peroxide", hasPeroxide},
	{"thiol", hasThiol},
	{"long_chain", hasLongAliphaticChain},
	{"cumulated_heteroallene", hasCumulatedHeteroallene},
}

// AlertCount returns the number of structural alert classes present in the
// molecule, in the range [0, 7].
func (m *Molecule) AlertCount() int {
	n := 0
	for _, p := range alertPredicates {
		if p.match(m) {
			n++
		}
	}
	return n
}

// AlertNames returns the names of the triggered alert classes, for
// diagnostics output.
func (m *Molecule) AlertNames() []string {
	var names []string
	for _, p := range alertPredicates {
		if p.match(m) {
			names = append(names, p.name)
		}
	}
	return names
}

// hasNitro matches nitro groups: a nitrogen bonded to two oxygens with at
// least one N=O double bond, covering both the charged and the
// pentavalent written forms.
func hasNitro(m *Molecule) bool {
	for i := range m.Atoms {
		if m.Atoms[i].Element != "N" {
			continue
		}
		oxygens, doubles := 0, 0
		for _, bi := range m.adjacency[i] {
			j := m.Bonds[bi].Other(i)
			if m.Atoms[j].Element != "O" {
				continue
			}
			oxygens++
			if !m.Bonds[bi].Aromatic && m.Bonds[bi].Order == BondDouble {
				doubles++
			}
		}
		if oxygens >= 2 && doubles >= 1 {
			return true
		}
	}
	return false
}

// hasAldehyde matches non-aromatic carbons with a C=O double bond and a
// remaining hydrogen.
func hasAldehyde(m *Molecule) bool {
	for i := range m.Atoms {
		a := m.Atoms[i]
		if a.Element != "C" || a.Aromatic || a.ImplicitH < 1 {
			continue
		}
		if m.hasDoubleBondTo(i, "O") {
			return true
		}
	}
	return false
}

// hasAcylHalide matches carbonyl carbons directly bonded to a halogen.
func hasAcylHalide(m *Molecule) bool {
	for i := range m.Atoms {
		if m.Atoms[i].Element != "C" || !m.hasDoubleBondTo(i, "O") {
			continue
		}
		for _, j := range m.Neighbors(i) {
			switch m.Atoms[j].Element {
			case "F", "Cl", "Br", "I":
				return true
			}
		}
	}
	return false
}

// hasPeroxide matches O-O single bonds.
func hasPeroxide(m *Molecule) bool {
	for bi := range m.Bonds {
		b := m.Bonds[bi]
		if m.Atoms[b.From].Element == "O" && m.Atoms[b.To].Element == "O" {
			return true
		}
	}
	return false
}

// hasThiol matches sulfur atoms carrying a hydrogen.
func hasThiol(m *Molecule) bool {
	for i := range m.Atoms {
		if m.Atoms[i].Element == "S" && !m.Atoms[i].Aromatic && m.Atoms[i].ImplicitH > 0 {
			return true
		}
	}
	return false
}

// hasCumulatedHeteroallene matches N=C=O and N=C=S groups.
func hasCumulatedHeteroallene(m *Molecule) bool {
	for i := range m.Atoms {
		if m.Atoms[i].Element != "C" || m.Atoms[i].Aromatic {
			continue
		}
		if m.hasDoubleBondTo(i, "N") && (m.hasDoubleBondTo(i, "O") || m.hasDoubleBondTo(i, "S")) {
			return true
		}
	}
	return false
}

// longChainThreshold is the minimum run of connected acyclic aliphatic
// carbons that counts as a flexibility alert.
const longChainThreshold = 8

// hasLongAliphaticChain reports whether the molecule contains a chain of
// at least longChainThreshold connected non-ring aliphatic carbons. The
// qualifying subgraph is a forest, so the longest chain is the diameter of
// each component, found with the double-BFS trick.
func hasLongAliphaticChain(m *Molecule) bool {
	return m.LongestAliphaticChain() >= longChainThreshold
}

// LongestAliphaticChain returns the atom count of the longest path of
// connected non-ring, non-aromatic carbon atoms.
func (m *Molecule) LongestAliphaticChain() int {
	eligible := func(i int) bool {
		a := m.Atoms[i]
		return a.Element == "C" && !a.Aromatic && !m.AtomInRing(i)
	}
	longest := 0
	seen := make([]bool, len(m.Atoms))
	for i := range m.Atoms {
		if seen[i] || !eligible(i) {
			continue
		}
		far, _ := m.farthestEligible(i, eligible, seen)
		_, dist := m.farthestEligible(far, eligible, nil)
		if dist+1 > longest {
			longest = dist + 1
		}
	}
	return longest
}

// farthestEligible BFS-walks the eligible subgraph from start and returns
// the farthest eligible atom and its distance. When mark is non-nil the
// visited atoms are recorded into it so each component is processed once.
func (m *Molecule) farthestEligible(start int, eligible func(int) bool, mark []bool) (int, int) {
	dist := make(map[int]int, len(m.Atoms))
	dist[start] = 0
	queue := []int{start}
	far, farDist := start, 0
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		if mark != nil {
			mark[u] = true
		}
		for _, bi := range m.adjacency[u] {
			b := m.Bonds[bi]
			if b.Aromatic || b.Order != BondSingle {
				continue
			}
			v := b.Other(u)
			if !eligible(v) {
				continue
			}
			if _, ok := dist[v]; ok {
				continue
			}
			dist[v] = dist[u] + 1
			queue = append(queue, v)
			if dist[v] > farDist {
				far, farDist = v, dist[v]
			}
		}
	}
	return far, farDist
}

// hasDoubleBondTo reports whether atom i has a non-aromatic double bond to
// a neighbour of the given element.
func (m *Molecule) hasDoubleBondTo(i int, element string) bool {
	for _, bi := range m.adjacency[i] {
		b := m.Bonds[bi]
		if b.Aromatic || b.Order != BondDouble {
			continue
		}
		if m.Atoms[b.Other(i)].Element == element {
			return true
		}
	}
	return false
}
