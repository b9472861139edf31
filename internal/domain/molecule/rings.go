package molecule

// Ring perception uses Paton's cycle basis algorithm: grow a spanning tree
// per connected component with a DFS stack and emit one cycle per chord by
// walking predecessor chains. For fused bicyclics this yields the two
// small rings rather than their envelope, which keeps the macrocycle
// penalties honest. Cycle atom lists are in traversal order, so
// consecutive entries (wrapping) are always bonded.

// computeRings fills rings, ringAtomCount and ringBonds. Called once from
// finalize after adjacency is built.
func (m *Molecule) computeRings() {
	n := len(m.Atoms)
	m.ringAtomCount = make([]int, n)
	m.ringBonds = make([]bool, len(m.Bonds))
	if n == 0 {
		return
	}

	// Neighbour lists in bond insertion order keep traversal, and with it
	// the emitted basis, deterministic for a given input string.
	nbrs := make([][]int, n)
	for _, b := range m.Bonds {
		nbrs[b.From] = append(nbrs[b.From], b.To)
		nbrs[b.To] = append(nbrs[b.To], b.From)
	}

	pred := make([]int, n)
	used := make([]map[int]bool, n)

	for root := 0; root < n; root++ {
		if used[root] != nil {
			continue
		}
		pred[root] = root
		used[root] = map[int]bool{}
		stack := []int{root}
		for len(stack) > 0 {
			z := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			zused := used[z]
			for _, nbr := range nbrs[z] {
				switch {
				case used[nbr] == nil:
					pred[nbr] = z
					stack = append(stack, nbr)
					used[nbr] = map[int]bool{z: true}
				case nbr == z:
					// Self bonds are rejected by the parser.
				case !zused[nbr]:
					pn := used[nbr]
					cycle := []int{nbr, z}
					p := pred[z]
					for !pn[p] {
						cycle = append(cycle, p)
						p = pred[p]
					}
					cycle = append(cycle, p)
					m.rings = append(m.rings, cycle)
					used[nbr][z] = true
				}
			}
		}
	}

	for _, cycle := range m.rings {
		for _, ai := range cycle {
			m.ringAtomCount[ai]++
		}
		for i := range cycle {
			a, b := cycle[i], cycle[(i+1)%len(cycle)]
			if bi, ok := m.bondIndexBetween(a, b); ok {
				m.ringBonds[bi] = true
			}
		}
	}
}

func (m *Molecule) bondIndexBetween(i, j int) (int, bool) {
	for _, bi := range m.adjacency[i] {
		if m.Bonds[bi].Other(i) == j {
			return bi, true
		}
	}
	return -1, false
}

// Rings returns the cycle basis as atom-index cycles. Callers must not
// mutate the returned slices.
func (m *Molecule) Rings() [][]int { return m.rings }

// RingCount returns the number of independent cycles.
func (m *Molecule) RingCount() int { return len(m.rings) }

// LargestRingSize returns the atom count of the largest basis cycle, 0 for
// acyclic molecules.
func (m *Molecule) LargestRingSize() int {
	max := 0
	for _, r := range m.rings {
		if len(r) > max {
			max = len(r)
		}
	}
	return max
}

// AtomInRing reports whether atom i lies on any basis cycle.
func (m *Molecule) AtomInRing(i int) bool { return m.ringAtomCount[i] > 0 }

// AtomRingCount returns the number of basis cycles containing atom i.
func (m *Molecule) AtomRingCount(i int) int { return m.ringAtomCount[i] }

// BondIndexInRing reports whether the bond at index bi lies on a basis
// cycle.
func (m *Molecule) BondIndexInRing(bi int) bool { return m.ringBonds[bi] }

// SharedRingAtomCount returns the number of atoms belonging to two or more
// basis cycles, a proxy for ring fusion complexity.
func (m *Molecule) SharedRingAtomCount() int {
	n := 0
	for _, c := range m.ringAtomCount {
		if c >= 2 {
			n++
		}
	}
	return n
}

// AromaticRingCount returns the number of basis cycles whose atoms are all
// aromatic.
func (m *Molecule) AromaticRingCount() int {
	n := 0
	for _, r := range m.rings {
		aromatic := true
		for _, ai := range r {
			if !m.Atoms[ai].Aromatic {
				aromatic = false
				break
			}
		}
		if aromatic {
			n++
		}
	}
	return n
}
