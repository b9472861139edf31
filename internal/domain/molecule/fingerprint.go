package molecule

import (
	"encoding/binary"
	"math/bits"
	"sort"

	"github.com/turtacn/LatentMol/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fingerprint Structure
// ─────────────────────────────────────────────────────────────────────────────

// Fingerprint is a fixed-length molecular bit vector. Bits stores the
// packed bit array, where bit i lives in byte i/8 at position i%8.
type Fingerprint struct {
	Bits      []byte `json:"bits"`
	Length    int    `json:"length"`
	NumOnBits int    `json:"num_on_bits"`
}

// NewFingerprint constructs a Fingerprint from packed bit data.
func NewFingerprint(data []byte, length int) *Fingerprint {
	on := 0
	for _, b := range data {
		on += bits.OnesCount8(b)
	}
	return &Fingerprint{Bits: data, Length: length, NumOnBits: on}
}

// GetBit reports whether bit index is set. Out-of-range indices read as
// unset.
func (fp *Fingerprint) GetBit(index int) bool {
	if index < 0 || index >= fp.Length {
		return false
	}
	return fp.Bits[index/8]&(1<<uint(index%8)) != 0
}

// SetBit sets bit index, keeping NumOnBits consistent.
func (fp *Fingerprint) SetBit(index int) {
	if index < 0 || index >= fp.Length {
		return
	}
	old := fp.Bits[index/8]
	fp.Bits[index/8] |= 1 << uint(index%8)
	if old != fp.Bits[index/8] {
		fp.NumOnBits++
	}
}

// OnBits returns the indices of all set bits in ascending order. The QSAR
// layer uses this for sparse dot products against weight vectors.
func (fp *Fingerprint) OnBits() []int {
	out := make([]int, 0, fp.NumOnBits)
	for i, b := range fp.Bits {
		for b != 0 {
			bit := bits.TrailingZeros8(b)
			out = append(out, i*8+bit)
			b &= b - 1
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Similarity
// ─────────────────────────────────────────────────────────────────────────────

// Tanimoto returns the Tanimoto (Jaccard) similarity of two fingerprints
// of equal length. Two all-zero fingerprints compare as 0.
func Tanimoto(a, b *Fingerprint) (float64, error) {
	if a.Length != b.Length {
		return 0, errors.Newf(errors.ErrCodeLengthMismatch,
			"fingerprint lengths differ: %d vs %d", a.Length, b.Length)
	}
	intersection, union := 0, 0
	for i := range a.Bits {
		intersection += bits.OnesCount8(a.Bits[i] & b.Bits[i])
		union += bits.OnesCount8(a.Bits[i] | b.Bits[i])
	}
	if union == 0 {
		return 0, nil
	}
	return float64(intersection) / float64(union), nil
}

// Dice returns the Dice similarity of two fingerprints of equal length.
func Dice(a, b *Fingerprint) (float64, error) {
	if a.Length != b.Length {
		return 0, errors.Newf(errors.ErrCodeLengthMismatch,
			"fingerprint lengths differ: %d vs %d", a.Length, b.Length)
	}
	intersection := 0
	for i := range a.Bits {
		intersection += bits.OnesCount8(a.Bits[i] & b.Bits[i])
	}
	total := a.NumOnBits + b.NumOnBits
	if total == 0 {
		return 0, nil
	}
	return 2 * float64(intersection) / float64(total), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Morgan (Circular) Fingerprint
// ─────────────────────────────────────────────────────────────────────────────

// FNV-1a 64-bit constants used for environment hashing. FNV keeps the
// fingerprint deterministic across platforms without pulling in a
// cryptographic hash per atom environment.
const (
	fnvOffset64 uint64 = 14695981039346656037
	fnvPrime64  uint64 = 1099511628211
)

// hash64 is an incremental FNV-1a accumulator over big-endian uint64
// words.
type hash64 uint64

func newHash64() hash64 { return hash64(fnvOffset64) }

func (h *hash64) writeUint64(v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	acc := uint64(*h)
	for _, b := range buf {
		acc = (acc ^ uint64(b)) * fnvPrime64
	}
	*h = hash64(acc)
}

func (h hash64) sum() uint64 { return uint64(h) }

// bondHashCode maps a bond to its contribution in environment hashing.
// Aromatic bonds hash distinctly from any integer order.
func bondHashCode(b Bond) uint64 {
	if b.Aromatic {
		return 4
	}
	return uint64(b.Order)
}

// MorganFingerprint computes an extended-connectivity fingerprint of the
// given radius over the molecular graph. Atom environments start from an
// invariant of (atomic number, degree, charge, hydrogen count,
// aromaticity, ring membership) and are iteratively extended with sorted
// neighbour invariants; environments at every radius from 0 to radius are
// folded into the bit vector.
func MorganFingerprint(m *Molecule, radius, nBits int) (*Fingerprint, error) {
	if m == nil || m.NumAtoms() == 0 {
		return nil, errors.New(errors.ErrCodeFingerprintFailed, "fingerprint requires a non-empty molecule")
	}
	if radius < 0 {
		return nil, errors.InvalidParam("fingerprint radius must be non-negative")
	}
	if nBits <= 0 {
		return nil, errors.InvalidParam("fingerprint length must be positive")
	}

	n := m.NumAtoms()
	invariants := make([]uint64, n)
	for i := 0; i < n; i++ {
		a := m.Atoms[i]
		h := newHash64()
		h.writeUint64(uint64(a.AtomicNum))
		h.writeUint64(uint64(m.Degree(i)))
		h.writeUint64(uint64(a.Charge + 8))
		h.writeUint64(uint64(a.ImplicitH))
		h.writeUint64(boolWord(a.Aromatic))
		h.writeUint64(boolWord(m.AtomInRing(i)))
		invariants[i] = h.sum()
	}

	fp := NewFingerprint(make([]byte, (nBits+7)/8), nBits)
	fold := func(inv uint64) {
		fp.SetBit(int(inv % uint64(nBits)))
	}
	for _, inv := range invariants {
		fold(inv)
	}

	type neighborEnv struct {
		bond uint64
		inv  uint64
	}
	for round := 1; round <= radius; round++ {
		next := make([]uint64, n)
		for i := 0; i < n; i++ {
			envs := make([]neighborEnv, 0, m.Degree(i))
			for _, bi := range m.IncidentBonds(i) {
				b := m.Bonds[bi]
				envs = append(envs, neighborEnv{
					bond: bondHashCode(b),
					inv:  invariants[b.Other(i)],
				})
			}
			sort.Slice(envs, func(x, y int) bool {
				if envs[x].bond != envs[y].bond {
					return envs[x].bond < envs[y].bond
				}
				return envs[x].inv < envs[y].inv
			})

			h := newHash64()
			h.writeUint64(uint64(round))
			h.writeUint64(invariants[i])
			for _, e := range envs {
				h.writeUint64(e.bond)
				h.writeUint64(e.inv)
			}
			next[i] = h.sum()
			fold(next[i])
		}
		invariants = next
	}

	return fp, nil
}

func boolWord(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
