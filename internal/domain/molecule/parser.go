package molecule

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/turtacn/LatentMol/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// SMILES Parser
// ─────────────────────────────────────────────────────────────────────────────

// validSMILESChars defines the allowed character set for SMILES notation.
// Anything outside it is rejected before tokenisation starts.
var validSMILESChars = regexp.MustCompile(`^[A-Za-z0-9@+\-\[\]()=#:/\\%.]+$`)

// ringOpen tracks one half of a ring-closure pair until its partner digit
// appears.
type ringOpen struct {
	atom int
	bond byte
}

// parser holds the tokeniser state while a single SMILES string is consumed.
type parser struct {
	src      string
	pos      int
	atoms    []Atom
	bonds    []Bond
	bondSeen map[[2]int]bool
	prev     int
	stack    []int
	pending  byte
	open     map[int]ringOpen
}

// ParseSMILES parses a SMILES string into a molecular graph. It supports
// the organic subset, bracket atoms with isotope/chirality/hydrogen/charge
// fields, branches, ring closures (including %nn), aromatic lowercase
// notation and dot-separated fragments. Directional bond markers (/ and \)
// are accepted and recorded as single bonds.
//
// ParseSMILES never panics: every malformed input is reported as a typed
// *errors.AppError carrying one of the MOL_* codes, so batch callers can
// record and skip bad rows.
func ParseSMILES(smiles string) (*Molecule, error) {
	s := strings.TrimSpace(smiles)
	if s == "" {
		return nil, errors.InvalidSMILES("empty SMILES string")
	}
	if !validSMILESChars.MatchString(s) {
		return nil, errors.InvalidSMILES("illegal character in SMILES").WithDetail(smiles)
	}

	p := &parser{
		src:      s,
		prev:     -1,
		bondSeen: map[[2]int]bool{},
		open:     map[int]ringOpen{},
	}
	if err := p.run(); err != nil {
		return nil, err
	}

	if p.pending != 0 {
		return nil, errors.InvalidSMILES("dangling bond symbol at end of string").WithDetail(s)
	}
	if len(p.stack) != 0 {
		return nil, errors.New(errors.ErrCodeUnbalancedBranch, "unclosed branch parenthesis").WithDetail(s)
	}
	if len(p.open) != 0 {
		digits := make([]int, 0, len(p.open))
		for d := range p.open {
			digits = append(digits, d)
		}
		sort.Ints(digits)
		return nil, errors.Newf(errors.ErrCodeUnclosedRing, "unclosed ring closure %v", digits).WithDetail(s)
	}
	if len(p.atoms) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyMolecule, "SMILES contains no atoms").WithDetail(s)
	}

	m := &Molecule{SMILES: s, Atoms: p.atoms, Bonds: p.bonds}
	m.finalize()
	return m, nil
}

// run consumes the whole source string, dispatching on the leading byte of
// each token.
func (p *parser) run() error {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '(':
			if p.prev < 0 {
				return errors.New(errors.ErrCodeUnbalancedBranch, "branch opened before any atom").WithDetail(p.src)
			}
			if p.pending != 0 {
				return p.errAt("bond symbol before branch opening")
			}
			p.stack = append(p.stack, p.prev)
			p.pos++

		case c == ')':
			if len(p.stack) == 0 {
				return errors.New(errors.ErrCodeUnbalancedBranch, "unmatched closing parenthesis").WithDetail(p.src)
			}
			if p.pending != 0 {
				return p.errAt("bond symbol before branch closing")
			}
			p.prev = p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			p.pos++

		case c == '.':
			if p.pending != 0 {
				return p.errAt("bond symbol before fragment separator")
			}
			p.prev = -1
			p.pos++

		case isBondChar(c):
			if p.prev < 0 {
				return p.errAt("bond symbol before any atom")
			}
			if p.pending != 0 {
				return p.errAt("consecutive bond symbols")
			}
			p.pending = c
			p.pos++

		case c == '%':
			if p.pos+2 >= len(p.src) || !isDigit(p.src[p.pos+1]) || !isDigit(p.src[p.pos+2]) {
				return p.errAt("percent ring closure requires two digits")
			}
			n := int(p.src[p.pos+1]-'0')*10 + int(p.src[p.pos+2]-'0')
			if err := p.ringClosure(n); err != nil {
				return err
			}
			p.pos += 3

		case isDigit(c):
			if err := p.ringClosure(int(c - '0')); err != nil {
				return err
			}
			p.pos++

		case c == '[':
			if err := p.bracketAtom(); err != nil {
				return err
			}

		default:
			if err := p.organicAtom(); err != nil {
				return err
			}
		}
	}
	return nil
}

// errAt builds an invalid-SMILES error annotated with the current position.
func (p *parser) errAt(msg string) *errors.AppError {
	return errors.InvalidSMILES(msg).
		WithDetail(fmt.Sprintf("%s (position %d)", p.src, p.pos))
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isBondChar(c byte) bool {
	switch c {
	case '-', '=', '#', ':', '/', '\\':
		return true
	}
	return false
}

// addAtom appends a new atom and, unless the atom starts a fresh fragment,
// bonds it to the previous one using any pending bond symbol.
func (p *parser) addAtom(a Atom) error {
	idx := len(p.atoms)
	p.atoms = append(p.atoms, a)
	if p.prev >= 0 {
		ch := p.pending
		p.pending = 0
		if err := p.addBond(p.prev, idx, ch); err != nil {
			return err
		}
	}
	p.prev = idx
	return nil
}

// addBond records a bond between two existing atoms. A zero bond character
// means the default: aromatic when both endpoints are aromatic, single
// otherwise.
func (p *parser) addBond(from, to int, ch byte) error {
	key := bondKey(from, to)
	if p.bondSeen[key] {
		return p.errAt("duplicate bond between the same atom pair")
	}
	p.bondSeen[key] = true

	b := Bond{From: from, To: to, Order: BondSingle}
	switch ch {
	case 0:
		if p.atoms[from].Aromatic && p.atoms[to].Aromatic {
			b.Aromatic = true
		}
	case '-', '/', '\\':
	case '=':
		b.Order = BondDouble
	case '#':
		b.Order = BondTriple
	case ':':
		b.Aromatic = true
	}
	p.bonds = append(p.bonds, b)
	return nil
}

func bondKey(i, j int) [2]int {
	if i > j {
		i, j = j, i
	}
	return [2]int{i, j}
}

// ringClosure opens or closes the ring-bond slot for digit n. The bond
// symbol may be written on either side of the pair; conflicting symbols
// are rejected.
func (p *parser) ringClosure(n int) error {
	if p.prev < 0 {
		return p.errAt("ring closure digit before any atom")
	}
	o, isOpen := p.open[n]
	if !isOpen {
		p.open[n] = ringOpen{atom: p.prev, bond: p.pending}
		p.pending = 0
		return nil
	}
	delete(p.open, n)
	if o.atom == p.prev {
		return p.errAt("ring closure bonds an atom to itself")
	}
	ch := p.pending
	p.pending = 0
	if ch == 0 {
		ch = o.bond
	} else if o.bond != 0 && o.bond != ch {
		return p.errAt("conflicting bond symbols on ring closure pair")
	}
	return p.addBond(o.atom, p.prev, ch)
}

// organicAtom parses an unbracketed organic-subset atom at the current
// position. Two-letter symbols (Cl, Br) are matched before single letters.
func (p *parser) organicAtom() error {
	rest := p.src[p.pos:]

	for _, two := range [...]string{"Cl", "Br"} {
		if strings.HasPrefix(rest, two) {
			p.pos += 2
			return p.addAtom(Atom{Element: two, AtomicNum: atomicNumbers[two]})
		}
	}

	c := rest[0]
	if c >= 'A' && c <= 'Z' {
		sym := string(c)
		if !organicSubset[sym] {
			return p.errAt(fmt.Sprintf("element %q must be written in brackets", sym))
		}
		p.pos++
		return p.addAtom(Atom{Element: sym, AtomicNum: atomicNumbers[sym]})
	}
	if base, ok := aromaticSymbols[string(c)]; ok && organicSubset[base] {
		p.pos++
		return p.addAtom(Atom{Element: base, AtomicNum: atomicNumbers[base], Aromatic: true})
	}
	return p.errAt(fmt.Sprintf("unexpected character %q", string(c)))
}

// bracketAtom parses a bracket atom expression of the form
// [isotope? symbol chirality? Hcount? charge?]. The hydrogen count inside
// brackets is authoritative; finalisation never adjusts it.
func (p *parser) bracketAtom() error {
	end := strings.IndexByte(p.src[p.pos:], ']')
	if end < 0 {
		return p.errAt("unclosed bracket atom")
	}
	content := p.src[p.pos+1 : p.pos+end]
	if content == "" {
		return p.errAt("empty bracket atom")
	}

	k := 0

	isotope := 0
	for k < len(content) && isDigit(content[k]) {
		isotope = isotope*10 + int(content[k]-'0')
		k++
	}

	var sym string
	var aromatic bool
	switch {
	case k < len(content) && content[k] >= 'A' && content[k] <= 'Z':
		sym = string(content[k])
		k++
		if k < len(content) && content[k] >= 'a' && content[k] <= 'z' {
			if _, ok := atomicNumbers[sym+string(content[k])]; ok {
				sym += string(content[k])
				k++
			}
		}
	case k < len(content) && content[k] >= 'a' && content[k] <= 'z':
		if k+1 < len(content) {
			if base, ok := aromaticSymbols[content[k:k+2]]; ok {
				sym, aromatic = base, true
				k += 2
			}
		}
		if sym == "" {
			if base, ok := aromaticSymbols[string(content[k])]; ok {
				sym, aromatic = base, true
				k++
			}
		}
	}
	if sym == "" {
		return p.errAt("bracket atom missing element symbol")
	}
	num, known := atomicNumbers[sym]
	if !known {
		return errors.Newf(errors.ErrCodeUnknownElement, "unknown element %q", sym).WithDetail(p.src)
	}

	chiral := false
	for k < len(content) && content[k] == '@' {
		chiral = true
		k++
	}

	hcount := 0
	if k < len(content) && content[k] == 'H' {
		k++
		hcount = 1
		if k < len(content) && isDigit(content[k]) {
			hcount = int(content[k] - '0')
			k++
		}
	}

	charge := 0
	if k < len(content) && (content[k] == '+' || content[k] == '-') {
		sign := 1
		if content[k] == '-' {
			sign = -1
		}
		mark := content[k]
		k++
		n := 1
		if k < len(content) && isDigit(content[k]) {
			n = 0
			for k < len(content) && isDigit(content[k]) {
				n = n*10 + int(content[k]-'0')
				k++
			}
		} else {
			for k < len(content) && content[k] == mark {
				n++
				k++
			}
		}
		charge = sign * n
	}

	if k != len(content) {
		return p.errAt(fmt.Sprintf("unexpected %q in bracket atom", content[k:]))
	}

	p.pos += end + 1
	return p.addAtom(Atom{
		Element:   sym,
		AtomicNum: num,
		Aromatic:  aromatic,
		Charge:    charge,
		Isotope:   isotope,
		ImplicitH: hcount,
		Chiral:    chiral,
		bracket:   true,
	})
}
