package molecule

import (
	"regexp"
	"strings"

	"github.com/motifchem/geomval/pkg/errors"
)

// validSMILESChars is the allowed character set for SMILES notation.  The
// parser below enforces the grammar; this is the cheap first gate.
var validSMILESChars = regexp.MustCompile(`^[A-Za-z0-9@+\-\[\]()=#:/\\%.*]+$`)

// validElements lists the element symbols the parser accepts inside bracket
// atoms, keyed by canonical capitalization.
var validElements = map[string]bool{
	"H": true, "He": true, "Li": true, "Be": true, "B": true, "C": true,
	"N": true, "O": true, "F": true, "Ne": true, "Na": true, "Mg": true,
	"Al": true, "Si": true, "P": true, "S": true, "Cl": true, "Ar": true,
	"K": true, "Ca": true, "Ti": true, "Cr": true, "Mn": true, "Fe": true,
	"Co": true, "Ni": true, "Cu": true, "Zn": true, "Ga": true, "Ge": true,
	"As": true, "Se": true, "Br": true, "Kr": true, "Rb": true, "Sr": true,
	"Mo": true, "Ru": true, "Rh": true, "Pd": true, "Ag": true, "Cd": true,
	"In": true, "Sn": true, "Sb": true, "Te": true, "I": true, "Xe": true,
	"Cs": true, "Ba": true, "W": true, "Re": true, "Os": true, "Ir": true,
	"Pt": true, "Au": true, "Hg": true, "Tl": true, "Pb": true, "Bi": true,
	"*": true,
}

// aromaticSymbols lists the elements that may appear in lowercase aromatic
// notation.
var aromaticSymbols = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"Se": true, "As": true,
}

type ringRef struct {
	atom int
	bond BondOrder // 0 when the opening side left the bond implicit
}

// ParseSMILES parses a SMILES string into a molecular graph.  The grammar
// covered is the organic subset plus bracket atoms (isotope, chirality marks,
// explicit hydrogens, formal charge), branches, ring closures including the
// %nn form, and dot-separated components.  Directional bond marks are read
// as single bonds; cis/trans information is not retained.
func ParseSMILES(smiles string) (*Graph, error) {
	smiles = strings.TrimSpace(smiles)
	if smiles == "" {
		return nil, errors.New(errors.ErrCodeMoleculeInvalidSMILES, "SMILES string is empty")
	}
	if !validSMILESChars.MatchString(smiles) {
		return nil, errors.Newf(errors.ErrCodeMoleculeInvalidSMILES,
			"SMILES contains characters outside the notation alphabet: %q", smiles)
	}

	g := &Graph{}
	prev := -1
	var branches []int
	var pending BondOrder
	rings := make(map[int]ringRef)

	attach := func(a Atom) error {
		if prev < 0 && pending != 0 {
			return errors.New(errors.ErrCodeMoleculeInvalidSMILES,
				"bond symbol before the first atom of a component")
		}
		g.Atoms = append(g.Atoms, a)
		g.adj = append(g.adj, nil)
		g.inc = append(g.inc, nil)
		idx := len(g.Atoms) - 1
		if prev >= 0 {
			g.addBond(prev, idx, resolveBond(pending, g.Atoms[prev], a))
		}
		prev = idx
		pending = 0
		return nil
	}

	i := 0
	for i < len(smiles) {
		c := smiles[i]
		switch {
		case c == '(':
			if prev < 0 {
				return nil, errors.New(errors.ErrCodeMoleculeInvalidSMILES,
					"branch opened before any atom")
			}
			branches = append(branches, prev)
			i++

		case c == ')':
			if len(branches) == 0 {
				return nil, errors.New(errors.ErrCodeMoleculeInvalidSMILES,
					"unmatched closing parenthesis")
			}
			if pending != 0 {
				return nil, errors.New(errors.ErrCodeMoleculeInvalidSMILES,
					"bond symbol dangling at branch close")
			}
			prev = branches[len(branches)-1]
			branches = branches[:len(branches)-1]
			i++

		case c == '-' || c == '/' || c == '\\':
			pending = BondSingle
			i++
		case c == '=':
			pending = BondDouble
			i++
		case c == '#':
			pending = BondTriple
			i++
		case c == ':':
			pending = BondAromatic
			i++

		case c == '.':
			if pending != 0 {
				return nil, errors.New(errors.ErrCodeMoleculeInvalidSMILES,
					"bond symbol before component separator")
			}
			prev = -1
			i++

		case c == '%' || (c >= '0' && c <= '9'):
			num, width, err := readRingNumber(smiles, i)
			if err != nil {
				return nil, err
			}
			if prev < 0 {
				return nil, errors.New(errors.ErrCodeMoleculeInvalidSMILES,
					"ring closure before any atom")
			}
			if ref, open := rings[num]; open {
				if ref.atom == prev {
					return nil, errors.Newf(errors.ErrCodeMoleculeInvalidSMILES,
						"ring closure %d bonds atom to itself", num)
				}
				order, err := mergeRingBonds(num, ref.bond, pending)
				if err != nil {
					return nil, err
				}
				if order == 0 {
					order = resolveBond(0, g.Atoms[ref.atom], g.Atoms[prev])
				}
				g.addBond(ref.atom, prev, order)
				delete(rings, num)
			} else {
				rings[num] = ringRef{atom: prev, bond: pending}
			}
			pending = 0
			i += width

		case c == '[':
			atom, width, err := parseBracketAtom(smiles[i:])
			if err != nil {
				return nil, err
			}
			if err := attach(atom); err != nil {
				return nil, err
			}
			i += width

		default:
			atom, width, err := parseOrganicAtom(smiles[i:])
			if err != nil {
				return nil, err
			}
			if err := attach(atom); err != nil {
				return nil, err
			}
			i += width
		}
	}

	if len(branches) != 0 {
		return nil, errors.New(errors.ErrCodeMoleculeInvalidSMILES,
			"unclosed branch parenthesis")
	}
	if pending != 0 {
		return nil, errors.New(errors.ErrCodeMoleculeInvalidSMILES,
			"bond symbol dangling at end of string")
	}
	if len(rings) != 0 {
		return nil, errors.New(errors.ErrCodeMoleculeInvalidSMILES,
			"unpaired ring closure digit")
	}
	if len(g.Atoms) == 0 {
		return nil, errors.New(errors.ErrCodeMoleculeInvalidSMILES, "no atoms in SMILES")
	}
	return g, nil
}

// resolveBond picks the bond order joining two atoms: the explicit symbol if
// one was written, otherwise aromatic between two aromatic atoms and single
// everywhere else.
func resolveBond(pending BondOrder, a, b Atom) BondOrder {
	if pending != 0 {
		return pending
	}
	if a.Aromatic && b.Aromatic {
		return BondAromatic
	}
	return BondSingle
}

// mergeRingBonds reconciles bond symbols written at the two ends of a ring
// closure.  Zero means both ends left the bond implicit.
func mergeRingBonds(num int, open, close BondOrder) (BondOrder, error) {
	if open != 0 && close != 0 && open != close {
		return 0, errors.Newf(errors.ErrCodeMoleculeInvalidSMILES,
			"ring closure %d has conflicting bond symbols", num)
	}
	if open != 0 {
		return open, nil
	}
	return close, nil
}

// readRingNumber reads a one-digit ring closure label or the %nn two-digit
// form, returning the label and consumed width.
func readRingNumber(s string, i int) (int, int, error) {
	if s[i] != '%' {
		return int(s[i] - '0'), 1, nil
	}
	if i+2 >= len(s) || !isDigit(s[i+1]) || !isDigit(s[i+2]) {
		return 0, 0, errors.New(errors.ErrCodeMoleculeInvalidSMILES,
			"percent ring closure needs two digits")
	}
	return int(s[i+1]-'0')*10 + int(s[i+2]-'0'), 3, nil
}

// parseOrganicAtom reads an organic-subset atom written without brackets.
func parseOrganicAtom(s string) (Atom, int, error) {
	// Two-letter symbols first so Cl does not read as C.
	if len(s) >= 2 && (s[:2] == "Cl" || s[:2] == "Br") {
		return Atom{Symbol: s[:2], HCount: -1}, 2, nil
	}
	c := s[0]
	switch c {
	case 'B', 'C', 'N', 'O', 'P', 'S', 'F', 'I', '*':
		return Atom{Symbol: string(c), HCount: -1}, 1, nil
	case 'b', 'c', 'n', 'o', 'p', 's':
		return Atom{Symbol: strings.ToUpper(string(c)), Aromatic: true, HCount: -1}, 1, nil
	}
	return Atom{}, 0, errors.Newf(errors.ErrCodeMoleculeInvalidSMILES,
		"symbol %q must be written in brackets or is not an element", string(c))
}

// parseBracketAtom reads a full bracket atom expression starting at '['.
func parseBracketAtom(s string) (Atom, int, error) {
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return Atom{}, 0, errors.New(errors.ErrCodeMoleculeInvalidSMILES,
			"unclosed bracket atom")
	}
	body := s[1:end]
	width := end + 1

	j := 0
	// Isotope prefix is accepted and discarded.
	for j < len(body) && isDigit(body[j]) {
		j++
	}
	if j == len(body) {
		return Atom{}, 0, errors.New(errors.ErrCodeMoleculeInvalidSMILES,
			"bracket atom has no element symbol")
	}

	atom := Atom{Bracket: true, HCount: 0}
	switch {
	case body[j] == '*':
		atom.Symbol = "*"
		j++
	case body[j] >= 'A' && body[j] <= 'Z':
		sym := string(body[j])
		j++
		if j < len(body) && body[j] >= 'a' && body[j] <= 'z' && validElements[sym+string(body[j])] {
			sym += string(body[j])
			j++
		}
		if !validElements[sym] {
			return Atom{}, 0, errors.Newf(errors.ErrCodeMoleculeInvalidSMILES,
				"unknown element symbol %q", sym)
		}
		atom.Symbol = sym
	case body[j] >= 'a' && body[j] <= 'z':
		sym := strings.ToUpper(string(body[j]))
		j++
		if j < len(body) && body[j] >= 'a' && body[j] <= 'z' && aromaticSymbols[sym+string(body[j])] {
			sym += string(body[j])
			j++
		}
		if !aromaticSymbols[sym] {
			return Atom{}, 0, errors.Newf(errors.ErrCodeMoleculeInvalidSMILES,
				"element %q cannot be aromatic", sym)
		}
		atom.Symbol = sym
		atom.Aromatic = true
	default:
		return Atom{}, 0, errors.Newf(errors.ErrCodeMoleculeInvalidSMILES,
			"unexpected %q in bracket atom", string(body[j]))
	}

	// Chirality marks are accepted and discarded.
	for j < len(body) && body[j] == '@' {
		j++
	}

	if j < len(body) && body[j] == 'H' {
		j++
		atom.HCount = 1
		n := 0
		for j < len(body) && isDigit(body[j]) {
			n = n*10 + int(body[j]-'0')
			j++
		}
		if n > 0 {
			atom.HCount = n
		}
	}

	if j < len(body) && (body[j] == '+' || body[j] == '-') {
		sign := 1
		if body[j] == '-' {
			sign = -1
		}
		mark := body[j]
		count := 0
		for j < len(body) && body[j] == mark {
			count++
			j++
		}
		n := 0
		for j < len(body) && isDigit(body[j]) {
			n = n*10 + int(body[j]-'0')
			j++
		}
		if n > 0 {
			count = n
		}
		atom.Charge = sign * count
	}

	if j != len(body) {
		return Atom{}, 0, errors.Newf(errors.ErrCodeMoleculeInvalidSMILES,
			"trailing %q in bracket atom", body[j:])
	}
	return atom, width, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
