// Package molecule provides the SMILES identity utility consumed upstream of
// the geometry loss engine: validity checking, canonicalization, and
// same-molecule comparison.  It parses SMILES into a small atom/bond graph,
// derives a canonical atom ordering by iterative neighborhood refinement, and
// regenerates a normalized string from that ordering.
//
// The package deliberately stops short of full cheminformatics: no
// aromaticity perception, no kekulization, no stereo canonicalization.  Two
// SMILES strings compare equal when they describe the same graph in the same
// bond notation, which is exactly what the loss pipeline needs to confirm
// that a caller's topology matches its declared molecule.
package molecule

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// Graph model
// ─────────────────────────────────────────────────────────────────────────────

// BondOrder is the bond multiplicity between two graph atoms.
type BondOrder int

const (
	BondSingle BondOrder = iota + 1
	BondDouble
	BondTriple
	BondAromatic
)

// symbol returns the SMILES notation for the bond, empty for the implicit
// single and aromatic orders.
func (b BondOrder) symbol() string {
	switch b {
	case BondDouble:
		return "="
	case BondTriple:
		return "#"
	default:
		return ""
	}
}

// Atom is one node of the molecular graph.
type Atom struct {
	// Symbol is the element symbol with its canonical capitalization
	// ("Cl", "C"), regardless of aromatic lowercase notation in the input.
	Symbol string

	// Aromatic records lowercase aromatic notation.
	Aromatic bool

	// Charge is the formal charge from bracket notation.
	Charge int

	// HCount is the explicit hydrogen count from bracket notation, -1 when
	// the input left it implicit.
	HCount int

	// Bracket records whether the atom was written in bracket notation.
	Bracket bool
}

// GraphBond is one edge of the molecular graph, stored once per unordered
// atom pair.
type GraphBond struct {
	A, B  int
	Order BondOrder
}

// Graph is a parsed SMILES string: atoms, bonds, and an adjacency index.
type Graph struct {
	Atoms []Atom
	Bonds []GraphBond

	adj [][]int // neighbor atom indices, parallel bond indices below
	inc [][]int
}

// addBond appends an edge and keeps the adjacency index current.
func (g *Graph) addBond(a, b int, order BondOrder) {
	g.Bonds = append(g.Bonds, GraphBond{A: a, B: b, Order: order})
	bi := len(g.Bonds) - 1
	g.adj[a] = append(g.adj[a], b)
	g.adj[b] = append(g.adj[b], a)
	g.inc[a] = append(g.inc[a], bi)
	g.inc[b] = append(g.inc[b], bi)
}

// Neighbors returns the atom indices adjacent to atom i.
func (g *Graph) Neighbors(i int) []int { return g.adj[i] }

// bondBetween returns the order of the bond joining a and b.
func (g *Graph) bondBetween(a, b int) BondOrder {
	for k, n := range g.adj[a] {
		if n == b {
			return g.Bonds[g.inc[a][k]].Order
		}
	}
	return BondSingle
}

// ─────────────────────────────────────────────────────────────────────────────
// Identity operations
// ─────────────────────────────────────────────────────────────────────────────

// IsValid reports whether the string parses as SMILES: balanced parentheses
// and brackets, recognized atom symbols, paired ring closures, and bonds that
// connect two real atoms.
func IsValid(smiles string) bool {
	_, err := ParseSMILES(smiles)
	return err == nil
}

// CanonicalForm returns the canonical rendering of the molecule, or the empty
// string when the input is not valid SMILES.
func CanonicalForm(smiles string) string {
	g, err := ParseSMILES(smiles)
	if err != nil {
		return ""
	}
	return canonicalize(g)
}

// SameMolecule reports whether two SMILES strings denote the same molecular
// graph.  Either input being invalid yields false.
//
// The comparison is graph-level, not chemistry-level: no kekulization is
// performed, so an aromatic ring (c1ccccc1) and its alternating single/double
// rendition (C1=CC=CC=C1) are treated as distinct molecules.  Inputs must use
// the same aromaticity convention to compare equal.
func SameMolecule(a, b string) bool {
	ca := CanonicalForm(a)
	cb := CanonicalForm(b)
	if ca == "" || cb == "" {
		return false
	}
	return ca == cb
}

// InChIKey derives a 27-character InChIKey-shaped identifier by hashing the
// canonical form.  Real InChIKey generation needs the InChI library; the
// hash stands in as a stable equality token.  Empty for invalid input.
func InChIKey(smiles string) string {
	canonical := CanonicalForm(smiles)
	if canonical == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(canonical))
	hexStr := strings.ToUpper(hex.EncodeToString(hash[:]))
	return hexStr[:14] + "-" + hexStr[14:24] + "-" + hexStr[24:25]
}
