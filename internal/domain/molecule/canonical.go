package molecule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// canonicalize renders the graph as a normalized SMILES string.  Atoms are
// ranked by iterative neighborhood refinement seeded with local invariants
// (element, aromaticity, charge, hydrogen count, degree); remaining ties are
// broken one atom at a time followed by re-refinement, which is stable for
// ties between structurally equivalent atoms.  Each connected component is
// written by depth-first traversal from its lowest-ranked atom with neighbors
// visited in rank order, and components are sorted before joining.
func canonicalize(g *Graph) string {
	ranks := canonicalRanks(g)
	parts := make([]string, 0, 4)
	seen := make([]bool, len(g.Atoms))
	for {
		start := -1
		for i := range g.Atoms {
			if !seen[i] && (start == -1 || ranks[i] < ranks[start]) {
				start = i
			}
		}
		if start == -1 {
			break
		}
		w := newComponentWriter(g, ranks)
		parts = append(parts, w.write(start))
		for i, v := range w.visited {
			if v {
				seen[i] = true
			}
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ".")
}

// ─────────────────────────────────────────────────────────────────────────────
// Canonical ranking
// ─────────────────────────────────────────────────────────────────────────────

// canonicalRanks assigns each atom a distinct rank that depends only on the
// graph structure, not on input atom order, up to structural equivalence.
func canonicalRanks(g *Graph) []int {
	n := len(g.Atoms)
	inv := make([]string, n)
	for i, a := range g.Atoms {
		inv[i] = fmt.Sprintf("%s|%t|%t|%d|%d|%d",
			a.Symbol, a.Aromatic, a.Bracket, a.Charge, a.HCount, len(g.adj[i]))
	}
	ranks := rankStrings(inv)

	for distinct(ranks) < n {
		refined := refineRanks(g, ranks)
		if distinct(refined) == distinct(ranks) {
			// Partition is stable but not discrete: split the smallest tied
			// class at its first member and refine again.
			refined = breakTie(g, refined)
		}
		ranks = refined
	}
	return ranks
}

// refineRanks replaces each rank by the combination of the atom's rank and
// its multiset of (bond order, neighbor rank) codes.
func refineRanks(g *Graph, ranks []int) []int {
	next := make([]string, len(ranks))
	for i := range ranks {
		codes := make([]string, len(g.adj[i]))
		for k, j := range g.adj[i] {
			codes[k] = fmt.Sprintf("%d:%06d", g.Bonds[g.inc[i][k]].Order, ranks[j])
		}
		sort.Strings(codes)
		next[i] = fmt.Sprintf("%06d|%s", ranks[i], strings.Join(codes, ","))
	}
	return rankStrings(next)
}

// breakTie doubles the rank scale and lowers the first atom of the lowest
// tied class, making it unique before the next refinement round.
func breakTie(g *Graph, ranks []int) []int {
	counts := make(map[int]int)
	for _, r := range ranks {
		counts[r]++
	}
	tied := -1
	for r, c := range counts {
		if c > 1 && (tied == -1 || r < tied) {
			tied = r
		}
	}
	out := make([]int, len(ranks))
	picked := false
	for i, r := range ranks {
		out[i] = 2*r + 1
		if r == tied && !picked {
			out[i] = 2 * r
			picked = true
		}
	}
	return refineRanks(g, out)
}

// rankStrings maps each string to the index of its value in the sorted set
// of distinct values.
func rankStrings(vals []string) []int {
	uniq := make([]string, len(vals))
	copy(uniq, vals)
	sort.Strings(uniq)
	uniq = dedupe(uniq)

	idx := make(map[string]int, len(uniq))
	for i, v := range uniq {
		idx[v] = i
	}
	ranks := make([]int, len(vals))
	for i, v := range vals {
		ranks[i] = idx[v]
	}
	return ranks
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

func distinct(ranks []int) int {
	set := make(map[int]struct{}, len(ranks))
	for _, r := range ranks {
		set[r] = struct{}{}
	}
	return len(set)
}

// ─────────────────────────────────────────────────────────────────────────────
// SMILES writer
// ─────────────────────────────────────────────────────────────────────────────

// organicOutput lists symbols that may be written without brackets.
var organicOutput = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true, "*": true,
}

// aromaticOutput lists symbols that may be written lowercase without
// brackets.
var aromaticOutput = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
}

type componentWriter struct {
	g       *Graph
	ranks   []int
	visited []bool

	children  [][]int
	ringMarks [][]ringMark
	usedBonds map[int]bool
	nextRing  int
}

type ringMark struct {
	num  int
	bond BondOrder
}

func newComponentWriter(g *Graph, ranks []int) *componentWriter {
	return &componentWriter{
		g:         g,
		ranks:     ranks,
		visited:   make([]bool, len(g.Atoms)),
		children:  make([][]int, len(g.Atoms)),
		ringMarks: make([][]ringMark, len(g.Atoms)),
		usedBonds: make(map[int]bool),
		nextRing:  1,
	}
}

func (w *componentWriter) write(start int) string {
	w.plan(start)
	var sb strings.Builder
	w.emit(&sb, start)
	return sb.String()
}

// plan walks the component once to fix the spanning tree and assign ring
// closure numbers in emission order.
func (w *componentWriter) plan(u int) {
	w.visited[u] = true
	for _, k := range w.neighborOrder(u) {
		v := w.g.adj[u][k]
		bi := w.g.inc[u][k]
		if w.usedBonds[bi] {
			continue
		}
		w.usedBonds[bi] = true
		if w.visited[v] {
			// Back edge: close a ring between u and the ancestor v.
			mark := ringMark{num: w.nextRing, bond: w.g.Bonds[bi].Order}
			w.nextRing++
			w.ringMarks[v] = append(w.ringMarks[v], mark)
			w.ringMarks[u] = append(w.ringMarks[u], mark)
			continue
		}
		w.children[u] = append(w.children[u], v)
		w.plan(v)
	}
}

// neighborOrder returns adjacency slots of u sorted by neighbor rank.
func (w *componentWriter) neighborOrder(u int) []int {
	order := make([]int, len(w.g.adj[u]))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return w.ranks[w.g.adj[u][order[a]]] < w.ranks[w.g.adj[u][order[b]]]
	})
	return order
}

func (w *componentWriter) emit(sb *strings.Builder, u int) {
	sb.WriteString(atomString(w.g.Atoms[u]))
	for _, m := range w.ringMarks[u] {
		sb.WriteString(w.bondString(m.bond, u, u))
		if m.num > 9 {
			sb.WriteByte('%')
		}
		sb.WriteString(strconv.Itoa(m.num))
	}
	for i, v := range w.children[u] {
		bond := w.g.bondBetween(u, v)
		last := i == len(w.children[u])-1
		if !last {
			sb.WriteByte('(')
		}
		sb.WriteString(w.bondString(bond, u, v))
		w.emit(sb, v)
		if !last {
			sb.WriteByte(')')
		}
	}
}

// bondString renders a bond symbol, writing the explicit single-bond dash
// when an implicit bond between two aromatic atoms would read as aromatic.
func (w *componentWriter) bondString(order BondOrder, u, v int) string {
	if order == BondSingle && u != v &&
		w.g.Atoms[u].Aromatic && w.g.Atoms[v].Aromatic {
		return "-"
	}
	return order.symbol()
}

func atomString(a Atom) string {
	sym := a.Symbol
	if a.Aromatic {
		sym = strings.ToLower(sym)
	}

	needBracket := a.Bracket || a.Charge != 0 || a.HCount > 0 ||
		!organicOutput[a.Symbol] || (a.Aromatic && !aromaticOutput[a.Symbol])
	if !needBracket {
		return sym
	}

	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(sym)
	if a.HCount == 1 {
		sb.WriteByte('H')
	} else if a.HCount > 1 {
		sb.WriteByte('H')
		sb.WriteString(strconv.Itoa(a.HCount))
	}
	switch {
	case a.Charge == 1:
		sb.WriteByte('+')
	case a.Charge == -1:
		sb.WriteByte('-')
	case a.Charge > 1:
		sb.WriteByte('+')
		sb.WriteString(strconv.Itoa(a.Charge))
	case a.Charge < -1:
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(-a.Charge))
	}
	sb.WriteByte(']')
	return sb.String()
}
