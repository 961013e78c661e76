package geometry

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/motifchem/geomval/pkg/errors"
)

// StericClashLoss penalizes non-bonded atom pairs that sit closer than the
// minimum allowed separation threshold × (rᵢ + rⱼ), where r are the per-atom
// van der Waals radii.  Each violating pair contributes the square of its
// clash magnitude max(0, allowed − actual); the full pairwise matrix
// semantics are kept, so every unordered pair counts once per direction.
// The gradient with respect to both atoms of each clashing pair is returned
// alongside the scalar.
//
// The check is an exhaustive O(N²) sweep over all atom pairs.  That is the
// point of the term: its value lies in missing nothing, and molecule-scale
// atom counts (tens to low thousands) keep the sweep cheap.  Do not replace
// it with a neighbor-list approximation.
//
// excluded lists the bonded pairs, which are intentionally close and must
// never be counted as clashes; the exclusion applies to both orientations of
// each pair.  Self-pairs are never considered.
func StericClashLoss(pos []r3.Vec, radii []float64, excluded []Bond, threshold float64) (float64, []r3.Vec, error) {
	natoms := len(pos)
	if len(radii) != natoms {
		return 0, nil, errors.Newf(errors.ErrCodeGeometryDimensionMismatch,
			"van der Waals table has %d entries for %d atoms", len(radii), natoms)
	}
	for i, r := range radii {
		if r < 0 {
			return 0, nil, errors.Newf(errors.ErrCodeGeometryDimensionMismatch,
				"van der Waals radius for atom %d is negative (%g)", i, r)
		}
	}
	if threshold <= 0 {
		return 0, nil, errors.Newf(errors.ErrCodeGeometryInvalidWeight,
			"clash threshold must be positive, got %g", threshold)
	}

	skip := make(map[[2]int]struct{}, len(excluded))
	for i, b := range excluded {
		if err := checkAtomIndex(b.I, natoms, "exclusion", i); err != nil {
			return 0, nil, err
		}
		if err := checkAtomIndex(b.J, natoms, "exclusion", i); err != nil {
			return 0, nil, err
		}
		skip[pairKey(b.I, b.J)] = struct{}{}
	}

	grad := zeroGradient(natoms)
	var loss float64
	for i := 0; i < natoms; i++ {
		for j := i + 1; j < natoms; j++ {
			if _, ok := skip[pairKey(i, j)]; ok {
				continue
			}
			diff := r3.Sub(pos[i], pos[j])
			d := r3.Norm(diff)
			v := threshold*(radii[i]+radii[j]) - d
			if v <= 0 {
				continue
			}
			// Factor 2: the pair appears in both halves of the full matrix.
			loss += 2 * v * v
			if d == 0 {
				// Coincident atoms: distance gradient undefined, magnitude
				// still counted.
				continue
			}
			g := r3.Scale(-4*v/d, diff)
			grad[i] = r3.Add(grad[i], g)
			grad[j] = r3.Sub(grad[j], g)
		}
	}
	return loss, grad, nil
}

// pairKey normalizes an unordered atom pair for exclusion lookup.
func pairKey(i, j int) [2]int {
	if i > j {
		return [2]int{j, i}
	}
	return [2]int{i, j}
}
