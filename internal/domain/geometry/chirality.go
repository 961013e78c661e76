package geometry

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/motifchem/geomval/pkg/errors"
)

// ChiralityLoss penalizes tetrahedral centers whose spatial handedness is the
// mirror image of the reference handedness encoded by the neighbor ordering.
// For each center the signed volume v₁·(v₂×v₃) of the first three
// center-to-neighbor vectors is computed; a positive volume matches the
// reference and contributes nothing, a negative volume contributes its
// magnitude.  Contributions are summed, not averaged: two inverted centers
// are twice as wrong as one.
//
// The penalty max(0, −vol) is piecewise linear in the signed volume with a
// kink at zero.  At the kink the subgradient zero is used; everywhere else
// the gradient is exact, with the center atom receiving the negated sum of
// the three neighbor gradients so the term is translation invariant.
func ChiralityLoss(pos []r3.Vec, centers []ChiralCenter) (float64, []r3.Vec, error) {
	natoms := len(pos)
	grad := zeroGradient(natoms)
	if len(centers) == 0 {
		return 0, grad, nil
	}

	for i, c := range centers {
		if len(c.Neighbors) != 4 {
			return 0, nil, errors.Newf(errors.ErrCodeGeometryChiralNeighbors,
				"chiral center %d has %d neighbors; a tetrahedral center needs exactly 4",
				i, len(c.Neighbors))
		}
		if err := checkAtomIndex(c.Center, natoms, "chiral center", i); err != nil {
			return 0, nil, err
		}
		for _, n := range c.Neighbors {
			if err := checkAtomIndex(n, natoms, "chiral center", i); err != nil {
				return 0, nil, err
			}
		}
	}

	var loss float64
	for _, c := range centers {
		ctr := pos[c.Center]
		v1 := r3.Sub(pos[c.Neighbors[0]], ctr)
		v2 := r3.Sub(pos[c.Neighbors[1]], ctr)
		v3 := r3.Sub(pos[c.Neighbors[2]], ctr)

		vol := r3.Dot(v1, r3.Cross(v2, v3))
		if vol >= 0 {
			continue
		}
		loss += -vol

		// ∂vol/∂n₁ = v₂×v₃ and cyclic; penalty is −vol here, so negate.
		g1 := r3.Scale(-1, r3.Cross(v2, v3))
		g2 := r3.Scale(-1, r3.Cross(v3, v1))
		g3 := r3.Scale(-1, r3.Cross(v1, v2))

		grad[c.Neighbors[0]] = r3.Add(grad[c.Neighbors[0]], g1)
		grad[c.Neighbors[1]] = r3.Add(grad[c.Neighbors[1]], g2)
		grad[c.Neighbors[2]] = r3.Add(grad[c.Neighbors[2]], g3)
		grad[c.Center] = r3.Sub(grad[c.Center], r3.Add(r3.Add(g1, g2), g3))
	}
	return loss, grad, nil
}
