package geometry

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// BondLengthLoss returns the mean squared deviation between each bond's
// actual Euclidean distance and its target length, together with the analytic
// gradient with respect to every atom position.
//
// The distance function is smooth everywhere except at zero separation, where
// its gradient is undefined.  That singularity is not guarded: physically
// bonded atoms never coincide, and a conformer that places them on top of
// each other is already beyond repair by gradient steps.
//
// An empty bond set contributes zero.  Any bond index outside [0, len(pos))
// fails fast with a descriptive error naming the bond.
func BondLengthLoss(pos []r3.Vec, bonds []Bond) (float64, []r3.Vec, error) {
	natoms := len(pos)
	grad := zeroGradient(natoms)
	if len(bonds) == 0 {
		return 0, grad, nil
	}

	for i, b := range bonds {
		if err := checkAtomIndex(b.I, natoms, "bond", i); err != nil {
			return 0, nil, err
		}
		if err := checkAtomIndex(b.J, natoms, "bond", i); err != nil {
			return 0, nil, err
		}
	}

	inv := 1.0 / float64(len(bonds))
	var loss float64
	for _, b := range bonds {
		diff := r3.Sub(pos[b.I], pos[b.J])
		d := r3.Norm(diff)
		dev := d - b.Length
		loss += dev * dev

		if d == 0 {
			// Gradient of |x| is undefined at the origin; leave it zero.
			continue
		}
		// ∂/∂xᵢ mean (d−t)² = (2/B)(d−t)·(xᵢ−xⱼ)/d, negated for xⱼ.
		g := r3.Scale(2*inv*dev/d, diff)
		grad[b.I] = r3.Add(grad[b.I], g)
		grad[b.J] = r3.Sub(grad[b.J], g)
	}
	return loss * inv, grad, nil
}
