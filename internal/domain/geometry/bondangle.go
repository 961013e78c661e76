package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/motifchem/geomval/pkg/errors"
)

// BondAngleLoss returns the mean squared deviation between each constrained
// three-atom angle and its target, with the analytic gradient with respect to
// every atom position.
//
// For each triple (I, J, K) the angle at the vertex J is recovered from the
// cosine of the two difference vectors.  The cosine is clamped to [-1, 1]
// before the inverse cosine so floating-point overshoot can never produce a
// NaN, and a small epsilon is added to the product of the vector norms so a
// degenerate zero-length vector yields a finite value instead of a division
// by zero.  Inside the clamped region the gradient is exact; at a clamped or
// exactly-degenerate configuration the local gradient is zero, matching the
// flat sections of the clamp.
func BondAngleLoss(pos []r3.Vec, angles []Angle) (float64, []r3.Vec, error) {
	natoms := len(pos)
	grad := zeroGradient(natoms)
	if len(angles) == 0 {
		return 0, grad, nil
	}

	for i, a := range angles {
		if err := checkAtomIndex(a.I, natoms, "angle", i); err != nil {
			return 0, nil, err
		}
		if err := checkAtomIndex(a.J, natoms, "angle", i); err != nil {
			return 0, nil, err
		}
		if err := checkAtomIndex(a.K, natoms, "angle", i); err != nil {
			return 0, nil, err
		}
		if a.I == a.J || a.J == a.K || a.I == a.K {
			return 0, nil, errors.Newf(errors.ErrCodeValidation,
				"angle %d: atom indices (%d, %d, %d) must be distinct", i, a.I, a.J, a.K)
		}
		if a.Theta < 0 || a.Theta > math.Pi {
			return 0, nil, errors.Newf(errors.ErrCodeGeometryInvalidTargetAngle,
				"angle %d: target %g rad outside [0, π]", i, a.Theta)
		}
	}

	inv := 1.0 / float64(len(angles))
	var loss float64
	for _, ang := range angles {
		va := r3.Sub(pos[ang.I], pos[ang.J])
		vb := r3.Sub(pos[ang.K], pos[ang.J])
		na := r3.Norm(va)
		nb := r3.Norm(vb)

		denom := na*nb + angleEpsilon
		cos := r3.Dot(va, vb) / denom
		clamped := math.Max(-1, math.Min(1, cos))
		theta := math.Acos(clamped)
		dev := theta - ang.Theta
		loss += dev * dev

		// Clamped or degenerate configurations sit on a flat section of the
		// clamp, so their local gradient is zero.
		if cos <= -1 || cos >= 1 || na == 0 || nb == 0 {
			continue
		}
		sinSq := 1 - clamped*clamped
		if sinSq < 1e-12 {
			continue
		}

		// dθ/dcos = −1/√(1−cos²); chain through cos = (a·b)/(|a||b|+ε).
		coeff := -2 * inv * dev / math.Sqrt(sinSq)
		dot := r3.Dot(va, vb)
		ga := r3.Sub(r3.Scale(1/denom, vb), r3.Scale(dot*nb/(na*denom*denom), va))
		gb := r3.Sub(r3.Scale(1/denom, va), r3.Scale(dot*na/(nb*denom*denom), vb))

		gi := r3.Scale(coeff, ga)
		gk := r3.Scale(coeff, gb)
		grad[ang.I] = r3.Add(grad[ang.I], gi)
		grad[ang.K] = r3.Add(grad[ang.K], gk)
		grad[ang.J] = r3.Sub(grad[ang.J], r3.Add(gi, gk))
	}
	return loss * inv, grad, nil
}
