package geometry

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/motifchem/geomval/pkg/errors"
)

// RingPlanarityLoss measures how far each ring's atoms deviate from the
// ring's own least-squares best-fit plane, returning the mean squared
// out-of-plane distance over every (ring, atom) pair plus the analytic
// gradient with respect to atom positions.
//
// The plane of a ring is fitted by centering its points on their centroid,
// forming the 3×3 scatter matrix of the centered points, and taking the
// eigenvector of the smallest eigenvalue as the plane normal.  A
// near-degenerate ring (collinear atoms) keeps a finite, typically large,
// loss value: bad geometry is something this term should report, not hide.
//
// The fitted normal minimizes the projected variance of its ring, so its
// sensitivity to the positions does not enter the first-order gradient; each
// ring atom's gradient is simply (2/M)·dₖ·n̂.  The centroid contribution
// cancels because the centered distances of a ring sum to zero.
func RingPlanarityLoss(pos []r3.Vec, rings []Ring) (float64, []r3.Vec, error) {
	natoms := len(pos)
	grad := zeroGradient(natoms)
	if len(rings) == 0 {
		return 0, grad, nil
	}

	total := 0
	var loss float64
	for ri, ring := range rings {
		if len(ring) < 3 {
			return 0, nil, errors.Newf(errors.ErrCodeGeometryDegenerateRing,
				"ring %d has %d atoms; a ring needs at least 3", ri, len(ring))
		}
		for _, idx := range ring {
			if err := checkAtomIndex(idx, natoms, "ring", ri); err != nil {
				return 0, nil, err
			}
		}

		normal, centered, err := fitPlane(pos, ring)
		if err != nil {
			return 0, nil, err
		}

		for k, y := range centered {
			d := r3.Dot(normal, y)
			loss += d * d
			// Scaled by 1/M once the total pair count is known.
			grad[ring[k]] = r3.Add(grad[ring[k]], r3.Scale(2*d, normal))
		}
		total += len(ring)
	}

	invM := 1.0 / float64(total)
	for i := range grad {
		grad[i] = r3.Scale(invM, grad[i])
	}
	return loss * invM, grad, nil
}

// fitPlane returns the unit normal of the least-squares plane through the
// ring's atoms and the centroid-centered copies of those atoms.
func fitPlane(pos []r3.Vec, ring Ring) (r3.Vec, []r3.Vec, error) {
	var centroid r3.Vec
	for _, idx := range ring {
		centroid = r3.Add(centroid, pos[idx])
	}
	centroid = r3.Scale(1/float64(len(ring)), centroid)

	centered := make([]r3.Vec, len(ring))
	var sxx, sxy, sxz, syy, syz, szz float64
	for k, idx := range ring {
		y := r3.Sub(pos[idx], centroid)
		centered[k] = y
		sxx += y.X * y.X
		sxy += y.X * y.Y
		sxz += y.X * y.Z
		syy += y.Y * y.Y
		syz += y.Y * y.Z
		szz += y.Z * y.Z
	}

	scatter := mat.NewSymDense(3, []float64{
		sxx, sxy, sxz,
		sxy, syy, syz,
		sxz, syz, szz,
	})

	var eig mat.EigenSym
	if !eig.Factorize(scatter, true) {
		return r3.Vec{}, nil, errors.Internal("eigendecomposition of ring scatter matrix failed")
	}

	// Eigenvalues come back ascending; the first eigenvector spans the
	// direction of least variance, i.e. the plane normal.
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	normal := r3.Vec{X: vecs.At(0, 0), Y: vecs.At(1, 0), Z: vecs.At(2, 0)}
	return normal, centered, nil
}
