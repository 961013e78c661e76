package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// methane builds a near-ideal CH₄ conformer: carbon at the origin, four
// hydrogens on alternating cube corners at ±0.629 Å.  The C–H distance is
// 0.629·√3 ≈ 1.0895 against a 1.09 target and all six H–C–H angles are
// tetrahedral, so every term is close to, but not exactly, zero.
func methane() ([]r3.Vec, *Topology) {
	const s = 0.629
	pos := []r3.Vec{
		{},
		{X: s, Y: s, Z: s},
		{X: s, Y: -s, Z: -s},
		{X: -s, Y: s, Z: -s},
		{X: -s, Y: -s, Z: s},
	}

	top := &Topology{
		Bonds: []Bond{
			{I: 0, J: 1, Length: 1.09},
			{I: 0, J: 2, Length: 1.09},
			{I: 0, J: 3, Length: 1.09},
			{I: 0, J: 4, Length: 1.09},
		},
		VDW: []float64{1.70, 1.20, 1.20, 1.20, 1.20},
	}
	tetrahedral := math.Acos(-1.0 / 3.0)
	for i := 1; i <= 4; i++ {
		for j := i + 1; j <= 4; j++ {
			top.Angles = append(top.Angles, Angle{I: i, J: 0, K: j, Theta: tetrahedral})
		}
	}
	return pos, top
}

// benzene builds an idealized flat C₆H₆: carbons on a hexagon of radius
// 1.40 Å, hydrogens radially outward at 2.49 Å.  Bond targets and the 120°
// angle targets are exact for this layout, so only the steric clash term is
// nonzero on the undistorted conformer.
func benzene() ([]r3.Vec, *Topology) {
	pos := make([]r3.Vec, 12)
	for k := 0; k < 6; k++ {
		theta := float64(k) * math.Pi / 3
		pos[k] = r3.Vec{X: 1.40 * math.Cos(theta), Y: 1.40 * math.Sin(theta)}
		pos[k+6] = r3.Vec{X: 2.49 * math.Cos(theta), Y: 2.49 * math.Sin(theta)}
	}

	top := &Topology{
		Rings: []Ring{{0, 1, 2, 3, 4, 5}},
		VDW:   make([]float64, 12),
	}
	for k := 0; k < 6; k++ {
		top.VDW[k] = 1.70
		top.VDW[k+6] = 1.20
		next := (k + 1) % 6
		prev := (k + 5) % 6
		top.Bonds = append(top.Bonds,
			Bond{I: k, J: next, Length: 1.40},
			Bond{I: k, J: k + 6, Length: 1.09},
		)
		top.Angles = append(top.Angles,
			Angle{I: prev, J: k, K: next, Theta: 2 * math.Pi / 3},
			Angle{I: prev, J: k, K: k + 6, Theta: 2 * math.Pi / 3},
			Angle{I: next, J: k, K: k + 6, Theta: 2 * math.Pi / 3},
		)
	}
	return pos, top
}

func clonePositions(pos []r3.Vec) []r3.Vec {
	out := make([]r3.Vec, len(pos))
	copy(out, pos)
	return out
}
