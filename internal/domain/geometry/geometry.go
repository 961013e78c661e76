// Package geometry implements the differentiable geometry-validation loss for
// candidate 3-D molecular conformers.  Five independent terms — bond length,
// bond angle, ring planarity, steric clash, and chirality — each measure one
// geometric invariant against caller-supplied reference constraints, and a
// weighted aggregator combines them into a single scalar together with its
// analytic gradient with respect to every atom position.
//
// All functions are pure: positions are read, never mutated, and no state
// survives a call.  The gradient is derived by hand for every term, so the
// total is usable directly inside a gradient-descent refinement loop without
// any autodiff machinery.
//
// Topology (which atoms form bonds, angles, rings, chiral centers) is always
// supplied by the caller; this package validates it and fails fast on indices
// that do not reference an existing atom.
package geometry

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/motifchem/geomval/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Constraint types
// ─────────────────────────────────────────────────────────────────────────────

// Bond is a pair of atom indices with an ideal separation distance.
// The pair is unordered: (I, J) and (J, I) describe the same bond.
type Bond struct {
	I, J   int
	Length float64
}

// Angle is an ordered atom-index triple with J as the vertex atom, plus the
// ideal angle Theta in radians within [0, π].
type Angle struct {
	I, J, K int
	Theta   float64
}

// Ring is an ordered cycle of at least three atom indices.  Cycle order is
// irrelevant for the planarity fit.
type Ring []int

// ChiralCenter fixes the handedness of a tetrahedral center.  Neighbors must
// contain exactly four atom indices; their order encodes the reference
// handedness convention (positive signed volume of the first three difference
// vectors = correct).
type ChiralCenter struct {
	Center    int
	Neighbors []int
}

// Topology bundles every constraint set for one evaluation.  Rings and
// Chirals may be empty; Bonds, Angles, and VDW describe the molecule itself.
type Topology struct {
	Bonds   []Bond
	Angles  []Angle
	Rings   []Ring
	Chirals []ChiralCenter

	// VDW holds one non-negative van der Waals radius per atom index.
	// Used only by the steric clash term.
	VDW []float64
}

// ─────────────────────────────────────────────────────────────────────────────
// Evaluation configuration
// ─────────────────────────────────────────────────────────────────────────────

// Weights holds the non-negative multiplier applied to each term when the
// aggregator sums them.
type Weights struct {
	BondLength    float64
	BondAngle     float64
	RingPlanarity float64
	StericClash   float64
	Chirality     float64
}

// DefaultWeights returns the standard term weighting.
func DefaultWeights() Weights {
	return Weights{
		BondLength:    1.0,
		BondAngle:     0.5,
		RingPlanarity: 0.3,
		StericClash:   0.2,
		Chirality:     0.2,
	}
}

// DefaultClashThreshold scales the sum of two van der Waals radii to obtain
// the minimum allowed non-bonded separation.
const DefaultClashThreshold = 0.75

// angleEpsilon guards the normalized-dot-product denominator in the bond
// angle term against zero-length difference vectors.
const angleEpsilon = 1e-6

// Config carries the tunables of one evaluation.
type Config struct {
	Weights        Weights
	ClashThreshold float64
}

// DefaultConfig returns the standard evaluation configuration.
func DefaultConfig() Config {
	return Config{
		Weights:        DefaultWeights(),
		ClashThreshold: DefaultClashThreshold,
	}
}

// validate rejects negative weights and non-positive clash thresholds.
func (c Config) validate() error {
	for _, w := range []struct {
		name string
		val  float64
	}{
		{"bond_length", c.Weights.BondLength},
		{"bond_angle", c.Weights.BondAngle},
		{"ring_planarity", c.Weights.RingPlanarity},
		{"steric_clash", c.Weights.StericClash},
		{"chirality", c.Weights.Chirality},
	} {
		if w.val < 0 {
			return errors.Newf(errors.ErrCodeGeometryInvalidWeight,
				"weight %s must be non-negative, got %g", w.name, w.val)
		}
	}
	if c.ClashThreshold <= 0 {
		return errors.Newf(errors.ErrCodeGeometryInvalidWeight,
			"clash threshold must be positive, got %g", c.ClashThreshold)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Result
// ─────────────────────────────────────────────────────────────────────────────

// TermValues holds the raw (unweighted) value of each loss term.
type TermValues struct {
	BondLength    float64 `json:"bond_length"`
	BondAngle     float64 `json:"bond_angle"`
	RingPlanarity float64 `json:"ring_planarity"`
	StericClash   float64 `json:"steric_clash"`
	Chirality     float64 `json:"chirality"`
}

// Result is the outcome of one loss evaluation: the weighted total, the raw
// per-term values, and ∂total/∂position for every atom.
type Result struct {
	Total    float64
	Terms    TermValues
	Gradient []r3.Vec
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared validation helpers
// ─────────────────────────────────────────────────────────────────────────────

// checkAtomIndex verifies that idx addresses an existing atom.  The
// constraint kind and ordinal are carried in the error so the caller can
// locate the offending entry in its topology construction.
func checkAtomIndex(idx, natoms int, kind string, ordinal int) error {
	if idx < 0 || idx >= natoms {
		return errors.Newf(errors.ErrCodeGeometryIndexOutOfRange,
			"%s %d references atom %d but only %d atoms were supplied",
			kind, ordinal, idx, natoms)
	}
	return nil
}

// zeroGradient returns an all-zero gradient of the given atom count.
func zeroGradient(natoms int) []r3.Vec {
	return make([]r3.Vec, natoms)
}
