package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/motifchem/geomval/pkg/errors"
)

func TestEvaluateMethane(t *testing.T) {
	pos, top := methane()
	res, err := Evaluate(pos, top, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, res.Gradient, 5)

	// Bond lengths and angles are essentially ideal; the only visible
	// contribution is the slight H···H crowding of the compact tetrahedron.
	assert.Less(t, res.Terms.BondLength, 1e-5)
	assert.Less(t, res.Terms.BondAngle, 1e-5)
	assert.Zero(t, res.Terms.RingPlanarity)
	assert.Zero(t, res.Terms.Chirality)
	assert.InDelta(t, 0.00525, res.Terms.StericClash, 1e-4)
	assert.InDelta(t, 0.00105, res.Total, 5e-5)
}

func TestEvaluateDistortionIncreasesLoss(t *testing.T) {
	pos, top := methane()
	base, err := Evaluate(pos, top, DefaultConfig())
	require.NoError(t, err)

	moved := clonePositions(pos)
	moved[1].X += 0.2
	bent, err := Evaluate(moved, top, DefaultConfig())
	require.NoError(t, err)

	assert.Greater(t, bent.Total, base.Total)
	assert.Greater(t, bent.Terms.BondLength, base.Terms.BondLength)
}

func TestEvaluateBenzene(t *testing.T) {
	pos, top := benzene()
	flat, err := Evaluate(pos, top, DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, 0, flat.Terms.RingPlanarity, 1e-12)
	assert.InDelta(t, 0, flat.Terms.BondLength, 1e-12)
	assert.InDelta(t, 0, flat.Terms.BondAngle, 1e-9)

	puckered := clonePositions(pos)
	puckered[0].Z += 0.5
	bent, err := Evaluate(puckered, top, DefaultConfig())
	require.NoError(t, err)
	assert.Positive(t, bent.Terms.RingPlanarity)
	assert.Greater(t, bent.Total, flat.Total)
}

func TestEvaluateRigidMotionInvariance(t *testing.T) {
	pos, top := methane()
	pos[2].Y += 0.15 // break the symmetry so the total is not trivially flat
	base, err := Evaluate(pos, top, DefaultConfig())
	require.NoError(t, err)

	rot := r3.NewRotation(0.7, r3.Vec{X: 1, Y: 2, Z: -0.5})
	shift := r3.Vec{X: 3.2, Y: -1.1, Z: 0.4}
	moved := make([]r3.Vec, len(pos))
	for i, p := range pos {
		moved[i] = r3.Add(rot.Rotate(p), shift)
	}
	same, err := Evaluate(moved, top, DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, base.Total, same.Total, 1e-9)
}

func TestEvaluateReflectionFlipsChirality(t *testing.T) {
	pos, center := rightHanded()
	top := &Topology{
		Chirals: []ChiralCenter{center},
		VDW:     make([]float64, len(pos)),
	}

	res, err := Evaluate(pos, top, DefaultConfig())
	require.NoError(t, err)
	assert.Zero(t, res.Terms.Chirality)

	mirrored := clonePositions(pos)
	for i := range mirrored {
		mirrored[i].Z = -mirrored[i].Z
	}
	flipped, err := Evaluate(mirrored, top, DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, flipped.Terms.Chirality, 1e-12)
	assert.InDelta(t, DefaultWeights().Chirality, flipped.Total, 1e-12)
}

func TestEvaluateWeightedTotal(t *testing.T) {
	pos, top := methane()
	pos[1].X += 0.1

	cfg := DefaultConfig()
	cfg.Weights = Weights{BondLength: 2, BondAngle: 1, StericClash: 0.5}
	res, err := Evaluate(pos, top, cfg)
	require.NoError(t, err)

	want := 2*res.Terms.BondLength + 1*res.Terms.BondAngle + 0.5*res.Terms.StericClash
	assert.InDelta(t, want, res.Total, 1e-12)
}

func TestEvaluateZeroWeightStillReportsTerm(t *testing.T) {
	pos, top := methane()
	cfg := DefaultConfig()
	cfg.Weights.StericClash = 0
	res, err := Evaluate(pos, top, cfg)
	require.NoError(t, err)
	assert.Positive(t, res.Terms.StericClash)
	assert.Less(t, res.Total, 1e-5)
}

func TestEvaluateValidation(t *testing.T) {
	pos, top := methane()

	_, err := Evaluate(nil, top, DefaultConfig())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGeometryEmptyPositions))

	cfg := DefaultConfig()
	cfg.Weights.BondAngle = -1
	_, err = Evaluate(pos, top, cfg)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGeometryInvalidWeight))

	cfg = DefaultConfig()
	cfg.ClashThreshold = 0
	_, err = Evaluate(pos, top, cfg)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGeometryInvalidWeight))
}

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()
	assert.Equal(t, 1.0, w.BondLength)
	assert.Equal(t, 0.5, w.BondAngle)
	assert.Equal(t, 0.3, w.RingPlanarity)
	assert.Equal(t, 0.2, w.StericClash)
	assert.Equal(t, 0.2, w.Chirality)
	assert.Equal(t, 0.75, DefaultClashThreshold)
}
