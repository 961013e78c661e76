package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/motifchem/geomval/pkg/errors"
)

func TestRingPlanarityLossNoRings(t *testing.T) {
	pos := []r3.Vec{{}, {X: 1}, {Y: 1}}
	loss, grad, err := RingPlanarityLoss(pos, nil)
	require.NoError(t, err)
	assert.Zero(t, loss)
	assert.Len(t, grad, 3)
}

func TestRingPlanarityLossFlatRing(t *testing.T) {
	pos, _ := benzene()
	loss, grad, err := RingPlanarityLoss(pos, []Ring{{0, 1, 2, 3, 4, 5}})
	require.NoError(t, err)
	assert.InDelta(t, 0, loss, 1e-12)
	for i := range grad {
		assert.InDelta(t, 0, r3.Norm(grad[i]), 1e-9)
	}
}

func TestRingPlanarityLossPuckeredRing(t *testing.T) {
	pos, _ := benzene()
	pos[0].Z += 0.5
	loss, grad, err := RingPlanarityLoss(pos, []Ring{{0, 1, 2, 3, 4, 5}})
	require.NoError(t, err)
	assert.Positive(t, loss)

	// The lifted atom is pushed back toward the plane.
	assert.NotZero(t, grad[0].Z)
	// Atoms outside the ring are untouched.
	assert.Equal(t, r3.Vec{}, grad[6])
}

func TestRingPlanarityLossSingleLiftedSquare(t *testing.T) {
	// Unit square with one corner lifted by h.  The best-fit plane tilts, so
	// the loss is strictly below the naive h²·3/16 of the z=h/4 plane but
	// still positive.
	pos := []r3.Vec{
		{}, {X: 1}, {X: 1, Y: 1}, {Y: 1, Z: 0.2},
	}
	loss, _, err := RingPlanarityLoss(pos, []Ring{{0, 1, 2, 3}})
	require.NoError(t, err)
	assert.Positive(t, loss)
	assert.Less(t, loss, 0.2*0.2*3.0/16.0+1e-9)
}

func TestRingPlanarityLossMeanOverAllRingAtoms(t *testing.T) {
	// One flat triangle and one puckered square: the mean runs over all
	// seven (ring, atom) pairs, so adding the flat ring dilutes the loss.
	pos := []r3.Vec{
		{}, {X: 1}, {X: 1, Y: 1}, {Y: 1, Z: 0.3},
		{X: 3}, {X: 4}, {X: 3.5, Y: 1},
	}
	both, _, err := RingPlanarityLoss(pos, []Ring{{0, 1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	alone, _, err := RingPlanarityLoss(pos, []Ring{{0, 1, 2, 3}})
	require.NoError(t, err)

	assert.Positive(t, both)
	assert.InDelta(t, alone*4.0/7.0, both, 1e-12)
}

func TestRingPlanarityLossValidation(t *testing.T) {
	pos := []r3.Vec{{}, {X: 1}, {Y: 1}}

	_, _, err := RingPlanarityLoss(pos, []Ring{{0, 1}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGeometryDegenerateRing))

	_, _, err = RingPlanarityLoss(pos, []Ring{{0, 1, 5}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGeometryIndexOutOfRange))
}
