package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/motifchem/geomval/pkg/errors"
)

func TestBondAngleLossEmpty(t *testing.T) {
	pos := []r3.Vec{{}, {X: 1}, {Y: 1}}
	loss, grad, err := BondAngleLoss(pos, nil)
	require.NoError(t, err)
	assert.Zero(t, loss)
	assert.Len(t, grad, 3)
}

func TestBondAngleLossAtTarget(t *testing.T) {
	// Right angle at the vertex, right-angle target.
	pos := []r3.Vec{{X: 1}, {}, {Y: 1}}
	loss, grad, err := BondAngleLoss(pos, []Angle{{I: 0, J: 1, K: 2, Theta: math.Pi / 2}})
	require.NoError(t, err)
	assert.InDelta(t, 0, loss, 1e-10)
	for i := range grad {
		assert.InDelta(t, 0, r3.Norm(grad[i]), 1e-5)
	}
}

func TestBondAngleLossDeviation(t *testing.T) {
	// 90° actual against a 60° target: loss (π/6)².
	pos := []r3.Vec{{X: 1}, {}, {Y: 1}}
	loss, _, err := BondAngleLoss(pos, []Angle{{I: 0, J: 1, K: 2, Theta: math.Pi / 3}})
	require.NoError(t, err)
	want := math.Pi / 6 * math.Pi / 6
	assert.InDelta(t, want, loss, 1e-6)
}

func TestBondAngleLossMeanOverAngles(t *testing.T) {
	pos := []r3.Vec{{X: 1}, {}, {Y: 1}}
	angles := []Angle{
		{I: 0, J: 1, K: 2, Theta: math.Pi / 2}, // dev 0
		{I: 0, J: 1, K: 2, Theta: math.Pi / 3}, // dev π/6
	}
	loss, _, err := BondAngleLoss(pos, angles)
	require.NoError(t, err)
	want := math.Pi / 6 * math.Pi / 6 / 2
	assert.InDelta(t, want, loss, 1e-6)
}

func TestBondAngleLossCollinearFinite(t *testing.T) {
	// Straight chain: angle exactly π.  The clamp keeps the value finite and
	// the gradient zero.
	pos := []r3.Vec{{X: -1}, {}, {X: 1}}
	loss, grad, err := BondAngleLoss(pos, []Angle{{I: 0, J: 1, K: 2, Theta: math.Pi / 2}})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(loss))
	assert.InDelta(t, math.Pi/2*math.Pi/2, loss, 1e-2)
	for i := range grad {
		assert.False(t, math.IsNaN(grad[i].X))
	}
}

func TestBondAngleLossZeroLengthVector(t *testing.T) {
	// Vertex coincides with one arm; epsilon keeps the division finite.
	pos := []r3.Vec{{}, {}, {X: 1}}
	loss, _, err := BondAngleLoss(pos, []Angle{{I: 0, J: 1, K: 2, Theta: math.Pi / 2}})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(loss))
}

func TestBondAngleLossValidation(t *testing.T) {
	pos := []r3.Vec{{X: 1}, {}, {Y: 1}}

	_, _, err := BondAngleLoss(pos, []Angle{{I: 0, J: 1, K: 3, Theta: 1}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGeometryIndexOutOfRange))

	_, _, err = BondAngleLoss(pos, []Angle{{I: 0, J: 1, K: 0, Theta: 1}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	for _, theta := range []float64{-0.1, math.Pi + 0.1} {
		_, _, err = BondAngleLoss(pos, []Angle{{I: 0, J: 1, K: 2, Theta: theta}})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeGeometryInvalidTargetAngle))
	}
}
