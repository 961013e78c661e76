package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/motifchem/geomval/pkg/errors"
)

// rightHanded places a center at the origin with the first three neighbors on
// the positive axes, giving signed volume +1, plus a fourth neighbor kept out
// of the volume computation.
func rightHanded() ([]r3.Vec, ChiralCenter) {
	pos := []r3.Vec{
		{},
		{X: 1},
		{Y: 1},
		{Z: 1},
		{X: -1, Y: -1, Z: -1},
	}
	return pos, ChiralCenter{Center: 0, Neighbors: []int{1, 2, 3, 4}}
}

func TestChiralityLossCorrectHandedness(t *testing.T) {
	pos, center := rightHanded()
	loss, grad, err := ChiralityLoss(pos, []ChiralCenter{center})
	require.NoError(t, err)
	assert.Zero(t, loss)
	for i := range grad {
		assert.Equal(t, r3.Vec{}, grad[i])
	}
}

func TestChiralityLossInvertedCenter(t *testing.T) {
	pos, center := rightHanded()
	for i := range pos {
		pos[i].Z = -pos[i].Z
	}
	loss, grad, err := ChiralityLoss(pos, []ChiralCenter{center})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, loss, 1e-12)

	// Translation invariance: per-center gradients sum to zero.
	var sum r3.Vec
	for i := range grad {
		sum = r3.Add(sum, grad[i])
	}
	assert.InDelta(t, 0, r3.Norm(sum), 1e-12)
}

func TestChiralityLossSumsOverCenters(t *testing.T) {
	pos, center := rightHanded()
	for i := range pos {
		pos[i].Z = -pos[i].Z
	}
	one, _, err := ChiralityLoss(pos, []ChiralCenter{center})
	require.NoError(t, err)
	two, _, err := ChiralityLoss(pos, []ChiralCenter{center, center})
	require.NoError(t, err)
	assert.InDelta(t, 2*one, two, 1e-12)
}

func TestChiralityLossNeighborCount(t *testing.T) {
	pos, _ := rightHanded()
	for _, neighbors := range [][]int{
		{1, 2, 3},
		{1, 2, 3, 4, 4},
	} {
		_, _, err := ChiralityLoss(pos, []ChiralCenter{{Center: 0, Neighbors: neighbors}})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeGeometryChiralNeighbors))
	}
}

func TestChiralityLossIndexOutOfRange(t *testing.T) {
	pos, _ := rightHanded()
	_, _, err := ChiralityLoss(pos, []ChiralCenter{{Center: 9, Neighbors: []int{1, 2, 3, 4}}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGeometryIndexOutOfRange))

	_, _, err = ChiralityLoss(pos, []ChiralCenter{{Center: 0, Neighbors: []int{1, 2, 3, 9}}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGeometryIndexOutOfRange))
}
