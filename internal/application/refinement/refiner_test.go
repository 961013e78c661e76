package refinement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/motifchem/geomval/internal/domain/geometry"
	"github.com/motifchem/geomval/internal/infrastructure/monitoring/logging"
	"github.com/motifchem/geomval/pkg/errors"
)

// stretchedDiatomic is a two-atom system with one bond at 1.5 against a
// target of 1.0.  Under bond-length loss alone the descent contracts the
// distance geometrically, so convergence is guaranteed for small steps.
func stretchedDiatomic() ([]r3.Vec, *geometry.Topology) {
	pos := []r3.Vec{{}, {X: 1.5}}
	top := &geometry.Topology{
		Bonds: []geometry.Bond{{I: 0, J: 1, Length: 1.0}},
		VDW:   []float64{0, 0},
	}
	return pos, top
}

func bondOnlyConfig() geometry.Config {
	cfg := geometry.DefaultConfig()
	cfg.Weights = geometry.Weights{BondLength: 1}
	return cfg
}

func defaultParams() Params {
	return Params{
		MaxIterations:   500,
		StepSize:        0.05,
		Tolerance:       1e-12,
		DivergenceLimit: 100,
	}
}

func TestParamsValidate(t *testing.T) {
	cases := map[string]Params{
		"zero iterations":    {MaxIterations: 0, StepSize: 0.1},
		"zero step":          {MaxIterations: 10, StepSize: 0},
		"negative step":      {MaxIterations: 10, StepSize: -1},
		"negative tolerance": {MaxIterations: 10, StepSize: 0.1, Tolerance: -1},
		"negative limit":     {MaxIterations: 10, StepSize: 0.1, DivergenceLimit: -1},
	}
	for name, p := range cases {
		err := p.Validate()
		assert.True(t, errors.IsCode(err, errors.ErrCodeRefinementInvalidParam), name)
	}
	assert.NoError(t, defaultParams().Validate())
}

func TestNewRefinerRejectsBadParams(t *testing.T) {
	_, err := NewRefiner(Params{}, bondOnlyConfig(), logging.NewNop())
	assert.True(t, errors.IsCode(err, errors.ErrCodeRefinementInvalidParam))
}

func TestRefineConverges(t *testing.T) {
	r, err := NewRefiner(defaultParams(), bondOnlyConfig(), logging.NewNop())
	require.NoError(t, err)

	pos, top := stretchedDiatomic()
	out, err := r.Refine(context.Background(), pos, top)
	require.NoError(t, err)

	assert.Equal(t, StopConverged, out.StopReason)
	assert.InDelta(t, 0.25, out.InitialLoss, 1e-12)
	assert.Less(t, out.FinalLoss, 1e-6)

	d := r3.Norm(r3.Sub(out.Positions[1], out.Positions[0]))
	assert.InDelta(t, 1.0, d, 1e-3)

	// Input positions are untouched.
	assert.Equal(t, 1.5, pos[1].X)

	// The loss curve starts at the initial value and never increases.
	require.NotEmpty(t, out.Curve)
	assert.Equal(t, out.InitialLoss, out.Curve[0])
	for i := 1; i < len(out.Curve); i++ {
		assert.LessOrEqual(t, out.Curve[i], out.Curve[i-1])
	}
	assert.Greater(t, out.LossDropPercent(), 99.0)
}

func TestRefineAlreadyOptimal(t *testing.T) {
	params := defaultParams()
	params.Tolerance = 1e-9
	r, err := NewRefiner(params, bondOnlyConfig(), logging.NewNop())
	require.NoError(t, err)

	pos := []r3.Vec{{}, {X: 1.0}}
	top := &geometry.Topology{
		Bonds: []geometry.Bond{{I: 0, J: 1, Length: 1.0}},
		VDW:   []float64{0, 0},
	}
	out, err := r.Refine(context.Background(), pos, top)
	require.NoError(t, err)
	assert.Equal(t, StopConverged, out.StopReason)
	assert.Zero(t, out.Iterations)
}

func TestRefineMaxIterations(t *testing.T) {
	params := defaultParams()
	params.MaxIterations = 3
	params.Tolerance = 0
	r, err := NewRefiner(params, bondOnlyConfig(), logging.NewNop())
	require.NoError(t, err)

	pos, top := stretchedDiatomic()
	out, err := r.Refine(context.Background(), pos, top)
	require.NoError(t, err)
	assert.Equal(t, StopMaxIterations, out.StopReason)
	assert.Equal(t, 3, out.Iterations)
}

func TestRefineDiverges(t *testing.T) {
	params := defaultParams()
	// A step this large overshoots the minimum: the first step mirrors the
	// deviation at unchanged loss, then every following step amplifies it.
	params.StepSize = 1.0
	params.DivergenceLimit = 10
	r, err := NewRefiner(params, bondOnlyConfig(), logging.NewNop())
	require.NoError(t, err)

	pos, top := stretchedDiatomic()
	out, err := r.Refine(context.Background(), pos, top)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRefinementDiverged))
	require.NotNil(t, out)
	assert.Equal(t, StopDiverged, out.StopReason)
	assert.Greater(t, out.FinalLoss, out.InitialLoss)

	// The mirror step leaves the loss exactly where it started while the
	// gradient stays large; that plateau must not be reported as converged.
	require.Greater(t, len(out.Curve), 2)
	assert.InDelta(t, out.InitialLoss, out.Curve[1], 1e-12)
	assert.Greater(t, out.Iterations, 1)
}

func TestRefineCanceled(t *testing.T) {
	r, err := NewRefiner(defaultParams(), bondOnlyConfig(), logging.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pos, top := stretchedDiatomic()
	out, err := r.Refine(ctx, pos, top)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, out)
	assert.Equal(t, StopCanceled, out.StopReason)
}

func TestRefinePropagatesEvaluationErrors(t *testing.T) {
	r, err := NewRefiner(defaultParams(), bondOnlyConfig(), logging.NewNop())
	require.NoError(t, err)

	pos := []r3.Vec{{}, {X: 1.5}}
	top := &geometry.Topology{
		Bonds: []geometry.Bond{{I: 0, J: 7, Length: 1.0}},
		VDW:   []float64{0, 0},
	}
	_, err = r.Refine(context.Background(), pos, top)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGeometryIndexOutOfRange))
}
