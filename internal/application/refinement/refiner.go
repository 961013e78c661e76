// Package refinement implements gradient-descent refinement of molecular
// conformers against the geometry validation loss, and the asynchronous job
// manager that runs refinements on a bounded worker pool.
package refinement

import (
	"context"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/motifchem/geomval/internal/domain/geometry"
	"github.com/motifchem/geomval/internal/infrastructure/monitoring/logging"
	"github.com/motifchem/geomval/pkg/errors"
)

// Stop reasons reported in Outcome.StopReason.
const (
	StopConverged     = "converged"
	StopMaxIterations = "max_iterations"
	StopDiverged      = "diverged"
	StopCanceled      = "canceled"
)

// Params are the tunables of one refinement run.
type Params struct {
	MaxIterations int
	StepSize      float64
	Tolerance     float64

	// DivergenceLimit aborts the run when the loss exceeds this multiple of
	// the starting loss.  Zero disables the check.
	DivergenceLimit float64
}

// Validate rejects parameter combinations that cannot produce a meaningful
// run.
func (p Params) Validate() error {
	if p.MaxIterations < 1 {
		return errors.Newf(errors.ErrCodeRefinementInvalidParam,
			"max iterations must be >= 1, got %d", p.MaxIterations)
	}
	if p.StepSize <= 0 || math.IsNaN(p.StepSize) {
		return errors.Newf(errors.ErrCodeRefinementInvalidParam,
			"step size must be > 0, got %g", p.StepSize)
	}
	if p.Tolerance < 0 || math.IsNaN(p.Tolerance) {
		return errors.Newf(errors.ErrCodeRefinementInvalidParam,
			"tolerance must be >= 0, got %g", p.Tolerance)
	}
	if p.DivergenceLimit < 0 {
		return errors.Newf(errors.ErrCodeRefinementInvalidParam,
			"divergence limit must be >= 0, got %g", p.DivergenceLimit)
	}
	return nil
}

// Outcome is the result of one refinement run.
type Outcome struct {
	Positions   []r3.Vec
	InitialLoss float64
	FinalLoss   float64
	Iterations  int
	StopReason  string

	// Curve holds the total loss before each step, starting with the
	// initial evaluation.
	Curve []float64
}

// LossDropPercent is the relative loss reduction achieved, in [0, 100] for
// a non-diverging run.
func (o *Outcome) LossDropPercent() float64 {
	if o.InitialLoss <= 0 {
		return 0
	}
	return (o.InitialLoss - o.FinalLoss) / o.InitialLoss * 100
}

// Refiner runs steepest-descent minimization of the geometry loss.
type Refiner struct {
	params  Params
	geomCfg geometry.Config
	log     logging.Logger
}

// NewRefiner validates params and constructs a Refiner.
func NewRefiner(params Params, geomCfg geometry.Config, log logging.Logger) (*Refiner, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Refiner{params: params, geomCfg: geomCfg, log: log}, nil
}

// Refine descends the loss surface from the given starting conformer.  The
// input positions are never mutated.  A diverging run returns the best-known
// outcome together with a REF_002 error; cancellation via ctx returns the
// partial outcome with ctx's error.
//
// Convergence requires both the loss change of the last step and the
// predicted first-order decrease of the next step (step × ‖∇L‖²) to fall
// below the tolerance.  The second condition keeps an oversized step that
// oscillates at constant loss, where the delta alone reads as converged
// while the gradient is still large, in the loop until the divergence check
// catches it.
func (r *Refiner) Refine(ctx context.Context, start []r3.Vec, top *geometry.Topology) (*Outcome, error) {
	pos := make([]r3.Vec, len(start))
	copy(pos, start)

	res, err := geometry.Evaluate(pos, top, r.geomCfg)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Positions:   pos,
		InitialLoss: res.Total,
		FinalLoss:   res.Total,
		Curve:       []float64{res.Total},
	}
	if res.Total <= r.params.Tolerance {
		out.StopReason = StopConverged
		return out, nil
	}

	prev := res.Total
	for iter := 1; iter <= r.params.MaxIterations; iter++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			out.StopReason = StopCanceled
			return out, ctxErr
		}

		for k := range pos {
			pos[k] = r3.Sub(pos[k], r3.Scale(r.params.StepSize, res.Gradient[k]))
		}

		res, err = geometry.Evaluate(pos, top, r.geomCfg)
		if err != nil {
			return nil, err
		}

		out.Iterations = iter
		out.FinalLoss = res.Total
		out.Curve = append(out.Curve, res.Total)

		if r.params.DivergenceLimit > 0 && out.InitialLoss > 0 &&
			res.Total > r.params.DivergenceLimit*out.InitialLoss {
			out.StopReason = StopDiverged
			return out, errors.Newf(errors.ErrCodeRefinementDiverged,
				"loss grew from %g to %g after %d iterations", out.InitialLoss, res.Total, iter)
		}

		if math.Abs(prev-res.Total) < r.params.Tolerance &&
			r.params.StepSize*gradSqNorm(res.Gradient) < r.params.Tolerance {
			out.StopReason = StopConverged
			return out, nil
		}
		prev = res.Total
	}

	out.StopReason = StopMaxIterations
	return out, nil
}

func gradSqNorm(grad []r3.Vec) float64 {
	var s float64
	for _, g := range grad {
		s += r3.Norm2(g)
	}
	return s
}
