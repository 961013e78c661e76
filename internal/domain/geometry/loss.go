package geometry

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/motifchem/geomval/pkg/errors"
)

// Evaluate computes every applicable loss term for the given conformer and
// combines them into the weighted total and its gradient.
//
// Term applicability follows the topology: the ring planarity term is skipped
// when no rings are given and the chirality term when no chiral centers are
// given, so molecules without those features pay neither the cost nor the
// noise of the extra terms.  Bond length, bond angle, and steric clash always
// run; the bond list doubles as the clash exclusion set.
//
// Any validation failure in any term aborts the whole evaluation; partial
// results are never returned.
func Evaluate(pos []r3.Vec, top *Topology, cfg Config) (*Result, error) {
	if len(pos) == 0 {
		return nil, errors.New(errors.ErrCodeGeometryEmptyPositions,
			"cannot evaluate a conformer with no atoms")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	res := &Result{Gradient: zeroGradient(len(pos))}

	accumulate := func(weight, value float64, grad []r3.Vec) {
		res.Total += weight * value
		if weight == 0 {
			return
		}
		for i, g := range grad {
			res.Gradient[i] = r3.Add(res.Gradient[i], r3.Scale(weight, g))
		}
	}

	value, grad, err := BondLengthLoss(pos, top.Bonds)
	if err != nil {
		return nil, err
	}
	res.Terms.BondLength = value
	accumulate(cfg.Weights.BondLength, value, grad)

	value, grad, err = BondAngleLoss(pos, top.Angles)
	if err != nil {
		return nil, err
	}
	res.Terms.BondAngle = value
	accumulate(cfg.Weights.BondAngle, value, grad)

	if len(top.Rings) > 0 {
		value, grad, err = RingPlanarityLoss(pos, top.Rings)
		if err != nil {
			return nil, err
		}
		res.Terms.RingPlanarity = value
		accumulate(cfg.Weights.RingPlanarity, value, grad)
	}

	value, grad, err = StericClashLoss(pos, top.VDW, top.Bonds, cfg.ClashThreshold)
	if err != nil {
		return nil, err
	}
	res.Terms.StericClash = value
	accumulate(cfg.Weights.StericClash, value, grad)

	if len(top.Chirals) > 0 {
		value, grad, err = ChiralityLoss(pos, top.Chirals)
		if err != nil {
			return nil, err
		}
		res.Terms.Chirality = value
		accumulate(cfg.Weights.Chirality, value, grad)
	}

	return res, nil
}
