package client

import (
	"context"
	"time"
)

// Bond is one bonded atom pair with its target length in angstroms.
type Bond struct {
	I      int     `json:"i"`
	J      int     `json:"j"`
	Length float64 `json:"length"`
}

// Angle is one bonded triple with its target angle in radians.
type Angle struct {
	I     int     `json:"i"`
	J     int     `json:"j"`
	K     int     `json:"k"`
	Theta float64 `json:"theta"`
}

// ChiralCenter is a stereocenter with its four substituent atoms in priority
// order.
type ChiralCenter struct {
	Center    int   `json:"center"`
	Neighbors []int `json:"neighbors"`
}

// Weights overrides the per-term loss weights.
type Weights struct {
	BondLength    float64 `json:"bond_length"`
	BondAngle     float64 `json:"bond_angle"`
	RingPlanarity float64 `json:"ring_planarity"`
	StericClash   float64 `json:"steric_clash"`
	Chirality     float64 `json:"chirality"`
}

// Conformer describes one 3D structure and its bonded topology.
type Conformer struct {
	SMILES         string         `json:"smiles,omitempty"`
	Positions      [][3]float64   `json:"positions"`
	Bonds          []Bond         `json:"bonds"`
	Angles         []Angle        `json:"angles,omitempty"`
	Rings          [][]int        `json:"rings,omitempty"`
	Chirals        []ChiralCenter `json:"chirals,omitempty"`
	VDW            []float64      `json:"vdw"`
	Weights        *Weights       `json:"weights,omitempty"`
	ClashThreshold float64        `json:"clash_threshold,omitempty"`
}

// TermValues is the per-term loss breakdown.
type TermValues struct {
	BondLength    float64 `json:"bond_length"`
	BondAngle     float64 `json:"bond_angle"`
	RingPlanarity float64 `json:"ring_planarity"`
	StericClash   float64 `json:"steric_clash"`
	Chirality     float64 `json:"chirality"`
}

// Report is the result of one validation.
type Report struct {
	ID              string       `json:"id"`
	SMILES          string       `json:"smiles,omitempty"`
	CanonicalSMILES string       `json:"canonical_smiles,omitempty"`
	InChIKey        string       `json:"inchi_key,omitempty"`
	AtomCount       int          `json:"atom_count"`
	Total           float64      `json:"total"`
	Terms           TermValues   `json:"terms"`
	Gradient        [][3]float64 `json:"gradient"`
	CreatedAt       time.Time    `json:"created_at"`
}

// Validate scores a conformer against its topology.
func (c *Client) Validate(ctx context.Context, conformer *Conformer) (*Report, error) {
	var report Report
	if err := c.post(ctx, "/api/v1/validate", conformer, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
