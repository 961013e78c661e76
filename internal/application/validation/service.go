// Package validation provides the application-level service for geometry
// loss evaluation.  It converts transport-level inputs into domain topology,
// runs the loss engine, annotates the result with molecule identity, and
// persists a report.
package validation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/motifchem/geomval/internal/application/identity"
	"github.com/motifchem/geomval/internal/domain/geometry"
	"github.com/motifchem/geomval/internal/infrastructure/database/postgres/repositories"
	"github.com/motifchem/geomval/internal/infrastructure/monitoring/logging"
	"github.com/motifchem/geomval/internal/infrastructure/monitoring/prometheus"
	"github.com/motifchem/geomval/pkg/errors"
)

// Service evaluates conformers against their reference topology.
type Service interface {
	Validate(ctx context.Context, input *Input) (*Report, error)
}

// BondInput is a transport-level bond constraint.
type BondInput struct {
	I      int     `json:"i"`
	J      int     `json:"j"`
	Length float64 `json:"length"`
}

// AngleInput is a transport-level angle constraint; J is the vertex and
// Theta is in radians.
type AngleInput struct {
	I     int     `json:"i"`
	J     int     `json:"j"`
	K     int     `json:"k"`
	Theta float64 `json:"theta"`
}

// ChiralInput is a transport-level chirality constraint.
type ChiralInput struct {
	Center    int   `json:"center"`
	Neighbors []int `json:"neighbors"`
}

// WeightsInput overrides the configured term weights when present.
type WeightsInput struct {
	BondLength    float64 `json:"bond_length"`
	BondAngle     float64 `json:"bond_angle"`
	RingPlanarity float64 `json:"ring_planarity"`
	StericClash   float64 `json:"steric_clash"`
	Chirality     float64 `json:"chirality"`
}

// Input carries one conformer with its reference topology.  SMILES is
// optional; when present the report is annotated with the molecule's
// canonical identity.
type Input struct {
	SMILES    string        `json:"smiles,omitempty"`
	Positions [][3]float64  `json:"positions"`
	Bonds     []BondInput   `json:"bonds"`
	Angles    []AngleInput  `json:"angles"`
	Rings     [][]int       `json:"rings,omitempty"`
	Chirals   []ChiralInput `json:"chirals,omitempty"`
	VDW       []float64     `json:"vdw"`
	Weights   *WeightsInput `json:"weights,omitempty"`

	// ClashThreshold overrides the configured threshold when positive.
	ClashThreshold float64 `json:"clash_threshold,omitempty"`
}

// Report is the outcome of one evaluation.
type Report struct {
	ID              string              `json:"id"`
	SMILES          string              `json:"smiles,omitempty"`
	CanonicalSMILES string              `json:"canonical_smiles,omitempty"`
	InChIKey        string              `json:"inchi_key,omitempty"`
	AtomCount       int                 `json:"atom_count"`
	Total           float64             `json:"total"`
	Terms           geometry.TermValues `json:"terms"`
	Gradient        [][3]float64        `json:"gradient"`
	CreatedAt       time.Time           `json:"created_at"`
}

// ReportStore persists reports; satisfied by the postgres ReportRepository.
type ReportStore interface {
	Save(ctx context.Context, report *repositories.ValidationReport) error
}

type serviceImpl struct {
	defaults geometry.Config
	identity identity.Service
	store    ReportStore
	metrics  *prometheus.AppMetrics
	log      logging.Logger
}

// Option customises service construction.
type Option func(*serviceImpl)

// WithIdentity enables canonical annotation of reports.
func WithIdentity(svc identity.Service) Option {
	return func(s *serviceImpl) { s.identity = svc }
}

// WithStore enables report persistence.
func WithStore(store ReportStore) Option {
	return func(s *serviceImpl) { s.store = store }
}

// WithMetrics enables evaluation counters and histograms.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *serviceImpl) { s.metrics = m }
}

// NewService creates a validation service with the given default evaluation
// configuration.
func NewService(defaults geometry.Config, log logging.Logger, opts ...Option) Service {
	s := &serviceImpl{defaults: defaults, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *serviceImpl) Validate(ctx context.Context, input *Input) (*Report, error) {
	started := time.Now()

	report, err := s.validate(ctx, input)

	if s.metrics != nil {
		natoms := 0
		total := 0.0
		if input != nil {
			natoms = len(input.Positions)
		}
		if report != nil {
			total = report.Total
		}
		prometheus.RecordValidation(s.metrics, natoms, total, time.Since(started), err)
	}
	return report, err
}

func (s *serviceImpl) validate(ctx context.Context, input *Input) (*Report, error) {
	if input == nil || len(input.Positions) == 0 {
		return nil, errors.New(errors.ErrCodeGeometryEmptyPositions,
			"validation input needs at least one atom position")
	}

	pos, top := toDomain(input)
	cfg := s.evalConfig(input)

	result, err := geometry.Evaluate(pos, top, cfg)
	if err != nil {
		s.log.Warn("geometry evaluation rejected input", logging.Err(err))
		return nil, err
	}

	report := &Report{
		ID:        uuid.New().String(),
		SMILES:    input.SMILES,
		AtomCount: len(pos),
		Total:     result.Total,
		Terms:     result.Terms,
		Gradient:  fromVecs(result.Gradient),
		CreatedAt: time.Now().UTC(),
	}

	if input.SMILES != "" && s.identity != nil {
		canonical, err := s.identity.Canonical(ctx, input.SMILES)
		if err != nil {
			return nil, err
		}
		report.CanonicalSMILES = canonical
		if key, err := s.identity.InChIKey(ctx, input.SMILES); err == nil {
			report.InChIKey = key
		}
	}

	s.persist(ctx, report)
	return report, nil
}

// evalConfig merges per-request overrides onto the configured defaults.
func (s *serviceImpl) evalConfig(input *Input) geometry.Config {
	cfg := s.defaults
	if input.Weights != nil {
		cfg.Weights = geometry.Weights{
			BondLength:    input.Weights.BondLength,
			BondAngle:     input.Weights.BondAngle,
			RingPlanarity: input.Weights.RingPlanarity,
			StericClash:   input.Weights.StericClash,
			Chirality:     input.Weights.Chirality,
		}
	}
	if input.ClashThreshold > 0 {
		cfg.ClashThreshold = input.ClashThreshold
	}
	return cfg
}

// persist writes the report without failing the evaluation: the caller
// already has a correct result, so storage trouble is logged and absorbed.
func (s *serviceImpl) persist(ctx context.Context, report *Report) {
	if s.store == nil {
		return
	}
	id, err := uuid.Parse(report.ID)
	if err != nil {
		return
	}
	err = s.store.Save(ctx, &repositories.ValidationReport{
		ID:              id,
		SMILES:          report.SMILES,
		CanonicalSMILES: report.CanonicalSMILES,
		InChIKey:        report.InChIKey,
		AtomCount:       report.AtomCount,
		TotalLoss:       report.Total,
		Terms:           report.Terms,
		CreatedAt:       report.CreatedAt,
	})
	if err != nil {
		s.log.Error("persisting validation report failed",
			logging.String("report_id", report.ID), logging.Err(err))
	}
}

func toDomain(input *Input) ([]r3.Vec, *geometry.Topology) {
	return ToPositions(input.Positions),
		ToTopology(input.Bonds, input.Angles, input.Rings, input.Chirals, input.VDW)
}

func fromVecs(vecs []r3.Vec) [][3]float64 {
	out := make([][3]float64, len(vecs))
	for i, v := range vecs {
		out[i] = [3]float64{v.X, v.Y, v.Z}
	}
	return out
}

// ToPositions converts transport positions to domain vectors; shared with
// the refinement handlers.
func ToPositions(positions [][3]float64) []r3.Vec {
	pos := make([]r3.Vec, len(positions))
	for i, p := range positions {
		pos[i] = r3.Vec{X: p[0], Y: p[1], Z: p[2]}
	}
	return pos
}

// ToTopology converts transport constraint lists to a domain topology;
// shared with the refinement handlers.
func ToTopology(bonds []BondInput, angles []AngleInput, rings [][]int, chirals []ChiralInput, vdw []float64) *geometry.Topology {
	top := &geometry.Topology{VDW: vdw}
	for _, b := range bonds {
		top.Bonds = append(top.Bonds, geometry.Bond{I: b.I, J: b.J, Length: b.Length})
	}
	for _, a := range angles {
		top.Angles = append(top.Angles, geometry.Angle{I: a.I, J: a.J, K: a.K, Theta: a.Theta})
	}
	for _, ring := range rings {
		top.Rings = append(top.Rings, geometry.Ring(ring))
	}
	for _, c := range chirals {
		top.Chirals = append(top.Chirals, geometry.ChiralCenter{Center: c.Center, Neighbors: c.Neighbors})
	}
	return top
}
