package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/motifchem/geomval/internal/domain/geometry"
	"github.com/motifchem/geomval/internal/infrastructure/monitoring/logging"
	"github.com/motifchem/geomval/pkg/errors"
)

// ValidationReport is one persisted geometry evaluation: the molecule's
// identity, the conformer size, and the loss breakdown.
type ValidationReport struct {
	ID              uuid.UUID           `json:"id"`
	SMILES          string              `json:"smiles"`
	CanonicalSMILES string              `json:"canonical_smiles,omitempty"`
	InChIKey        string              `json:"inchi_key,omitempty"`
	AtomCount       int                 `json:"atom_count"`
	TotalLoss       float64             `json:"total_loss"`
	Terms           geometry.TermValues `json:"terms"`
	CreatedAt       time.Time           `json:"created_at"`
}

// ReportRepository persists validation reports.
type ReportRepository struct {
	db  querier
	log logging.Logger
}

// NewReportRepository constructs a ReportRepository over a pool or
// transaction.
func NewReportRepository(db querier, log logging.Logger) *ReportRepository {
	return &ReportRepository{db: db, log: log}
}

const reportColumns = `id, smiles, canonical_smiles, inchi_key, atom_count,
		total_loss, terms, created_at`

// Save inserts one report.  The per-term breakdown is serialised as a JSONB
// column.
func (r *ReportRepository) Save(ctx context.Context, report *ValidationReport) error {
	termsJSON, err := json.Marshal(report.Terms)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "marshalling loss terms")
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO validation_reports (
			id, smiles, canonical_smiles, inchi_key, atom_count,
			total_loss, terms, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		report.ID, report.SMILES, report.CanonicalSMILES, report.InChIKey,
		report.AtomCount, report.TotalLoss, termsJSON, report.CreatedAt,
	)
	if err != nil {
		r.log.Error("inserting validation report failed",
			logging.String("report_id", report.ID.String()), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "inserting validation report")
	}
	return nil
}

// FindByID returns the report with the given id, or a not-found error.
func (r *ReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*ValidationReport, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+reportColumns+`
		FROM validation_reports WHERE id = $1`, id)
	return scanReport(row)
}

// ListByCanonicalSMILES returns every report for one molecule, newest first.
func (r *ReportRepository) ListByCanonicalSMILES(ctx context.Context, canonical string, limit int) ([]*ValidationReport, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+reportColumns+`
		FROM validation_reports
		WHERE canonical_smiles = $1
		ORDER BY created_at DESC
		LIMIT $2`, canonical, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "querying validation reports")
	}
	defer rows.Close()
	return scanReports(rows)
}

// ListRecent returns the newest reports across all molecules.
func (r *ReportRepository) ListRecent(ctx context.Context, limit int) ([]*ValidationReport, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+reportColumns+`
		FROM validation_reports
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "querying validation reports")
	}
	defer rows.Close()
	return scanReports(rows)
}

func scanReport(row pgx.Row) (*ValidationReport, error) {
	var (
		report    ValidationReport
		termsJSON []byte
	)
	err := row.Scan(
		&report.ID, &report.SMILES, &report.CanonicalSMILES, &report.InChIKey,
		&report.AtomCount, &report.TotalLoss, &termsJSON, &report.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound("validation report")
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning validation report")
	}
	if err := json.Unmarshal(termsJSON, &report.Terms); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "unmarshalling loss terms")
	}
	return &report, nil
}

func scanReports(rows pgx.Rows) ([]*ValidationReport, error) {
	var reports []*ValidationReport
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterating validation reports")
	}
	return reports, nil
}
