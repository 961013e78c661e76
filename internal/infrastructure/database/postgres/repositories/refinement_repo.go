package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/motifchem/geomval/internal/infrastructure/monitoring/logging"
	"github.com/motifchem/geomval/pkg/errors"
)

// RefinementRecord is the persisted outcome of one refinement job.  Records
// are written when a job reaches a terminal state; live progress stays in
// the job manager.
type RefinementRecord struct {
	ID          uuid.UUID
	SMILES      string
	Status      string
	Iterations  int
	InitialLoss float64
	FinalLoss   float64
	StopReason  string
	CreatedAt   time.Time
	CompletedAt time.Time
}

// RefinementRepository persists refinement job outcomes.
type RefinementRepository struct {
	db  querier
	log logging.Logger
}

// NewRefinementRepository constructs a RefinementRepository.
func NewRefinementRepository(db querier, log logging.Logger) *RefinementRepository {
	return &RefinementRepository{db: db, log: log}
}

const refinementColumns = `id, smiles, status, iterations, initial_loss,
		final_loss, stop_reason, created_at, completed_at`

// Save inserts one terminal job record.
func (r *RefinementRepository) Save(ctx context.Context, rec *RefinementRecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO refinement_records (
			id, smiles, status, iterations, initial_loss,
			final_loss, stop_reason, created_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rec.ID, rec.SMILES, rec.Status, rec.Iterations, rec.InitialLoss,
		rec.FinalLoss, rec.StopReason, rec.CreatedAt, rec.CompletedAt,
	)
	if err != nil {
		r.log.Error("inserting refinement record failed",
			logging.String("job_id", rec.ID.String()), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "inserting refinement record")
	}
	return nil
}

// FindByID returns the record for a finished job, or a not-found error.
func (r *RefinementRepository) FindByID(ctx context.Context, id uuid.UUID) (*RefinementRecord, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+refinementColumns+`
		FROM refinement_records WHERE id = $1`, id)
	return scanRefinement(row)
}

// ListRecent returns the newest terminal records.
func (r *RefinementRepository) ListRecent(ctx context.Context, limit int) ([]*RefinementRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+refinementColumns+`
		FROM refinement_records
		ORDER BY completed_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "querying refinement records")
	}
	defer rows.Close()

	var records []*RefinementRecord
	for rows.Next() {
		rec, err := scanRefinement(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterating refinement records")
	}
	return records, nil
}

func scanRefinement(row pgx.Row) (*RefinementRecord, error) {
	var rec RefinementRecord
	err := row.Scan(
		&rec.ID, &rec.SMILES, &rec.Status, &rec.Iterations, &rec.InitialLoss,
		&rec.FinalLoss, &rec.StopReason, &rec.CreatedAt, &rec.CompletedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound("refinement record")
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning refinement record")
	}
	return &rec, nil
}
