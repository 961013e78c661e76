package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/motifchem/geomval/internal/infrastructure/database/postgres/repositories"
	"github.com/motifchem/geomval/pkg/errors"
)

// ReportReader is the read side of the report repository used by the API.
type ReportReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*repositories.ValidationReport, error)
	ListByCanonicalSMILES(ctx context.Context, canonical string, limit int) ([]*repositories.ValidationReport, error)
	ListRecent(ctx context.Context, limit int) ([]*repositories.ValidationReport, error)
}

// ReportHandler serves stored validation reports.
type ReportHandler struct {
	reports ReportReader
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(reports ReportReader) *ReportHandler {
	return &ReportHandler{reports: reports}
}

type listReportsResponse struct {
	Reports []*repositories.ValidationReport `json:"reports"`
	Count   int                              `json:"count"`
}

// List returns recent reports, optionally filtered by canonical SMILES.
//
// GET /api/v1/reports?canonical=<smiles>&limit=<n>
func (h *ReportHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, errors.New(errors.ErrCodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	var (
		reports []*repositories.ValidationReport
		err     error
	)
	if canonical := c.Query("canonical"); canonical != "" {
		reports, err = h.reports.ListByCanonicalSMILES(c.Request.Context(), canonical, limit)
	} else {
		reports, err = h.reports.ListRecent(c.Request.Context(), limit)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listReportsResponse{Reports: reports, Count: len(reports)})
}

// Get returns one report by id.
//
// GET /api/v1/reports/:id
func (h *ReportHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "report id must be a UUID"))
		return
	}

	report, err := h.reports.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
