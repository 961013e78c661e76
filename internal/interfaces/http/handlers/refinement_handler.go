package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/motifchem/geomval/internal/application/refinement"
	"github.com/motifchem/geomval/internal/application/validation"
	"github.com/motifchem/geomval/pkg/errors"
)

// RefinementHandler serves asynchronous conformer refinement jobs.
type RefinementHandler struct {
	manager *refinement.Manager
}

// NewRefinementHandler constructs a RefinementHandler.
func NewRefinementHandler(manager *refinement.Manager) *RefinementHandler {
	return &RefinementHandler{manager: manager}
}

// RefineRequest carries the starting conformer and its topology.
type RefineRequest struct {
	SMILES    string                   `json:"smiles,omitempty"`
	Positions [][3]float64             `json:"positions"`
	Bonds     []validation.BondInput   `json:"bonds"`
	Angles    []validation.AngleInput  `json:"angles"`
	Rings     [][]int                  `json:"rings,omitempty"`
	Chirals   []validation.ChiralInput `json:"chirals,omitempty"`
	VDW       []float64                `json:"vdw"`
}

type submitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// Submit enqueues a refinement job and returns its id.
//
// POST /api/v1/refine
func (h *RefinementHandler) Submit(c *gin.Context) {
	var req RefineRequest
	if !bindJSON(c, &req) {
		return
	}

	id, err := h.manager.Submit(c.Request.Context(), &refinement.Request{
		SMILES:    req.SMILES,
		Positions: validation.ToPositions(req.Positions),
		Topology:  validation.ToTopology(req.Bonds, req.Angles, req.Rings, req.Chirals, req.VDW),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, submitResponse{
		JobID:  id.String(),
		Status: string(refinement.StatusQueued),
	})
}

// JobResponse is the wire form of a job snapshot.
type JobResponse struct {
	JobID       string           `json:"job_id"`
	Status      string           `json:"status"`
	Error       string           `json:"error,omitempty"`
	Outcome     *OutcomeResponse `json:"outcome,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// OutcomeResponse is the wire form of a refinement outcome.
type OutcomeResponse struct {
	Positions       [][3]float64 `json:"positions"`
	InitialLoss     float64      `json:"initial_loss"`
	FinalLoss       float64      `json:"final_loss"`
	LossDropPercent float64      `json:"loss_drop_percent"`
	Iterations      int          `json:"iterations"`
	StopReason      string       `json:"stop_reason"`
	Curve           []float64    `json:"curve,omitempty"`
}

// Get returns the state of one job.
//
// GET /api/v1/refine/:id
func (h *RefinementHandler) Get(c *gin.Context) {
	id, ok := parseJobID(c)
	if !ok {
		return
	}

	view, err := h.manager.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJobResponse(view))
}

// Cancel stops a queued or running job.
//
// DELETE /api/v1/refine/:id
func (h *RefinementHandler) Cancel(c *gin.Context) {
	id, ok := parseJobID(c)
	if !ok {
		return
	}

	if err := h.manager.Cancel(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseJobID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "job id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func toJobResponse(view *refinement.JobView) *JobResponse {
	resp := &JobResponse{
		JobID:     view.ID.String(),
		Status:    string(view.Status),
		Error:     view.Error,
		CreatedAt: view.CreatedAt,
	}
	if !view.CompletedAt.IsZero() {
		completed := view.CompletedAt
		resp.CompletedAt = &completed
	}
	if view.Outcome != nil {
		positions := make([][3]float64, len(view.Outcome.Positions))
		for i, p := range view.Outcome.Positions {
			positions[i] = [3]float64{p.X, p.Y, p.Z}
		}
		resp.Outcome = &OutcomeResponse{
			Positions:       positions,
			InitialLoss:     view.Outcome.InitialLoss,
			FinalLoss:       view.Outcome.FinalLoss,
			LossDropPercent: view.Outcome.LossDropPercent(),
			Iterations:      view.Outcome.Iterations,
			StopReason:      view.Outcome.StopReason,
			Curve:           view.Outcome.Curve,
		}
	}
	return resp
}
