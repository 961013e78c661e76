package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/motifchem/geomval/internal/application/validation"
)

// ValidationHandler serves geometry loss evaluations.
type ValidationHandler struct {
	svc validation.Service
}

// NewValidationHandler constructs a ValidationHandler.
func NewValidationHandler(svc validation.Service) *ValidationHandler {
	return &ValidationHandler{svc: svc}
}

// Validate evaluates one conformer.
//
// POST /api/v1/validate
func (h *ValidationHandler) Validate(c *gin.Context) {
	var input validation.Input
	if !bindJSON(c, &input) {
		return
	}

	report, err := h.svc.Validate(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
