package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/motifchem/geomval/internal/application/identity"
)

// MoleculeHandler serves SMILES identity operations.
type MoleculeHandler struct {
	svc identity.Service
}

// NewMoleculeHandler constructs a MoleculeHandler.
func NewMoleculeHandler(svc identity.Service) *MoleculeHandler {
	return &MoleculeHandler{svc: svc}
}

type smilesRequest struct {
	SMILES string `json:"smiles"`
}

type canonicalResponse struct {
	SMILES    string `json:"smiles"`
	Canonical string `json:"canonical"`
	InChIKey  string `json:"inchi_key"`
}

// Canonical returns the canonical form and identity key of a SMILES string.
//
// POST /api/v1/molecules/canonical
func (h *MoleculeHandler) Canonical(c *gin.Context) {
	var req smilesRequest
	if !bindJSON(c, &req) {
		return
	}

	canonical, err := h.svc.Canonical(c.Request.Context(), req.SMILES)
	if err != nil {
		respondError(c, err)
		return
	}
	key, err := h.svc.InChIKey(c.Request.Context(), req.SMILES)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, canonicalResponse{
		SMILES:    req.SMILES,
		Canonical: canonical,
		InChIKey:  key,
	})
}

type validateSMILESResponse struct {
	SMILES string `json:"smiles"`
	Valid  bool   `json:"valid"`
}

// ValidateSMILES reports whether a SMILES string parses.
//
// POST /api/v1/molecules/validate
func (h *MoleculeHandler) ValidateSMILES(c *gin.Context) {
	var req smilesRequest
	if !bindJSON(c, &req) {
		return
	}
	c.JSON(http.StatusOK, validateSMILESResponse{
		SMILES: req.SMILES,
		Valid:  h.svc.IsValid(c.Request.Context(), req.SMILES),
	})
}

type sameRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

type sameResponse struct {
	A    string `json:"a"`
	B    string `json:"b"`
	Same bool   `json:"same"`
}

// Same reports whether two SMILES strings denote the same molecule.
//
// POST /api/v1/molecules/same
func (h *MoleculeHandler) Same(c *gin.Context) {
	var req sameRequest
	if !bindJSON(c, &req) {
		return
	}

	same, err := h.svc.Same(c.Request.Context(), req.A, req.B)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sameResponse{A: req.A, B: req.B, Same: same})
}
