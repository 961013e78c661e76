// Package handlers implements the HTTP request handlers for the validation
// API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/motifchem/geomval/pkg/errors"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError maps application errors onto HTTP status codes.  Server-side
// error details are masked; client errors carry their message through.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *errors.AppError
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    errors.ErrCodeInternal.String(),
			Message: "internal server error",
		})
		return
	}

	status := errors.HTTPStatusForCode(appErr.Code)
	resp := ErrorResponse{Code: appErr.Code.String(), Message: appErr.Message}
	if status >= 500 {
		resp.Message = "internal server error"
	} else {
		resp.Detail = appErr.Detail
	}
	c.JSON(status, resp)
}

// bindJSON decodes the request body, translating decode failures into the
// standard error shape.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request body"))
		return false
	}
	return true
}
