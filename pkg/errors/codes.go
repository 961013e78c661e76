package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string identifier for a specific failure category.  The
// prefix before the underscore names the module that owns the code.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeValidation         ErrorCode = "COMMON_005"
	ErrCodeSerialization      ErrorCode = "COMMON_006"
	ErrCodeDatabaseError      ErrorCode = "COMMON_007"
	ErrCodeCacheError         ErrorCode = "COMMON_008"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_009"
	ErrCodeNotImplemented     ErrorCode = "COMMON_010"
	ErrCodeUnknown            ErrorCode = "COMMON_999"
)

// Geometry module error codes.  These cover the malformed-topology failure
// modes of the loss engine: indices that do not reference an existing atom,
// chiral constraints without exactly four neighbors, and input arrays whose
// sizes disagree with the atom count.
const (
	ErrCodeGeometryIndexOutOfRange    ErrorCode = "GEO_001"
	ErrCodeGeometryChiralNeighbors    ErrorCode = "GEO_002"
	ErrCodeGeometryDimensionMismatch  ErrorCode = "GEO_003"
	ErrCodeGeometryInvalidWeight      ErrorCode = "GEO_004"
	ErrCodeGeometryEmptyPositions     ErrorCode = "GEO_005"
	ErrCodeGeometryDegenerateRing     ErrorCode = "GEO_006"
	ErrCodeGeometryInvalidTargetAngle ErrorCode = "GEO_007"
)

// Molecule identity module error codes.
const (
	ErrCodeMoleculeInvalidSMILES ErrorCode = "MOL_001"
	ErrCodeMoleculeParsingFailed ErrorCode = "MOL_002"
)

// Refinement module error codes.
const (
	ErrCodeRefinementJobNotFound  ErrorCode = "REF_001"
	ErrCodeRefinementDiverged     ErrorCode = "REF_002"
	ErrCodeRefinementQueueFull    ErrorCode = "REF_003"
	ErrCodeRefinementInvalidParam ErrorCode = "REF_004"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes for the API layer.
var errorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeGeometryIndexOutOfRange:    http.StatusBadRequest,
	ErrCodeGeometryChiralNeighbors:    http.StatusBadRequest,
	ErrCodeGeometryDimensionMismatch:  http.StatusBadRequest,
	ErrCodeGeometryInvalidWeight:      http.StatusBadRequest,
	ErrCodeGeometryEmptyPositions:     http.StatusBadRequest,
	ErrCodeGeometryDegenerateRing:     http.StatusBadRequest,
	ErrCodeGeometryInvalidTargetAngle: http.StatusBadRequest,

	ErrCodeMoleculeInvalidSMILES: http.StatusBadRequest,
	ErrCodeMoleculeParsingFailed: http.StatusBadRequest,

	ErrCodeRefinementJobNotFound:  http.StatusNotFound,
	ErrCodeRefinementDiverged:     http.StatusUnprocessableEntity,
	ErrCodeRefinementQueueFull:    http.StatusTooManyRequests,
	ErrCodeRefinementInvalidParam: http.StatusBadRequest,
}

// HTTPStatusForCode returns the HTTP status for an ErrorCode, defaulting to
// 500 for unmapped codes.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsClientError reports whether the code maps to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError reports whether the code maps to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode ("GEO", "MOL", ...).
func ModuleForCode(code ErrorCode) string {
	parts := strings.SplitN(string(code), "_", 2)
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
