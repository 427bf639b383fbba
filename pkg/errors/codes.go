package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
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
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeValidation         ErrorCode = "COMMON_006"
	ErrCodeSerialization      ErrorCode = "COMMON_007"
	ErrCodeDatabaseError      ErrorCode = "COMMON_008"
	ErrCodeCacheError         ErrorCode = "COMMON_009"
	ErrCodeExternalService    ErrorCode = "COMMON_010"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_011"
	ErrCodeUnknown            ErrorCode = "COMMON_012"
)

// CodeOK is the sentinel returned by GetCode for a nil error.
const CodeOK = ErrorCode("OK")

// POI module error codes (profiles, matching, merging).
const (
	// ErrCodeProfileNotFound — no profile exists for the given identifier.
	ErrCodeProfileNotFound ErrorCode = "POI_001"

	// ErrCodeInvalidCandidate — a candidate carried neither a name nor an
	// agent number and was discarded before matching.
	ErrCodeInvalidCandidate ErrorCode = "POI_002"

	// ErrCodeIdentityConflict — a textual best match was rejected because the
	// candidate and the profile carry differing hard identifiers.
	ErrCodeIdentityConflict ErrorCode = "POI_003"

	// ErrCodeAllocationFailure — the sequential POI identifier could not be
	// derived; the allocator fell back to a timestamp-derived identifier.
	ErrCodeAllocationFailure ErrorCode = "POI_004"

	// ErrCodeProfileMerged — an operation targeted a profile whose status is
	// MERGED; merged profiles are frozen tombstones.
	ErrCodeProfileMerged ErrorCode = "POI_005"

	// ErrCodeMatchFailed — the matcher could not complete its scan due to an
	// infrastructure failure (distinct from "no match found", which is not an
	// error).
	ErrCodeMatchFailed ErrorCode = "POI_006"
)

// Link module error codes (intelligence links, registration).
const (
	ErrCodeLinkNotFound       ErrorCode = "LNK_001"
	ErrCodeLinkRegistration   ErrorCode = "LNK_002"
	ErrCodeSecondaryLinkWrite ErrorCode = "LNK_003"
)

// Source module error codes (refresh, source-table scans).
const (
	ErrCodeSourceUnsupported ErrorCode = "SRC_001"
	ErrCodeSourceScanFailed  ErrorCode = "SRC_002"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeUnknown:            http.StatusInternalServerError,

	ErrCodeProfileNotFound:   http.StatusNotFound,
	ErrCodeInvalidCandidate:  http.StatusUnprocessableEntity,
	ErrCodeIdentityConflict:  http.StatusConflict,
	ErrCodeAllocationFailure: http.StatusInternalServerError,
	ErrCodeProfileMerged:     http.StatusConflict,
	ErrCodeMatchFailed:       http.StatusInternalServerError,

	ErrCodeLinkNotFound:       http.StatusNotFound,
	ErrCodeLinkRegistration:   http.StatusInternalServerError,
	ErrCodeSecondaryLinkWrite: http.StatusInternalServerError,

	ErrCodeSourceUnsupported: http.StatusBadRequest,
	ErrCodeSourceScanFailed:  http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeUnknown:            "unknown error",

	ErrCodeProfileNotFound:   "profile not found",
	ErrCodeInvalidCandidate:  "candidate has no name and no agent number",
	ErrCodeIdentityConflict:  "hard identifier conflict between candidate and profile",
	ErrCodeAllocationFailure: "POI identifier allocation failed",
	ErrCodeProfileMerged:     "profile has been merged into another profile",
	ErrCodeMatchFailed:       "profile matching failed",

	ErrCodeLinkNotFound:       "intelligence link not found",
	ErrCodeLinkRegistration:   "failed to register intelligence link",
	ErrCodeSecondaryLinkWrite: "failed to write legacy link record",

	ErrCodeSourceUnsupported: "unsupported source type",
	ErrCodeSourceScanFailed:  "source table scan failed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
