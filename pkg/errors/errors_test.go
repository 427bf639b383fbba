package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeProfileNotFound, "profile POI-042 not found")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeProfileNotFound, err.Code)
	assert.Equal(t, "[POI_001] profile POI-042 not found", err.Error())
	assert.NotEmpty(t, err.Stack)
}

func TestNewf(t *testing.T) {
	err := Newf(ErrCodeLinkNotFound, "no link for %s/%d", "EMAIL", 17)
	assert.Equal(t, "[LNK_001] no link for EMAIL/17", err.Error())
}

func TestError_WithDetail(t *testing.T) {
	err := New(ErrCodeIdentityConflict, "license mismatch").WithDetail("candidate=L123 profile=L456")
	assert.Equal(t, "[POI_003] license mismatch: candidate=L123 profile=L456", err.Error())

	var nilErr *AppError
	assert.Nil(t, nilErr.WithDetail("x"))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeDatabaseError, "ignored"))

	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, ErrCodeDatabaseError, "query failed")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeDatabaseError, err.Code)
	assert.ErrorIs(t, err, cause)
}

func TestWrap_PreservesCodeForUnknown(t *testing.T) {
	inner := New(ErrCodeInvalidCandidate, "empty candidate")
	err := Wrap(inner, ErrCodeUnknown, "resolution failed")
	assert.Equal(t, ErrCodeInvalidCandidate, err.Code)
}

func TestIsCode(t *testing.T) {
	inner := New(ErrCodeIdentityConflict, "conflict")
	wrapped := Wrap(inner, ErrCodeInternal, "outer")

	assert.True(t, IsCode(wrapped, ErrCodeIdentityConflict))
	assert.True(t, IsCode(wrapped, ErrCodeInternal))
	assert.False(t, IsCode(wrapped, ErrCodeLinkNotFound))
	assert.False(t, IsCode(nil, ErrCodeInternal))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(New(ErrCodeProfileNotFound, "x")))
	assert.True(t, IsNotFound(New(ErrCodeLinkNotFound, "x")))
	assert.True(t, IsNotFound(NotFound("x")))
	assert.False(t, IsNotFound(New(ErrCodeInternal, "x")))
	assert.False(t, IsNotFound(stderrors.New("plain")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, ErrCodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeAllocationFailure, GetCode(New(ErrCodeAllocationFailure, "x")))
}

func TestHTTPStatusForCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatusForCode(ErrCodeProfileNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatusForCode(ErrCodeIdentityConflict))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusForCode(ErrorCode("BOGUS_999")))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "POI", ModuleForCode(ErrCodeIdentityConflict))
	assert.Equal(t, "LNK", ModuleForCode(ErrCodeLinkNotFound))
	assert.Equal(t, "SRC", ModuleForCode(ErrCodeSourceScanFailed))
}

func TestIsClientServerError(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeBadRequest))
	assert.False(t, IsClientError(ErrCodeInternal))
	assert.True(t, IsServerError(ErrCodeMatchFailed))
	assert.False(t, IsServerError(ErrCodeInvalidCandidate))
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("source_type", "source_type is required")
	assert.Equal(t, ErrCodeValidation, err.Code)
	assert.Contains(t, err.Error(), "field=source_type")
}
