package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		kind     shared.ErrorKind
		expected int
	}{
		{shared.KindValidation, http.StatusBadRequest},
		{shared.KindAuthorization, http.StatusForbidden},
		{shared.KindNotFound, http.StatusNotFound},
		{shared.KindConflict, http.StatusConflict},
		{shared.KindOverflow, http.StatusInternalServerError},
		{shared.KindStorage, http.StatusServiceUnavailable},
		{shared.ErrorKind("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.kind))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, "ERR_DUPLICATE_CODE", NormalizeErrorCode("DUPLICATE_CODE"))
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeValidation, NormalizeErrorCode(ErrCodeValidation))
	assert.Equal(t, ErrCodeInternal, NormalizeErrorCode(""))
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "validation",
			err:     shared.ErrInvalidCode.WithMessage("Branch code must be 3 digits"),
			status:  http.StatusBadRequest,
			code:    ErrCodeInvalidCode,
			message: "Branch code must be 3 digits",
		},
		{
			name:   "unknown document type",
			err:    shared.ErrUnknownDocumentType,
			status: http.StatusBadRequest,
			code:   ErrCodeUnknownDocumentType,
		},
		{
			name:   "conflict",
			err:    shared.ErrDuplicateNumber,
			status: http.StatusConflict,
			code:   "ERR_DUPLICATE_NUMBER",
		},
		{
			name:   "dependents",
			err:    shared.ErrHasDependents,
			status: http.StatusConflict,
			code:   "ERR_HAS_DEPENDENTS",
		},
		{
			name:   "register not found",
			err:    shared.ErrRegisterNotFound,
			status: http.StatusNotFound,
			code:   "ERR_REGISTER_NOT_FOUND",
		},
		{
			name:   "forbidden",
			err:    shared.ErrForbidden.WithMessage("Administrator role required"),
			status: http.StatusForbidden,
			code:   ErrCodeForbidden,
		},
		{
			name:   "overflow",
			err:    shared.ErrSequenceOverflow,
			status: http.StatusInternalServerError,
			code:   ErrCodeSequenceOverflow,
		},
		{
			name:    "storage failures hide the driver error",
			err:     shared.NewStorageError("allocate sequence", errors.New("pq: connection refused")),
			status:  http.StatusServiceUnavailable,
			code:    ErrCodeStorageUnavailable,
			message: "Storage is temporarily unavailable, please retry",
		},
		{
			name:   "wrapped domain error",
			err:    fmt.Errorf("create branch: %w", shared.ErrDuplicateCode),
			status: http.StatusConflict,
			code:   "ERR_DUPLICATE_CODE",
		},
		{
			name:    "plain error",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			code:    ErrCodeInternal,
			message: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DescribeError(tt.err)
			assert.Equal(t, tt.status, d.Status)
			assert.Equal(t, tt.code, d.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, d.Message)
			}
			assert.NotContains(t, d.Message, "pq:")
		})
	}
}

func TestNewValidationErrorResponse(t *testing.T) {
	t.Run("uses the first detail code", func(t *testing.T) {
		resp := NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{
			{Field: "code", Code: ErrCodeInvalidCode, Message: "Must be exactly 3 digits"},
		})
		require.NotNil(t, resp.Error)
		assert.False(t, resp.Success)
		assert.Equal(t, ErrCodeInvalidCode, resp.Error.Code)
		assert.Equal(t, "req-1", resp.Error.RequestID)
	})

	t.Run("falls back to the validation code", func(t *testing.T) {
		resp := NewValidationErrorResponse("Request validation failed", "", nil)
		assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	})
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a"}, 41, 2, 20)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":["a"],"meta":{"total":41,"page":2,"page_size":20,"total_pages":3}}`, string(body))
}
