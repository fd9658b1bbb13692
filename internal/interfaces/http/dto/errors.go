package dto

import (
	"errors"
	"net/http"
	"strings"

	"github.com/facturacion/backend/internal/domain/shared"
)

// Error codes are the domain code prefixed with ERR_, e.g. DUPLICATE_CODE
// becomes ERR_DUPLICATE_CODE. The constants below are the ones produced by
// the HTTP layer itself.
const errCodePrefix = "ERR_"

// General error codes
const (
	// ErrCodeInternal is used for unexpected failures
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeStorageUnavailable is used when the database could not serve the request
	ErrCodeStorageUnavailable = "ERR_STORAGE_UNAVAILABLE"
)

// Request error codes
const (
	// ErrCodeValidation is used when request binding or field validation fails
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when the body is not valid JSON or has unknown fields
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
)

// Domain error codes that have a fixed HTTP treatment
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeInvalidCode         = "ERR_INVALID_CODE"
	ErrCodeUnknownDocumentType = "ERR_UNKNOWN_DOCUMENT_TYPE"
	ErrCodeSequenceOverflow    = "ERR_SEQUENCE_OVERFLOW"
)

// KindHTTPStatus maps domain error kinds to HTTP status codes
var KindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:    http.StatusBadRequest,
	shared.KindAuthorization: http.StatusForbidden,
	shared.KindNotFound:      http.StatusNotFound,
	shared.KindConflict:      http.StatusConflict,
	shared.KindOverflow:      http.StatusInternalServerError,
	shared.KindStorage:       http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status for an error kind.
// Unknown kinds map to 500.
func GetHTTPStatus(kind shared.ErrorKind) int {
	if status, ok := KindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode prefixes a domain code with ERR_
func NormalizeErrorCode(code string) string {
	if code == "" {
		return ErrCodeInternal
	}
	if strings.HasPrefix(code, errCodePrefix) {
		return code
	}
	return errCodePrefix + code
}

// ErrorDetails is the HTTP rendering of an error
type ErrorDetails struct {
	Status  int
	Code    string
	Message string
}

// DescribeError converts an error returned by a service into its HTTP
// status, code and client-facing message. Storage failures never expose the
// driver error.
func DescribeError(err error) ErrorDetails {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return ErrorDetails{
			Status:  http.StatusInternalServerError,
			Code:    ErrCodeInternal,
			Message: "An unexpected error occurred",
		}
	}

	switch domainErr.Kind {
	case shared.KindStorage:
		return ErrorDetails{
			Status:  http.StatusServiceUnavailable,
			Code:    ErrCodeStorageUnavailable,
			Message: "Storage is temporarily unavailable, please retry",
		}
	case shared.KindOverflow:
		return ErrorDetails{
			Status:  http.StatusInternalServerError,
			Code:    ErrCodeSequenceOverflow,
			Message: domainErr.Message,
		}
	}
	return ErrorDetails{
		Status:  GetHTTPStatus(domainErr.Kind),
		Code:    NormalizeErrorCode(domainErr.Code),
		Message: domainErr.Message,
	}
}
