package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error for callers that only need to know
// how to react (retry, correct input, escalate).
type ErrorKind string

const (
	KindValidation    ErrorKind = "VALIDATION"
	KindConflict      ErrorKind = "CONFLICT"
	KindNotFound      ErrorKind = "NOT_FOUND"
	KindAuthorization ErrorKind = "AUTHORIZATION"
	KindStorage       ErrorKind = "STORAGE"
	KindOverflow      ErrorKind = "OVERFLOW"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code.
// This lets sentinel values be matched with errors.Is even when the
// returned error carries a more specific message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of the error with a different message
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Kind: e.Kind, Code: e.Code, Message: message, cause: e.cause}
}

// Withf returns a copy of the error with a formatted message
func (e *DomainError) Withf(format string, args ...any) *DomainError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// NewDomainError creates a new domain error. The kind is derived from the
// code for the well-known codes and defaults to validation otherwise.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Kind:    kindForCode(code),
		Code:    code,
		Message: message,
	}
}

// NewKindError creates a domain error with an explicit kind
func NewKindError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewStorageError wraps a persistence failure. Storage errors are the only
// kind that read paths retry.
func NewStorageError(op string, cause error) *DomainError {
	return &DomainError{
		Kind:    KindStorage,
		Code:    "STORAGE_FAILURE",
		Message: fmt.Sprintf("storage failure during %s", op),
		cause:   cause,
	}
}

// KindOf returns the kind of err, or an empty kind if err is not a DomainError
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err is a DomainError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

func kindForCode(code string) ErrorKind {
	switch code {
	case "NOT_FOUND", "REGISTER_NOT_FOUND":
		return KindNotFound
	case "ALREADY_EXISTS", "DUPLICATE_CODE", "DUPLICATE_NUMBER", "DUPLICATE_LEGAL_IDENT", "HAS_DEPENDENTS", "CONCURRENCY_CONFLICT":
		return KindConflict
	case "UNAUTHORIZED", "FORBIDDEN":
		return KindAuthorization
	case "SEQUENCE_OVERFLOW":
		return KindOverflow
	case "STORAGE_FAILURE":
		return KindStorage
	default:
		return KindValidation
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Numbering and catalog errors
var (
	ErrInvalidCode         = NewDomainError("INVALID_CODE", "Code has an invalid format")
	ErrDuplicateCode       = NewDomainError("DUPLICATE_CODE", "Code already exists")
	ErrDuplicateNumber     = NewDomainError("DUPLICATE_NUMBER", "Register number already exists in this branch")
	ErrDuplicateLegalIdent = NewDomainError("DUPLICATE_LEGAL_IDENT", "Legal identification already registered")
	ErrUnknownDocumentType = NewDomainError("UNKNOWN_DOCUMENT_TYPE", "Unknown document type")
	ErrRegisterNotFound    = NewDomainError("REGISTER_NOT_FOUND", "Register not found")
	ErrUnsupportedField    = NewDomainError("UNSUPPORTED_FIELD", "Field is not supported for option listing")
	ErrHasDependents       = NewDomainError("HAS_DEPENDENTS", "Entity still has dependent records")
	ErrCounterOutOfRange   = NewDomainError("COUNTER_OUT_OF_RANGE", "Counter value exceeds the representable range")
	ErrSequenceOverflow    = NewDomainError("SEQUENCE_OVERFLOW", "Sequence reached its maximum value")
)
