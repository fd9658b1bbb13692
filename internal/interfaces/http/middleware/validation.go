package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/facturacion/backend/internal/domain/organization"
	"github.com/facturacion/backend/internal/domain/shared/valueobject"
	"github.com/facturacion/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RequestIDKey is the request header carrying the request ID
const RequestIDKey = "X-Request-ID"

// Custom binding tags
const (
	TagBranchCode   = "branchcode"
	TagDocumentType = "doctype"
	TagDigits       = "digits"
)

// tagErrorCodes maps custom tags to the error code reported for them
var tagErrorCodes = map[string]string{
	TagBranchCode:   dto.ErrCodeInvalidCode,
	TagDocumentType: dto.ErrCodeUnknownDocumentType,
}

var setupOnce sync.Once

// SetupValidator configures gin's validator: JSON field names in errors and
// the branchcode, doctype and digits tags. Safe to call more than once.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form", "uri"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
		_ = v.RegisterValidation(TagBranchCode, func(fl validator.FieldLevel) bool {
			return organization.ValidateBranchCode(fl.Field().String()) == nil
		})
		_ = v.RegisterValidation(TagDocumentType, func(fl validator.FieldLevel) bool {
			_, err := organization.ParseDocumentType(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation(TagDigits, func(fl validator.FieldLevel) bool {
			return valueobject.IsDigits(fl.Field().String())
		})
	})
}

// FormatValidationErrors formats validation errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Code:    validationCode(e),
				Message: getValidationMessage(e),
			})
		}
	}

	return dto.NewValidationErrorResponse(
		"Request validation failed",
		requestID,
		details,
	)
}

// HandleValidationError writes the 400 response for a failed bind. Struct
// validation failures list the offending fields; malformed or unknown JSON
// is reported as ERR_INVALID_JSON.
func HandleValidationError(c *gin.Context, err error) {
	requestID := getRequestIDFromContext(c)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.AbortWithStatusJSON(http.StatusBadRequest, FormatValidationErrors(err, requestID))
		return
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size", requestID))
		return
	}

	message := "Request body is not valid JSON"
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		message = "Request body is empty"
	case errors.As(err, &syntaxErr):
		message = "Request body is not valid JSON"
	case errors.As(err, &typeErr):
		message = "Field " + typeErr.Field + " has the wrong type"
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		message = "Unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, message, requestID))
}

// getRequestIDFromContext extracts request ID from gin context
func getRequestIDFromContext(c *gin.Context) string {
	if id := c.GetString(RequestIDContextKey); id != "" {
		return id
	}
	return c.GetHeader(RequestIDKey)
}

func validationCode(e validator.FieldError) string {
	if code, ok := tagErrorCodes[e.Tag()]; ok {
		return code
	}
	return dto.ErrCodeValidation
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case TagDigits:
		return "Must contain only digits"
	case TagBranchCode:
		return "Must be exactly 3 digits"
	case TagDocumentType:
		return "Unknown document type"
	default:
		return "Invalid value"
	}
}

// BindStrictJSON decodes the request body into obj rejecting unknown fields,
// then runs the binding validation. Errors are meant for HandleValidationError.
func BindStrictJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil {
		return io.EOF
	}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(obj); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(obj)
}
