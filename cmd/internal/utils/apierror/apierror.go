package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ErrorResponse interface {
	error
	Code() int
}

type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

type apiError struct {
	StatusCode int           `json:"code"`
	Message    string        `json:"message"`
	Fields     []*FieldError `json:"fields,omitempty"`
}

func (e *apiError) Error() string {
	return e.Message
}

func (e *apiError) Code() int {
	return e.StatusCode
}

var (
	MalformedBodyError  = NewSimple(http.StatusBadRequest, "Malformed request body")
	NotFoundError       = NewSimple(http.StatusNotFound, "Resource not found")
	InternalServerError = NewSimple(http.StatusInternalServerError, "Internal server error")
)

func NewSimple(code int, message string) ErrorResponse {
	return &apiError{StatusCode: code, Message: message}
}

func NewMissingParamError(param string) ErrorResponse {
	return NewSimple(http.StatusBadRequest, fmt.Sprintf("Missing parameter '%s'", param))
}

func NewInvalidFieldError(field, rule string) ErrorResponse {
	return &apiError{
		StatusCode: http.StatusBadRequest,
		Message:    "Validation failed",
		Fields:     []*FieldError{{Field: field, Rule: rule}},
	}
}

// FromValidationError turns validator output into a 400 listing every failing
// field by its json name.
func FromValidationError(err error) ErrorResponse {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return MalformedBodyError
	}

	fields := make([]*FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = &FieldError{Field: fieldName(fe), Rule: fe.Tag()}
	}
	return &apiError{
		StatusCode: http.StatusBadRequest,
		Message:    "Validation failed",
		Fields:     fields,
	}
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
