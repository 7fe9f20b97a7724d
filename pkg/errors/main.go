package errors

import (
	"errors"
	"fmt"
)

const (
	StatusOK                  = 200
	StatusCreated             = 201
	StatusNoContent           = 204
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusRequestTimeout      = 408
	StatusTooManyRequests     = 429
	StatusInternalServerError = 500
)

const (
	ErrorTypeValidation          = "VALIDATION_ERROR"
	ErrorTypeInvalidRequest      = "INVALID_REQUEST"
	ErrorTypeDatabaseError       = "DATABASE_ERROR"
	ErrorTypeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrorTypeUnknown             = "UNKNOWN_ERROR"
)

type AppError struct {
	Type    string
	Message string
	Err     error
	// Fields is only set for ErrorTypeValidation.
	Fields FieldErrors
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(errType, message string, err error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// NewValidationError reports caller input that failed validation, keyed by field.
func NewValidationError(message string, fields FieldErrors) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Fields:  fields,
	}
}

func NewInvalidRequestError(message string, err error) *AppError {
	return NewAppError(ErrorTypeInvalidRequest, message, err)
}

func NewDatabaseError(message string, err error) *AppError {
	return NewAppError(ErrorTypeDatabaseError, message, err)
}

func NewInternalServerError(message string, err error) *AppError {
	return NewAppError(ErrorTypeInternalServerError, message, err)
}

func GetErrorType(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}

	return ErrorTypeUnknown
}

// GetFieldErrors returns the field errors carried by a validation error, or nil.
func GetFieldErrors(err error) FieldErrors {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Type == ErrorTypeValidation {
		return appErr.Fields
	}
	return nil
}

// IsValidationError reports whether err was caused by caller input rather than the system.
func IsValidationError(err error) bool {
	switch GetErrorType(err) {
	case ErrorTypeValidation, ErrorTypeInvalidRequest:
		return true
	default:
		return false
	}
}
