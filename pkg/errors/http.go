package errors

import (
	"errors"
)

func HTTPStatusCode(err error) int {
	if err == nil {
		return StatusInternalServerError
	}

	switch GetErrorType(err) {
	case ErrorTypeValidation, ErrorTypeInvalidRequest:
		return StatusBadRequest
	default:
		return StatusInternalServerError
	}
}

func GetHumanReadableMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	// Only caller-facing errors keep their message. Database and internal
	// messages are replaced so driver text never reaches a response.
	var appErr *AppError
	if errors.As(err, &appErr) && IsValidationError(err) {
		return appErr.Message
	}

	return "An unexpected error occurred"
}
