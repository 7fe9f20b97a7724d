package waitlist

import (
	apperrors "github.com/akeren/pingaroo/pkg/errors"
)

const (
	MessageRegistered    = "Successfully added to waitlist!"
	MessageInvalidBody   = "Invalid request body."
	MessageInternalError = "An internal server error occurred."
)

// RegisterRequest is the body of POST /api/waitlist. Email is a pointer so
// that a missing field and an empty string are reported differently.
type RegisterRequest struct {
	Email *string `json:"email" binding:"required"`
}

// Confirmation is returned for both new and already-registered addresses.
type Confirmation struct {
	Email   string
	Message string
}

// ========================================
// Response bodies
// ========================================

type MessageResponse struct {
	Message string `json:"message"`
}

type FieldErrorResponse struct {
	Error apperrors.FieldErrors `json:"error"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
