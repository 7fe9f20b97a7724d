package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    *string `json:"email" validate:"required,email"`
	Nickname string  `json:"nickname,omitempty" validate:"omitempty,min=3"`
}

func TestFormatValidationErrors_UsesJSONFieldNames(t *testing.T) {
	err := validator.New().Struct(&signup{Nickname: "al"})
	require.Error(t, err)

	fields := FormatValidationErrors(err, &signup{})

	assert.Equal(t, []string{MessageRequired}, fields["email"])
	assert.Equal(t, []string{"Must be at least 3 characters"}, fields["nickname"])
}

func TestFormatValidationErrors_InvalidEmail(t *testing.T) {
	bad := "not-an-email"
	err := validator.New().Struct(&signup{Email: &bad})
	require.Error(t, err)

	fields := FormatValidationErrors(err, signup{})
	assert.Equal(t, MessageInvalidEmail, fields.First("email"))
}

func TestFormatValidationErrors_TypeMismatch(t *testing.T) {
	var payload signup
	err := json.Unmarshal([]byte(`{"email": 42}`), &payload)
	require.Error(t, err)

	fields := FormatValidationErrors(err, &payload)
	assert.Equal(t, "Expected string, received number", fields.First("email"))
}

func TestFormatValidationErrors_NotFieldScoped(t *testing.T) {
	var payload signup
	err := json.Unmarshal([]byte(`{"email":`), &payload)
	require.Error(t, err)

	assert.Empty(t, FormatValidationErrors(err, &payload))
	assert.Empty(t, FormatValidationErrors(nil, &payload))
}

func TestFieldErrors_AddKeepsOrder(t *testing.T) {
	fields := FieldErrors{}
	fields.Add("email", "first")
	fields.Add("email", "second")

	assert.Equal(t, "first", fields.First("email"))
	assert.Equal(t, "", fields.First("missing"))
	assert.Len(t, fields["email"], 2)
}

func TestHTTPStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, StatusInternalServerError},
		{"validation", NewValidationError("bad input", FieldErrors{"email": {MessageRequired}}), StatusBadRequest},
		{"invalid request", NewInvalidRequestError("bad body", nil), StatusBadRequest},
		{"database", NewDatabaseError("insert failed", errors.New("conn refused")), StatusInternalServerError},
		{"internal", NewInternalServerError("boom", nil), StatusInternalServerError},
		{"plain", errors.New("plain"), StatusInternalServerError},
		{"wrapped validation", fmt.Errorf("register: %w", NewValidationError("bad", nil)), StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatusCode(tc.err))
		})
	}
}

func TestGetHumanReadableMessage_NeverLeaksCauses(t *testing.T) {
	dbErr := NewDatabaseError("insert failed", errors.New(`pq: duplicate key value violates unique constraint "idx_email"`))

	assert.Equal(t, "An unexpected error occurred", GetHumanReadableMessage(dbErr))
	assert.Equal(t, "An unexpected error occurred", GetHumanReadableMessage(nil))
	assert.Equal(t, "bad input", GetHumanReadableMessage(NewValidationError("bad input", nil)))
}

func TestAppError_UnwrapAndFields(t *testing.T) {
	cause := errors.New("conn reset")
	err := fmt.Errorf("register: %w", NewDatabaseError("insert failed", cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorTypeDatabaseError, GetErrorType(err))
	assert.Equal(t, ErrorTypeUnknown, GetErrorType(cause))
	assert.Nil(t, GetFieldErrors(err))
	assert.False(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "DATABASE_ERROR: insert failed: conn reset")

	fields := FieldErrors{"email": {MessageInvalidEmail}}
	assert.Equal(t, fields, GetFieldErrors(NewValidationError("bad", fields)))
}
