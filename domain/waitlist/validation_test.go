package waitlist

import (
	"strings"
	"testing"

	apperrors "github.com/akeren/pingaroo/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail_AcceptsAndNormalizes(t *testing.T) {
	cases := map[string]string{
		"user@example.com":          "user@example.com",
		"  user@example.com\n":      "user@example.com",
		"User.Name@Example.COM":     "User.Name@example.com",
		"first+tag@sub.example.org": "first+tag@sub.example.org",
		"o'brien@example.co.uk":     "o'brien@example.co.uk",
	}

	for input, expected := range cases {
		t.Run(input, func(t *testing.T) {
			got, err := ValidateEmail(input)
			require.NoError(t, err)
			assert.Equal(t, expected, got)
		})
	}
}

func TestValidateEmail_RejectsMalformed(t *testing.T) {
	rejected := []string{
		"",
		"   ",
		"not-an-email",
		"@example.com",
		"user@",
		"user@localhost",
		"user@example",
		"user@example.c",
		"user@example..com",
		"user@10.0.0.1",
		"user@example.123",
		"John Doe <john@example.com>",
		"<john@example.com>",
		"two@@example.com",
		"a b@example.com",
		strings.Repeat("a", 250) + "@example.com",
	}

	for _, input := range rejected {
		t.Run(input, func(t *testing.T) {
			got, err := ValidateEmail(input)
			require.Error(t, err)
			assert.Empty(t, got)
			assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.GetErrorType(err))
			assert.Equal(t, []string{"Invalid email address."}, apperrors.GetFieldErrors(err)["email"])
		})
	}
}
