package waitlist

import (
	"net/mail"
	"strings"

	apperrors "github.com/akeren/pingaroo/pkg/errors"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	emailField     = "email"
	maxEmailLength = 254
)

var (
	emailValidator = validator.New()
	domainCaser    = cases.Lower(language.Und)
)

// ValidateEmail checks candidate and returns it normalized: surrounding
// whitespace trimmed and the domain lower-cased. The local part is kept as
// given. Failures are validation errors keyed to the email field.
func ValidateEmail(candidate string) (string, error) {
	address := strings.TrimSpace(candidate)

	if !isValidEmail(address) {
		fields := apperrors.FieldErrors{}
		fields.Add(emailField, apperrors.MessageInvalidEmail)
		return "", apperrors.NewValidationError("invalid email address", fields)
	}

	at := strings.LastIndex(address, "@")
	return address[:at] + "@" + domainCaser.String(address[at+1:]), nil
}

func isValidEmail(address string) bool {
	if address == "" || len(address) > maxEmailLength {
		return false
	}

	if err := emailValidator.Var(address, "email"); err != nil {
		return false
	}

	// Reject display names, comments and angle-bracket forms that the
	// validator regexp does not see.
	parsed, err := mail.ParseAddress(address)
	if err != nil || parsed.Name != "" || parsed.Address != address {
		return false
	}

	at := strings.LastIndex(address, "@")
	return hasPublicSuffixShape(address[at+1:])
}

// hasPublicSuffixShape requires at least two labels and an alphabetic TLD of
// two or more letters, so "user@localhost" and "user@10.0.0.1" are refused.
func hasPublicSuffixShape(domain string) bool {
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}

	for _, label := range labels {
		if label == "" {
			return false
		}
	}

	tld := labels[len(labels)-1]
	if len(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') {
			return false
		}
	}

	return true
}
