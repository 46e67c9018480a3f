package validation

import (
	"errors"
	"regexp"
	"unicode/utf16"

	"github.com/starterkit/internal/domain"
)

const (
	// MinPasswordLength is the shortest password accepted before asking the provider
	MinPasswordLength = 6

	emailMessage    = "fill-in a valid email address!"
	passwordMessage = "password must be at-least 6 chars!"
)

var (
	// emailRegex only requires text on both sides of an @; the provider does
	// the real address validation
	emailRegex = regexp.MustCompile(`^\S+@\S+$`)

	ErrInvalidEmail    = errors.New(emailMessage)
	ErrInvalidPassword = errors.New(passwordMessage)
)

// ValidateEmail checks the address has the shape text@text
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword checks the password is at least MinPasswordLength long.
// Length is counted in UTF-16 code units, the unit browsers use, so a
// character outside the basic plane counts twice.
func ValidatePassword(password string) error {
	if passwordLength(password) < MinPasswordLength {
		return ErrInvalidPassword
	}
	return nil
}

// ValidateCredentials collects field-level messages for a form submission
func ValidateCredentials(creds domain.Credentials) domain.FieldErrors {
	var errs domain.FieldErrors

	if err := ValidateEmail(creds.Email); err != nil {
		errs.Email = err.Error()
	}
	if err := ValidatePassword(creds.Password); err != nil {
		errs.Password = err.Error()
	}

	return errs
}

func passwordLength(password string) int {
	return len(utf16.Encode([]rune(password)))
}
