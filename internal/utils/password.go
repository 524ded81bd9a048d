package utils

import (
	"errors"
	"unicode/utf8"
)

const (
	PasswordMinLength = 8
	PasswordMaxLength = 20
)

var (
	ErrPasswordTooShort      = errors.New("password should have minimum 8 characters")
	ErrPasswordTooLong       = errors.New("password should have maximum 20 characters")
	ErrPasswordNoDigit       = errors.New("password should have at least 1 number")
	ErrPasswordNoUppercase   = errors.New("password should have at least 1 capital letter")
	ErrPasswordNoLowercase   = errors.New("password should have at least 1 small letter")
	ErrPasswordNoSpecialChar = errors.New("password should have at least 1 special character")
)

// ValidatePasswordStrength checks the composition rules in a fixed order and
// returns the first violation only.
func ValidatePasswordStrength(password string) error {
	length := utf8.RuneCountInString(password)
	if length < PasswordMinLength {
		return ErrPasswordTooShort
	}
	if length > PasswordMaxLength {
		return ErrPasswordTooLong
	}

	var (
		hasDigit   bool
		hasUpper   bool
		hasLower   bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case char >= '0' && char <= '9':
			hasDigit = true
		case char >= 'A' && char <= 'Z':
			hasUpper = true
		case char >= 'a' && char <= 'z':
			hasLower = true
		default:
			hasSpecial = true
		}
	}

	if !hasDigit {
		return ErrPasswordNoDigit
	}
	if !hasUpper {
		return ErrPasswordNoUppercase
	}
	if !hasLower {
		return ErrPasswordNoLowercase
	}
	if !hasSpecial {
		return ErrPasswordNoSpecialChar
	}

	return nil
}
