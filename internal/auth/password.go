package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordLength   = errors.New("auth: password must be 6 to 14 characters long")
	ErrPasswordUpper    = errors.New("auth: password must contain an uppercase letter")
	ErrPasswordDigit    = errors.New("auth: password must contain a digit")
	ErrPasswordCharset  = errors.New("auth: password may contain only latin letters and digits")
	ErrPasswordMismatch = errors.New("auth: password does not match")
)

// ValidatePassword checks the registration password policy: 6 to 14
// characters, at least one uppercase latin letter, at least one digit,
// latin letters and digits only.
func ValidatePassword(password string) error {
	runes := []rune(password)
	if len(runes) < 6 || len(runes) > 14 {
		return ErrPasswordLength
	}
	var hasUpper, hasDigit bool
	for _, r := range runes {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			return ErrPasswordCharset
		}
	}
	if !hasUpper {
		return ErrPasswordUpper
	}
	if !hasDigit {
		return ErrPasswordDigit
	}
	return nil
}

// HashPassword hashes a password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a stored hash.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}
