package validate

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/openpantry/pantryd/pkg/cryptox"
)

// UsedByDateLayout is the only accepted wire format for item expiry dates.
const UsedByDateLayout = "02-01-2006"

// MaxEmailLength matches the RFC 3696 address ceiling.
const MaxEmailLength = 320

// MaxSecretLength caps passwords and security answers at the hashing
// layer's input limit.
const MaxSecretLength = cryptox.MaxSecretBytes

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Password requires between 8 and 72 characters with an upper-case letter,
// a lower-case letter, a digit and a special character.
func Password(value string) (string, error) {
	if len(value) > MaxSecretLength {
		return "", errors.New("password must be at most 72 characters long")
	}

	var upper, lower, digit, special bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	if len(value) < 8 || !upper || !lower || !digit || !special {
		return "", errors.New("password must be at least 8 characters long and contain an upper-case letter, a lower-case letter, a digit and a special character")
	}
	return value, nil
}

// Username allows letters and digits only.
func Username(value string) (string, error) {
	for _, r := range value {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", errors.New("username must contain only letters and digits")
		}
	}
	return value, nil
}

// Email checks shape and length. The value is already lowercased by the
// pipeline's fold step, so normalization here is a no-op kept for callers
// that invoke the rule directly.
func Email(value string) (string, error) {
	if len(value) > MaxEmailLength {
		return "", errors.New("email must be at most 320 characters long")
	}
	if !emailPattern.MatchString(value) {
		return "", errors.New("email must be a valid email address")
	}
	return strings.ToLower(value), nil
}

// SecurityAnswer allows letters only, up to 72 characters.
func SecurityAnswer(value string) (string, error) {
	if len(value) > MaxSecretLength {
		return "", errors.New("security answer must be at most 72 characters long")
	}
	for _, r := range value {
		if !unicode.IsLetter(r) {
			return "", errors.New("security answer must contain only alphabetic characters")
		}
	}
	return value, nil
}

// ItemName allows words of letters separated by single spaces.
func ItemName(value string) (string, error) {
	for _, word := range strings.Split(value, " ") {
		if word == "" {
			return "", errors.New("item must contain only alphabetic characters and spaces")
		}
		for _, r := range word {
			if !unicode.IsLetter(r) {
				return "", errors.New("item must contain only alphabetic characters and spaces")
			}
		}
	}
	return value, nil
}

// UsedByDate requires a dd-mm-yyyy date.
func UsedByDate(value string) (string, error) {
	if _, err := time.Parse(UsedByDateLayout, value); err != nil {
		return "", errors.New("used_by_date must be a date in the format dd-mm-yyyy")
	}
	return value, nil
}

// NonNegativeCount rejects negative item counts.
func NonNegativeCount(value int) error {
	if value < 0 {
		return errors.New("count must be a non-negative integer")
	}
	return nil
}
