package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kjstillabower/bank-service/internal/models"
)

// MaxNameLength bounds customer names in runes.
const MaxNameLength = 200

// MoneyScale is the number of decimal places amounts are rounded to.
const MoneyScale = 2

var (
	// ErrEmpty is returned when input is empty or whitespace-only after trim.
	ErrEmpty = fmt.Errorf("%w: input cannot be empty", models.ErrInvalidInput)

	// ErrNameTooLong is returned when a name exceeds MaxNameLength.
	ErrNameTooLong = fmt.Errorf("%w: name too long", models.ErrInvalidInput)

	// ErrInvalidEmail is returned when an email lacks '@' or '.'.
	ErrInvalidEmail = fmt.Errorf("%w: invalid email", models.ErrInvalidInput)

	// ErrInvalidNumber is returned when an amount is not a decimal number.
	ErrInvalidNumber = fmt.Errorf("%w: not a number", models.ErrInvalidInput)

	// ErrInvalidID is returned when an identifier is not a UUID.
	ErrInvalidID = fmt.Errorf("%w: invalid ID", models.ErrInvalidInput)
)

// ValidateName trims input and enforces non-empty and MaxNameLength.
func ValidateName(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrEmpty
	}
	if utf8.RuneCountInString(s) > MaxNameLength {
		return "", ErrNameTooLong
	}
	return s, nil
}

// ValidateEmail trims input and requires it to contain '@' and '.'.
func ValidateEmail(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrEmpty
	}
	if !strings.Contains(s, "@") || !strings.Contains(s, ".") {
		return "", ErrInvalidEmail
	}
	return s, nil
}

// ParseAmount parses a decimal amount, rounds it half-up to MoneyScale places
// and requires the rounded value to be positive.
func ParseAmount(input string) (decimal.Decimal, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return decimal.Decimal{}, ErrEmpty
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidNumber
	}
	return NormalizeAmount(d)
}

// NormalizeAmount rounds d half-up to MoneyScale places and requires it positive.
func NormalizeAmount(d decimal.Decimal) (decimal.Decimal, error) {
	d = d.Round(MoneyScale)
	if !d.IsPositive() {
		return decimal.Decimal{}, models.ErrInvalidAmount
	}
	return d, nil
}

// ParseAccountID parses a UUID, rejecting the nil UUID.
func ParseAccountID(input string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}

// IsValidationError reports whether err came from this package or a domain
// input check, i.e. whether it should be shown to the user and re-prompted.
func IsValidationError(err error) bool {
	return errors.Is(err, models.ErrInvalidInput) || errors.Is(err, models.ErrInvalidAmount)
}
