package errors

import (
	"math"
	"strings"
	"unicode"
)

// maxIDLength bounds node and edge identifiers.
const maxIDLength = 256

// ValidateID validates a node or edge identifier.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters
//   - Maximum length of 256 characters
func ValidateID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidInput, "%s id cannot be empty", kind)
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "%s id too long (max %d characters)", kind, maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s id %q contains control characters", kind, id)
		}
	}

	return nil
}

// ValidateFinite rejects NaN and infinite values for a named numeric option.
func ValidateFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidOption, "%s must be a finite number", name)
	}
	return nil
}

// ValidateNonNegative rejects negative or non-finite values for a named option.
func ValidateNonNegative(name string, v float64) error {
	if err := ValidateFinite(name, v); err != nil {
		return err
	}
	if v < 0 {
		return New(ErrCodeInvalidOption, "%s cannot be negative (got %g)", name, v)
	}
	return nil
}

// ValidateScaleRange checks that 0 < min <= max.
func ValidateScaleRange(min, max float64) error {
	if err := ValidateFinite("min scale", min); err != nil {
		return err
	}
	if err := ValidateFinite("max scale", max); err != nil {
		return err
	}
	if min <= 0 {
		return New(ErrCodeInvalidOption, "min scale must be positive (got %g)", min)
	}
	if max < min {
		return New(ErrCodeInvalidOption, "max scale %g is below min scale %g", max, min)
	}
	return nil
}
