package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by delivery and consumption dates.
const DateLayout = "2006-01-02"

// NormalizeItemCode is the stored form of an item code: trimmed and upper case.
func NormalizeItemCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// FieldError describes a draft field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// ParseQuantity parses free text into a non-negative finite number.
func ParseQuantity(field, raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &FieldError{Field: field, Message: "must be a number"}
	}
	if err := validateAmount(field, value); err != nil {
		return 0, err
	}
	return value, nil
}

func validateAmount(field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &FieldError{Field: field, Message: "must be a finite number"}
	}
	if value < 0 {
		return &FieldError{Field: field, Message: "must not be negative"}
	}
	return nil
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &FieldError{Field: field, Message: "is required"}
	}
	return nil
}

func validateDate(field, value string) error {
	if err := requireText(field, value); err != nil {
		return err
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return &FieldError{Field: field, Message: "must be a YYYY-MM-DD date"}
	}
	return nil
}
