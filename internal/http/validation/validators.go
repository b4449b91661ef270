// Package validation provides small composable validators for form fields.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Validator is a function that validates a string value and returns an error
// message if invalid.
type Validator func(v string) string

// Required validates that a field is not empty and does not exceed maxLen
// characters. Uses rune count for proper Unicode support.
func Required(fieldName string, maxLen int) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return fieldName + " is required."
		}
		if utf8.RuneCountInString(v) > maxLen {
			return fmt.Sprintf("%s cannot exceed %d characters.", fieldName, maxLen)
		}
		return ""
	}
}

// MinLen validates that a field has at least minLen characters.
// Uses rune count for proper Unicode support.
func MinLen(fieldName string, minLen int) Validator {
	return func(v string) string {
		if utf8.RuneCountInString(v) < minLen {
			return fmt.Sprintf("%s must be at least %d characters long.", fieldName, minLen)
		}
		return ""
	}
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email validates that a field looks like an email address.
func Email(fieldName string) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return fieldName + " is required."
		}
		if !emailRe.MatchString(v) {
			return "Enter a valid email address."
		}
		return ""
	}
}

// Matches validates that a field equals another field's value.
func Matches(other, message string) Validator {
	return func(v string) string {
		if v != other {
			return message
		}
		return ""
	}
}

// PositiveAmount validates that a field is a number greater than zero.
func PositiveAmount(fieldName string) Validator {
	return func(v string) string {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fieldName + " must be a number."
		}
		if f <= 0 {
			return fieldName + " must be greater than zero."
		}
		return ""
	}
}

// Pattern validates that a non-empty field matches the provided regular
// expression.
func Pattern(fieldName string, re *regexp.Regexp) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return ""
		}
		if !re.MatchString(v) {
			return fieldName + " has an invalid format."
		}
		return ""
	}
}

// Field pairs a form field with the validators that apply to it.
type Field struct {
	Name   string
	Value  string
	Checks []Validator
}

// Validate runs every field's validators and collects the first failure per
// field. An empty map means the form is valid.
func Validate(fields ...Field) map[string]string {
	errs := make(map[string]string)
	for _, f := range fields {
		for _, check := range f.Checks {
			if msg := check(f.Value); msg != "" {
				errs[f.Name] = msg
				break
			}
		}
	}
	return errs
}
