// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// # Architecture
//
// Handlers run the validator on decoded input before calling into services.
// Validation failures are resolved locally as 400 responses with per-field
// details; no store writes are ever attempted on invalid input.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jverhulst/portier/internal/platform/apperr"
)

var (
	// usernameCharsRegex matches the allowed username alphabet.
	usernameCharsRegex = regexp.MustCompile(`^[a-z0-9._]+$`)
	// usernameDoubleSepRegex finds consecutive dots/underscores.
	usernameDoubleSepRegex = regexp.MustCompile(`[._]{2}`)
	// uuidRegex matches a UUIDv4 or UUIDv7 string.
	uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

	// ErrInvalidJSON is returned when the request body cannot be decoded.
	ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")
)

// Validator collects field-level validation errors via a fluent, chainable API.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	errs []apperr.FieldError
}

// New creates an empty Validator ready for chaining.
func New() *Validator {
	return &Validator{}
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// MinLen fails if the Unicode character count is below min.
func (v *Validator) MinLen(field, value string, min int) *Validator {
	if utf8.RuneCountInString(value) < min {
		v.add(field, fmt.Sprintf("Minimum %d characters", min))
	}
	return v
}

// Email fails if the value is not a valid RFC 5322 email address.
func (v *Validator) Email(field, value string) *Validator {
	if _, err := mail.ParseAddress(value); err != nil {
		v.add(field, "Must be a valid email address")
	}
	return v
}

// Username fails unless the value satisfies every username rule.
//
// # Format
//
// 4-12 characters; lowercase letters, digits, dots and underscores only;
// no consecutive dots/underscores; cannot start with a digit, dot, or
// underscore. The rules are checked individually so each violation gets
// its own tailored message.
func (v *Validator) Username(field, value string) *Validator {
	if utf8.RuneCountInString(value) < 4 {
		v.add(field, "Username must be at least 4 characters long")
	}
	if utf8.RuneCountInString(value) > 12 {
		v.add(field, "Username must be at most 12 characters long")
	}
	if value != "" && !usernameCharsRegex.MatchString(value) {
		v.add(field, "Username can only contain lowercase letters, numbers, dots and underscores")
	}
	if usernameDoubleSepRegex.MatchString(value) {
		v.add(field, "Username cannot contain consecutive dots or underscores")
	}
	if value != "" {
		switch first := rune(value[0]); {
		case first >= '0' && first <= '9':
			v.add(field, "Username cannot start with a number")
		case first == '_':
			v.add(field, "Username cannot start with an underscore")
		case first == '.':
			v.add(field, "Username cannot start with a dot")
		}
	}
	return v
}

// Password fails unless the value meets the password policy.
//
// # Policy
//
// At least 8 characters containing one uppercase letter, one lowercase
// letter, one digit, and one special character.
func (v *Validator) Password(field, value string) *Validator {
	if utf8.RuneCountInString(value) < 8 {
		v.add(field, "Password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	if !hasUpper {
		v.add(field, "Password must contain at least one uppercase letter")
	}
	if !hasLower {
		v.add(field, "Password must contain at least one lowercase letter")
	}
	if !hasDigit {
		v.add(field, "Password must contain at least one number")
	}
	if !hasSpecial {
		v.add(field, "Password must contain at least one special character")
	}
	return v
}

// UUID fails if the value is not a valid UUID string (case-insensitive).
func (v *Validator) UUID(field, value string) *Validator {
	lower := strings.ToLower(value)
	if !uuidRegex.MatchString(lower) {
		v.add(field, "Must be a valid UUID")
	}
	return v
}

// OneOf fails if the value is not in the allowed set of strings.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.add(field, fmt.Sprintf("Must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Custom adds a failure with a custom message if the condition is true.
//
// # Example
//
//	v.Custom("password_confirm", confirm != password, "Passwords dont match")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// Err returns a [apperr.AppError] (VALIDATION_ERROR) if any rules failed,
// or nil if all rules passed.
//
// This is the only output method — call it at the end of the chain.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// HasErrors reports whether any validation rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// add appends a [apperr.FieldError] to the internal slice.
func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}

// RequiredError is a shortcut to create a single-field validation error.
func RequiredError(field, message string) *apperr.AppError {
	return apperr.ValidationError("Validation failed", apperr.FieldError{
		Field:   field,
		Message: message,
	})
}
