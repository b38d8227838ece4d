// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jverhulst/portier/internal/platform/apperr"
	"github.com/jverhulst/portier/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "name", "Portier", false},
		{"empty_string", "name", "", true},
		{"whitespace_only", "name", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validate.New()
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "VALIDATION_ERROR", ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestValidator_Email checks the email format validation rule.
*/
func TestValidator_Email(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		isValid bool
	}{
		{"valid_email", "test@example.com", true},
		{"invalid_format", "invalid-email", false},
		{"missing_domain", "test@", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validate.New()
			v.Email("email", tt.email)

			if tt.isValid {
				assert.False(t, v.HasErrors())
			} else {
				assert.True(t, v.HasErrors())
			}
		})
	}
}

/*
TestValidator_Username covers the registration username rules: length,
alphabet, leading character, and separator runs.
*/
func TestValidator_Username(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		isValid bool
	}{
		{"simple", "john", true},
		{"with_separators", "j.doe_1", true},
		{"twelve_chars", "abcdefghijkl", true},
		{"too_short", "abc", false},
		{"too_long", "abcdefghijklm", false},
		{"uppercase", "John", false},
		{"leading_digit", "1john", false},
		{"leading_dot", ".john", false},
		{"double_separator", "jo__hn", false},
		{"illegal_char", "john!", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validate.New()
			v.Username("username", tt.value)

			assert.Equal(t, !tt.isValid, v.HasErrors(), "value: %q", tt.value)
		})
	}
}

/*
TestValidator_Password covers the password strength rule: at least 8
characters with an uppercase letter, a lowercase letter, a digit, and a
special character.
*/
func TestValidator_Password(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		isValid bool
	}{
		{"strong", "Sup3r$ecret", true},
		{"minimum_shape", "Aa1!aaaa", true},
		{"too_short", "Aa1!aaa", false},
		{"no_uppercase", "aa1!aaaa", false},
		{"no_lowercase", "AA1!AAAA", false},
		{"no_digit", "Aab!aaaa", false},
		{"no_special", "Aa1aaaaa", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validate.New()
			v.Password("password", tt.value)

			assert.Equal(t, !tt.isValid, v.HasErrors(), "value: %q", tt.value)
		})
	}
}

/*
TestValidator_Chain tests the fluent API (chaining multiple rules).
*/
func TestValidator_Chain(t *testing.T) {
	v := validate.New()

	err := v.
		Required("username", "eva").
		MinLen("username", "eva", 3).
		MaxLen("username", "eva", 10).
		Email("email", "eva@portier.dev").
		Err()

	assert.NoError(t, err)
	assert.False(t, v.HasErrors())
}

/*
TestValidator_CollectsAllFields verifies that one pass reports every failing
field, so forms can highlight them together.
*/
func TestValidator_CollectsAllFields(t *testing.T) {
	err := validate.New().
		Required("email", "").
		Required("password", "").
		Err()

	ae := apperr.As(err)
	require.NotNil(t, ae)
	require.Len(t, ae.Details, 2)
	assert.Equal(t, "email", ae.Details[0].Field)
	assert.Equal(t, "password", ae.Details[1].Field)
}
