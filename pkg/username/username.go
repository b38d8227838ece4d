// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

// Package username normalizes arbitrary display names and email addresses
// into valid Portier username candidates.
//
// # Usage
//
// OAuth providers hand us free-form display names ("Żaneta Kowalski-Łai",
// "j.doe@example.com"). [Sanitize] turns any such string into a candidate
// that satisfies the username rules; the allocator in the auth package then
// probes for an available variant.
package username

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Username format constraints. These mirror the registration form rules:
// 4-12 chars, lowercase alphanumeric plus '.'/'_', must start with a letter,
// no consecutive separators.
const (
	MinLength = 4
	MaxLength = 12

	// fallback is substituted when sanitization produces nothing usable,
	// and used as padding when the candidate is too short.
	fallback = "user"
)

var (
	// Valid matches a fully sanitized username.
	Valid = regexp.MustCompile(`^[a-z][a-z0-9._]*$`)

	// invalidRun matches every run of characters outside the allowed set.
	invalidRun = regexp.MustCompile(`[^a-z0-9._]+`)
	// separatorRun matches consecutive '.'/'_' separators.
	separatorRun = regexp.MustCompile(`[._]{2,}`)
	// leadingJunk matches a leading run of digits/dots/underscores.
	leadingJunk = regexp.MustCompile(`^[0-9._]+`)
	// consecutive reports any remaining adjacent separator pair.
	consecutive = regexp.MustCompile(`[._]{2}`)
)

// Sanitize converts an arbitrary Unicode string into a valid username candidate.
//
// # Transformation Pipeline
//
//  1. Lowercase, trim, and strip diacritics (NFD decomposition, drop marks).
//  2. Replace every run of disallowed characters with a single '.'.
//  3. Collapse separator runs and strip leading digits/dots/underscores.
//  4. Substitute "user" if nothing remains; prefix 'u' if the first
//     character is not a lowercase letter.
//  5. Enforce length bounds, then repair violations the length fixes can
//     reintroduce (a truncation may end in a separator, padding may create
//     a separator pair).
//
// Sanitize is total: it never fails and is idempotent on its own output.
func Sanitize(raw string) string {
	candidate := strings.ToLower(strings.TrimSpace(raw))
	candidate = stripDiacritics(candidate)

	candidate = invalidRun.ReplaceAllString(candidate, ".")
	candidate = separatorRun.ReplaceAllString(candidate, ".")
	candidate = leadingJunk.ReplaceAllString(candidate, "")

	if candidate == "" {
		candidate = fallback
	}
	if candidate[0] < 'a' || candidate[0] > 'z' {
		candidate = "u" + candidate
	}

	candidate = clampLength(candidate)

	// Length fixes can break earlier guarantees. Re-run the cheap repairs
	// until the candidate is stable; two passes suffice in practice but the
	// loop keeps the invariant obvious.
	for !IsValid(candidate) {
		candidate = separatorRun.ReplaceAllString(candidate, ".")
		candidate = leadingJunk.ReplaceAllString(candidate, "")
		if candidate == "" {
			candidate = fallback
		}
		if candidate[0] < 'a' || candidate[0] > 'z' {
			candidate = "u" + candidate
		}
		candidate = clampLength(candidate)
	}

	return candidate
}

// IsValid reports whether the value already satisfies every username rule.
func IsValid(value string) bool {
	if len(value) < MinLength || len(value) > MaxLength {
		return false
	}
	if !Valid.MatchString(value) {
		return false
	}
	return !consecutive.MatchString(value)
}

// clampLength truncates to [MaxLength] and pads short candidates with the
// fallback word up to [MinLength].
func clampLength(candidate string) string {
	if len(candidate) > MaxLength {
		candidate = candidate[:MaxLength]
	}
	if len(candidate) < MinLength {
		candidate = candidate + fallback
		if len(candidate) > MinLength {
			candidate = candidate[:MinLength]
		}
	}
	return candidate
}

// stripDiacritics removes combining marks after NFD decomposition
// (é -> e + combining acute -> e).
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		// Best-effort: sanitization must not fail on exotic input, the
		// original string flows through the ASCII filters instead.
		return s
	}
	return result
}
