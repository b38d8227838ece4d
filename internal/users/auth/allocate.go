// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package auth

import (
	"context"
	"crypto/rand"
	"strconv"
	"strings"

	"github.com/jverhulst/portier/pkg/username"
	"github.com/jverhulst/portier/pkg/uuid"
)

// # Username Allocator

const allocatorSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// UsernameAllocator turns arbitrary display names into unique, valid
// usernames for accounts created without an explicit username choice.
type UsernameAllocator struct {
	users UserRepository
}

/*
NewUsernameAllocator creates an allocator backed by the account store.

Parameters:
  - users: UserRepository

Returns:
  - *UsernameAllocator
*/
func NewUsernameAllocator(users UserRepository) *UsernameAllocator {
	return &UsernameAllocator{users: users}
}

/*
Allocate derives a free username from a raw display name.

The raw input is sanitized first. If the result is taken, numbered suffixes
(base2, base3, ...) are probed, then short random base-36 names, and finally
a UUID-derived name that cannot realistically collide. The base is truncated
as needed so every numbered candidate stays within the length bounds.

The availability probes race with concurrent inserts; the unique constraint
on the users table remains the final arbiter.

Parameters:
  - context: context.Context
  - raw: string (Display name or requested username, any shape)

Returns:
  - string: A valid, currently-free username
  - error: Internal on store failure
*/
func (allocator *UsernameAllocator) Allocate(context context.Context, raw string) (string, error) {
	base := username.Sanitize(raw)

	taken, err := allocator.users.UsernameTaken(context, base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}

	// Deterministic numbered suffixes keep allocated names predictable. The
	// bare base was attempt one, so the suffix picks up at two.
	for i := 2; i <= allocatorNumericAttempts; i++ {
		candidate := fitSuffix(base, strconv.Itoa(i))
		taken, err := allocator.users.UsernameTaken(context, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	// Dense namespaces: drop the base and probe short random names.
	for i := 0; i < allocatorRandomAttempts; i++ {
		suffix, err := randomSuffix(allocatorRandomSuffixLen)
		if err != nil {
			return "", err
		}
		candidate := "u" + suffix
		taken, err := allocator.users.UsernameTaken(context, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	// Last resort: a UUID-derived name. No availability probe needed.
	return uuidUsername(), nil
}

// fitSuffix appends a suffix to the base, truncating the base so the result
// stays within the maximum length and never ends the base on a separator.
func fitSuffix(base string, suffix string) string {
	room := username.MaxLength - len(suffix)
	if len(base) > room {
		base = base[:room]
	}
	base = strings.TrimRight(base, "._")
	return base + suffix
}

// randomSuffix returns n characters drawn uniformly from the base-36 alphabet.
func randomSuffix(n int) (string, error) {
	buffer := make([]byte, n)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	for i, b := range buffer {
		buffer[i] = allocatorSuffixAlphabet[int(b)%len(allocatorSuffixAlphabet)]
	}
	return string(buffer), nil
}

// uuidUsername derives a collision-proof username from a fresh UUID.
func uuidUsername() string {
	compact := strings.ReplaceAll(uuid.Must(), "-", "")
	return "u" + compact[:username.MaxLength-1]
}
