// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package auth

import (
	"context"
)

// # Default Creation Hook

// DefaultCreateHook is the standard [BeforeUserCreateHook].
//
// Local registrations pass through untouched: the username was chosen and
// validated by the user. OAuth creations get a username allocated from the
// provider's display name and skip email verification, since the provider
// already proved ownership of the address.
type DefaultCreateHook struct {
	allocator *UsernameAllocator
}

/*
NewDefaultCreateHook creates the standard creation hook.

Parameters:
  - allocator: *UsernameAllocator

Returns:
  - *DefaultCreateHook
*/
func NewDefaultCreateHook(allocator *UsernameAllocator) *DefaultCreateHook {
	return &DefaultCreateHook{allocator: allocator}
}

// BeforeUserCreate implements [BeforeUserCreateHook].
func (hook *DefaultCreateHook) BeforeUserCreate(context context.Context, candidate *User, creation CreationContext) (*User, error) {
	switch creation.Kind {
	case CreationOAuth:
		source := creation.DisplayName
		if source == "" {
			source = candidate.Email
		}
		allocated, err := hook.allocator.Allocate(context, source)
		if err != nil {
			return nil, err
		}
		candidate.Username = allocated
		candidate.EmailVerified = true
	case CreationLocal:
		// Nothing to adjust: the chosen username already passed validation.
	}
	return candidate, nil
}
