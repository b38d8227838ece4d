// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, Session) and the logic for
registration, authentication, session lifecycle, and the bootstrap-admin
promotion of the very first account.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no
transport dependencies and encapsulate all business rules related to user
identity.
*/
package auth

import (
	"context"
	"time"

	"github.com/jverhulst/portier/internal/users/permissions"
)

// # Domain Entities

// User represents a registered account.
type User struct {
	ID            string           `json:"id"`
	Username      string           `json:"username"`
	Email         string           `json:"email"`
	EmailVerified bool             `json:"email_verified"`
	PasswordHash  string           `json:"-"` // Empty for OAuth-only accounts. Omitted from JSON for security.
	Role          permissions.Role `json:"role"`
	Active        bool             `json:"active"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// AuthUser projects the account into the minimal identity used for
// authorization decisions. The projection never carries the password hash.
func (user *User) AuthUser() *permissions.AuthUser {
	if user == nil {
		return nil
	}
	return permissions.NewAuthUser(user.ID, user.Role, user.Username)
}

// Session represents a logged-in browser session.
//
// The token doubles as row identity and bearer secret: it is generated with
// at least 256 bits of entropy, stored server-side, and echoed to the client
// only through the session cookie. A user may hold several concurrent
// sessions (multi-device).
type Session struct {
	Token     string    `json:"-"` // Bearer secret. Never serialized.
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (session *Session) Expired(now time.Time) bool {
	return session.ExpiresAt.Before(now)
}

// SessionWithUser is a session hydrated with its owning account, as returned
// by the single joined lookup the request gate performs.
type SessionWithUser struct {
	Session
	User *User `json:"user"`
}

// # Account Creation Contexts

// CreationKind tags how a new account came into existence.
type CreationKind int

const (
	// CreationLocal is a form-based registration with a password.
	CreationLocal CreationKind = iota

	// CreationOAuth is an account minted from an OAuth provider callback.
	CreationOAuth
)

// CreationContext describes the origin of a user-creation request.
//
// It replaces runtime shape-probing of loosely-typed candidate objects with
// an explicit tagged variant: consumers switch on Kind and handle both cases.
type CreationContext struct {
	Kind CreationKind

	// Provider and DisplayName are only meaningful for CreationOAuth.
	Provider    string
	DisplayName string
}

// # Creation Hook

// BeforeUserCreateHook is invoked with a candidate account right before it is
// persisted, inside the same logical creation flow.
//
// The default implementation allocates a username for OAuth creations (their
// display names are rarely valid usernames) and marks them verified, since
// the provider already proved ownership of the email address.
type BeforeUserCreateHook interface {
	/*
		BeforeUserCreate finalizes a candidate account before persistence.

		Parameters:
		  - context: context.Context
		  - candidate: *User (Mutable candidate, not yet persisted)
		  - creation: CreationContext

		Returns:
		  - *User: The (possibly renamed, role-assigned) account to persist
		  - error: Aborts the whole creation flow
	*/
	BeforeUserCreate(context context.Context, candidate *User, creation CreationContext) (*User, error)
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldPasswordConfirm = "password_confirm"
	FieldToken           = "token"
	FieldMessage         = "message"
	FieldUser            = "user"
)
