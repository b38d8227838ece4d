// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package auth

import (
	"context"
	"time"
)

// # Repository Contracts

// UserRepository persists accounts.
type UserRepository interface {
	/*
		CreateBootstrap persists a new account, atomically deciding whether it
		is the very first one in the system.

		The decision and the insert happen inside a single transaction
		serialized on an advisory lock: if no account exists yet, the
		candidate is promoted to administrator and marked email-verified
		before the insert. Concurrent first registrations therefore yield
		exactly one administrator.

		Parameters:
		  - context: context.Context
		  - user: *User (Mutated in place: Role, EmailVerified, CreatedAt, UpdatedAt)

		Returns:
		  - error: Conflict with a field detail on username/email collision
	*/
	CreateBootstrap(context context.Context, user *User) error

	/*
		FindByID fetches an account by its primary identifier.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: The account
		  - error: NotFound when no such account exists
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail fetches an account by its login email.

		Parameters:
		  - context: context.Context
		  - email: string (Compared case-insensitively; stored lowercase)

		Returns:
		  - *User: The account
		  - error: NotFound when no such account exists
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		UsernameTaken reports whether a username is already in use. The probe
		is advisory only: the unique constraint remains the final arbiter.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - bool: True when an account already holds the username
		  - error: Internal on query failure
	*/
	UsernameTaken(context context.Context, username string) (bool, error)

	/*
		MarkEmailVerified flips the verified flag on an account.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: NotFound when no such account exists
	*/
	MarkEmailVerified(context context.Context, userID string) error

	/*
		UpdatePassword replaces the stored password hash.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - passwordHash: string (bcrypt hash, never plaintext)

		Returns:
		  - error: NotFound when no such account exists
	*/
	UpdatePassword(context context.Context, userID string, passwordHash string) error
}

// SessionRepository persists browser sessions.
type SessionRepository interface {
	/*
		Create persists a freshly minted session.

		Parameters:
		  - context: context.Context
		  - session: *Session

		Returns:
		  - error: Internal on insert failure
	*/
	Create(context context.Context, session *Session) error

	/*
		FindWithUser resolves a bearer token into its session joined with the
		owning account, in a single round trip. Expired rows are still
		returned: the caller decides on lazy cleanup.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - *SessionWithUser: The hydrated session
		  - error: NotFound when the token matches no row
	*/
	FindWithUser(context context.Context, token string) (*SessionWithUser, error)

	/*
		DeleteByToken removes a single session. Deleting a token that does not
		exist is not an error, so sign-out stays idempotent.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: Internal on delete failure
	*/
	DeleteByToken(context context.Context, token string) error

	/*
		DeleteAllForUser removes every session of an account, signing it out
		on all devices. Used after a password reset and on account deletion.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Internal on delete failure
	*/
	DeleteAllForUser(context context.Context, userID string) error
}

// ResetTokenRepository stores short-lived password-reset tokens.
//
// Tokens live outside the relational store: they are ephemeral, carry their
// own TTL, and must disappear without cleanup jobs.
type ResetTokenRepository interface {
	/*
		Set stores a reset token mapped to its account.

		Parameters:
		  - context: context.Context
		  - token: string
		  - userID: string
		  - ttl: time.Duration

		Returns:
		  - error: Internal on store failure
	*/
	Set(context context.Context, token string, userID string, ttl time.Duration) error

	/*
		Get resolves a reset token into the account it was issued for.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - string: The account identifier
		  - error: NotFound when the token is unknown or expired
	*/
	Get(context context.Context, token string) (string, error)

	/*
		Delete consumes a reset token so it cannot be replayed.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: Internal on delete failure
	*/
	Delete(context context.Context, token string) error
}

// ProfileInitializer creates the empty editable profile that accompanies a
// new account. Implemented by the account storage layer and injected here to
// keep the dependency pointing outward.
type ProfileInitializer interface {
	/*
		EnsureProfile creates an empty profile row for an account if one does
		not exist yet. Racing creations are tolerated as duplicates.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Internal on insert failure other than already-exists
	*/
	EnsureProfile(context context.Context, userID string) error
}
