// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

/*
Package account implements user administration and profile management.

It covers everything that happens to an account after it exists: the editable
profile, the public contact email, and the administrative actions (role
changes, locking, deletion) guarded by the authorization predicates.
*/
package account

import (
	"context"
	"time"

	"github.com/jverhulst/portier/internal/users/auth"
	"github.com/jverhulst/portier/internal/users/permissions"
	"github.com/jverhulst/portier/pkg/pagination"
)

// # Domain Entities

// Profile holds the user-editable presentation fields of an account.
//
// It is created empty alongside the account and never deleted on its own:
// removing the account cascades to the profile.
type Profile struct {
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatar_url"`
	// EmailPublic is the optional publicly visible contact address. Unlike
	// the login email it may be absent, but must be unique when set.
	EmailPublic string    `json:"email_public"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserWithProfile bundles an account with its profile for detail views.
type UserWithProfile struct {
	User    *auth.User `json:"user"`
	Profile *Profile   `json:"profile"`
}

// ProfileUpdate is a partial profile edit. Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Bio       *string
	AvatarURL *string
}

// Empty reports whether the update would change nothing.
func (update ProfileUpdate) Empty() bool {
	return update.FirstName == nil &&
		update.LastName == nil &&
		update.Phone == nil &&
		update.Bio == nil &&
		update.AvatarURL == nil
}

// # Repository Contracts

// Repository reads and administers accounts.
type Repository interface {
	/*
		FindByID fetches an account by its primary identifier.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *auth.User: The account
		  - error: NotFound when no such account exists
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		FindByUsername fetches an account by its unique username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *auth.User: The account
		  - error: NotFound when no such account exists
	*/
	FindByUsername(context context.Context, username string) (*auth.User, error)

	/*
		List returns a page of accounts ordered by creation time, newest
		first, together with the total count.

		Parameters:
		  - context: context.Context
		  - params: pagination.Params

		Returns:
		  - []*auth.User: The page of accounts
		  - int: Total number of accounts
		  - error: Internal on query failure
	*/
	List(context context.Context, params pagination.Params) ([]*auth.User, int, error)

	/*
		SetRole replaces the role of an account.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - role: permissions.Role

		Returns:
		  - error: NotFound when no such account exists
	*/
	SetRole(context context.Context, userID string, role permissions.Role) error

	/*
		SetActive locks or unlocks an account. The store only flips the flag;
		the service layer revokes the account's live sessions on lock.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - active: bool

		Returns:
		  - error: NotFound when no such account exists
	*/
	SetActive(context context.Context, userID string, active bool) error

	/*
		Delete removes an account. Sessions and the profile go with it via
		cascading foreign keys.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: NotFound when no such account exists
	*/
	Delete(context context.Context, userID string) error
}

// ProfileRepository persists profiles. It also satisfies the profile
// initializer contract the registration flow depends on.
type ProfileRepository interface {
	/*
		EnsureProfile creates an empty profile row if one does not exist yet.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Internal on insert failure other than already-exists
	*/
	EnsureProfile(context context.Context, userID string) error

	/*
		FindByUserID fetches the profile of an account.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - *Profile: The profile
		  - error: NotFound when no profile row exists
	*/
	FindByUserID(context context.Context, userID string) (*Profile, error)

	/*
		Update applies a partial edit and returns the resulting profile.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - update: ProfileUpdate (Nil fields untouched)

		Returns:
		  - *Profile: The profile after the edit
		  - error: NotFound when no profile row exists
	*/
	Update(context context.Context, userID string, update ProfileUpdate) (*Profile, error)

	/*
		EmailPublicTaken reports whether another account already publishes
		the given contact email. Advisory; the unique index is the final
		arbiter.

		Parameters:
		  - context: context.Context
		  - email: string
		  - excludeUserID: string (The account asking, excluded from the probe)

		Returns:
		  - bool: True when another account holds the address
		  - error: Internal on query failure
	*/
	EmailPublicTaken(context context.Context, email string, excludeUserID string) (bool, error)

	/*
		SetEmailPublic sets or clears the public contact email.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - email: string (Empty clears the address)

		Returns:
		  - error: Conflict when the address is taken, NotFound without a
		    profile row
	*/
	SetEmailPublic(context context.Context, userID string, email string) error
}
