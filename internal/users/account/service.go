// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package account

import (
	"context"

	"github.com/jverhulst/portier/internal/platform/apperr"
	"github.com/jverhulst/portier/internal/users/auth"
	"github.com/jverhulst/portier/internal/users/permissions"
	"github.com/jverhulst/portier/pkg/pagination"
)

// # Service

// Service implements account queries, profile edits, and administration.
//
// Every mutating operation takes the acting viewer and enforces the
// authorization predicates itself: handlers only route, they never decide.
type Service struct {
	accounts Repository
	profiles ProfileRepository
	sessions auth.SessionRepository
}

/*
NewService creates the account service.

Parameters:
  - accounts: Repository
  - profiles: ProfileRepository
  - sessions: auth.SessionRepository (Used to revoke sessions on deletion/lock)

Returns:
  - *Service
*/
func NewService(accounts Repository, profiles ProfileRepository, sessions auth.SessionRepository) *Service {
	return &Service{
		accounts: accounts,
		profiles: profiles,
		sessions: sessions,
	}
}

// # Queries

/*
Me returns the viewer's own account with its profile. A missing profile row
is repaired on the fly.

Parameters:
  - context: context.Context
  - viewer: *permissions.AuthUser

Returns:
  - *UserWithProfile
  - error: NotFound when the account vanished underneath the session
*/
func (service *Service) Me(context context.Context, viewer *permissions.AuthUser) (*UserWithProfile, error) {
	return service.getWithProfile(context, viewer.ID)
}

/*
GetByUsername returns an account with its profile for a detail view.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *UserWithProfile
  - error: NotFound when no such account exists
*/
func (service *Service) GetByUsername(context context.Context, username string) (*UserWithProfile, error) {
	user, err := service.accounts.FindByUsername(context, username)
	if err != nil {
		return nil, err
	}
	return service.getWithProfile(context, user.ID)
}

func (service *Service) getWithProfile(context context.Context, userID string) (*UserWithProfile, error) {
	user, err := service.accounts.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	profile, err := service.profiles.FindByUserID(context, userID)
	if err != nil {
		if !apperr.IsNotFound(err) {
			return nil, err
		}
		// Registration creates profiles best effort; repair here.
		if err := service.profiles.EnsureProfile(context, userID); err != nil {
			return nil, err
		}
		profile = &Profile{UserID: userID}
	}

	return &UserWithProfile{User: user, Profile: profile}, nil
}

/*
List returns a page of accounts, newest first. The listing backs the
administration screen, so only administrators may call it.

Parameters:
  - context: context.Context
  - viewer: *permissions.AuthUser
  - params: pagination.Params

Returns:
  - []*auth.User: The page of accounts
  - pagination.Meta: Page metadata for the response envelope
  - error: Forbidden for non-administrators, Internal on query failure
*/
func (service *Service) List(context context.Context, viewer *permissions.AuthUser, params pagination.Params) ([]*auth.User, pagination.Meta, error) {
	if !permissions.IsAdmin(viewer) {
		return nil, pagination.Meta{}, apperr.Forbidden("Not authorized.")
	}

	users, total, err := service.accounts.List(context, params)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return users, pagination.NewMeta(params.Page, params.Limit, total), nil
}

// # Profile Edits (owner only)

/*
UpdateProfile applies a partial profile edit. Only the account owner may
edit; administrators do not edit other people's profiles.

Parameters:
  - context: context.Context
  - viewer: *permissions.AuthUser
  - targetUserID: string
  - update: ProfileUpdate

Returns:
  - *Profile: The profile after the edit
  - error: Forbidden when the viewer is not the owner
*/
func (service *Service) UpdateProfile(context context.Context, viewer *permissions.AuthUser, targetUserID string, update ProfileUpdate) (*Profile, error) {
	if !permissions.CanEditOwn(viewer, targetUserID) {
		return nil, apperr.Forbidden("Not authorized.")
	}
	if update.Empty() {
		return service.profiles.FindByUserID(context, targetUserID)
	}
	return service.profiles.Update(context, targetUserID, update)
}

/*
SetPublicEmail sets or clears the publicly visible contact email. Owner
only. A friendly availability pre-check runs before the write; the unique
index catches whatever races past it.

Parameters:
  - context: context.Context
  - viewer: *permissions.AuthUser
  - targetUserID: string
  - email: string (Empty clears the address)

Returns:
  - error: Forbidden for non-owners, Conflict when the address is taken
*/
func (service *Service) SetPublicEmail(context context.Context, viewer *permissions.AuthUser, targetUserID string, email string) error {
	if !permissions.CanEditOwn(viewer, targetUserID) {
		return apperr.Forbidden("Not authorized.")
	}

	if email != "" {
		taken, err := service.profiles.EmailPublicTaken(context, email, targetUserID)
		if err != nil {
			return err
		}
		if taken {
			return apperr.ConflictField(fieldEmailPublic, "Email already in use!")
		}
	}

	return service.profiles.SetEmailPublic(context, targetUserID, email)
}

// # Administration (admin only, never on self)

/*
SetRole replaces the role of another account. Administrators cannot change
their own role, so the system cannot lose its last administrator by a
misclick.

Parameters:
  - context: context.Context
  - viewer: *permissions.AuthUser
  - targetUserID: string
  - role: permissions.Role

Returns:
  - error: Forbidden unless the viewer may manage the target
*/
func (service *Service) SetRole(context context.Context, viewer *permissions.AuthUser, targetUserID string, role permissions.Role) error {
	if !permissions.CanManageUser(viewer, targetUserID) {
		return apperr.Forbidden("Not authorized.")
	}
	if !role.IsValid() {
		return apperr.ValidationError("Unknown role.",
			apperr.FieldError{Field: fieldRole, Message: "Unknown role."})
	}
	return service.accounts.SetRole(context, targetUserID, role)
}

/*
SetActive locks or unlocks another account. Locking also revokes every live
session of the target so the lock takes effect immediately.

Parameters:
  - context: context.Context
  - viewer: *permissions.AuthUser
  - targetUserID: string
  - active: bool

Returns:
  - error: Forbidden unless the viewer may manage the target
*/
func (service *Service) SetActive(context context.Context, viewer *permissions.AuthUser, targetUserID string, active bool) error {
	if !permissions.CanManageUser(viewer, targetUserID) {
		return apperr.Forbidden("Not authorized.")
	}
	if err := service.accounts.SetActive(context, targetUserID, active); err != nil {
		return err
	}
	if !active {
		return service.sessions.DeleteAllForUser(context, targetUserID)
	}
	return nil
}

/*
Delete removes another account. Sessions and the profile cascade away with
the row; the explicit session sweep just closes the gap for stores without
cascading deletes.

Parameters:
  - context: context.Context
  - viewer: *permissions.AuthUser
  - targetUserID: string

Returns:
  - error: Forbidden unless the viewer may manage the target
*/
func (service *Service) Delete(context context.Context, viewer *permissions.AuthUser, targetUserID string) error {
	if !permissions.CanManageUser(viewer, targetUserID) {
		return apperr.Forbidden("Not authorized.")
	}
	if err := service.sessions.DeleteAllForUser(context, targetUserID); err != nil {
		return err
	}
	return service.accounts.Delete(context, targetUserID)
}
