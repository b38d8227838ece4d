// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

/*
Package permissions defines roles, the AuthUser identity projection, and the
authorization predicates used before every mutating action.

# Architecture

Predicates are pure, total, and side-effect free: they take a resolved
identity (or nil) and a target identifier, and answer yes/no. Handlers must
evaluate the relevant predicate before performing a write and refuse — without
writing — when it answers false.

The AuthUser projection deliberately excludes sensitive fields (password
hash), so authorization decisions can never leak secrets by accident.
*/
package permissions

// # Roles

// Role represents the authorization level granted to an account.
type Role string

const (
	// Unrestricted account management access
	RoleAdmin Role = "ADMIN"

	// Can edit site content but not manage accounts
	RoleRedacteur Role = "REDACTEUR"

	// Default role for standard registered users
	RoleUser Role = "USER"
)

// Roles lists every valid role value.
var Roles = []Role{RoleUser, RoleRedacteur, RoleAdmin}

// IsValid reports whether the value is one of the defined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleRedacteur, RoleAdmin:
		return true
	}
	return false
}

// ParseRole maps an arbitrary string onto a [Role], falling back to
// [RoleUser] for unknown values rather than failing.
func ParseRole(value string) Role {
	role := Role(value)
	if !role.IsValid() {
		return RoleUser
	}
	return role
}

// # Identity Projection

// AuthUser is the minimal identity used for authorization decisions.
//
// It is derived from the full user record on every request and never
// persisted. Name is best-effort display data, not part of any decision.
type AuthUser struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Name string `json:"name,omitempty"`
}

// NewAuthUser projects a user record into an [AuthUser].
//
// Returns nil when the id is empty; an identity without a stable id cannot
// participate in authorization. Invalid roles degrade to [RoleUser].
func NewAuthUser(id string, role Role, name string) *AuthUser {
	if id == "" {
		return nil
	}
	if !role.IsValid() {
		role = RoleUser
	}
	return &AuthUser{ID: id, Role: role, Name: name}
}

// # Predicates

// IsAdmin reports whether the user is non-nil and holds the ADMIN role.
func IsAdmin(user *AuthUser) bool {
	return user != nil && user.Role == RoleAdmin
}

// IsSelf reports whether both identifiers are non-empty and equal.
func IsSelf(viewerID, targetID string) bool {
	return viewerID != "" && targetID != "" && viewerID == targetID
}

// CanManageUser reports whether the viewer may use the admin management path
// (role changes, activation, deletion) on the target account.
//
// An admin cannot manage themself through this path; self-edits go through
// the owner-edit path instead.
func CanManageUser(viewer *AuthUser, targetID string) bool {
	if !IsAdmin(viewer) {
		return false
	}
	return !IsSelf(viewer.ID, targetID)
}

// CanEditOwn reports whether the viewer owns the target account.
func CanEditOwn(viewer *AuthUser, targetID string) bool {
	if viewer == nil {
		return false
	}
	return IsSelf(viewer.ID, targetID)
}
