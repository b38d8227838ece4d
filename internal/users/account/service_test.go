// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package account_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jverhulst/portier/internal/platform/apperr"
	"github.com/jverhulst/portier/internal/users/account"
	"github.com/jverhulst/portier/internal/users/auth"
	"github.com/jverhulst/portier/internal/users/permissions"
	"github.com/jverhulst/portier/pkg/pagination"
	"github.com/jverhulst/portier/pkg/pointer"
)

// # In-memory fakes

type fakeAccounts struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func (repo *fakeAccounts) FindByID(_ context.Context, id string) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (repo *fakeAccounts) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, user := range repo.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeAccounts) List(_ context.Context, params pagination.Params) ([]*auth.User, int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	users := make([]*auth.User, 0, len(repo.users))
	for _, user := range repo.users {
		clone := *user
		users = append(users, &clone)
	}
	return users, len(repo.users), nil
}

func (repo *fakeAccounts) SetRole(_ context.Context, userID string, role permissions.Role) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.Role = role
	return nil
}

func (repo *fakeAccounts) SetActive(_ context.Context, userID string, active bool) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.Active = active
	return nil
}

func (repo *fakeAccounts) Delete(_ context.Context, userID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.users[userID]; !ok {
		return apperr.NotFound("User")
	}
	delete(repo.users, userID)
	return nil
}

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]*account.Profile
}

func (repo *fakeProfiles) EnsureProfile(_ context.Context, userID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.profiles[userID]; !ok {
		repo.profiles[userID] = &account.Profile{UserID: userID, UpdatedAt: time.Now()}
	}
	return nil
}

func (repo *fakeProfiles) FindByUserID(_ context.Context, userID string) (*account.Profile, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	profile, ok := repo.profiles[userID]
	if !ok {
		return nil, apperr.NotFound("Profile")
	}
	clone := *profile
	return &clone, nil
}

func (repo *fakeProfiles) Update(_ context.Context, userID string, update account.ProfileUpdate) (*account.Profile, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	profile, ok := repo.profiles[userID]
	if !ok {
		return nil, apperr.NotFound("Profile")
	}
	profile.FirstName = pointer.Fallback(update.FirstName, profile.FirstName)
	profile.LastName = pointer.Fallback(update.LastName, profile.LastName)
	profile.Phone = pointer.Fallback(update.Phone, profile.Phone)
	profile.Bio = pointer.Fallback(update.Bio, profile.Bio)
	profile.AvatarURL = pointer.Fallback(update.AvatarURL, profile.AvatarURL)
	profile.UpdatedAt = time.Now()

	clone := *profile
	return &clone, nil
}

func (repo *fakeProfiles) EmailPublicTaken(_ context.Context, email string, excludeUserID string) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for id, profile := range repo.profiles {
		if id != excludeUserID && profile.EmailPublic == strings.ToLower(email) {
			return true, nil
		}
	}
	return false, nil
}

func (repo *fakeProfiles) SetEmailPublic(_ context.Context, userID string, email string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	profile, ok := repo.profiles[userID]
	if !ok {
		return apperr.NotFound("Profile")
	}
	profile.EmailPublic = strings.ToLower(email)
	return nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]string // token -> userID
}

func (repo *fakeSessions) Create(_ context.Context, session *auth.Session) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.sessions[session.Token] = session.UserID
	return nil
}

func (repo *fakeSessions) FindWithUser(_ context.Context, token string) (*auth.SessionWithUser, error) {
	return nil, apperr.NotFound("Session")
}

func (repo *fakeSessions) DeleteByToken(_ context.Context, token string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	delete(repo.sessions, token)
	return nil
}

func (repo *fakeSessions) DeleteAllForUser(_ context.Context, userID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for token, owner := range repo.sessions {
		if owner == userID {
			delete(repo.sessions, token)
		}
	}
	return nil
}

// # Fixture

type fixture struct {
	service  *account.Service
	accounts *fakeAccounts
	profiles *fakeProfiles
	sessions *fakeSessions

	admin *permissions.AuthUser
	user  *permissions.AuthUser
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	accounts := &fakeAccounts{users: map[string]*auth.User{
		"admin-1": {ID: "admin-1", Username: "root", Email: "root@example.com", Role: permissions.RoleAdmin, Active: true},
		"user-1":  {ID: "user-1", Username: "john", Email: "john@example.com", Role: permissions.RoleUser, Active: true},
		"user-2":  {ID: "user-2", Username: "jane", Email: "jane@example.com", Role: permissions.RoleUser, Active: true},
	}}
	profiles := &fakeProfiles{profiles: map[string]*account.Profile{
		"admin-1": {UserID: "admin-1"},
		"user-1":  {UserID: "user-1"},
		"user-2":  {UserID: "user-2", EmailPublic: "jane.public@example.com"},
	}}
	sessions := &fakeSessions{sessions: map[string]string{
		"tok-user-1a": "user-1",
		"tok-user-1b": "user-1",
		"tok-admin":   "admin-1",
	}}

	return &fixture{
		service:  account.NewService(accounts, profiles, sessions),
		accounts: accounts,
		profiles: profiles,
		sessions: sessions,
		admin:    permissions.NewAuthUser("admin-1", permissions.RoleAdmin, "root"),
		user:     permissions.NewAuthUser("user-1", permissions.RoleUser, "john"),
	}
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, http.StatusForbidden, ae.HTTPStatus)
}

// # Tests

/*
TestMe verifies the self view and the on-the-fly repair of a missing
profile row.
*/
func TestMe(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	result, err := fx.service.Me(ctx, fx.user)
	require.NoError(t, err)
	assert.Equal(t, "user-1", result.User.ID)
	assert.Equal(t, "user-1", result.Profile.UserID)

	t.Run("missing_profile_repaired", func(t *testing.T) {
		delete(fx.profiles.profiles, "user-1")

		result, err := fx.service.Me(ctx, fx.user)
		require.NoError(t, err)
		require.NotNil(t, result.Profile)

		_, err = fx.profiles.FindByUserID(ctx, "user-1")
		assert.NoError(t, err, "profile row recreated")
	})
}

/*
TestUpdateProfile checks the owner-only rule: admins may not edit other
accounts' profiles.
*/
func TestUpdateProfile(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	t.Run("owner_edits", func(t *testing.T) {
		profile, err := fx.service.UpdateProfile(ctx, fx.user, "user-1", account.ProfileUpdate{
			FirstName: pointer.To("John"),
			Bio:       pointer.To("Hello."),
		})
		require.NoError(t, err)
		assert.Equal(t, "John", profile.FirstName)
		assert.Equal(t, "Hello.", profile.Bio)
	})

	t.Run("partial_update_keeps_rest", func(t *testing.T) {
		profile, err := fx.service.UpdateProfile(ctx, fx.user, "user-1", account.ProfileUpdate{
			LastName: pointer.To("Doe"),
		})
		require.NoError(t, err)
		assert.Equal(t, "John", profile.FirstName, "untouched field survives")
		assert.Equal(t, "Doe", profile.LastName)
	})

	t.Run("admin_cannot_edit_others", func(t *testing.T) {
		_, err := fx.service.UpdateProfile(ctx, fx.admin, "user-1", account.ProfileUpdate{
			Bio: pointer.To("overwritten"),
		})
		assertForbidden(t, err)
	})

	t.Run("anonymous_denied", func(t *testing.T) {
		_, err := fx.service.UpdateProfile(ctx, nil, "user-1", account.ProfileUpdate{})
		assertForbidden(t, err)
	})
}

/*
TestSetPublicEmail covers ownership, the uniqueness pre-check, and clearing.
*/
func TestSetPublicEmail(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	t.Run("owner_sets", func(t *testing.T) {
		require.NoError(t, fx.service.SetPublicEmail(ctx, fx.user, "user-1", "john.public@example.com"))

		profile, err := fx.profiles.FindByUserID(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "john.public@example.com", profile.EmailPublic)
	})

	t.Run("taken_address_conflicts", func(t *testing.T) {
		err := fx.service.SetPublicEmail(ctx, fx.user, "user-1", "jane.public@example.com")
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, http.StatusConflict, ae.HTTPStatus)
	})

	t.Run("keeping_own_address_is_fine", func(t *testing.T) {
		require.NoError(t, fx.service.SetPublicEmail(ctx, fx.user, "user-1", "john.public@example.com"))
	})

	t.Run("owner_clears", func(t *testing.T) {
		require.NoError(t, fx.service.SetPublicEmail(ctx, fx.user, "user-1", ""))
	})

	t.Run("non_owner_denied", func(t *testing.T) {
		assertForbidden(t, fx.service.SetPublicEmail(ctx, fx.admin, "user-1", "any@example.com"))
	})
}

/*
TestSetRole covers the admin management path including the self-exclusion.
*/
func TestSetRole(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	t.Run("admin_promotes", func(t *testing.T) {
		require.NoError(t, fx.service.SetRole(ctx, fx.admin, "user-1", permissions.RoleRedacteur))

		user, err := fx.accounts.FindByID(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, permissions.RoleRedacteur, user.Role)
	})

	t.Run("admin_cannot_change_own_role", func(t *testing.T) {
		assertForbidden(t, fx.service.SetRole(ctx, fx.admin, "admin-1", permissions.RoleUser))
	})

	t.Run("non_admin_denied", func(t *testing.T) {
		assertForbidden(t, fx.service.SetRole(ctx, fx.user, "user-2", permissions.RoleAdmin))
	})

	t.Run("unknown_role_rejected", func(t *testing.T) {
		err := fx.service.SetRole(ctx, fx.admin, "user-2", permissions.Role("OVERLORD"))
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, http.StatusBadRequest, ae.HTTPStatus)
	})
}

/*
TestSetActive verifies locking revokes the target's sessions immediately.
*/
func TestSetActive(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	t.Run("lock_revokes_sessions", func(t *testing.T) {
		require.NoError(t, fx.service.SetActive(ctx, fx.admin, "user-1", false))

		user, err := fx.accounts.FindByID(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, user.Active)

		assert.NotContains(t, fx.sessions.sessions, "tok-user-1a")
		assert.NotContains(t, fx.sessions.sessions, "tok-user-1b")
		assert.Contains(t, fx.sessions.sessions, "tok-admin", "other accounts untouched")
	})

	t.Run("unlock_keeps_sessions", func(t *testing.T) {
		require.NoError(t, fx.service.SetActive(ctx, fx.admin, "user-1", true))
	})

	t.Run("admin_cannot_lock_self", func(t *testing.T) {
		assertForbidden(t, fx.service.SetActive(ctx, fx.admin, "admin-1", false))
	})

	t.Run("non_admin_denied", func(t *testing.T) {
		assertForbidden(t, fx.service.SetActive(ctx, fx.user, "user-2", false))
	})
}

/*
TestDelete verifies removal plus immediate session revocation.
*/
func TestDelete(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	t.Run("admin_deletes", func(t *testing.T) {
		require.NoError(t, fx.service.Delete(ctx, fx.admin, "user-1"))

		_, err := fx.accounts.FindByID(ctx, "user-1")
		assert.True(t, apperr.IsNotFound(err))
		assert.NotContains(t, fx.sessions.sessions, "tok-user-1a")
	})

	t.Run("admin_cannot_delete_self", func(t *testing.T) {
		assertForbidden(t, fx.service.Delete(ctx, fx.admin, "admin-1"))
	})

	t.Run("non_admin_denied", func(t *testing.T) {
		viewer := permissions.NewAuthUser("user-2", permissions.RoleUser, "jane")
		assertForbidden(t, fx.service.Delete(ctx, viewer, "admin-1"))
	})
}

/*
TestList returns the page with metadata for administrators and refuses
everyone else.
*/
func TestList(t *testing.T) {
	fx := newFixture(t)
	admin := permissions.NewAuthUser("admin-1", permissions.RoleAdmin, "root")

	t.Run("admin gets the page", func(t *testing.T) {
		users, meta, err := fx.service.List(context.Background(), admin, pagination.Params{Page: 1, Limit: 20})
		require.NoError(t, err)
		assert.Len(t, users, 3)
		assert.Equal(t, 3, meta.Total)
		assert.Equal(t, 1, meta.TotalPages)
	})

	t.Run("regular user is refused", func(t *testing.T) {
		viewer := permissions.NewAuthUser("user-1", permissions.RoleUser, "john")
		_, _, err := fx.service.List(context.Background(), viewer, pagination.Params{Page: 1, Limit: 20})
		assertForbidden(t, err)
	})
}
