// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jverhulst/portier/internal/platform/constants"
	"github.com/jverhulst/portier/internal/users/auth"
	"github.com/jverhulst/portier/internal/users/permissions"
)

func seedUser(t *testing.T, users *fakeUserRepo) *auth.User {
	t.Helper()

	user := &auth.User{
		ID:       "user-1",
		Username: "john",
		Email:    "john@example.com",
		Role:     permissions.RoleUser,
		Active:   true,
	}
	require.NoError(t, users.CreateBootstrap(context.Background(), user))
	return user
}

// requestWithCookie builds a GET request carrying the session cookie.
func requestWithCookie(token string) *http.Request {
	request := httptest.NewRequest(http.MethodGet, "/me", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: token})
	return request
}

/*
TestSessionManager_Lifecycle covers the happy path: create a session, set
the cookie, resolve the request back into the same user.
*/
func TestSessionManager_Lifecycle(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo(users)
	manager := auth.NewSessionManager(sessions, false)
	user := seedUser(t, users)

	session, err := manager.CreateSession(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, session.Token, auth.SessionTokenBytes*2, "hex-encoded token length")
	assert.WithinDuration(t, time.Now().Add(auth.SessionTTL), session.ExpiresAt, time.Minute)

	recorder := httptest.NewRecorder()
	manager.SetSessionCookie(recorder, session)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, constants.SessionCookieName, cookie.Name)
	assert.Equal(t, session.Token, cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure, "plain cookies outside production")
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	resolved, err := manager.SessionFromRequest(requestWithCookie(session.Token))
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, user.ID, resolved.User.ID)

	viewer, err := manager.ViewerFromRequest(requestWithCookie(session.Token))
	require.NoError(t, err)
	require.NotNil(t, viewer)
	assert.Equal(t, user.ID, viewer.ID)
	assert.Equal(t, permissions.RoleAdmin, viewer.Role, "bootstrap seed is the first account")
}

/*
TestSessionManager_Anonymous checks that a missing cookie and an unknown
token both resolve to an anonymous result without error.
*/
func TestSessionManager_Anonymous(t *testing.T) {
	users := newFakeUserRepo()
	manager := auth.NewSessionManager(newFakeSessionRepo(users), false)

	t.Run("no_cookie", func(t *testing.T) {
		session, err := manager.SessionFromRequest(httptest.NewRequest(http.MethodGet, "/me", nil))
		require.NoError(t, err)
		assert.Nil(t, session)
	})

	t.Run("unknown_token", func(t *testing.T) {
		viewer, err := manager.ViewerFromRequest(requestWithCookie("deadbeef"))
		require.NoError(t, err)
		assert.Nil(t, viewer)
	})
}

/*
TestSessionManager_ExpiredSession verifies lazy expiry: an expired session
resolves as anonymous and its row is deleted on first touch.
*/
func TestSessionManager_ExpiredSession(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo(users)
	manager := auth.NewSessionManager(sessions, false)
	user := seedUser(t, users)

	expired := &auth.Session{
		Token:     "expiredtoken",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Hour),
		CreatedAt: time.Now().Add(-8 * 24 * time.Hour),
	}
	require.NoError(t, sessions.Create(context.Background(), expired))
	require.Equal(t, 1, sessions.count())

	resolved, err := manager.SessionFromRequest(requestWithCookie(expired.Token))
	require.NoError(t, err)
	assert.Nil(t, resolved)
	assert.Equal(t, 0, sessions.count(), "expired row deleted lazily")
}

/*
TestSessionManager_Delete checks idempotent sign-out and the clearing cookie.
*/
func TestSessionManager_Delete(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo(users)
	manager := auth.NewSessionManager(sessions, true)
	user := seedUser(t, users)

	session, err := manager.CreateSession(context.Background(), user.ID)
	require.NoError(t, err)

	require.NoError(t, manager.DeleteSession(context.Background(), session.Token))
	assert.Equal(t, 0, sessions.count())

	// Deleting again must not fail.
	require.NoError(t, manager.DeleteSession(context.Background(), session.Token))

	recorder := httptest.NewRecorder()
	manager.ClearSessionCookie(recorder)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
	assert.True(t, cookies[0].Secure, "production manager sets Secure")
}
