// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jverhulst/portier/internal/platform/constants"
	"github.com/jverhulst/portier/internal/platform/ctxutil"
	"github.com/jverhulst/portier/internal/platform/middleware"
	"github.com/jverhulst/portier/internal/users/permissions"
)

// stubResolver returns a fixed identity or error for every request.
type stubResolver struct {
	viewer *permissions.AuthUser
	err    error
}

func (resolver *stubResolver) ViewerFromRequest(*http.Request) (*permissions.AuthUser, error) {
	return resolver.viewer, resolver.err
}

// capture is a terminal handler recording whether it ran and with which viewer.
type capture struct {
	called bool
	viewer *permissions.AuthUser
}

func (handler *capture) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	handler.called = true
	handler.viewer = ctxutil.GetAuthUser(request.Context())
	writer.WriteHeader(http.StatusOK)
}

/*
TestResolveSession covers the three resolver outcomes: identity injected,
anonymous pass-through, and infrastructure failure aborting the request.
*/
func TestResolveSession(t *testing.T) {
	t.Run("injects_viewer", func(t *testing.T) {
		viewer := permissions.NewAuthUser("u1", permissions.RoleUser, "joe")
		next := &capture{}

		handler := middleware.ResolveSession(&stubResolver{viewer: viewer})(next)
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/me", nil))

		require.True(t, next.called)
		require.NotNil(t, next.viewer)
		assert.Equal(t, "u1", next.viewer.ID)
	})

	t.Run("anonymous_passes_through", func(t *testing.T) {
		next := &capture{}

		handler := middleware.ResolveSession(&stubResolver{})(next)
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		require.True(t, next.called)
		assert.Nil(t, next.viewer)
	})

	t.Run("store_failure_aborts", func(t *testing.T) {
		next := &capture{}
		recorder := httptest.NewRecorder()

		handler := middleware.ResolveSession(&stubResolver{err: errors.New("pool exhausted")})(next)
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.False(t, next.called, "outage must not pass as anonymous")
		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}

/*
TestRequireUser checks the protected-group gate: anonymous requests get a
302 redirect to the sign-in page, authenticated ones reach the handler.
*/
func TestRequireUser(t *testing.T) {
	t.Run("anonymous_redirects", func(t *testing.T) {
		next := &capture{}
		recorder := httptest.NewRecorder()

		middleware.RequireUser(next).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.False(t, next.called)
		assert.Equal(t, http.StatusFound, recorder.Code)
		assert.Equal(t, constants.SignInPath, recorder.Header().Get("Location"))
	})

	t.Run("authenticated_passes", func(t *testing.T) {
		next := &capture{}
		request := httptest.NewRequest(http.MethodGet, "/me", nil)
		request = request.WithContext(ctxutil.WithAuthUser(request.Context(),
			permissions.NewAuthUser("u1", permissions.RoleUser, "joe")))

		middleware.RequireUser(next).ServeHTTP(httptest.NewRecorder(), request)

		assert.True(t, next.called)
	})
}

/*
TestRequireRole checks the coarse role gate: redirect for anonymous, 403 for
the wrong role, pass for the required one.
*/
func TestRequireRole(t *testing.T) {
	gate := middleware.RequireRole(permissions.RoleAdmin)

	t.Run("anonymous_redirects", func(t *testing.T) {
		next := &capture{}
		recorder := httptest.NewRecorder()

		gate(next).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/admin", nil))

		assert.False(t, next.called)
		assert.Equal(t, http.StatusFound, recorder.Code)
	})

	t.Run("wrong_role_forbidden", func(t *testing.T) {
		next := &capture{}
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/admin", nil)
		request = request.WithContext(ctxutil.WithAuthUser(request.Context(),
			permissions.NewAuthUser("u1", permissions.RoleUser, "joe")))

		gate(next).ServeHTTP(recorder, request)

		assert.False(t, next.called)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("required_role_passes", func(t *testing.T) {
		next := &capture{}
		request := httptest.NewRequest(http.MethodGet, "/admin", nil)
		request = request.WithContext(ctxutil.WithAuthUser(request.Context(),
			permissions.NewAuthUser("a1", permissions.RoleAdmin, "root")))

		gate(next).ServeHTTP(httptest.NewRecorder(), request)

		assert.True(t, next.called)
	})
}
