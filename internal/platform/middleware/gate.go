// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package middleware

import (
	"net/http"

	"github.com/jverhulst/portier/internal/platform/apperr"
	"github.com/jverhulst/portier/internal/platform/constants"
	"github.com/jverhulst/portier/internal/platform/ctxutil"
	"github.com/jverhulst/portier/internal/platform/respond"
	"github.com/jverhulst/portier/internal/users/permissions"
)

// ViewerResolver resolves the identity behind a request's session cookie.
//
// # Why an interface?
//
// Defining ViewerResolver here decouples the gate from the auth session
// manager implementation, allowing us to inject fakes during unit testing.
type ViewerResolver interface {
	/*
		ViewerFromRequest resolves the session cookie into an identity.

		Parameters:
		  - request: *http.Request

		Returns:
		  - *permissions.AuthUser: The resolved identity, nil for anonymous requests
		  - error: Infrastructure failures only (store unreachable)
	*/
	ViewerFromRequest(request *http.Request) (*permissions.AuthUser, error)
}

// ResolveSession is the request gate's first half: it runs once per request,
// resolves the caller's session, and attaches the derived identity to the
// request context.
//
// # Flow
//  1. Read the session cookie and look up the session (joined with its user).
//  2. Missing cookie, unknown token, or expired session → request proceeds
//     as anonymous (expired sessions are purged by the session manager).
//  3. Valid session → inject [*permissions.AuthUser] into the context.
//
// Infrastructure failures abort the request; they are never downgraded to
// an anonymous pass-through, which could mask an outage as a logout.
func ResolveSession(resolver ViewerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			viewer, err := resolver.ViewerFromRequest(request)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			if viewer == nil {
				next.ServeHTTP(writer, request)
				return
			}

			ctx := ctxutil.WithAuthUser(request.Context(), viewer)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireUser is the request gate's second half: it guards the protected
// route group.
//
// # Usage
//
// Must be registered in the router AFTER [ResolveSession].
//
// # Flow
//  1. Check if an identity exists in the context.
//  2. If missing, short-circuit with a 302 redirect to the sign-in page
//     instead of invoking the handler.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		viewer := ctxutil.GetAuthUser(request.Context())
		if viewer == nil {
			respond.Redirect(writer, request, constants.SignInPath)
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests whose identity doesn't hold the required role.
//
// # Usage
//
// Coarse route-group protection only; fine-grained decisions (owner vs.
// admin paths) stay with the [permissions] predicates inside handlers.
func RequireRole(role permissions.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			viewer := ctxutil.GetAuthUser(request.Context())

			if viewer == nil {
				respond.Redirect(writer, request, constants.SignInPath)
				return
			}

			if viewer.Role != role {
				respond.Error(writer, request, apperr.Forbidden("Not authorized."))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
