// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/jverhulst/portier/internal/platform/apperr"
	"github.com/jverhulst/portier/internal/platform/constants"
	"github.com/jverhulst/portier/internal/platform/ctxutil"
	"github.com/jverhulst/portier/internal/platform/sec"
	"github.com/jverhulst/portier/internal/users/permissions"
)

// # Session Manager

// SessionManager owns the session lifecycle: minting tokens, reading and
// writing the session cookie, and resolving requests into identities.
type SessionManager struct {
	sessions      SessionRepository
	secureCookies bool
}

/*
NewSessionManager creates a session manager.

Parameters:
  - sessions: SessionRepository
  - secureCookies: bool (True in production: cookies carry the Secure flag)

Returns:
  - *SessionManager
*/
func NewSessionManager(sessions SessionRepository, secureCookies bool) *SessionManager {
	return &SessionManager{
		sessions:      sessions,
		secureCookies: secureCookies,
	}
}

/*
CreateSession mints a new session for an account and persists it.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *Session: The persisted session, token included
  - error: Internal on entropy or store failure
*/
func (manager *SessionManager) CreateSession(context context.Context, userID string) (*Session, error) {
	token, err := sec.GenerateSecureToken(SessionTokenBytes)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := time.Now()
	session := &Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(SessionTTL),
		CreatedAt: now,
	}

	if err := manager.sessions.Create(context, session); err != nil {
		return nil, err
	}

	return session, nil
}

/*
SessionFromRequest resolves the session cookie into a hydrated session.

A missing cookie, an unknown token, and an expired session all resolve to an
anonymous (nil, nil) result rather than an error: only infrastructure
failures surface. Expired rows are deleted lazily on first touch.

Parameters:
  - request: *http.Request

Returns:
  - *SessionWithUser: The live session, or nil for anonymous requests
  - error: Internal on store failure
*/
func (manager *SessionManager) SessionFromRequest(request *http.Request) (*SessionWithUser, error) {
	cookie, err := request.Cookie(constants.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	session, err := manager.sessions.FindWithUser(request.Context(), cookie.Value)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	if session.Expired(time.Now()) {
		// Lazy cleanup. A failed delete is logged, not fatal: the row stays
		// unusable either way.
		if err := manager.sessions.DeleteByToken(request.Context(), session.Token); err != nil {
			ctxutil.GetLogger(request.Context()).Warn("expired session cleanup failed",
				"error", err)
		}
		return nil, nil
	}

	return session, nil
}

/*
ViewerFromRequest resolves the request into an authorization identity.

Satisfies the middleware viewer-resolver contract: anonymous requests yield
(nil, nil), never a fabricated identity.

Parameters:
  - request: *http.Request

Returns:
  - *permissions.AuthUser: The viewer, or nil for anonymous requests
  - error: Internal on store failure
*/
func (manager *SessionManager) ViewerFromRequest(request *http.Request) (*permissions.AuthUser, error) {
	session, err := manager.SessionFromRequest(request)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	return session.User.AuthUser(), nil
}

/*
DeleteSession removes a session by token. Idempotent: deleting an unknown
token succeeds silently.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: Internal on store failure
*/
func (manager *SessionManager) DeleteSession(context context.Context, token string) error {
	return manager.sessions.DeleteByToken(context, token)
}

// # Cookie Handling

/*
SetSessionCookie attaches the session token to the response.

The cookie is host-wide, HTTP-only, SameSite=Lax, and Secure in production.
Its expiry mirrors the server-side session expiry.

Parameters:
  - writer: http.ResponseWriter
  - session: *Session
*/
func (manager *SessionManager) SetSessionCookie(writer http.ResponseWriter, session *Session) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    session.Token,
		Path:     constants.SessionCookiePath,
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   manager.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

/*
ClearSessionCookie expires the session cookie on the client.

Parameters:
  - writer: http.ResponseWriter
*/
func (manager *SessionManager) ClearSessionCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     constants.SessionCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   manager.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
