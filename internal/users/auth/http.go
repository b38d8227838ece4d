// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package auth

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jverhulst/portier/internal/platform/constants"
	"github.com/jverhulst/portier/internal/platform/middleware"
	requestutil "github.com/jverhulst/portier/internal/platform/request"
	"github.com/jverhulst/portier/internal/platform/respond"
	"github.com/jverhulst/portier/internal/platform/validate"
)

// # HTTP Handler

// Handler exposes the authentication endpoints.
type Handler struct {
	service  *Service
	sessions *SessionManager
}

/*
NewHandler creates the authentication HTTP handler.

Parameters:
  - service: *Service
  - sessions: *SessionManager

Returns:
  - *Handler
*/
func NewHandler(service *Service, sessions *SessionManager) *Handler {
	return &Handler{
		service:  service,
		sessions: sessions,
	}
}

// Routes returns the authentication routes. Everything except sign-out is
// reachable without a session.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/sign-up", handler.signUp)
	router.Post("/sign-in", handler.signIn)
	router.Post("/verify-email", handler.verifyEmail)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/reset-password", handler.resetPassword)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireUser)
		protected.Post("/sign-out", handler.signOut)
	})

	return router
}

// # Registration

type signUpRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// normalize lowercases and trims the identity fields, mirroring what the
// sign-up form does client-side. Passwords are left untouched.
func (body *signUpRequest) normalize() {
	body.Username = strings.ToLower(strings.TrimSpace(body.Username))
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
}

func (handler *Handler) signUp(writer http.ResponseWriter, request *http.Request) {
	var body signUpRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}
	body.normalize()

	validator := validate.New().
		Required(FieldUsername, body.Username).
		Username(FieldUsername, body.Username).
		Required(FieldEmail, body.Email).
		Email(FieldEmail, body.Email).
		Required(FieldPassword, body.Password).
		Password(FieldPassword, body.Password).
		Custom(FieldPasswordConfirm, body.Password != body.PasswordConfirm, "Passwords do not match!")
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.Register(request.Context(), RegisterInput{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// The bootstrap administrator is verified at birth and signs in
	// immediately: everyone else confirms their email first.
	if user.EmailVerified {
		session, err := handler.sessions.CreateSession(request.Context(), user.ID)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		handler.sessions.SetSessionCookie(writer, session)
		respond.Created(writer, map[string]any{
			FieldUser:    user,
			FieldMessage: "Account created. You are now signed in.",
		})
		return
	}

	respond.Created(writer, map[string]any{
		FieldUser:    user,
		FieldMessage: "Account created. Please verify your email before signing in.",
	})
}

// # Authentication

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (handler *Handler) signIn(writer http.ResponseWriter, request *http.Request) {
	var body signInRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))

	validator := validate.New().
		Required(FieldEmail, body.Email).
		Required(FieldPassword, body.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.Login(request.Context(), LoginInput{
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.sessions.CreateSession(request.Context(), user.ID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	handler.sessions.SetSessionCookie(writer, session)

	respond.OK(writer, map[string]any{FieldUser: user})
}

func (handler *Handler) signOut(writer http.ResponseWriter, request *http.Request) {
	// Idempotent: signing out without a session still clears the cookie and
	// succeeds.
	if cookie, err := request.Cookie(constants.SessionCookieName); err == nil && cookie.Value != "" {
		if err := handler.sessions.DeleteSession(request.Context(), cookie.Value); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}
	handler.sessions.ClearSessionCookie(writer)
	respond.NoContent(writer)
}

// # Email Verification

type verifyEmailRequest struct {
	Token string `json:"token"`
}

func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	var body verifyEmailRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := validate.New().Required(FieldToken, body.Token).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.VerifyEmail(request.Context(), body.Token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldMessage: "Email verified. You can sign in now.",
	})
}

// # Password Recovery

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var body forgotPasswordRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))

	validator := validate.New().
		Required(FieldEmail, body.Email).
		Email(FieldEmail, body.Email)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.RequestPasswordReset(request.Context(), body.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Always the same answer, known address or not.
	respond.OK(writer, map[string]any{
		FieldMessage: "If that email is registered, a reset link is on its way.",
	})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var body resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := validate.New().
		Required(FieldToken, body.Token).
		Required(FieldPassword, body.Password).
		Password(FieldPassword, body.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ResetPassword(request.Context(), body.Token, body.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldMessage: "Password updated. Please sign in with your new password.",
	})
}
