// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package account

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/jverhulst/portier/internal/platform/request"
	"github.com/jverhulst/portier/internal/platform/respond"
	"github.com/jverhulst/portier/internal/platform/validate"
	"github.com/jverhulst/portier/internal/users/permissions"
	"github.com/jverhulst/portier/pkg/pagination"
	"github.com/jverhulst/portier/pkg/pointer"
)

// Field identifiers for validation details in the account domain.
const (
	fieldEmailPublic = "email_public"
	fieldRole        = "role"
	fieldActive      = "active"
	fieldBio         = "bio"
	fieldFirstName   = "first_name"
	fieldLastName    = "last_name"
	fieldPhone       = "phone"
	fieldAvatarURL   = "avatar_url"
)

// Input length bounds for profile fields.
const (
	maxNameLen   = 100
	maxPhoneLen  = 32
	maxBioLen    = 1000
	maxAvatarLen = 500
)

// # HTTP Handler

// Handler exposes the account and administration endpoints. All routes are
// mounted behind the session gate; authorization beyond "signed in" lives in
// the service.
type Handler struct {
	service *Service
}

// NewHandler creates the account HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the protected account routes.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/me", handler.me)

	router.Route("/users", func(router chi.Router) {
		router.Get("/", handler.list)
		router.Get("/{username}", handler.getByUsername)

		router.Route("/{id}", func(router chi.Router) {
			router.Patch("/profile", handler.updateProfile)
			router.Put("/email-public", handler.setPublicEmail)
			router.Put("/role", handler.setRole)
			router.Put("/active", handler.setActive)
			router.Delete("/", handler.remove)
		})
	})

	return router
}

// # Queries

func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	viewer, err := requestutil.RequiredViewer(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Me(request.Context(), viewer)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	viewer, err := requestutil.RequiredViewer(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)

	users, metadata, err := handler.service.List(request.Context(), viewer, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, metadata)
}

func (handler *Handler) getByUsername(writer http.ResponseWriter, request *http.Request) {
	username := strings.ToLower(requestutil.Param(request, "username"))

	result, err := handler.service.GetByUsername(request.Context(), username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

// # Profile Edits

type updateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatar_url"`
}

func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	viewer, err := requestutil.RequiredViewer(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body updateProfileRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Absent fields dereference to "", which trivially satisfies MaxLen.
	validator := validate.New()
	validator.MaxLen(fieldFirstName, pointer.Val(body.FirstName), maxNameLen)
	validator.MaxLen(fieldLastName, pointer.Val(body.LastName), maxNameLen)
	validator.MaxLen(fieldPhone, pointer.Val(body.Phone), maxPhoneLen)
	validator.MaxLen(fieldBio, pointer.Val(body.Bio), maxBioLen)
	validator.MaxLen(fieldAvatarURL, pointer.Val(body.AvatarURL), maxAvatarLen)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.service.UpdateProfile(request.Context(), viewer, requestutil.Param(request, "id"), ProfileUpdate{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Phone:     body.Phone,
		Bio:       body.Bio,
		AvatarURL: body.AvatarURL,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

type setPublicEmailRequest struct {
	EmailPublic string `json:"email_public"`
}

func (handler *Handler) setPublicEmail(writer http.ResponseWriter, request *http.Request) {
	viewer, err := requestutil.RequiredViewer(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body setPublicEmailRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}
	body.EmailPublic = strings.ToLower(strings.TrimSpace(body.EmailPublic))

	// An empty value clears the address; anything else must parse.
	if body.EmailPublic != "" {
		if err := validate.New().Email(fieldEmailPublic, body.EmailPublic).Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	if err := handler.service.SetPublicEmail(request.Context(), viewer, requestutil.Param(request, "id"), body.EmailPublic); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Administration

type setRoleRequest struct {
	Role string `json:"role"`
}

func (handler *Handler) setRole(writer http.ResponseWriter, request *http.Request) {
	viewer, err := requestutil.RequiredViewer(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body setRoleRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role := permissions.Role(strings.ToUpper(strings.TrimSpace(body.Role)))
	if err := handler.service.SetRole(request.Context(), viewer, requestutil.Param(request, "id"), role); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

func (handler *Handler) setActive(writer http.ResponseWriter, request *http.Request) {
	viewer, err := requestutil.RequiredViewer(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body setActiveRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if body.Active == nil {
		respond.Error(writer, request, validate.RequiredError(fieldActive, "This field is required"))
		return
	}

	if err := handler.service.SetActive(request.Context(), viewer, requestutil.Param(request, "id"), *body.Active); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	viewer, err := requestutil.RequiredViewer(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), viewer, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
