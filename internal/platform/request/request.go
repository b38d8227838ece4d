// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jverhulst/portier/internal/platform/apperr"
	"github.com/jverhulst/portier/internal/platform/ctxutil"
	"github.com/jverhulst/portier/internal/platform/validate"
	"github.com/jverhulst/portier/internal/users/permissions"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Viewer extracts the resolved identity from the request context.

Returns nil if the request is anonymous.
*/
func Viewer(request *http.Request) *permissions.AuthUser {
	return ctxutil.GetAuthUser(request.Context())
}

/*
RequiredViewer ensures the request is authenticated and returns the identity.

Returns:
  - *permissions.AuthUser: The resolved identity
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredViewer(request *http.Request) (*permissions.AuthUser, error) {

	// Get the resolved identity
	viewer := ctxutil.GetAuthUser(request.Context())

	// If the request is anonymous, return an error
	if viewer == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return viewer, nil
}
