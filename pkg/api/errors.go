package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/verdantlabs/canopy/pkg/auth"
	"github.com/verdantlabs/canopy/pkg/greenhouse"
	"github.com/verdantlabs/canopy/pkg/httputil"
	"github.com/verdantlabs/canopy/pkg/policy"
)

// serviceError writes the mapped status and, when the failure is a policy
// denial, records it against the request's action and resource kind
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	if s.metrics != nil && errors.Is(err, policy.ErrPermissionDenied) {
		s.metrics.ObservePolicyDenial(actionForMethod(r.Method), resourceForPath(r.URL.Path))
	}
	writeServiceError(w, err)
}

func actionForMethod(method string) string {
	switch method {
	case http.MethodGet:
		return "view"
	case http.MethodPost:
		return "create"
	case http.MethodPut:
		return "update"
	case http.MethodDelete:
		return "delete"
	}
	return strings.ToLower(method)
}

func resourceForPath(path string) string {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 2)
	if len(parts) == 0 || parts[0] == "" {
		return "unknown"
	}
	return parts[0]
}

// writeServiceError maps service failures onto the HTTP status surface.
// Not-found stays distinct per entity while every permission failure shares
// one message and status.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, greenhouse.ErrUserNotFound),
		errors.Is(err, greenhouse.ErrLocationNotFound),
		errors.Is(err, greenhouse.ErrGreenHouseNotFound),
		errors.Is(err, greenhouse.ErrDeviceNotFound),
		errors.Is(err, greenhouse.ErrEnvironmentNotFound):
		httputil.WriteNotFoundError(w, err.Error())

	case errors.Is(err, policy.ErrPermissionDenied):
		httputil.WriteForbidden(w, err.Error())

	case errors.Is(err, greenhouse.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		httputil.WriteUnauthorized(w, err.Error())

	case errors.Is(err, greenhouse.ErrEmailTaken),
		errors.Is(err, greenhouse.ErrUserInactive),
		errors.Is(err, greenhouse.ErrInvalidCropType),
		errors.Is(err, greenhouse.ErrInvalidFunctionality),
		errors.Is(err, greenhouse.ErrInvalidDecimal),
		errors.Is(err, auth.ErrIncorrectOldPassword),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrPasswordReused):
		httputil.WriteBadRequest(w, err.Error())

	default:
		httputil.WriteInternalError(w, err)
	}
}
