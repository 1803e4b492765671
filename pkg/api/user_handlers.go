package api

import (
	"net/http"

	"github.com/verdantlabs/canopy/pkg/greenhouse"
	"github.com/verdantlabs/canopy/pkg/httputil"
	"github.com/verdantlabs/canopy/pkg/middleware"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.ListUsers(r.Context(), middleware.GetPrincipal(r))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, renderUsers(users))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	u, err := s.svc.GetUser(r.Context(), middleware.GetPrincipal(r), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, renderUser(u))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req updateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	u, err := s.svc.UpdateUser(r.Context(), middleware.GetPrincipal(r), id, greenhouse.UpdateUserInput{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		IsActive:    req.IsActive,
		IsStaff:     req.IsStaff,
		IsSuperuser: req.IsSuperuser,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, renderUser(u))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.svc.DeleteUser(r.Context(), middleware.GetPrincipal(r), id); err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
