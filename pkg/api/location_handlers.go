package api

import (
	"net/http"

	"github.com/verdantlabs/canopy/pkg/greenhouse"
	"github.com/verdantlabs/canopy/pkg/httputil"
	"github.com/verdantlabs/canopy/pkg/middleware"
)

func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	var req createLocationRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}

	l, err := s.svc.CreateLocation(r.Context(), middleware.GetPrincipal(r), greenhouse.CreateLocationInput{
		Name:      req.Name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteCreated(w, renderLocation(l))
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := s.svc.ListLocations(r.Context(), middleware.GetPrincipal(r))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, renderLocations(locations))
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	l, err := s.svc.GetLocation(r.Context(), middleware.GetPrincipal(r), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, renderLocation(l))
}

func (s *Server) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req updateLocationRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	l, err := s.svc.UpdateLocation(r.Context(), middleware.GetPrincipal(r), id, greenhouse.UpdateLocationInput{
		Name:      req.Name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, renderLocation(l))
}

func (s *Server) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.svc.DeleteLocation(r.Context(), middleware.GetPrincipal(r), id); err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
