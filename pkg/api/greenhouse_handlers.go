package api

import (
	"net/http"

	"github.com/verdantlabs/canopy/pkg/greenhouse"
	"github.com/verdantlabs/canopy/pkg/httputil"
	"github.com/verdantlabs/canopy/pkg/middleware"
)

func (s *Server) handleCreateGreenHouse(w http.ResponseWriter, r *http.Request) {
	var req createGreenHouseRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}
	cropType := greenhouse.CropTomatoes
	if req.CropType != "" {
		var err error
		cropType, err = greenhouse.ParseCropType(req.CropType)
		if err != nil {
			s.serviceError(w, r, err)
			return
		}
	}

	g, err := s.svc.CreateGreenHouse(r.Context(), middleware.GetPrincipal(r), greenhouse.CreateGreenHouseInput{
		Name:            req.Name,
		CropType:        cropType,
		LocationID:      req.LocationID,
		AuthorizedUsers: req.AuthorizedUsers,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteCreated(w, renderGreenHouse(g))
}

func (s *Server) handleListGreenHouses(w http.ResponseWriter, r *http.Request) {
	greenhouses, err := s.svc.ListGreenHouses(r.Context(), middleware.GetPrincipal(r))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, renderGreenHouses(greenhouses))
}

func (s *Server) handleGetGreenHouse(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	g, err := s.svc.GetGreenHouse(r.Context(), middleware.GetPrincipal(r), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, renderGreenHouse(g))
}

func (s *Server) handleUpdateGreenHouse(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req updateGreenHouseRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	g, err := s.svc.UpdateGreenHouse(r.Context(), middleware.GetPrincipal(r), id, greenhouse.UpdateGreenHouseInput{
		Name:            req.Name,
		CropType:        req.CropType,
		LocationID:      req.LocationID,
		AuthorizedUsers: req.AuthorizedUsers,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, renderGreenHouse(g))
}

func (s *Server) handleDeleteGreenHouse(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.svc.DeleteGreenHouse(r.Context(), middleware.GetPrincipal(r), id); err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
