package api

import (
	"net/http"

	"github.com/verdantlabs/canopy/pkg/greenhouse"
	"github.com/verdantlabs/canopy/pkg/httputil"
	"github.com/verdantlabs/canopy/pkg/middleware"
)

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}
	functionality := greenhouse.FunctionalityPassive
	if req.Functionality != "" {
		var err error
		functionality, err = greenhouse.ParseFunctionality(req.Functionality)
		if err != nil {
			s.serviceError(w, r, err)
			return
		}
	}

	d, err := s.svc.CreateDevice(r.Context(), middleware.GetPrincipal(r), greenhouse.CreateDeviceInput{
		Name:          req.Name,
		Functionality: functionality,
		GreenhouseID:  req.GreenhouseID,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteCreated(w, renderDevice(d))
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.svc.ListDevices(r.Context(), middleware.GetPrincipal(r))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, renderDevices(devices))
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	d, err := s.svc.GetDevice(r.Context(), middleware.GetPrincipal(r), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, renderDevice(d))
}

func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req updateDeviceRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	d, err := s.svc.UpdateDevice(r.Context(), middleware.GetPrincipal(r), id, greenhouse.UpdateDeviceInput{
		Name:          req.Name,
		Functionality: req.Functionality,
		GreenhouseID:  req.GreenhouseID,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, renderDevice(d))
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.svc.DeleteDevice(r.Context(), middleware.GetPrincipal(r), id); err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
