package api

import (
	"net/http"

	"github.com/verdantlabs/canopy/pkg/greenhouse"
	"github.com/verdantlabs/canopy/pkg/httputil"
	"github.com/verdantlabs/canopy/pkg/middleware"
)

func (s *Server) handleCreateEnvironment(w http.ResponseWriter, r *http.Request) {
	var req createEnvironmentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	e, err := s.svc.CreateEnvironment(r.Context(), middleware.GetPrincipal(r), greenhouse.CreateEnvironmentInput{
		GreenhouseID:          req.GreenhouseID,
		RecordedAt:            req.RecordedAt,
		Temperature:           req.Temperature,
		AirHumidity:           req.AirHumidity,
		LightLevel:            req.LightLevel,
		PAR:                   req.PAR,
		CO2Level:              req.CO2Level,
		SoilMoistureLevel:     req.SoilMoistureLevel,
		SoilSalinity:          req.SoilSalinity,
		SoilTemperature:       req.SoilTemperature,
		WeightOfSoilAndPlants: req.WeightOfSoilAndPlants,
		StemMicroVariability:  req.StemMicroVariability,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteCreated(w, e)
}

func (s *Server) handleListEnvironments(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.ListEnvironments(r.Context(), middleware.GetPrincipal(r))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, records)
}

func (s *Server) handleGetEnvironment(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	e, err := s.svc.GetEnvironment(r.Context(), middleware.GetPrincipal(r), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, e)
}

func (s *Server) handleDeleteEnvironment(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.svc.DeleteEnvironment(r.Context(), middleware.GetPrincipal(r), id); err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
