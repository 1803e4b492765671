package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/verdantlabs/canopy/pkg/greenhouse"
	"github.com/verdantlabs/canopy/pkg/httputil"
	"github.com/verdantlabs/canopy/pkg/middleware"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	// Registration is public; an authenticated superuser may additionally
	// create staff accounts
	actor := middleware.GetPrincipal(r)

	u, err := s.svc.RegisterUser(r.Context(), actor, greenhouse.RegisterUserInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ForStaff:  req.ForStaff,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	httputil.WriteCreated(w, renderUser(u))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	u, err := s.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	var expiresAt *time.Time
	if s.tokenTTL > 0 {
		t := time.Now().UTC().Add(s.tokenTTL)
		expiresAt = &t
	}

	_, token, err := s.tokens.CreateToken(r.Context(), u.ID, "login", expiresAt)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, loginResponse{Token: token, User: renderUser(u)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")

	if err := s.tokens.RevokeTokenValue(r.Context(), token); err != nil {
		s.serviceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req changePasswordRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.NewPassword, "new_password") {
		return
	}

	actor := middleware.GetPrincipal(r)
	err := s.svc.ChangePassword(r.Context(), actor, id, req.OldPassword, req.NewPassword, req.RepeatPassword)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{"status": "password changed"})
}
