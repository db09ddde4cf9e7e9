package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/instaaid/ride-tracker/internal/backend"
)

// AccountClient is the backend surface the auth and profile endpoints
// need.
type AccountClient interface {
	RequestOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code string) (*backend.AuthTokens, error)
	GetProfile(ctx context.Context) (*backend.Profile, error)
	UpdateProfile(ctx context.Context, p backend.Profile) error
}

type otpRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func (s *Server) handleOTPRequest(w http.ResponseWriter, r *http.Request) {
	if s.Account == nil {
		http.Error(w, "authentication is not configured", http.StatusServiceUnavailable)
		return
	}
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" {
		http.Error(w, "phone is required", http.StatusBadRequest)
		return
	}
	if err := s.Account.RequestOTP(r.Context(), req.Phone); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]any{"phone": req.Phone, "sent": true})
}

// handleOTPVerify exchanges the code for tokens and seeds the session
// store so every later backend call is authenticated.
func (s *Server) handleOTPVerify(w http.ResponseWriter, r *http.Request) {
	if s.Account == nil {
		http.Error(w, "authentication is not configured", http.StatusServiceUnavailable)
		return
	}
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" || req.Code == "" {
		http.Error(w, "phone and code are required", http.StatusBadRequest)
		return
	}
	tokens, err := s.Account.VerifyOTP(r.Context(), req.Phone, req.Code)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if s.Sessions != nil {
		s.Sessions.SetToken(tokens.AccessToken, tokens.Role)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"role": tokens.Role, "authenticated": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.Sessions != nil {
		s.Sessions.Clear()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	if s.Account == nil {
		http.Error(w, "profile access is not configured", http.StatusServiceUnavailable)
		return
	}
	profile, err := s.Account.GetProfile(r.Context())
	if err != nil {
		s.writeAccountError(w, err)
		return
	}
	if s.Sessions != nil {
		s.Sessions.SetProfileCompleted(profile.Completed)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if s.Account == nil {
		http.Error(w, "profile access is not configured", http.StatusServiceUnavailable)
		return
	}
	var p backend.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Account.UpdateProfile(r.Context(), p); err != nil {
		s.writeAccountError(w, err)
		return
	}
	if s.Sessions != nil {
		s.Sessions.SetProfileCompleted(true)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"profile": p})
}

func (s *Server) writeAccountError(w http.ResponseWriter, err error) {
	if errors.Is(err, backend.ErrNoToken) || errors.Is(err, backend.ErrUnauthorized) {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	http.Error(w, err.Error(), http.StatusBadGateway)
}
