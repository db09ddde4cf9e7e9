package backend

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

// Profile is the patient profile the backend stores.
type Profile struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
	BloodType string `json:"bloodType,omitempty"`
	Completed bool   `json:"profileCompleted"`
}

// GetProfile reads the authenticated patient's profile.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var out struct {
		Patient *Profile `json:"patient"`
	}
	if err := c.do(ctx, http.MethodGet, "/patient/profile", nil, &out); err != nil {
		return nil, err
	}
	if out.Patient == nil {
		return nil, errors.New("server response missing profile")
	}
	return out.Patient, nil
}

// UpdateProfile writes profile fields back to the backend.
func (c *Client) UpdateProfile(ctx context.Context, p Profile) error {
	return c.do(ctx, http.MethodPut, "/patient/profile", p, nil)
}

// AuthTokens is what the OTP verification endpoint returns.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Role         string `json:"role,omitempty"`
}

// RequestOTP asks the backend to send a one-time code to the phone.
// It is unauthenticated, so it bypasses the token source.
func (c *Client) RequestOTP(ctx context.Context, phone string) error {
	return c.doAnon(ctx, http.MethodPost, "/auth/otp/request", map[string]string{"phone": phone}, nil)
}

// VerifyOTP exchanges the code for tokens.
func (c *Client) VerifyOTP(ctx context.Context, phone, code string) (*AuthTokens, error) {
	var out AuthTokens
	if err := c.doAnon(ctx, http.MethodPost, "/auth/otp/verify", map[string]string{"phone": phone, "otp": code}, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, errors.New("server response missing access token")
	}
	return &out, nil
}

// TokenStore is an in-memory TokenSource the auth flow writes into.
// It doubles as the place the agent keeps the role and
// profile-completion flag between screens.
type TokenStore struct {
	mu        sync.RWMutex
	token     string
	role      string
	completed bool
}

func (s *TokenStore) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

func (s *TokenStore) SetToken(token, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.role = role
}

func (s *TokenStore) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *TokenStore) SetProfileCompleted(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = v
}

func (s *TokenStore) ProfileCompleted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completed
}

// Clear drops the stored token, forcing the next call to fail with
// ErrNoToken until the user re-authenticates.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.role = ""
	s.completed = false
}
