package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/instaaid/ride-tracker/internal/backend"
)

type fakeAccount struct {
	otpPhones []string
	verified  map[string]string
	profile   backend.Profile
	updated   *backend.Profile
}

func (f *fakeAccount) RequestOTP(ctx context.Context, phone string) error {
	f.otpPhones = append(f.otpPhones, phone)
	return nil
}

func (f *fakeAccount) VerifyOTP(ctx context.Context, phone, code string) (*backend.AuthTokens, error) {
	if f.verified[phone] != code {
		return nil, backend.ErrUnauthorized
	}
	return &backend.AuthTokens{AccessToken: "tok-" + phone, Role: "patient"}, nil
}

func (f *fakeAccount) GetProfile(ctx context.Context) (*backend.Profile, error) {
	p := f.profile
	return &p, nil
}

func (f *fakeAccount) UpdateProfile(ctx context.Context, p backend.Profile) error {
	f.updated = &p
	return nil
}

func TestOTPVerifySeedsSession(t *testing.T) {
	account := &fakeAccount{verified: map[string]string{"+91987": "4321"}}
	sessions := &backend.TokenStore{}
	s := NewServer(Options{Account: account, Sessions: sessions})
	srv := httptest.NewServer(s)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/auth/otp/request", "application/json",
		strings.NewReader(`{"phone":"+91987"}`))
	if err != nil {
		t.Fatalf("POST otp/request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if len(account.otpPhones) != 1 || account.otpPhones[0] != "+91987" {
		t.Fatalf("otp never requested: %v", account.otpPhones)
	}

	resp, err = http.Post(srv.URL+"/api/v1/auth/otp/verify", "application/json",
		strings.NewReader(`{"phone":"+91987","code":"9999"}`))
	if err != nil {
		t.Fatalf("POST otp/verify: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong code should be 401, got %d", resp.StatusCode)
	}
	if _, err := sessions.Token(context.Background()); err == nil {
		t.Fatal("failed verification must not seed the session")
	}

	resp, err = http.Post(srv.URL+"/api/v1/auth/otp/verify", "application/json",
		strings.NewReader(`{"phone":"+91987","code":"4321"}`))
	if err != nil {
		t.Fatalf("POST otp/verify: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	tok, err := sessions.Token(context.Background())
	if err != nil || tok != "tok-+91987" {
		t.Fatalf("session token = %q err = %v", tok, err)
	}
	if sessions.Role() != "patient" {
		t.Fatalf("role = %q", sessions.Role())
	}

	resp, err = http.Post(srv.URL+"/api/v1/auth/logout", "application/json", nil)
	if err != nil {
		t.Fatalf("POST logout: %v", err)
	}
	resp.Body.Close()
	if _, err := sessions.Token(context.Background()); err == nil {
		t.Fatal("logout should drop the token")
	}
}

func TestProfileEndpoints(t *testing.T) {
	account := &fakeAccount{profile: backend.Profile{Name: "Asha", Phone: "+91987", Completed: true}}
	sessions := &backend.TokenStore{}
	s := NewServer(Options{Account: account, Sessions: sessions})
	srv := httptest.NewServer(s)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/profile")
	if err != nil {
		t.Fatalf("GET profile: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Profile backend.Profile `json:"profile"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Profile.Name != "Asha" {
		t.Fatalf("unexpected profile %+v", body.Profile)
	}
	if !sessions.ProfileCompleted() {
		t.Fatal("completion flag should mirror the fetched profile")
	}

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/profile",
		strings.NewReader(`{"name":"Asha R","phone":"+91987","bloodType":"O+"}`))
	req.Header.Set("Content-Type", "application/json")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT profile: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp2.StatusCode)
	}
	if account.updated == nil || account.updated.Name != "Asha R" || account.updated.BloodType != "O+" {
		t.Fatalf("update never reached the backend: %+v", account.updated)
	}
}

func TestAuthNotConfigured(t *testing.T) {
	s := NewServer(Options{})
	srv := httptest.NewServer(s)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/auth/otp/request", "application/json",
		strings.NewReader(`{"phone":"+91987"}`))
	if err != nil {
		t.Fatalf("POST otp/request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without an account client, got %d", resp.StatusCode)
	}
}
