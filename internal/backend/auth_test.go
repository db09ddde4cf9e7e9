package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOTPFlowFillsTokenStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("OTP endpoints must be anonymous, got %q", auth)
		}
		switch r.URL.Path {
		case "/auth/otp/request":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["phone"] != "+919876543210" {
				t.Errorf("unexpected request body %v", body)
			}
			w.WriteHeader(http.StatusAccepted)
		case "/auth/otp/verify":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["otp"] != "4321" {
				t.Errorf("unexpected verify body %v", body)
			}
			json.NewEncoder(w).Encode(AuthTokens{AccessToken: "tok-abc", Role: "patient"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	store := &TokenStore{}
	c := NewClient(srv.URL, store)

	if err := c.RequestOTP(context.Background(), "+919876543210"); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	tokens, err := c.VerifyOTP(context.Background(), "+919876543210", "4321")
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	store.SetToken(tokens.AccessToken, tokens.Role)

	got, err := store.Token(context.Background())
	if err != nil || got != "tok-abc" {
		t.Fatalf("token = %q err = %v", got, err)
	}
	if store.Role() != "patient" {
		t.Fatalf("role = %q", store.Role())
	}

	store.Clear()
	if _, err := store.Token(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken after Clear, got %v", err)
	}
}

func TestVerifyOTPMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(AuthTokens{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, &TokenStore{})
	if _, err := c.VerifyOTP(context.Background(), "+91", "0000"); err == nil {
		t.Fatal("expected error when the server omits the access token")
	}
}

func TestProfileRoundTrip(t *testing.T) {
	var putBody Profile
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/patient/profile" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]Profile{
				"patient": {Name: "Asha", Phone: "+919876543210", BloodType: "O+", Completed: true},
			})
		case http.MethodPut:
			json.NewDecoder(r.Body).Decode(&putBody)
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	store := &TokenStore{}
	store.SetToken("tok", "patient")
	c := NewClient(srv.URL, store)

	p, err := c.GetProfile(context.Background())
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.Name != "Asha" || !p.Completed {
		t.Fatalf("unexpected profile %+v", p)
	}

	if err := c.UpdateProfile(context.Background(), Profile{Name: "Asha R", Phone: p.Phone}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if putBody.Name != "Asha R" {
		t.Fatalf("update payload %+v", putBody)
	}
}

func TestProfileRequiresToken(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	c := NewClient(srv.URL, &TokenStore{})
	if _, err := c.GetProfile(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if called {
		t.Fatal("no request should leave the client without a token")
	}
}

// TokenStore satisfies the client's token source.
var _ TokenSource = (*TokenStore)(nil)
