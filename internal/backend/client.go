// Package backend is the REST client for the dispatch backend. Every
// call carries a bearer token from the configured token source; a
// missing token is surfaced as ErrNoToken so callers can send the
// user back to authentication.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/instaaid/ride-tracker/internal/models"
)

var (
	// ErrNoToken means no auth token is available locally; the caller
	// should redirect to the auth flow rather than retry.
	ErrNoToken = errors.New("authentication token not found")
	// ErrUnauthorized means the backend rejected the token as invalid
	// or expired. Re-authentication is left to the caller.
	ErrUnauthorized = errors.New("authentication token invalid or expired")
	// ErrRideNotFound means the lookup succeeded but returned no rides.
	ErrRideNotFound = errors.New("ride not found")
)

// TokenSource supplies the bearer token persisted by the auth flow.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed-token source, mostly for tests and tooling.
type StaticToken string

func (s StaticToken) Token(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// Client talks to the dispatch backend.
type Client struct {
	BaseURL string
	Tokens  TokenSource
	HTTP    *http.Client
}

func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		BaseURL: baseURL,
		Tokens:  tokens,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchRide looks up a ride by id. The backend wraps single lookups
// in the same {rides: [...]} envelope as list queries.
func (c *Client) FetchRide(ctx context.Context, rideID string) (*models.Ride, error) {
	if rideID == "" {
		return nil, errors.New("no ride id provided")
	}
	var out models.RideResponse
	if err := c.do(ctx, http.MethodGet, "/ride/rides?id="+url.QueryEscape(rideID), nil, &out); err != nil {
		return nil, err
	}
	if len(out.Rides) == 0 {
		return nil, ErrRideNotFound
	}
	ride := out.Rides[0]
	if ride.ID == "" {
		return nil, errors.New("invalid ride data received from server")
	}
	return &ride, nil
}

// CreateRide books a new ride and returns the created resource,
// including the fare and one-time verification code the server
// assigned.
func (c *Client) CreateRide(ctx context.Context, req models.BookingRequest) (*models.Ride, error) {
	var out models.RideResponse
	if err := c.do(ctx, http.MethodPost, "/ride/create", req, &out); err != nil {
		return nil, err
	}
	if out.Ride == nil || out.Ride.ID == "" {
		return nil, errors.New("server response missing created ride")
	}
	return out.Ride, nil
}

// SearchHospitals queries hospitals near a point. The emergency
// filter is the backend-normalized category and may be empty.
func (c *Client) SearchHospitals(ctx context.Context, near models.LatLng, radiusMeters int, emergency string) ([]models.Hospital, error) {
	if !near.Valid() {
		return nil, errors.New("invalid search coordinates")
	}
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(near.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(near.Longitude, 'f', -1, 64))
	q.Set("radius", strconv.Itoa(radiusMeters))
	if emergency != "" {
		q.Set("emergency", emergency)
	}
	var out struct {
		Hospitals []models.Hospital `json:"hospitals"`
	}
	if err := c.do(ctx, http.MethodGet, "/hospital/search?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Hospitals, nil
}

// do performs one authenticated JSON round trip. Error response
// bodies are truncated into the message so logs stay readable.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	token, err := c.Tokens.Token(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return ErrNoToken
	}
	return c.send(ctx, method, path, token, in, out)
}

// doAnon is for the OTP endpoints, which are reachable before any
// token exists.
func (c *Client) doAnon(ctx context.Context, method, path string, in, out any) error {
	return c.send(ctx, method, path, "", in, out)
}

func (c *Client) send(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("server error %d: %s", resp.StatusCode, snippet)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("unexpected server response (%d): %w", resp.StatusCode, err)
	}
	return nil
}
