// Package httpapi exposes the tracking agent over HTTP: booking and
// recreation endpoints, the live status websocket, route lookups, and
// the usual health and metrics plumbing.
package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/instaaid/ride-tracker/internal/assistant"
	"github.com/instaaid/ride-tracker/internal/backend"
	"github.com/instaaid/ride-tracker/internal/models"
	"github.com/instaaid/ride-tracker/internal/notify"
	"github.com/instaaid/ride-tracker/internal/rebook"
	"github.com/instaaid/ride-tracker/internal/routes"
	"github.com/instaaid/ride-tracker/internal/storage"
	"github.com/instaaid/ride-tracker/internal/tracker"
)

// TransitionPublisher forwards status transitions to the telemetry
// pipeline. Nil disables publishing.
type TransitionPublisher interface {
	PublishTransition(e models.StatusEvent) error
}

// HospitalSearcher is the backend surface the hospital endpoint needs.
type HospitalSearcher interface {
	SearchHospitals(ctx context.Context, near models.LatLng, radiusMeters int, emergency string) ([]models.Hospital, error)
}

type Server struct {
	Fetcher   tracker.Fetcher
	Hospitals HospitalSearcher
	Routes    *routes.Client
	Rebook    *rebook.Service
	Journal   storage.Journal
	Events    TransitionPublisher
	Notify    notify.Notifier
	Assistant *assistant.Client
	Account   AccountClient
	Sessions  *backend.TokenStore
	WSReg     *WSRegistry

	trackerCfg tracker.Config
	logger     *slog.Logger
	mux        *mux.Router

	trackMu  sync.Mutex
	trackers map[string]*tracker.Tracker
}

// Options collects the optional collaborators; nil fields degrade to
// no-ops rather than failing.
type Options struct {
	Fetcher    tracker.Fetcher
	Hospitals  HospitalSearcher
	Routes     *routes.Client
	Rebook     *rebook.Service
	Journal    storage.Journal
	Events     TransitionPublisher
	Notify     notify.Notifier
	Assistant  *assistant.Client
	Account    AccountClient
	Sessions   *backend.TokenStore
	TrackerCfg tracker.Config
	Logger     *slog.Logger
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := opts.Notify
	if notifier == nil {
		notifier = notify.Noop{}
	}
	journal := opts.Journal
	if journal == nil {
		journal = storage.NewMemoryJournal()
	}
	s := &Server{
		Fetcher:    opts.Fetcher,
		Hospitals:  opts.Hospitals,
		Routes:     opts.Routes,
		Rebook:     opts.Rebook,
		Journal:    journal,
		Events:     opts.Events,
		Notify:     notifier,
		Assistant:  opts.Assistant,
		Account:    opts.Account,
		Sessions:   opts.Sessions,
		WSReg:      NewWSRegistry(logger),
		trackerCfg: opts.TrackerCfg,
		logger:     logger,
		mux:        mux.NewRouter(),
		trackers:   make(map[string]*tracker.Tracker),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/auth/otp/request", s.handleOTPRequest).Methods("POST")
	s.mux.HandleFunc("/api/v1/auth/otp/verify", s.handleOTPVerify).Methods("POST")
	s.mux.HandleFunc("/api/v1/auth/logout", s.handleLogout).Methods("POST")
	s.mux.HandleFunc("/api/v1/profile", s.handleGetProfile).Methods("GET")
	s.mux.HandleFunc("/api/v1/profile", s.handleUpdateProfile).Methods("PUT")
	s.mux.HandleFunc("/api/v1/rides", s.handleBook).Methods("POST")
	s.mux.HandleFunc("/api/v1/rides/recreate", s.handleRecreate).Methods("POST")
	s.mux.HandleFunc("/api/v1/rides/{ride_id}/track", s.handleStartTracking).Methods("POST")
	s.mux.HandleFunc("/api/v1/rides/{ride_id}/track", s.handleStopTracking).Methods("DELETE")
	s.mux.HandleFunc("/api/v1/rides/{ride_id}/status", s.handleStatus).Methods("GET")
	s.mux.HandleFunc("/api/v1/rides/{ride_id}/history", s.handleHistory).Methods("GET")
	s.mux.HandleFunc("/api/v1/route", s.handleRoute).Methods("GET")
	s.mux.HandleFunc("/api/v1/hospitals", s.handleHospitals).Methods("GET")
	s.mux.HandleFunc("/api/v1/assistant/chat", s.handleChat).Methods("POST")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws/{ride_id}", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
