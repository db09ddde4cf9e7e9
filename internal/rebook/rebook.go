package rebook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/instaaid/ride-tracker/internal/emergency"
	"github.com/instaaid/ride-tracker/internal/models"
	"github.com/instaaid/ride-tracker/internal/observability"
)

var (
	// ErrNoSnapshot means there is nothing to recreate; the user has
	// to book from scratch.
	ErrNoSnapshot = errors.New("no previous ride found to recreate")
	// ErrInvalidSnapshot means the stored parameters are unusable.
	ErrInvalidSnapshot = errors.New("saved ride data is invalid")
)

// Booker is the single backend operation the flow needs.
type Booker interface {
	CreateRide(ctx context.Context, req models.BookingRequest) (*models.Ride, error)
}

// Locator supplies a fresh device location fix. It is a capability:
// platforms without location access wire NoLocator.
type Locator interface {
	CurrentLocation(ctx context.Context) (models.LatLng, error)
}

// NoLocator is the no-op capability for platforms without a location
// fix; recreation then depends entirely on the stored pickup.
type NoLocator struct{}

func (NoLocator) CurrentLocation(ctx context.Context) (models.LatLng, error) {
	return models.LatLng{}, errors.New("device location unavailable")
}

// FareHolder manages the fare hold lifecycle: a hold placed at
// booking time is captured when the ride completes and released when
// the booking dies without a driver. Nil disables the behavior.
type FareHolder interface {
	HoldFare(ctx context.Context, ride *models.Ride) (string, error)
	CaptureFare(ctx context.Context, paymentIntentID string) error
	ReleaseFare(ctx context.Context, paymentIntentID string) error
}

// Service books rides and recreates the last one after a no-driver
// expiry.
type Service struct {
	Store    Store
	Booker   Booker
	Locator  Locator
	Payments FareHolder
	Logger   *slog.Logger
}

func NewService(store Store, booker Booker, locator Locator, logger *slog.Logger) *Service {
	if locator == nil {
		locator = NoLocator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Store: store, Booker: booker, Locator: locator, Logger: logger}
}

// BookingParams is what the booking screen submits.
type BookingParams struct {
	Hospital      models.Hospital
	AmbulanceType models.AmbulanceType
	Pickup        models.LatLng
	EmergencyID   string
	EmergencyName string
	Priority      string
}

// Book validates and submits a fresh booking, then persists the
// snapshot used for a later recreation. Validation failures are
// reported before any network dispatch.
func (s *Service) Book(ctx context.Context, p BookingParams) (*models.Ride, error) {
	if !p.Pickup.Valid() {
		return nil, errors.New("invalid pickup location coordinates")
	}
	if !p.Hospital.Point().Valid() {
		return nil, errors.New("invalid hospital location coordinates")
	}
	if !models.KnownAmbulanceType(p.AmbulanceType) {
		return nil, fmt.Errorf("invalid ambulance type: %s", p.AmbulanceType)
	}

	emergencyCtx := emergency.ContextForBooking(p.EmergencyID, p.EmergencyName, p.Priority)
	req := models.BookingRequest{
		Vehicle:   p.AmbulanceType,
		Pickup:    models.Location{Latitude: p.Pickup.Latitude, Longitude: p.Pickup.Longitude, Address: "Current Location"},
		Drop:      models.Location{Latitude: p.Hospital.Latitude, Longitude: p.Hospital.Longitude, Address: p.Hospital.Name},
		Emergency: emergencyCtx,
	}

	ride, err := s.Booker.CreateRide(ctx, req)
	if err != nil {
		return nil, err
	}

	snap := models.Snapshot{
		RideID:        ride.ID,
		Vehicle:       p.AmbulanceType,
		Pickup:        &req.Pickup,
		Drop:          &req.Drop,
		EmergencyID:   p.EmergencyID,
		EmergencyName: p.EmergencyName,
		Priority:      p.Priority,
		HospitalName:  p.Hospital.Name,
		CreatedAt:     time.Now(),
	}
	if emergencyCtx != nil {
		snap.EmergencyType = emergencyCtx.Type
	}
	s.holdFare(ctx, ride, &snap)
	if err := s.Store.Save(ctx, snap); err != nil {
		s.Logger.Warn("failed to persist last-ride snapshot", "error", err)
	}
	return ride, nil
}

// Recreate resubmits the last booking. It is only ever triggered by
// an explicit user action after a no-driver expiry notice, never
// automatically.
func (s *Service) Recreate(ctx context.Context) (*models.Ride, error) {
	snap, ok, err := s.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load last ride: %w", err)
	}
	if !ok {
		return nil, ErrNoSnapshot
	}
	if snap.Drop == nil || !snap.Drop.Point().Valid() {
		return nil, ErrInvalidSnapshot
	}

	pickup, err := s.resolvePickup(ctx, snap)
	if err != nil {
		return nil, err
	}
	if !pickup.Point().Valid() {
		return nil, errors.New("ride coordinates are missing")
	}

	vehicle := snap.Vehicle
	if !models.KnownAmbulanceType(vehicle) {
		vehicle = models.AmbulanceBLS
	}
	req := models.BookingRequest{
		Vehicle:   vehicle,
		Pickup:    pickup,
		Drop:      *snap.Drop,
		Emergency: emergency.ResolveContext(snap),
	}

	ride, err := s.Booker.CreateRide(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("recreate ride: %w", err)
	}
	observability.RebooksTotal.Inc()

	// the new ride becomes the active snapshot
	snap.RideID = ride.ID
	snap.Pickup = &req.Pickup
	snap.CreatedAt = time.Now()
	snap.PaymentIntentID = ""
	s.holdFare(ctx, ride, &snap)
	if err := s.Store.Save(ctx, snap); err != nil {
		s.Logger.Warn("failed to persist recreated-ride snapshot", "error", err)
	}
	return ride, nil
}

// resolvePickup prefers the stored pickup and falls back to a fresh
// device fix.
func (s *Service) resolvePickup(ctx context.Context, snap models.Snapshot) (models.Location, error) {
	if snap.Pickup != nil && snap.Pickup.Point().Valid() {
		return *snap.Pickup, nil
	}
	loc, err := s.Locator.CurrentLocation(ctx)
	if err != nil {
		return models.Location{}, fmt.Errorf("ride coordinates are missing: %w", err)
	}
	if !loc.Valid() {
		return models.Location{}, errors.New("ride coordinates are missing")
	}
	return models.Location{Latitude: loc.Latitude, Longitude: loc.Longitude, Address: "Current Location"}, nil
}

func (s *Service) holdFare(ctx context.Context, ride *models.Ride, snap *models.Snapshot) {
	if s.Payments == nil || ride.Fare <= 0 {
		return
	}
	intentID, err := s.Payments.HoldFare(ctx, ride)
	if err != nil {
		// the booking stands; payment is collected another way
		s.Logger.Warn("fare hold failed", "ride_id", ride.ID, "error", err)
		return
	}
	snap.PaymentIntentID = intentID
}

// HandleStatus settles the fare hold and clears the snapshot when the
// ride it belongs to reaches a terminal state.
func (s *Service) HandleStatus(ctx context.Context, rideID string, status models.RideStatus) {
	if !status.Terminal() {
		return
	}
	snap, ok, err := s.Store.Load(ctx)
	if err != nil || !ok || snap.RideID != rideID {
		return
	}
	if s.Payments != nil && snap.PaymentIntentID != "" {
		if err := s.Payments.CaptureFare(ctx, snap.PaymentIntentID); err != nil {
			s.Logger.Warn("fare capture failed", "ride_id", rideID, "payment_intent", snap.PaymentIntentID, "error", err)
		}
	}
	if err := s.Store.Clear(ctx); err != nil {
		s.Logger.Warn("failed to clear last-ride snapshot", "error", err)
	}
}

// HandleExpiry releases the fare hold when the no-driver window lapses.
// The snapshot itself is kept: an expired search is exactly the case
// the recreation flow exists for.
func (s *Service) HandleExpiry(ctx context.Context, rideID string) {
	snap, ok, err := s.Store.Load(ctx)
	if err != nil || !ok || snap.RideID != rideID || snap.PaymentIntentID == "" {
		return
	}
	if s.Payments != nil {
		if err := s.Payments.ReleaseFare(ctx, snap.PaymentIntentID); err != nil {
			s.Logger.Warn("fare release failed", "ride_id", rideID, "payment_intent", snap.PaymentIntentID, "error", err)
			return
		}
	}
	snap.PaymentIntentID = ""
	if err := s.Store.Save(ctx, snap); err != nil {
		s.Logger.Warn("failed to persist released-hold snapshot", "error", err)
	}
}
