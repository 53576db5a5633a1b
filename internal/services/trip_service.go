package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/travelease/ticketing-backend/internal/apperr"
	"github.com/travelease/ticketing-backend/internal/database"
	"github.com/travelease/ticketing-backend/internal/models"
)

// TripService manages the trip catalog
type TripService struct {
	store  database.Store
	logger *logrus.Logger
}

// NewTripService creates a new trip service
func NewTripService(store database.Store, logger *logrus.Logger) *TripService {
	return &TripService{store: store, logger: logger}
}

// Create schedules a trip after checking its bus is free for the whole window.
// The overlap check reads committed trips and is not serialised with concurrent creates.
func (s *TripService) Create(ctx context.Context, req models.CreateTripRequest, actor *string) (*models.Trip, error) {
	trip := &models.Trip{
		BusID:         strings.TrimSpace(req.BusID),
		From:          strings.TrimSpace(req.From),
		To:            strings.TrimSpace(req.To),
		Date:          strings.TrimSpace(req.Date),
		DepartureTime: strings.TrimSpace(req.DepartureTime),
		ArrivalTime:   strings.TrimSpace(req.ArrivalTime),
		Price:         req.Price,
		IsAvailable:   true,
		CreatedBy:     actor,
	}
	if req.IsAvailable != nil {
		trip.IsAvailable = *req.IsAvailable
	}

	if err := s.validate(ctx, trip); err != nil {
		return nil, err
	}

	if err := s.store.CreateTrip(ctx, trip); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id": trip.ID,
		"bus_id":  trip.BusID,
		"date":    trip.Date,
		"window":  trip.DepartureTime + "-" + trip.ArrivalTime,
	}).Info("Trip created")

	return trip, nil
}

// Update applies a partial change and re-runs every Create check
func (s *TripService) Update(ctx context.Context, id string, req models.UpdateTripRequest, actor *string) (*models.Trip, error) {
	trip, err := s.store.GetTrip(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.BusID != nil {
		trip.BusID = strings.TrimSpace(*req.BusID)
	}
	if req.From != nil {
		trip.From = strings.TrimSpace(*req.From)
	}
	if req.To != nil {
		trip.To = strings.TrimSpace(*req.To)
	}
	if req.Date != nil {
		trip.Date = strings.TrimSpace(*req.Date)
	}
	if req.DepartureTime != nil {
		trip.DepartureTime = strings.TrimSpace(*req.DepartureTime)
	}
	if req.ArrivalTime != nil {
		trip.ArrivalTime = strings.TrimSpace(*req.ArrivalTime)
	}
	if req.Price != nil {
		trip.Price = *req.Price
	}
	if req.IsAvailable != nil {
		trip.IsAvailable = *req.IsAvailable
	}
	trip.ModifiedBy = actor

	if err := s.validate(ctx, trip); err != nil {
		return nil, err
	}

	if err := s.store.UpdateTrip(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

func (s *TripService) validate(ctx context.Context, trip *models.Trip) error {
	switch {
	case trip.BusID == "":
		return apperr.Validation("MISSING_BUS", "busId is required")
	case trip.From == "" || trip.To == "":
		return apperr.Validation("INVALID_ROUTE", "from and to are required")
	case strings.EqualFold(trip.From, trip.To):
		return apperr.Validation("INVALID_ROUTE", "from and to must differ")
	case trip.Price.LessThanOrEqual(decimal.Zero):
		return apperr.Validation("INVALID_PRICE", "price must be greater than zero")
	}

	if _, err := time.Parse(models.DateLayout, trip.Date); err != nil {
		return apperr.Validation("INVALID_DATE", "date must be YYYY-MM-DD")
	}
	for _, clock := range []string{trip.DepartureTime, trip.ArrivalTime} {
		if _, err := time.Parse(models.ClockLayout, clock); err != nil {
			return apperr.Validation("INVALID_TIME", "times must be HH:MM, got %q", clock)
		}
	}
	if trip.DepartureTime == trip.ArrivalTime {
		return apperr.Validation("INVALID_TIME", "arrival time must differ from departure time")
	}

	duration, err := models.TravelDuration(trip.DepartureTime, trip.ArrivalTime)
	if err != nil {
		return apperr.Validation("INVALID_TIME", "%s", err.Error())
	}
	trip.Duration = duration

	if _, err := s.store.GetBus(ctx, trip.BusID); err != nil {
		return err
	}

	others, err := s.store.ListTripsForBusOnDate(ctx, trip.BusID, trip.Date)
	if err != nil {
		return err
	}
	clash, err := models.FindOverlap(*trip, others)
	if err != nil {
		return apperr.Internal("failed to compare trip windows", err)
	}
	if clash != nil {
		return apperr.Conflict("TRIP_OVERLAP",
			"bus already has a trip from %s to %s on %s", clash.DepartureTime, clash.ArrivalTime, clash.Date)
	}
	return nil
}

// Delete removes a trip that has no confirmed or completed bookings
func (s *TripService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.GetTrip(ctx, id); err != nil {
		return err
	}

	live, err := s.store.CountLiveBookingsForTrip(ctx, id)
	if err != nil {
		return err
	}
	if live > 0 {
		return apperr.Conflict("TRIP_HAS_BOOKINGS", "trip has %d active bookings", live)
	}

	return s.store.DeleteTrip(ctx, id)
}

// Get returns a trip with its bus and a seat snapshot
func (s *TripService) Get(ctx context.Context, id string) (*models.TripDetails, error) {
	trip, err := s.store.GetTrip(ctx, id)
	if err != nil {
		return nil, err
	}
	bus, err := s.store.GetBus(ctx, trip.BusID)
	if err != nil {
		return nil, err
	}
	seats, err := s.store.ListSeats(ctx, bus.ID)
	if err != nil {
		return nil, err
	}

	return &models.TripDetails{
		Trip:           *trip,
		Bus:            *bus,
		Seats:          seats,
		AvailableSeats: models.AvailableSeatNumbers(seats),
	}, nil
}

// Search lists bookable trips for the public search
func (s *TripService) Search(ctx context.Context, filter models.TripFilter) ([]models.Trip, error) {
	if filter.Date != "" {
		if _, err := time.Parse(models.DateLayout, filter.Date); err != nil {
			return nil, apperr.Validation("INVALID_DATE", "date must be YYYY-MM-DD")
		}
	}
	filter.AvailableOnly = true
	return s.store.ListTrips(ctx, filter)
}

// List returns every trip matching the filter, including unavailable ones
func (s *TripService) List(ctx context.Context, filter models.TripFilter) ([]models.Trip, error) {
	return s.store.ListTrips(ctx, filter)
}
