package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/travelease/ticketing-backend/internal/apperr"
	"github.com/travelease/ticketing-backend/internal/database"
	"github.com/travelease/ticketing-backend/internal/models"
)

var maxRating = decimal.NewFromInt(5)

// BusService manages buses and their seat inventory
type BusService struct {
	store  database.Store
	logger *logrus.Logger
}

// NewBusService creates a new bus service
func NewBusService(store database.Store, logger *logrus.Logger) *BusService {
	return &BusService{store: store, logger: logger}
}

// Create registers a bus and creates one available seat per layout cell
func (s *BusService) Create(ctx context.Context, req models.CreateBusRequest, actor *string) (*models.BusDetails, error) {
	bus := &models.Bus{
		Operator:   strings.TrimSpace(req.Operator),
		BusType:    strings.TrimSpace(req.BusType),
		SeatLayout: req.SeatLayout,
		Amenities:  models.NewStringSet(req.Amenities),
		Rating:     decimal.Zero,
		CreatedBy:  actor,
	}
	if req.Rating != nil {
		bus.Rating = *req.Rating
	}

	if err := s.validate(ctx, bus); err != nil {
		return nil, err
	}

	err := s.store.RunInTx(ctx, func(tx database.Store) error {
		if err := tx.CreateBus(ctx, bus); err != nil {
			return err
		}
		return tx.CreateSeats(ctx, bus.ID, bus.SeatLayout.SeatNumbers())
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"bus_id":   bus.ID,
		"operator": bus.Operator,
		"seats":    len(bus.SeatLayout.SeatNumbers()),
	}).Info("Bus created")

	return s.Get(ctx, bus.ID)
}

// Update applies a partial change. A new layout replaces every seat, which is only
// allowed while no seat of the bus is held by a booking.
func (s *BusService) Update(ctx context.Context, id string, req models.UpdateBusRequest, actor *string) (*models.BusDetails, error) {
	bus, err := s.store.GetBus(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Operator != nil {
		bus.Operator = strings.TrimSpace(*req.Operator)
	}
	if req.BusType != nil {
		bus.BusType = strings.TrimSpace(*req.BusType)
	}
	replaceSeats := req.SeatLayout != nil
	if replaceSeats {
		bus.SeatLayout = *req.SeatLayout
	}
	if req.Amenities != nil {
		bus.Amenities = models.NewStringSet(req.Amenities)
	}
	if req.Rating != nil {
		bus.Rating = *req.Rating
	}
	bus.ModifiedBy = actor

	if err := s.validate(ctx, bus); err != nil {
		return nil, err
	}

	err = s.store.RunInTx(ctx, func(tx database.Store) error {
		if replaceSeats {
			held, err := tx.CountHeldSeats(ctx, bus.ID)
			if err != nil {
				return err
			}
			if held > 0 {
				return apperr.Conflict("SEATS_HELD", "%d seats are held by bookings; the layout cannot be replaced", held)
			}
		}
		if err := tx.UpdateBus(ctx, bus); err != nil {
			return err
		}
		if !replaceSeats {
			return nil
		}
		if err := tx.DeleteSeats(ctx, bus.ID); err != nil {
			return err
		}
		return tx.CreateSeats(ctx, bus.ID, bus.SeatLayout.SeatNumbers())
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, bus.ID)
}

func (s *BusService) validate(ctx context.Context, bus *models.Bus) error {
	if bus.Operator == "" {
		return apperr.Validation("MISSING_OPERATOR", "operator is required")
	}
	if bus.Rating.IsNegative() || bus.Rating.GreaterThan(maxRating) {
		return apperr.Validation("INVALID_RATING", "rating must be between 0 and 5")
	}

	busType, err := s.store.GetBusTypeByName(ctx, bus.BusType)
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.Validation("UNKNOWN_BUS_TYPE", "bus type %q does not exist", bus.BusType)
		}
		return err
	}

	return bus.SeatLayout.Validate(busType.Seats)
}

// Delete removes a bus that has no trips. Its seats go with it.
func (s *BusService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.GetBus(ctx, id); err != nil {
		return err
	}

	trips, err := s.store.CountTripsForBus(ctx, id)
	if err != nil {
		return err
	}
	if trips > 0 {
		return apperr.Conflict("BUS_HAS_TRIPS", "bus has %d scheduled trips", trips)
	}

	return s.store.DeleteBus(ctx, id)
}

// Get returns a bus with its seats
func (s *BusService) Get(ctx context.Context, id string) (*models.BusDetails, error) {
	bus, err := s.store.GetBus(ctx, id)
	if err != nil {
		return nil, err
	}
	seats, err := s.store.ListSeats(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.BusDetails{Bus: *bus, Seats: seats}, nil
}

// List returns every bus
func (s *BusService) List(ctx context.Context) ([]models.Bus, error) {
	return s.store.ListBuses(ctx)
}
