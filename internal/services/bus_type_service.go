package services

import (
	"context"
	"strings"

	"github.com/travelease/ticketing-backend/internal/apperr"
	"github.com/travelease/ticketing-backend/internal/database"
	"github.com/travelease/ticketing-backend/internal/models"
)

// BusTypeService manages bus types
type BusTypeService struct {
	store database.Store
}

// NewBusTypeService creates a new bus type service
func NewBusTypeService(store database.Store) *BusTypeService {
	return &BusTypeService{store: store}
}

func validateBusType(req models.BusTypeRequest) (models.BusTypeRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return req, apperr.Validation("MISSING_NAME", "name is required")
	}
	if req.Seats < 1 {
		return req, apperr.Validation("INVALID_SEATS", "seats must be at least 1")
	}
	return req, nil
}

// Create adds a bus type. Names are unique.
func (s *BusTypeService) Create(ctx context.Context, req models.BusTypeRequest) (*models.BusType, error) {
	req, err := validateBusType(req)
	if err != nil {
		return nil, err
	}

	busType := &models.BusType{Name: req.Name, Seats: req.Seats}
	if err := s.store.CreateBusType(ctx, busType); err != nil {
		return nil, err
	}
	return busType, nil
}

// Update renames or resizes a bus type. Neither is allowed while buses use it,
// since their layouts were validated against the current seat count.
func (s *BusTypeService) Update(ctx context.Context, id string, req models.BusTypeRequest) (*models.BusType, error) {
	req, err := validateBusType(req)
	if err != nil {
		return nil, err
	}

	busType, err := s.store.GetBusType(ctx, id)
	if err != nil {
		return nil, err
	}
	if busType.Name == req.Name && busType.Seats == req.Seats {
		return busType, nil
	}

	if err := s.ensureUnused(ctx, busType.Name); err != nil {
		return nil, err
	}

	busType.Name = req.Name
	busType.Seats = req.Seats
	if err := s.store.UpdateBusType(ctx, busType); err != nil {
		return nil, err
	}
	return busType, nil
}

// Delete removes a bus type no bus references
func (s *BusTypeService) Delete(ctx context.Context, id string) error {
	busType, err := s.store.GetBusType(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ensureUnused(ctx, busType.Name); err != nil {
		return err
	}
	return s.store.DeleteBusType(ctx, id)
}

func (s *BusTypeService) ensureUnused(ctx context.Context, name string) error {
	count, err := s.store.CountBusesByType(ctx, name)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Conflict("BUS_TYPE_IN_USE", "bus type %q is used by %d buses", name, count)
	}
	return nil
}

// Get returns a bus type by ID
func (s *BusTypeService) Get(ctx context.Context, id string) (*models.BusType, error) {
	return s.store.GetBusType(ctx, id)
}

// List returns all bus types
func (s *BusTypeService) List(ctx context.Context) ([]models.BusType, error) {
	return s.store.ListBusTypes(ctx)
}
