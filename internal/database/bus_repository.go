package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/travelease/ticketing-backend/internal/apperr"
	"github.com/travelease/ticketing-backend/internal/models"
)

const busColumns = `id, operator, bus_type, seat_layout, amenities, rating, created_by, modified_by, created_at, updated_at`

// BusRepository handles bus database operations
type BusRepository struct {
	db sqlx.ExtContext
}

// NewBusRepository creates a new BusRepository
func NewBusRepository(db sqlx.ExtContext) *BusRepository {
	return &BusRepository{db: db}
}

// CreateBus inserts a bus. Seats are created separately in the same transaction.
func (r *BusRepository) CreateBus(ctx context.Context, bus *models.Bus) error {
	if bus.ID == "" {
		bus.ID = uuid.New().String()
	}
	if bus.Amenities == nil {
		bus.Amenities = models.StringSet{}
	}

	query := `
		INSERT INTO buses (id, operator, bus_type, seat_layout, amenities, rating, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		bus.ID, bus.Operator, bus.BusType, bus.SeatLayout, bus.Amenities, bus.Rating, bus.CreatedBy,
	).Scan(&bus.CreatedAt, &bus.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.Validation("UNKNOWN_BUS_TYPE", "bus type %q does not exist", bus.BusType)
		}
		return fmt.Errorf("failed to create bus: %w", err)
	}
	bus.ModifiedBy = bus.CreatedBy
	return nil
}

// GetBus retrieves a bus by ID
func (r *BusRepository) GetBus(ctx context.Context, id string) (*models.Bus, error) {
	var bus models.Bus
	query := `SELECT ` + busColumns + ` FROM buses WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.db, &bus, query, id); err != nil {
		return nil, notFoundOr(err, "bus", "get bus")
	}
	return &bus, nil
}

// ListBuses returns every bus, newest first
func (r *BusRepository) ListBuses(ctx context.Context) ([]models.Bus, error) {
	buses := []models.Bus{}
	query := `SELECT ` + busColumns + ` FROM buses ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, r.db, &buses, query); err != nil {
		return nil, fmt.Errorf("failed to list buses: %w", err)
	}
	return buses, nil
}

// UpdateBus writes every mutable column of bus
func (r *BusRepository) UpdateBus(ctx context.Context, bus *models.Bus) error {
	query := `
		UPDATE buses
		SET operator = $2, bus_type = $3, seat_layout = $4, amenities = $5, rating = $6,
			modified_by = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		bus.ID, bus.Operator, bus.BusType, bus.SeatLayout, bus.Amenities, bus.Rating, bus.ModifiedBy,
	).Scan(&bus.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.Validation("UNKNOWN_BUS_TYPE", "bus type %q does not exist", bus.BusType)
		}
		return notFoundOr(err, "bus", "update bus")
	}
	return nil
}

// DeleteBus removes a bus and, by cascade, its seats
func (r *BusRepository) DeleteBus(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM buses WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.Conflict("BUS_IN_USE", "bus is referenced by trips or bookings")
		}
		return fmt.Errorf("failed to delete bus: %w", err)
	}
	return checkAffected(result, "bus")
}

// CountBusesByType counts buses referencing a bus type name
func (r *BusRepository) CountBusesByType(ctx context.Context, busType string) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM buses WHERE bus_type = $1`, busType); err != nil {
		return 0, fmt.Errorf("failed to count buses by type: %w", err)
	}
	return count, nil
}
