package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/travelease/ticketing-backend/internal/apperr"
	"github.com/travelease/ticketing-backend/internal/models"
)

// BusTypeRepository handles bus type database operations
type BusTypeRepository struct {
	db sqlx.ExtContext
}

// NewBusTypeRepository creates a new BusTypeRepository
func NewBusTypeRepository(db sqlx.ExtContext) *BusTypeRepository {
	return &BusTypeRepository{db: db}
}

// CreateBusType inserts a bus type. Names are unique.
func (r *BusTypeRepository) CreateBusType(ctx context.Context, busType *models.BusType) error {
	if busType.ID == "" {
		busType.ID = uuid.New().String()
	}

	query := `
		INSERT INTO bus_types (id, name, seats)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, busType.ID, busType.Name, busType.Seats).
		Scan(&busType.CreatedAt, &busType.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("BUS_TYPE_EXISTS", "bus type %q already exists", busType.Name)
		}
		return fmt.Errorf("failed to create bus type: %w", err)
	}
	return nil
}

// GetBusType retrieves a bus type by ID
func (r *BusTypeRepository) GetBusType(ctx context.Context, id string) (*models.BusType, error) {
	var busType models.BusType
	query := `SELECT id, name, seats, created_at, updated_at FROM bus_types WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.db, &busType, query, id); err != nil {
		return nil, notFoundOr(err, "bus type", "get bus type")
	}
	return &busType, nil
}

// GetBusTypeByName retrieves a bus type by its unique name
func (r *BusTypeRepository) GetBusTypeByName(ctx context.Context, name string) (*models.BusType, error) {
	var busType models.BusType
	query := `SELECT id, name, seats, created_at, updated_at FROM bus_types WHERE name = $1`
	if err := sqlx.GetContext(ctx, r.db, &busType, query, name); err != nil {
		return nil, notFoundOr(err, "bus type", "get bus type by name")
	}
	return &busType, nil
}

// ListBusTypes returns all bus types ordered by name
func (r *BusTypeRepository) ListBusTypes(ctx context.Context) ([]models.BusType, error) {
	busTypes := []models.BusType{}
	query := `SELECT id, name, seats, created_at, updated_at FROM bus_types ORDER BY name`
	if err := sqlx.SelectContext(ctx, r.db, &busTypes, query); err != nil {
		return nil, fmt.Errorf("failed to list bus types: %w", err)
	}
	return busTypes, nil
}

// UpdateBusType updates name and seat count
func (r *BusTypeRepository) UpdateBusType(ctx context.Context, busType *models.BusType) error {
	query := `
		UPDATE bus_types SET name = $2, seats = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query, busType.ID, busType.Name, busType.Seats).Scan(&busType.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("BUS_TYPE_EXISTS", "bus type %q already exists", busType.Name)
		}
		return notFoundOr(err, "bus type", "update bus type")
	}
	return nil
}

// DeleteBusType removes a bus type
func (r *BusTypeRepository) DeleteBusType(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bus_types WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.Conflict("BUS_TYPE_IN_USE", "bus type is referenced by one or more buses")
		}
		return fmt.Errorf("failed to delete bus type: %w", err)
	}
	return checkAffected(result, "bus type")
}
