package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/travelease/ticketing-backend/internal/apperr"
	"github.com/travelease/ticketing-backend/internal/models"
)

// DATE and TIME columns are rendered back into their wire formats
const tripColumns = `id, bus_id, origin, destination,
	to_char(trip_date, 'YYYY-MM-DD') AS trip_date,
	to_char(departure_time, 'HH24:MI') AS departure_time,
	to_char(arrival_time, 'HH24:MI') AS arrival_time,
	duration, price, is_available, created_by, modified_by, created_at, updated_at`

// TripRepository handles trip database operations
type TripRepository struct {
	db sqlx.ExtContext
}

// NewTripRepository creates a new TripRepository
func NewTripRepository(db sqlx.ExtContext) *TripRepository {
	return &TripRepository{db: db}
}

// CreateTrip inserts a trip
func (r *TripRepository) CreateTrip(ctx context.Context, trip *models.Trip) error {
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}

	query := `
		INSERT INTO trips (
			id, bus_id, origin, destination, trip_date, departure_time, arrival_time,
			duration, price, is_available, created_by, modified_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		trip.ID, trip.BusID, trip.From, trip.To, trip.Date, trip.DepartureTime, trip.ArrivalTime,
		trip.Duration, trip.Price, trip.IsAvailable, trip.CreatedBy,
	).Scan(&trip.CreatedAt, &trip.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.NotFound("bus")
		}
		return fmt.Errorf("failed to create trip: %w", err)
	}
	trip.ModifiedBy = trip.CreatedBy
	return nil
}

// GetTrip retrieves a trip by ID
func (r *TripRepository) GetTrip(ctx context.Context, id string) (*models.Trip, error) {
	var trip models.Trip
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.db, &trip, query, id); err != nil {
		return nil, notFoundOr(err, "trip", "get trip")
	}
	return &trip, nil
}

// ListTrips returns trips matching the filter ordered by date and departure
func (r *TripRepository) ListTrips(ctx context.Context, filter models.TripFilter) ([]models.Trip, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if filter.From != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(origin) = LOWER($%d)", argPos))
		args = append(args, filter.From)
		argPos++
	}
	if filter.To != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(destination) = LOWER($%d)", argPos))
		args = append(args, filter.To)
		argPos++
	}
	if filter.Date != "" {
		conditions = append(conditions, fmt.Sprintf("trip_date = $%d", argPos))
		args = append(args, filter.Date)
		argPos++
	}
	if filter.BusID != "" {
		conditions = append(conditions, fmt.Sprintf("bus_id = $%d", argPos))
		args = append(args, filter.BusID)
		argPos++
	}
	if filter.AvailableOnly {
		conditions = append(conditions, "is_available = true")
	}

	query := `SELECT ` + tripColumns + ` FROM trips`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY trip_date, departure_time"

	trips := []models.Trip{}
	if err := sqlx.SelectContext(ctx, r.db, &trips, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, nil
}

// ListTripsForBusOnDate returns the trips of one bus on one date
func (r *TripRepository) ListTripsForBusOnDate(ctx context.Context, busID, date string) ([]models.Trip, error) {
	trips := []models.Trip{}
	query := `SELECT ` + tripColumns + ` FROM trips WHERE bus_id = $1 AND trip_date = $2 ORDER BY departure_time`
	if err := sqlx.SelectContext(ctx, r.db, &trips, query, busID, date); err != nil {
		return nil, fmt.Errorf("failed to list trips for bus: %w", err)
	}
	return trips, nil
}

// UpdateTrip writes every mutable column of trip
func (r *TripRepository) UpdateTrip(ctx context.Context, trip *models.Trip) error {
	query := `
		UPDATE trips
		SET bus_id = $2, origin = $3, destination = $4, trip_date = $5, departure_time = $6,
			arrival_time = $7, duration = $8, price = $9, is_available = $10,
			modified_by = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		trip.ID, trip.BusID, trip.From, trip.To, trip.Date, trip.DepartureTime,
		trip.ArrivalTime, trip.Duration, trip.Price, trip.IsAvailable, trip.ModifiedBy,
	).Scan(&trip.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.NotFound("bus")
		}
		return notFoundOr(err, "trip", "update trip")
	}
	return nil
}

// DeleteTrip removes a trip
func (r *TripRepository) DeleteTrip(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.Conflict("TRIP_HAS_BOOKINGS", "trip still has bookings")
		}
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	return checkAffected(result, "trip")
}

// CountTripsForBus counts the trips scheduled on a bus
func (r *TripRepository) CountTripsForBus(ctx context.Context, busID string) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM trips WHERE bus_id = $1`, busID); err != nil {
		return 0, fmt.Errorf("failed to count trips for bus: %w", err)
	}
	return count, nil
}
