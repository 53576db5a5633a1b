package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/travelease/ticketing-backend/internal/apperr"
	"github.com/travelease/ticketing-backend/internal/models"
)

// SeatRepository handles the seat inventory of buses
type SeatRepository struct {
	db sqlx.ExtContext
}

// NewSeatRepository creates a new SeatRepository
func NewSeatRepository(db sqlx.ExtContext) *SeatRepository {
	return &SeatRepository{db: db}
}

// CreateSeats inserts one available seat per number, keeping layout order
func (r *SeatRepository) CreateSeats(ctx context.Context, busID string, numbers []string) error {
	query := `
		INSERT INTO seats (id, bus_id, number, position, is_available)
		VALUES ($1, $2, $3, $4, true)`

	for i, number := range numbers {
		if _, err := r.db.ExecContext(ctx, query, uuid.New().String(), busID, number, i); err != nil {
			return fmt.Errorf("failed to create seat %s: %w", number, err)
		}
	}
	return nil
}

// ListSeats returns the seats of a bus in layout order
func (r *SeatRepository) ListSeats(ctx context.Context, busID string) ([]models.Seat, error) {
	seats := []models.Seat{}
	query := `
		SELECT id, bus_id, number, is_available
		FROM seats
		WHERE bus_id = $1
		ORDER BY position`

	if err := sqlx.SelectContext(ctx, r.db, &seats, query, busID); err != nil {
		return nil, fmt.Errorf("failed to list seats: %w", err)
	}
	return seats, nil
}

// DeleteSeats removes every seat of a bus
func (r *SeatRepository) DeleteSeats(ctx context.Context, busID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM seats WHERE bus_id = $1`, busID); err != nil {
		return fmt.Errorf("failed to delete seats: %w", err)
	}
	return nil
}

// CountHeldSeats counts the seats of a bus currently held by bookings
func (r *SeatRepository) CountHeldSeats(ctx context.Context, busID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM seats WHERE bus_id = $1 AND is_available = false`
	if err := sqlx.GetContext(ctx, r.db, &count, query, busID); err != nil {
		return 0, fmt.Errorf("failed to count held seats: %w", err)
	}
	return count, nil
}

// ReserveSeats flips each seat to unavailable. The update only matches a seat that
// is still available, so a seat taken by a concurrent booking affects zero rows and
// fails the whole call.
func (r *SeatRepository) ReserveSeats(ctx context.Context, busID string, numbers []string) error {
	query := `
		UPDATE seats SET is_available = false
		WHERE bus_id = $1 AND number = $2 AND is_available = true`

	for _, number := range numbers {
		result, err := r.db.ExecContext(ctx, query, busID, number)
		if err != nil {
			return fmt.Errorf("failed to reserve seat %s: %w", number, err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if rows == 0 {
			return apperr.Validation("SEAT_UNAVAILABLE", "seat %s is not available", number)
		}
	}
	return nil
}

// ReleaseSeats makes the given seats available again. A seat that a live booking
// other than holder still lists for a passenger stays taken.
func (r *SeatRepository) ReleaseSeats(ctx context.Context, busID, holder string, numbers []string) error {
	if len(numbers) == 0 {
		return nil
	}

	query := `
		UPDATE seats SET is_available = true
		WHERE bus_id = $1 AND number = ANY($2)
		AND NOT EXISTS (
			SELECT 1 FROM passengers p
			JOIN bookings b ON b.reference = p.booking_reference
			WHERE b.bus_id = seats.bus_id AND p.seat = seats.number
			AND b.status <> 'cancelled' AND b.reference <> $3
		)`

	if _, err := r.db.ExecContext(ctx, query, busID, pq.Array(numbers), holder); err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}
	return nil
}
