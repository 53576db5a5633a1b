package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/travelease/ticketing-backend/internal/apperr"
	"github.com/travelease/ticketing-backend/internal/models"
)

const bookingColumns = `reference, status, trip_id, bus_id, origin, destination, trip_date, departure_time,
	operator, email, phone, total_amount, booking_date, payment_reference, created_at, updated_at`

// BookingRepository handles bookings and their passengers
type BookingRepository struct {
	db sqlx.ExtContext
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db sqlx.ExtContext) *BookingRepository {
	return &BookingRepository{db: db}
}

// CreateBooking inserts a booking and its passengers. Seat flips are the caller's
// job inside the same transaction.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (
			reference, status, trip_id, bus_id, origin, destination, trip_date, departure_time,
			operator, email, phone, total_amount, booking_date, payment_reference
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), $13)
		RETURNING booking_date, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		booking.Reference, booking.Status, booking.TripID, booking.BusID,
		booking.From, booking.To, booking.Date, booking.Time,
		booking.Operator, booking.Email, booking.Phone, booking.TotalAmount, booking.PaymentReference,
	).Scan(&booking.BookingDate, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && strings.Contains(pqErr.Constraint, "payment_reference") {
				return apperr.Conflict("PAYMENT_REFERENCE_IN_USE", "payment reference has already been used")
			}
			return apperr.Conflict("BOOKING_EXISTS", "booking %s already exists", booking.Reference)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return r.insertPassengers(ctx, booking.Reference, booking.Passengers)
}

// insertPassengers keeps the submitted order in position
func (r *BookingRepository) insertPassengers(ctx context.Context, reference string, passengers []models.Passenger) error {
	query := `
		INSERT INTO passengers (id, booking_reference, name, seat, age, gender, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for i := range passengers {
		p := &passengers[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		p.BookingReference = reference
		if _, err := r.db.ExecContext(ctx, query, p.ID, reference, p.Name, p.Seat, p.Age, p.Gender, i); err != nil {
			return fmt.Errorf("failed to create passenger: %w", err)
		}
	}
	return nil
}

// GetBooking retrieves a booking with its passengers by internal reference
func (r *BookingRepository) GetBooking(ctx context.Context, reference string) (*models.Booking, error) {
	return r.getBookingBy(ctx, "reference", reference)
}

// GetBookingByPaymentReference retrieves a booking by the gateway's reference
func (r *BookingRepository) GetBookingByPaymentReference(ctx context.Context, paymentRef string) (*models.Booking, error) {
	return r.getBookingBy(ctx, "payment_reference", paymentRef)
}

func (r *BookingRepository) getBookingBy(ctx context.Context, column, value string) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + column + ` = $1`
	if err := sqlx.GetContext(ctx, r.db, &booking, query, value); err != nil {
		return nil, notFoundOr(err, "booking", "get booking")
	}

	passengers, err := r.listPassengers(ctx, []string{booking.Reference})
	if err != nil {
		return nil, err
	}
	booking.Passengers = passengers[booking.Reference]
	if booking.Passengers == nil {
		booking.Passengers = []models.Passenger{}
	}
	return &booking, nil
}

func (r *BookingRepository) listPassengers(ctx context.Context, references []string) (map[string][]models.Passenger, error) {
	var rows []models.Passenger
	query := `
		SELECT id, booking_reference, name, seat, age, gender
		FROM passengers
		WHERE booking_reference = ANY($1)
		ORDER BY booking_reference, position`

	if err := sqlx.SelectContext(ctx, r.db, &rows, query, pq.Array(references)); err != nil {
		return nil, fmt.Errorf("failed to list passengers: %w", err)
	}

	byBooking := make(map[string][]models.Passenger, len(references))
	for _, p := range rows {
		byBooking[p.BookingReference] = append(byBooking[p.BookingReference], p)
	}
	return byBooking, nil
}

// ListBookings returns bookings matching the filter, newest first
func (r *BookingRepository) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}
	if filter.TripID != "" {
		conditions = append(conditions, fmt.Sprintf("trip_id = $%d", argPos))
		args = append(args, filter.TripID)
		argPos++
	}
	if filter.Email != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(email) = LOWER($%d)", argPos))
		args = append(args, filter.Email)
		argPos++
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, filter.Offset)

	bookings := []models.Booking{}
	if err := sqlx.SelectContext(ctx, r.db, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	if len(bookings) == 0 {
		return bookings, nil
	}

	references := make([]string, len(bookings))
	for i := range bookings {
		references[i] = bookings[i].Reference
	}
	passengers, err := r.listPassengers(ctx, references)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		bookings[i].Passengers = passengers[bookings[i].Reference]
		if bookings[i].Passengers == nil {
			bookings[i].Passengers = []models.Passenger{}
		}
	}
	return bookings, nil
}

// BookingReferenceExists checks whether an internal reference is taken
func (r *BookingRepository) BookingReferenceExists(ctx context.Context, reference string) (bool, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM bookings WHERE reference = $1`, reference); err != nil {
		return false, fmt.Errorf("failed to check reference uniqueness: %w", err)
	}
	return count > 0, nil
}

// PaymentReferenceInUse checks whether a gateway reference belongs to a booking
// other than excludeReference
func (r *BookingRepository) PaymentReferenceInUse(ctx context.Context, paymentRef, excludeReference string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM bookings WHERE payment_reference = $1 AND reference <> $2`
	if err := sqlx.GetContext(ctx, r.db, &count, query, paymentRef, excludeReference); err != nil {
		return false, fmt.Errorf("failed to check payment reference: %w", err)
	}
	return count > 0, nil
}

// UpdateBooking writes status, contact details, payment reference and total
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	query := `
		UPDATE bookings
		SET status = $2, email = $3, phone = $4, payment_reference = $5, total_amount = $6, updated_at = NOW()
		WHERE reference = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		booking.Reference, booking.Status, booking.Email, booking.Phone, booking.PaymentReference, booking.TotalAmount,
	).Scan(&booking.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("PAYMENT_REFERENCE_IN_USE", "payment reference has already been used")
		}
		return notFoundOr(err, "booking", "update booking")
	}
	return nil
}

// ReplacePassengers swaps the passenger rows of a booking
func (r *BookingRepository) ReplacePassengers(ctx context.Context, reference string, passengers []models.Passenger) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM passengers WHERE booking_reference = $1`, reference); err != nil {
		return fmt.Errorf("failed to delete passengers: %w", err)
	}
	return r.insertPassengers(ctx, reference, passengers)
}

// DeleteBooking removes a booking and its passengers
func (r *BookingRepository) DeleteBooking(ctx context.Context, reference string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM passengers WHERE booking_reference = $1`, reference); err != nil {
		return fmt.Errorf("failed to delete passengers: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE reference = $1`, reference)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return checkAffected(result, "booking")
}

// CountLiveBookingsForTrip counts confirmed and completed bookings on a trip
func (r *BookingRepository) CountLiveBookingsForTrip(ctx context.Context, tripID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM bookings WHERE trip_id = $1 AND status IN ('confirmed', 'completed')`
	if err := sqlx.GetContext(ctx, r.db, &count, query, tripID); err != nil {
		return 0, fmt.Errorf("failed to count bookings for trip: %w", err)
	}
	return count, nil
}
