package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/travelease/ticketing-backend/internal/models"
)

// Store is the persistence surface used by the services. Every seat-touching
// write runs inside RunInTx so seats, bookings and passengers change together.
type Store interface {
	RunInTx(ctx context.Context, fn func(tx Store) error) error

	CreateBusType(ctx context.Context, busType *models.BusType) error
	GetBusType(ctx context.Context, id string) (*models.BusType, error)
	GetBusTypeByName(ctx context.Context, name string) (*models.BusType, error)
	ListBusTypes(ctx context.Context) ([]models.BusType, error)
	UpdateBusType(ctx context.Context, busType *models.BusType) error
	DeleteBusType(ctx context.Context, id string) error

	CreateBus(ctx context.Context, bus *models.Bus) error
	GetBus(ctx context.Context, id string) (*models.Bus, error)
	ListBuses(ctx context.Context) ([]models.Bus, error)
	UpdateBus(ctx context.Context, bus *models.Bus) error
	DeleteBus(ctx context.Context, id string) error
	CountBusesByType(ctx context.Context, busType string) (int, error)

	CreateSeats(ctx context.Context, busID string, numbers []string) error
	ListSeats(ctx context.Context, busID string) ([]models.Seat, error)
	DeleteSeats(ctx context.Context, busID string) error
	CountHeldSeats(ctx context.Context, busID string) (int, error)
	ReserveSeats(ctx context.Context, busID string, numbers []string) error
	ReleaseSeats(ctx context.Context, busID, holder string, numbers []string) error

	CreateTrip(ctx context.Context, trip *models.Trip) error
	GetTrip(ctx context.Context, id string) (*models.Trip, error)
	ListTrips(ctx context.Context, filter models.TripFilter) ([]models.Trip, error)
	ListTripsForBusOnDate(ctx context.Context, busID, date string) ([]models.Trip, error)
	UpdateTrip(ctx context.Context, trip *models.Trip) error
	DeleteTrip(ctx context.Context, id string) error
	CountTripsForBus(ctx context.Context, busID string) (int, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, reference string) (*models.Booking, error)
	GetBookingByPaymentReference(ctx context.Context, paymentRef string) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	BookingReferenceExists(ctx context.Context, reference string) (bool, error)
	PaymentReferenceInUse(ctx context.Context, paymentRef, excludeReference string) (bool, error)
	UpdateBooking(ctx context.Context, booking *models.Booking) error
	ReplacePassengers(ctx context.Context, reference string, passengers []models.Passenger) error
	DeleteBooking(ctx context.Context, reference string) error
	CountLiveBookingsForTrip(ctx context.Context, tripID string) (int, error)

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	DeleteUser(ctx context.Context, id uuid.UUID) error

	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteUserSessions(ctx context.Context, userID uuid.UUID) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// SQLStore implements Store on PostgreSQL. The embedded repositories share one
// executor: the pool outside a transaction, the *sqlx.Tx inside RunInTx.
type SQLStore struct {
	db *sqlx.DB

	*BusTypeRepository
	*BusRepository
	*SeatRepository
	*TripRepository
	*BookingRepository
	*UserRepository
	*SessionRepository
}

// NewSQLStore creates a store bound to the connection pool
func NewSQLStore(db *sqlx.DB) *SQLStore {
	store := newStore(db)
	store.db = db
	return store
}

func newStore(ext sqlx.ExtContext) *SQLStore {
	return &SQLStore{
		BusTypeRepository: NewBusTypeRepository(ext),
		BusRepository:     NewBusRepository(ext),
		SeatRepository:    NewSeatRepository(ext),
		TripRepository:    NewTripRepository(ext),
		BookingRepository: NewBookingRepository(ext),
		UserRepository:    NewUserRepository(ext),
		SessionRepository: NewSessionRepository(ext),
	}
}

// RunInTx runs fn against a store bound to a fresh transaction. The transaction
// commits when fn returns nil and rolls back otherwise. Nested calls reuse the
// outer transaction.
func (s *SQLStore) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(newStore(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping checks the database connection
func (s *SQLStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}
