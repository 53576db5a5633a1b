package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/travelease/ticketing-backend/internal/apperr"
	"github.com/travelease/ticketing-backend/internal/database"
	"github.com/travelease/ticketing-backend/internal/metrics"
	"github.com/travelease/ticketing-backend/internal/models"
)

const referenceAttempts = 10

// BookingService owns the booking lifecycle and keeps the seat inventory in step with it
type BookingService struct {
	store    database.Store
	contact  contactValidator
	currency string
	logger   *logrus.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(store database.Store, currency string, logger *logrus.Logger) *BookingService {
	return &BookingService{
		store:    store,
		contact:  newContactValidator(),
		currency: currency,
		logger:   logger,
	}
}

// bookingDraft is a validated booking request that has not been written yet
type bookingDraft struct {
	email      string
	phone      string
	passengers []models.Passenger
	trip       *models.Trip
	bus        *models.Bus
	total      decimal.Decimal
}

// prepare validates contact details and passengers and checks the seats are free right now
func (s *BookingService) prepare(ctx context.Context, tripID, email, phone string, inputs []models.PassengerInput) (*bookingDraft, error) {
	email, phone, err := s.contact.validateContact(email, phone)
	if err != nil {
		return nil, err
	}

	passengers, err := validatePassengers(inputs)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(tripID) == "" {
		return nil, apperr.Validation("MISSING_TRIP", "tripId is required")
	}
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.IsAvailable {
		return nil, apperr.Validation("TRIP_UNAVAILABLE", "trip is not open for booking")
	}

	bus, err := s.store.GetBus(ctx, trip.BusID)
	if err != nil {
		return nil, err
	}

	seats, err := s.store.ListSeats(ctx, bus.ID)
	if err != nil {
		return nil, err
	}
	if err := checkSeatsBookable(seats, seatNumbers(passengers)); err != nil {
		return nil, err
	}

	return &bookingDraft{
		email:      email,
		phone:      phone,
		passengers: passengers,
		trip:       trip,
		bus:        bus,
		total:      trip.Price.Mul(decimal.NewFromInt(int64(len(passengers)))),
	}, nil
}

// Create validates the request, then inserts the booking with its passengers and
// reserves their seats in one transaction.
func (s *BookingService) Create(ctx context.Context, req models.CreateBookingRequest) (confirmation *models.BookingConfirmation, err error) {
	defer func() { metrics.RecordBooking("create", err) }()

	draft, err := s.prepare(ctx, req.TripID, req.Email, req.Phone, req.Passengers)
	if err != nil {
		return nil, err
	}

	if req.ExpectedTotal != nil && !req.ExpectedTotal.Equal(draft.total) {
		return nil, apperr.Validation("AMOUNT_MISMATCH",
			"paid amount %s does not match booking total %s", req.ExpectedTotal.String(), draft.total.String())
	}

	var paymentRef *string
	if req.PaymentReference != nil && strings.TrimSpace(*req.PaymentReference) != "" {
		ref := strings.TrimSpace(*req.PaymentReference)
		if err := validatePaymentReference(ref); err != nil {
			return nil, err
		}
		inUse, err := s.store.PaymentReferenceInUse(ctx, ref, "")
		if err != nil {
			return nil, err
		}
		if inUse {
			return nil, apperr.Conflict("PAYMENT_REFERENCE_IN_USE", "payment reference has already been used")
		}
		paymentRef = &ref
	}

	reference, err := s.resolveReference(ctx, req.Reference)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		Reference:        reference,
		Status:           models.BookingStatusConfirmed,
		TripID:           draft.trip.ID,
		BusID:            draft.bus.ID,
		From:             draft.trip.From,
		To:               draft.trip.To,
		Date:             draft.trip.Date,
		Time:             draft.trip.DepartureTime,
		Operator:         draft.bus.Operator,
		Email:            draft.email,
		Phone:            draft.phone,
		TotalAmount:      draft.total,
		PaymentReference: paymentRef,
		Passengers:       draft.passengers,
	}

	err = s.store.RunInTx(ctx, func(tx database.Store) error {
		if err := tx.CreateBooking(ctx, booking); err != nil {
			return err
		}
		return tx.ReserveSeats(ctx, booking.BusID, booking.SeatNumbers())
	})
	if err != nil {
		return nil, err
	}
	metrics.SeatsReserved(len(booking.Passengers))

	// The booking is committed at this point; a failed snapshot only trims the response.
	seats, seatsErr := s.store.ListSeats(ctx, booking.BusID)
	if seatsErr != nil {
		s.logger.WithError(seatsErr).WithField("reference", booking.Reference).Warn("Failed to load seat snapshot")
	}

	s.logger.WithFields(logrus.Fields{
		"reference":  booking.Reference,
		"trip_id":    booking.TripID,
		"seats":      booking.SeatNumbers(),
		"total":      booking.TotalAmount.String(),
		"payment_id": paymentRef,
	}).Info("Booking created")

	return &models.BookingConfirmation{
		Booking: booking,
		Trip:    draft.trip,
		Bus:     draft.bus,
		Seats:   seats,
	}, nil
}

// resolveReference uses the supplied checkout reference or generates a fresh one
func (s *BookingService) resolveReference(ctx context.Context, supplied string) (string, error) {
	if supplied == "" {
		return s.generateReference(ctx)
	}
	if !models.IsBookingReference(supplied) {
		return "", apperr.Validation("INVALID_REFERENCE", "booking reference %q is malformed", supplied)
	}
	exists, err := s.store.BookingReferenceExists(ctx, supplied)
	if err != nil {
		return "", err
	}
	if exists {
		return "", apperr.Conflict("BOOKING_EXISTS", "booking %s already exists", supplied)
	}
	return supplied, nil
}

// generateReference generates a unique booking reference
// Format: TE + 8 upper-case hex digits, e.g. TE0A1B2C3D
func (s *BookingService) generateReference(ctx context.Context) (string, error) {
	for attempts := 0; attempts < referenceAttempts; attempts++ {
		ref, err := newBookingReference()
		if err != nil {
			return "", err
		}

		exists, err := s.store.BookingReferenceExists(ctx, ref)
		if err != nil {
			return "", err
		}
		if !exists {
			return ref, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique booking reference after %d attempts", referenceAttempts)
}

func newBookingReference() (string, error) {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return "TE" + strings.ToUpper(hex.EncodeToString(randomBytes)), nil
}

// Quote validates a checkout like Create would and returns the reference and amount
// the client passes to the payment gateway. Nothing is written.
func (s *BookingService) Quote(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutQuote, error) {
	draft, err := s.prepare(ctx, req.TripID, req.Email, req.Phone, req.Passengers)
	if err != nil {
		return nil, err
	}

	reference, err := s.generateReference(ctx)
	if err != nil {
		return nil, err
	}

	inputs := make([]models.PassengerInput, len(draft.passengers))
	for i, p := range draft.passengers {
		inputs[i] = models.PassengerInput{Name: p.Name, Seat: p.Seat, Age: p.Age, Gender: p.Gender}
	}

	return &models.CheckoutQuote{
		BookingReference: reference,
		TripID:           draft.trip.ID,
		TotalAmount:      draft.total,
		AmountMinor:      models.MinorUnits(draft.total),
		Currency:         s.currency,
		Email:            draft.email,
		Phone:            draft.phone,
		Passengers:       inputs,
	}, nil
}

// Get looks a booking up by gateway payment reference first, then by internal reference
func (s *BookingService) Get(ctx context.Context, reference string) (*models.Booking, error) {
	booking, err := s.store.GetBookingByPaymentReference(ctx, reference)
	if err == nil {
		return booking, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}
	return s.store.GetBooking(ctx, reference)
}

// Exists reports whether a booking with the internal reference exists
func (s *BookingService) Exists(ctx context.Context, reference string) (bool, error) {
	return s.store.BookingReferenceExists(ctx, reference)
}

// List returns bookings for the admin listing
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Validation("INVALID_STATUS", "unknown booking status %q", filter.Status)
	}
	return s.store.ListBookings(ctx, filter)
}

// Update applies a partial change. Passenger edits move seats, and cancelling
// releases every seat the booking holds, all inside one transaction.
func (s *BookingService) Update(ctx context.Context, reference string, req models.UpdateBookingRequest) (updated *models.Booking, err error) {
	defer func() { metrics.RecordBooking("update", err) }()

	booking, err := s.store.GetBooking(ctx, reference)
	if err != nil {
		return nil, err
	}
	previous := booking.Status
	heldSeats := booking.SeatNumbers()

	if req.Status != nil {
		next := *req.Status
		if !next.Valid() {
			return nil, apperr.Validation("INVALID_STATUS", "unknown booking status %q", next)
		}
		if !previous.CanTransitionTo(next) {
			return nil, apperr.Conflict("INVALID_STATUS_TRANSITION", "cannot move a %s booking to %s", previous, next)
		}
		booking.Status = next
	}

	if req.Email != nil {
		if booking.Email, err = s.contact.validateEmail(*req.Email); err != nil {
			return nil, err
		}
	}
	if req.Phone != nil {
		if booking.Phone, err = s.contact.validatePhone(*req.Phone); err != nil {
			return nil, err
		}
	}

	if req.PaymentReference != nil {
		ref := strings.TrimSpace(*req.PaymentReference)
		if ref == "" {
			booking.PaymentReference = nil
		} else {
			if err := validatePaymentReference(ref); err != nil {
				return nil, err
			}
			inUse, err := s.store.PaymentReferenceInUse(ctx, ref, booking.Reference)
			if err != nil {
				return nil, err
			}
			if inUse {
				return nil, apperr.Conflict("PAYMENT_REFERENCE_IN_USE", "payment reference has already been used")
			}
			booking.PaymentReference = &ref
		}
	}

	var removed, added []string
	passengersChanged := req.Passengers != nil
	if passengersChanged || req.TotalAmount != nil {
		trip, err := s.store.GetTrip(ctx, booking.TripID)
		if err != nil {
			return nil, err
		}

		if passengersChanged {
			if booking.Status != models.BookingStatusConfirmed {
				return nil, apperr.Conflict("BOOKING_NOT_EDITABLE", "passengers can only change on a confirmed booking")
			}
			passengers, err := validatePassengers(req.Passengers)
			if err != nil {
				return nil, err
			}
			removed, added = seatDiff(heldSeats, seatNumbers(passengers))

			seats, err := s.store.ListSeats(ctx, booking.BusID)
			if err != nil {
				return nil, err
			}
			if err := checkSeatsBookable(seats, added); err != nil {
				return nil, err
			}
			booking.Passengers = passengers
		}

		expected := trip.Price.Mul(decimal.NewFromInt(int64(len(booking.Passengers))))
		if req.TotalAmount != nil && !req.TotalAmount.Equal(expected) {
			return nil, apperr.Validation("TOTAL_AMOUNT_MISMATCH",
				"totalAmount must be %s for %d passengers", expected.String(), len(booking.Passengers))
		}
		booking.TotalAmount = expected
	}

	cancelling := previous != models.BookingStatusCancelled && booking.Status == models.BookingStatusCancelled

	err = s.store.RunInTx(ctx, func(tx database.Store) error {
		if cancelling {
			if err := tx.ReleaseSeats(ctx, booking.BusID, booking.Reference, heldSeats); err != nil {
				return err
			}
		}
		if passengersChanged {
			if err := tx.ReleaseSeats(ctx, booking.BusID, booking.Reference, removed); err != nil {
				return err
			}
			if err := tx.ReserveSeats(ctx, booking.BusID, added); err != nil {
				return err
			}
			if err := tx.ReplacePassengers(ctx, booking.Reference, booking.Passengers); err != nil {
				return err
			}
		}
		return tx.UpdateBooking(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	if cancelling {
		metrics.SeatsReleased(len(heldSeats))
	} else {
		metrics.SeatsReleased(len(removed))
		metrics.SeatsReserved(len(added))
	}

	s.logger.WithFields(logrus.Fields{
		"reference": booking.Reference,
		"status":    booking.Status,
		"released":  len(removed),
		"reserved":  len(added),
		"cancelled": cancelling,
	}).Info("Booking updated")

	return booking, nil
}

// Delete removes a booking that is not completed and returns its seats to the inventory
func (s *BookingService) Delete(ctx context.Context, reference string) (err error) {
	defer func() { metrics.RecordBooking("delete", err) }()

	booking, err := s.store.GetBooking(ctx, reference)
	if err != nil {
		return err
	}
	if booking.Status == models.BookingStatusCompleted {
		return apperr.Conflict("BOOKING_COMPLETED", "completed bookings cannot be deleted")
	}

	// a cancelled booking gave its seats back when it was cancelled
	var release []string
	if booking.Status.HoldsSeats() {
		release = booking.SeatNumbers()
	}

	err = s.store.RunInTx(ctx, func(tx database.Store) error {
		if err := tx.ReleaseSeats(ctx, booking.BusID, booking.Reference, release); err != nil {
			return err
		}
		return tx.DeleteBooking(ctx, booking.Reference)
	})
	if err != nil {
		return err
	}
	metrics.SeatsReleased(len(release))

	s.logger.WithFields(logrus.Fields{
		"reference": booking.Reference,
		"released":  len(release),
	}).Info("Booking deleted")

	return nil
}
