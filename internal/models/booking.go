package models

import (
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// Valid reports whether s is a known status
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether a booking in status s may move to next.
// Cancelled and completed are terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s == next {
		return true
	}
	return s == BookingStatusConfirmed && (next == BookingStatusCancelled || next == BookingStatusCompleted)
}

// HoldsSeats reports whether bookings in this status keep their seats unavailable
func (s BookingStatus) HoldsSeats() bool {
	return s != BookingStatusCancelled
}

// Gender of a passenger
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Column limits of the bookings and passengers tables
const (
	MaxPassengerNameLength    = 150
	MaxSeatNumberLength       = 10
	MaxPaymentReferenceLength = 100
)

// ValidPaymentReference reports whether ref fits the payment_reference column
func ValidPaymentReference(ref string) bool {
	return ref != "" && utf8.RuneCountInString(ref) <= MaxPaymentReferenceLength
}

var bookingReferencePattern = regexp.MustCompile(`^TE[0-9A-F]{8}$`)

// IsBookingReference reports whether ref has the TE + 8 hex digit shape
func IsBookingReference(ref string) bool {
	return bookingReferencePattern.MatchString(ref)
}

// Booking is a confirmed purchase of one or more seats on a trip.
// Route, date, time and operator are copied from the trip at creation.
type Booking struct {
	Reference        string          `json:"reference" db:"reference"`
	Status           BookingStatus   `json:"status" db:"status"`
	TripID           string          `json:"tripId" db:"trip_id"`
	BusID            string          `json:"busId" db:"bus_id"`
	From             string          `json:"from" db:"origin"`
	To               string          `json:"to" db:"destination"`
	Date             string          `json:"date" db:"trip_date"`
	Time             string          `json:"time" db:"departure_time"`
	Operator         string          `json:"operator" db:"operator"`
	Email            string          `json:"email" db:"email"`
	Phone            string          `json:"phone" db:"phone"`
	TotalAmount      decimal.Decimal `json:"totalAmount" db:"total_amount"`
	BookingDate      time.Time       `json:"bookingDate" db:"booking_date"`
	PaymentReference *string         `json:"paymentReference,omitempty" db:"payment_reference"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time       `json:"updatedAt" db:"updated_at"`

	Passengers []Passenger `json:"passengers" db:"-"`
}

// SeatNumbers returns the seats held by the booking's passengers
func (b *Booking) SeatNumbers() []string {
	seats := make([]string, 0, len(b.Passengers))
	for _, p := range b.Passengers {
		seats = append(seats, p.Seat)
	}
	return seats
}

// Passenger is one traveller on a booking
type Passenger struct {
	ID               string `json:"id" db:"id"`
	BookingReference string `json:"-" db:"booking_reference"`
	Name             string `json:"name" db:"name"`
	Seat             string `json:"seat" db:"seat"`
	Age              int    `json:"age" db:"age"`
	Gender           Gender `json:"gender" db:"gender"`
}

// PassengerInput is a passenger as submitted by a client or the payment gateway
type PassengerInput struct {
	Name   string `json:"name"`
	Seat   string `json:"seat"`
	Age    int    `json:"age"`
	Gender Gender `json:"gender"`
}

// CreateBookingRequest represents the request to create a booking.
// Reference and ExpectedTotal are only set by the payment webhook, which reuses the
// checkout reference and the amount actually paid.
type CreateBookingRequest struct {
	TripID           string           `json:"tripId" binding:"required"`
	Email            string           `json:"email" binding:"required"`
	Phone            string           `json:"phone" binding:"required"`
	Passengers       []PassengerInput `json:"passengers" binding:"required"`
	PaymentReference *string          `json:"paymentReference"`
	Reference        string           `json:"-"`
	ExpectedTotal    *decimal.Decimal `json:"-"`
}

// UpdateBookingRequest represents a partial booking update
type UpdateBookingRequest struct {
	Status           *BookingStatus   `json:"status"`
	Email            *string          `json:"email"`
	Phone            *string          `json:"phone"`
	PaymentReference *string          `json:"paymentReference"`
	Passengers       []PassengerInput `json:"passengers"`
	TotalAmount      *decimal.Decimal `json:"totalAmount"`
}

// BookingConfirmation is returned after a booking is created
type BookingConfirmation struct {
	Booking *Booking `json:"booking"`
	Trip    *Trip    `json:"trip"`
	Bus     *Bus     `json:"bus"`
	Seats   []Seat   `json:"seats"`
}

// BookingFilter narrows admin booking listings
type BookingFilter struct {
	Status BookingStatus
	TripID string
	Email  string
	Limit  int
	Offset int
}

// CheckoutRequest asks for a payment quote without writing anything
type CheckoutRequest struct {
	TripID     string           `json:"tripId" binding:"required"`
	Email      string           `json:"email" binding:"required"`
	Phone      string           `json:"phone" binding:"required"`
	Passengers []PassengerInput `json:"passengers" binding:"required"`
}

// CheckoutQuote is what the client hands to the payment gateway
type CheckoutQuote struct {
	BookingReference string           `json:"bookingReference"`
	TripID           string           `json:"tripId"`
	TotalAmount      decimal.Decimal  `json:"totalAmount"`
	AmountMinor      int64            `json:"amountMinor"`
	Currency         string           `json:"currency"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	Passengers       []PassengerInput `json:"passengers"`
}
