package services

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelease/ticketing-backend/internal/apperr"
	"github.com/travelease/ticketing-backend/internal/models"
)

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)

	confirmation, err := f.bookings.Create(f.ctx, models.CreateBookingRequest{
		TripID:     f.trip.ID,
		Email:      "  Ada@Example.COM ",
		Phone:      "+234 803 123 4567",
		Passengers: []models.PassengerInput{passenger("Ada", "1A"), passenger("Bola", "1B")},
	})
	require.NoError(t, err)

	booking := confirmation.Booking
	assert.True(t, models.IsBookingReference(booking.Reference))
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.True(t, decimal.NewFromInt(10000).Equal(booking.TotalAmount))
	assert.Equal(t, testEmail, booking.Email)
	assert.Equal(t, testPhone, booking.Phone)
	assert.Equal(t, "Lagos", booking.From)
	assert.Equal(t, "GUO Transport", booking.Operator)
	assert.Equal(t, "08:00", booking.Time)

	assert.Equal(t, map[string]bool{"1A": false, "1B": false, "2A": true, "2B": true}, f.seatMap())
	assert.Len(t, confirmation.Seats, 4)
	assert.Equal(t, f.trip.ID, confirmation.Trip.ID)
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  models.CreateBookingRequest
		kind apperr.Kind
		code string
	}{
		{
			name: "Invalid email",
			req:  models.CreateBookingRequest{TripID: f.trip.ID, Email: "ada", Phone: testPhone, Passengers: []models.PassengerInput{passenger("Ada", "1A")}},
			kind: apperr.KindValidation,
			code: "INVALID_EMAIL",
		},
		{
			name: "Invalid phone",
			req:  models.CreateBookingRequest{TripID: f.trip.ID, Email: testEmail, Phone: "12345", Passengers: []models.PassengerInput{passenger("Ada", "1A")}},
			kind: apperr.KindValidation,
			code: "INVALID_PHONE",
		},
		{
			name: "No passengers",
			req:  models.CreateBookingRequest{TripID: f.trip.ID, Email: testEmail, Phone: testPhone},
			kind: apperr.KindValidation,
			code: "NO_PASSENGERS",
		},
		{
			name: "Duplicate seat",
			req:  models.CreateBookingRequest{TripID: f.trip.ID, Email: testEmail, Phone: testPhone, Passengers: []models.PassengerInput{passenger("Ada", "1A"), passenger("Bola", "1A")}},
			kind: apperr.KindValidation,
			code: "DUPLICATE_SEAT",
		},
		{
			name: "Age out of range",
			req: models.CreateBookingRequest{TripID: f.trip.ID, Email: testEmail, Phone: testPhone, Passengers: []models.PassengerInput{
				{Name: "Ada", Seat: "1A", Age: 121, Gender: models.GenderFemale},
			}},
			kind: apperr.KindValidation,
			code: "INVALID_PASSENGER",
		},
		{
			name: "Name longer than the column",
			req:  models.CreateBookingRequest{TripID: f.trip.ID, Email: testEmail, Phone: testPhone, Passengers: []models.PassengerInput{passenger(strings.Repeat("a", 151), "1A")}},
			kind: apperr.KindValidation,
			code: "INVALID_PASSENGER",
		},
		{
			name: "Seat longer than the column",
			req:  models.CreateBookingRequest{TripID: f.trip.ID, Email: testEmail, Phone: testPhone, Passengers: []models.PassengerInput{passenger("Ada", strings.Repeat("1", 11))}},
			kind: apperr.KindValidation,
			code: "INVALID_PASSENGER",
		},
		{
			name: "Payment reference longer than the column",
			req: models.CreateBookingRequest{TripID: f.trip.ID, Email: testEmail, Phone: testPhone, Passengers: []models.PassengerInput{passenger("Ada", "1A")},
				PaymentReference: stringPtr(strings.Repeat("P", 101))},
			kind: apperr.KindValidation,
			code: "INVALID_PAYMENT_REFERENCE",
		},
		{
			name: "Seat not on the bus",
			req:  models.CreateBookingRequest{TripID: f.trip.ID, Email: testEmail, Phone: testPhone, Passengers: []models.PassengerInput{passenger("Ada", "9Z")}},
			kind: apperr.KindValidation,
			code: "INVALID_SEAT",
		},
		{
			name: "Unknown trip",
			req:  models.CreateBookingRequest{TripID: "missing", Email: testEmail, Phone: testPhone, Passengers: []models.PassengerInput{passenger("Ada", "1A")}},
			kind: apperr.KindNotFound,
			code: "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bookings.Create(f.ctx, tt.req)
			assertAppErr(t, err, tt.kind, tt.code)
			assert.Empty(t, f.store.state.bookings)
		})
	}
}

func TestCreateBooking_UnavailableSeatChangesNothing(t *testing.T) {
	f := newFixture(t)
	first := f.book(t, "1A")
	before := f.seatMap()

	_, err := f.bookings.Create(f.ctx, models.CreateBookingRequest{
		TripID:     f.trip.ID,
		Email:      testEmail,
		Phone:      testPhone,
		Passengers: []models.PassengerInput{passenger("Bola", "1B"), passenger("Chidi", "1A")},
	})
	assertAppErr(t, err, apperr.KindValidation, "SEAT_UNAVAILABLE")

	assert.Equal(t, before, f.seatMap())
	assert.Len(t, f.store.state.bookings, 1)
	assert.Contains(t, f.store.state.bookings, first.Reference)
}

func TestCreateBooking_ConcurrentReservationRollsBack(t *testing.T) {
	f := newFixture(t)

	// another booking takes 1B between the availability check and the reservation
	f.store.beforeReserve = func(st *memState) {
		seats := st.seats[f.bus.ID]
		for i := range seats {
			if seats[i].Number == "1B" {
				seats[i].IsAvailable = false
			}
		}
	}

	_, err := f.bookings.Create(f.ctx, models.CreateBookingRequest{
		TripID:     f.trip.ID,
		Email:      testEmail,
		Phone:      testPhone,
		Passengers: []models.PassengerInput{passenger("Ada", "1A"), passenger("Bola", "1B")},
	})
	assertAppErr(t, err, apperr.KindValidation, "SEAT_UNAVAILABLE")

	assert.Empty(t, f.store.state.bookings)
	assert.True(t, f.seatMap()["1A"], "1A must be rolled back")
}

func TestCreateBooking_UnavailableTrip(t *testing.T) {
	f := newFixture(t)
	closed := false
	_, err := f.trips.Update(f.ctx, f.trip.ID, models.UpdateTripRequest{IsAvailable: &closed}, nil)
	require.NoError(t, err)

	_, err = f.bookings.Create(f.ctx, models.CreateBookingRequest{
		TripID:     f.trip.ID,
		Email:      testEmail,
		Phone:      testPhone,
		Passengers: []models.PassengerInput{passenger("Ada", "1A")},
	})
	assertAppErr(t, err, apperr.KindValidation, "TRIP_UNAVAILABLE")
}

func TestCreateBooking_PaymentReferenceReuse(t *testing.T) {
	f := newFixture(t)
	ref := "PAY-001"

	_, err := f.bookings.Create(f.ctx, models.CreateBookingRequest{
		TripID: f.trip.ID, Email: testEmail, Phone: testPhone,
		Passengers:       []models.PassengerInput{passenger("Ada", "1A")},
		PaymentReference: &ref,
	})
	require.NoError(t, err)
	before := f.seatMap()

	_, err = f.bookings.Create(f.ctx, models.CreateBookingRequest{
		TripID: f.trip.ID, Email: testEmail, Phone: testPhone,
		Passengers:       []models.PassengerInput{passenger("Bola", "2A")},
		PaymentReference: &ref,
	})
	assertAppErr(t, err, apperr.KindConflict, "PAYMENT_REFERENCE_IN_USE")
	assert.Equal(t, before, f.seatMap())
}

func TestCreateBooking_SuppliedReferenceAndExpectedTotal(t *testing.T) {
	f := newFixture(t)
	paid := decimal.NewFromInt(5000)

	confirmation, err := f.bookings.Create(f.ctx, models.CreateBookingRequest{
		TripID: f.trip.ID, Email: testEmail, Phone: testPhone,
		Passengers:    []models.PassengerInput{passenger("Ada", "1A")},
		Reference:     "TE0A1B2C3D",
		ExpectedTotal: &paid,
	})
	require.NoError(t, err)
	assert.Equal(t, "TE0A1B2C3D", confirmation.Booking.Reference)

	wrong := decimal.NewFromInt(4000)
	_, err = f.bookings.Create(f.ctx, models.CreateBookingRequest{
		TripID: f.trip.ID, Email: testEmail, Phone: testPhone,
		Passengers:    []models.PassengerInput{passenger("Bola", "2A")},
		ExpectedTotal: &wrong,
	})
	assertAppErr(t, err, apperr.KindValidation, "AMOUNT_MISMATCH")
}

func TestGetBooking_PaymentReferenceFirst(t *testing.T) {
	f := newFixture(t)
	ref := "PAY-XYZ"
	confirmation, err := f.bookings.Create(f.ctx, models.CreateBookingRequest{
		TripID: f.trip.ID, Email: testEmail, Phone: testPhone,
		Passengers:       []models.PassengerInput{passenger("Ada", "1A")},
		PaymentReference: &ref,
	})
	require.NoError(t, err)

	byPayment, err := f.bookings.Get(f.ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, confirmation.Booking.Reference, byPayment.Reference)

	byReference, err := f.bookings.Get(f.ctx, confirmation.Booking.Reference)
	require.NoError(t, err)
	assert.Equal(t, confirmation.Booking.Reference, byReference.Reference)

	_, err = f.bookings.Get(f.ctx, "TE00000000")
	assert.True(t, apperr.IsNotFound(err))
}

func TestGetBooking_MatchesCreatedBooking(t *testing.T) {
	f := newFixture(t)
	confirmation, err := f.bookings.Create(f.ctx, models.CreateBookingRequest{
		TripID: f.trip.ID, Email: testEmail, Phone: testPhone,
		Passengers: []models.PassengerInput{passenger("Bola", "2B"), passenger("Ada", "1A")},
	})
	require.NoError(t, err)
	created := confirmation.Booking

	fetched, err := f.bookings.Get(f.ctx, created.Reference)
	require.NoError(t, err)

	assert.Equal(t, created.Passengers, fetched.Passengers)
	assert.Equal(t, []string{"2B", "1A"}, fetched.SeatNumbers())
	assert.Equal(t, created.From, fetched.From)
	assert.Equal(t, created.To, fetched.To)
	assert.Equal(t, created.Date, fetched.Date)
	assert.Equal(t, created.Time, fetched.Time)
	assert.Equal(t, created.Operator, fetched.Operator)
	assert.Equal(t, "Ibadan", fetched.To)
	assert.Equal(t, testDate, fetched.Date)
	assert.True(t, created.TotalAmount.Equal(fetched.TotalAmount))
}

func TestUpdateBooking_PassengerDiff(t *testing.T) {
	f := newFixture(t)
	booking := f.book(t, "1A", "1B")

	updated, err := f.bookings.Update(f.ctx, booking.Reference, models.UpdateBookingRequest{
		Passengers: []models.PassengerInput{passenger("Bola", "1B"), passenger("Chidi", "2A")},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"1A": true, "1B": false, "2A": false, "2B": true}, f.seatMap())
	assert.ElementsMatch(t, []string{"1B", "2A"}, updated.SeatNumbers())
	assert.True(t, decimal.NewFromInt(10000).Equal(updated.TotalAmount))

	stored, err := f.bookings.Get(f.ctx, booking.Reference)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1B", "2A"}, stored.SeatNumbers())
}

func TestUpdateBooking_PassengerCountRecomputesTotal(t *testing.T) {
	f := newFixture(t)
	booking := f.book(t, "1A", "1B")

	updated, err := f.bookings.Update(f.ctx, booking.Reference, models.UpdateBookingRequest{
		Passengers: []models.PassengerInput{passenger("Ada", "1A"), passenger("Bola", "1B"), passenger("Chidi", "2B")},
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(15000).Equal(updated.TotalAmount))
}

func TestUpdateBooking_TotalAmountMustMatch(t *testing.T) {
	f := newFixture(t)
	booking := f.book(t, "1A")
	before := f.seatMap()

	wrong := decimal.NewFromInt(1)
	_, err := f.bookings.Update(f.ctx, booking.Reference, models.UpdateBookingRequest{
		Passengers:  []models.PassengerInput{passenger("Ada", "2A")},
		TotalAmount: &wrong,
	})
	assertAppErr(t, err, apperr.KindValidation, "TOTAL_AMOUNT_MISMATCH")
	assert.Equal(t, before, f.seatMap())

	right := decimal.NewFromInt(5000)
	_, err = f.bookings.Update(f.ctx, booking.Reference, models.UpdateBookingRequest{
		Passengers:  []models.PassengerInput{passenger("Ada", "2A")},
		TotalAmount: &right,
	})
	require.NoError(t, err)
}

func TestUpdateBooking_NewSeatTaken(t *testing.T) {
	f := newFixture(t)
	booking := f.book(t, "1A")
	f.book(t, "2A")
	before := f.seatMap()

	_, err := f.bookings.Update(f.ctx, booking.Reference, models.UpdateBookingRequest{
		Passengers: []models.PassengerInput{passenger("Ada", "2A")},
	})
	assertAppErr(t, err, apperr.KindValidation, "SEAT_UNAVAILABLE")
	assert.Equal(t, before, f.seatMap())
}

func TestUpdateBooking_CancelReleasesSeats(t *testing.T) {
	f := newFixture(t)
	booking := f.book(t, "1A", "2B")
	cancelled := models.BookingStatusCancelled

	updated, err := f.bookings.Update(f.ctx, booking.Reference, models.UpdateBookingRequest{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, updated.Status)
	assert.Equal(t, map[string]bool{"1A": true, "1B": true, "2A": true, "2B": true}, f.seatMap())

	// the released seats can be sold again
	f.book(t, "1A")
	assert.False(t, f.seatMap()["1A"])

	// a cancelled booking cannot take passengers again
	_, err = f.bookings.Update(f.ctx, booking.Reference, models.UpdateBookingRequest{
		Passengers: []models.PassengerInput{passenger("Ada", "1B")},
	})
	assertAppErr(t, err, apperr.KindConflict, "BOOKING_NOT_EDITABLE")
}

func TestUpdateBooking_StatusTransitions(t *testing.T) {
	f := newFixture(t)
	booking := f.book(t, "1A")
	completed := models.BookingStatusCompleted
	confirmed := models.BookingStatusConfirmed

	_, err := f.bookings.Update(f.ctx, booking.Reference, models.UpdateBookingRequest{Status: &completed})
	require.NoError(t, err)
	assert.False(t, f.seatMap()["1A"], "completed bookings keep their seats")

	_, err = f.bookings.Update(f.ctx, booking.Reference, models.UpdateBookingRequest{Status: &confirmed})
	assertAppErr(t, err, apperr.KindConflict, "INVALID_STATUS_TRANSITION")

	unknown := models.BookingStatus("refunded")
	_, err = f.bookings.Update(f.ctx, booking.Reference, models.UpdateBookingRequest{Status: &unknown})
	assertAppErr(t, err, apperr.KindValidation, "INVALID_STATUS")
}

func TestDeleteBooking_RestoresSeats(t *testing.T) {
	f := newFixture(t)
	booking := f.book(t, "1A", "1B")

	require.NoError(t, f.bookings.Delete(f.ctx, booking.Reference))

	assert.Equal(t, map[string]bool{"1A": true, "1B": true, "2A": true, "2B": true}, f.seatMap())
	_, err := f.bookings.Get(f.ctx, booking.Reference)
	assert.True(t, apperr.IsNotFound(err))
}

func TestDeleteBooking_CompletedIsRejected(t *testing.T) {
	f := newFixture(t)
	booking := f.book(t, "1A")
	completed := models.BookingStatusCompleted
	_, err := f.bookings.Update(f.ctx, booking.Reference, models.UpdateBookingRequest{Status: &completed})
	require.NoError(t, err)

	err = f.bookings.Delete(f.ctx, booking.Reference)
	assertAppErr(t, err, apperr.KindConflict, "BOOKING_COMPLETED")
	assert.False(t, f.seatMap()["1A"])
	assert.Contains(t, f.store.state.bookings, booking.Reference)
}

func TestDeleteBooking_CancelledLeavesResoldSeatsAlone(t *testing.T) {
	f := newFixture(t)
	old := f.book(t, "1A")
	cancelled := models.BookingStatusCancelled
	_, err := f.bookings.Update(f.ctx, old.Reference, models.UpdateBookingRequest{Status: &cancelled})
	require.NoError(t, err)

	f.book(t, "1A")

	require.NoError(t, f.bookings.Delete(f.ctx, old.Reference))
	assert.False(t, f.seatMap()["1A"], "1A belongs to the newer booking")
}

func TestQuote(t *testing.T) {
	f := newFixture(t)

	quote, err := f.bookings.Quote(f.ctx, models.CheckoutRequest{
		TripID:     f.trip.ID,
		Email:      testEmail,
		Phone:      testPhone,
		Passengers: []models.PassengerInput{passenger("Ada", "1A"), passenger("Bola", "2B")},
	})
	require.NoError(t, err)

	assert.True(t, models.IsBookingReference(quote.BookingReference))
	assert.True(t, decimal.NewFromInt(10000).Equal(quote.TotalAmount))
	assert.Equal(t, int64(1000000), quote.AmountMinor)
	assert.Equal(t, "NGN", quote.Currency)
	assert.Empty(t, f.store.state.bookings)
	assert.True(t, f.seatMap()["1A"])
}

func TestListBookings_InvalidStatus(t *testing.T) {
	f := newFixture(t)
	f.book(t, "1A")

	_, err := f.bookings.List(f.ctx, models.BookingFilter{Status: "lost"})
	assertAppErr(t, err, apperr.KindValidation, "INVALID_STATUS")

	bookings, err := f.bookings.List(f.ctx, models.BookingFilter{Status: models.BookingStatusConfirmed})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func stringPtr(s string) *string {
	return &s
}
