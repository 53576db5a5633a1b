package services

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelease/ticketing-backend/internal/apperr"
	"github.com/travelease/ticketing-backend/internal/models"
)

const (
	testEmail = "ada@example.com"
	testPhone = "08031234567"
	testDate  = "2026-11-02"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fixture is a bus with four seats (1A 1B 2A 2B) and one 08:00-10:00 trip priced 5000
type fixture struct {
	ctx      context.Context
	store    *memStore
	bus      *models.BusDetails
	trip     *models.Trip
	bookings *BookingService
	trips    *TripService
	buses    *BusService
	busTypes *BusTypeService
}

func twoByTwo() models.SeatLayout {
	return models.SeatLayout{
		Rows:        2,
		Columns:     2,
		Arrangement: [][]string{{"1A", "1B"}, {"2A", "2B"}},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := newMemStore()
	logger := testLogger()

	f := &fixture{
		ctx:      ctx,
		store:    store,
		bookings: NewBookingService(store, "NGN", logger),
		trips:    NewTripService(store, logger),
		buses:    NewBusService(store, logger),
		busTypes: NewBusTypeService(store),
	}

	_, err := f.busTypes.Create(ctx, models.BusTypeRequest{Name: "Standard", Seats: 4})
	require.NoError(t, err)

	f.bus, err = f.buses.Create(ctx, models.CreateBusRequest{
		Operator:   "GUO Transport",
		BusType:    "Standard",
		SeatLayout: twoByTwo(),
		Amenities:  []string{"AC", "wifi"},
	}, nil)
	require.NoError(t, err)

	f.trip, err = f.trips.Create(ctx, models.CreateTripRequest{
		BusID:         f.bus.ID,
		From:          "Lagos",
		To:            "Ibadan",
		Date:          testDate,
		DepartureTime: "08:00",
		ArrivalTime:   "10:00",
		Price:         decimal.NewFromInt(5000),
	}, nil)
	require.NoError(t, err)

	return f
}

func (f *fixture) seatMap() map[string]bool {
	out := map[string]bool{}
	for _, s := range f.store.state.seats[f.bus.ID] {
		out[s.Number] = s.IsAvailable
	}
	return out
}

func passenger(name, seat string) models.PassengerInput {
	return models.PassengerInput{Name: name, Seat: seat, Age: 30, Gender: models.GenderFemale}
}

func (f *fixture) book(t *testing.T, seats ...string) *models.Booking {
	t.Helper()
	var passengers []models.PassengerInput
	for _, s := range seats {
		passengers = append(passengers, passenger("Passenger "+s, s))
	}
	confirmation, err := f.bookings.Create(f.ctx, models.CreateBookingRequest{
		TripID:     f.trip.ID,
		Email:      testEmail,
		Phone:      testPhone,
		Passengers: passengers,
	})
	require.NoError(t, err)
	return confirmation.Booking
}

func assertAppErr(t *testing.T, err error, kind apperr.Kind, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected an apperr.Error, got %v", err)
	assert.Equal(t, kind, appErr.Kind)
	assert.Equal(t, code, appErr.Code)
}
