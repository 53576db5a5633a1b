package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/travelease/ticketing-backend/internal/apperr"
	"github.com/travelease/ticketing-backend/internal/database"
	"github.com/travelease/ticketing-backend/internal/models"
)

// memState is the data behind memStore
type memState struct {
	busTypes map[string]models.BusType
	buses    map[string]models.Bus
	seats    map[string][]models.Seat
	trips    map[string]models.Trip
	bookings map[string]models.Booking
	users    map[uuid.UUID]models.User
	sessions map[string]models.Session
}

func newMemState() *memState {
	return &memState{
		busTypes: map[string]models.BusType{},
		buses:    map[string]models.Bus{},
		seats:    map[string][]models.Seat{},
		trips:    map[string]models.Trip{},
		bookings: map[string]models.Booking{},
		users:    map[uuid.UUID]models.User{},
		sessions: map[string]models.Session{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.busTypes {
		c.busTypes[k] = v
	}
	for k, v := range s.buses {
		c.buses[k] = v
	}
	for k, v := range s.seats {
		c.seats[k] = append([]models.Seat(nil), v...)
	}
	for k, v := range s.trips {
		c.trips[k] = v
	}
	for k, v := range s.bookings {
		v.Passengers = append([]models.Passenger(nil), v.Passengers...)
		c.bookings[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	return c
}

// memStore is an in-memory database.Store. RunInTx restores a snapshot when fn fails.
type memStore struct {
	state *memState

	// beforeReserve runs ahead of every ReserveSeats call
	beforeReserve func(st *memState)
}

var _ database.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func (m *memStore) RunInTx(ctx context.Context, fn func(tx database.Store) error) error {
	snapshot := m.state.clone()
	if err := fn(m); err != nil {
		*m.state = *snapshot
		return err
	}
	return nil
}

// seat returns the availability of one seat, and whether it exists
func (m *memStore) seat(busID, number string) (bool, bool) {
	for _, s := range m.state.seats[busID] {
		if s.Number == number {
			return s.IsAvailable, true
		}
	}
	return false, false
}

func (m *memStore) setSeat(busID, number string, available bool) {
	seats := m.state.seats[busID]
	for i := range seats {
		if seats[i].Number == number {
			seats[i].IsAvailable = available
		}
	}
}

// Bus types

func (m *memStore) CreateBusType(ctx context.Context, busType *models.BusType) error {
	for _, bt := range m.state.busTypes {
		if bt.Name == busType.Name {
			return apperr.Conflict("BUS_TYPE_EXISTS", "bus type %q already exists", busType.Name)
		}
	}
	busType.ID = uuid.NewString()
	m.state.busTypes[busType.ID] = *busType
	return nil
}

func (m *memStore) GetBusType(ctx context.Context, id string) (*models.BusType, error) {
	bt, ok := m.state.busTypes[id]
	if !ok {
		return nil, apperr.NotFound("bus type")
	}
	return &bt, nil
}

func (m *memStore) GetBusTypeByName(ctx context.Context, name string) (*models.BusType, error) {
	for _, bt := range m.state.busTypes {
		if bt.Name == name {
			return &bt, nil
		}
	}
	return nil, apperr.NotFound("bus type")
}

func (m *memStore) ListBusTypes(ctx context.Context) ([]models.BusType, error) {
	out := []models.BusType{}
	for _, bt := range m.state.busTypes {
		out = append(out, bt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) UpdateBusType(ctx context.Context, busType *models.BusType) error {
	if _, ok := m.state.busTypes[busType.ID]; !ok {
		return apperr.NotFound("bus type")
	}
	m.state.busTypes[busType.ID] = *busType
	return nil
}

func (m *memStore) DeleteBusType(ctx context.Context, id string) error {
	if _, ok := m.state.busTypes[id]; !ok {
		return apperr.NotFound("bus type")
	}
	delete(m.state.busTypes, id)
	return nil
}

// Buses

func (m *memStore) CreateBus(ctx context.Context, bus *models.Bus) error {
	bus.ID = uuid.NewString()
	m.state.buses[bus.ID] = *bus
	return nil
}

func (m *memStore) GetBus(ctx context.Context, id string) (*models.Bus, error) {
	bus, ok := m.state.buses[id]
	if !ok {
		return nil, apperr.NotFound("bus")
	}
	return &bus, nil
}

func (m *memStore) ListBuses(ctx context.Context) ([]models.Bus, error) {
	out := []models.Bus{}
	for _, b := range m.state.buses {
		out = append(out, b)
	}
	return out, nil
}

func (m *memStore) UpdateBus(ctx context.Context, bus *models.Bus) error {
	if _, ok := m.state.buses[bus.ID]; !ok {
		return apperr.NotFound("bus")
	}
	m.state.buses[bus.ID] = *bus
	return nil
}

func (m *memStore) DeleteBus(ctx context.Context, id string) error {
	if _, ok := m.state.buses[id]; !ok {
		return apperr.NotFound("bus")
	}
	delete(m.state.buses, id)
	delete(m.state.seats, id)
	return nil
}

func (m *memStore) CountBusesByType(ctx context.Context, busType string) (int, error) {
	count := 0
	for _, b := range m.state.buses {
		if b.BusType == busType {
			count++
		}
	}
	return count, nil
}

// Seats

func (m *memStore) CreateSeats(ctx context.Context, busID string, numbers []string) error {
	for _, n := range numbers {
		m.state.seats[busID] = append(m.state.seats[busID], models.Seat{
			ID: uuid.NewString(), BusID: busID, Number: n, IsAvailable: true,
		})
	}
	return nil
}

func (m *memStore) ListSeats(ctx context.Context, busID string) ([]models.Seat, error) {
	return append([]models.Seat{}, m.state.seats[busID]...), nil
}

func (m *memStore) DeleteSeats(ctx context.Context, busID string) error {
	delete(m.state.seats, busID)
	return nil
}

func (m *memStore) CountHeldSeats(ctx context.Context, busID string) (int, error) {
	count := 0
	for _, s := range m.state.seats[busID] {
		if !s.IsAvailable {
			count++
		}
	}
	return count, nil
}

func (m *memStore) ReserveSeats(ctx context.Context, busID string, numbers []string) error {
	if m.beforeReserve != nil {
		m.beforeReserve(m.state)
	}
	for _, n := range numbers {
		if available, ok := m.seat(busID, n); !ok || !available {
			return apperr.Validation("SEAT_UNAVAILABLE", "seat %s is not available", n)
		}
		m.setSeat(busID, n, false)
	}
	return nil
}

func (m *memStore) ReleaseSeats(ctx context.Context, busID, holder string, numbers []string) error {
	for _, n := range numbers {
		if m.heldByOther(busID, holder, n) {
			continue
		}
		m.setSeat(busID, n, true)
	}
	return nil
}

func (m *memStore) heldByOther(busID, holder, seat string) bool {
	for _, b := range m.state.bookings {
		if b.BusID != busID || b.Reference == holder || !b.Status.HoldsSeats() {
			continue
		}
		for _, p := range b.Passengers {
			if p.Seat == seat {
				return true
			}
		}
	}
	return false
}

// Trips

func (m *memStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	trip.ID = uuid.NewString()
	m.state.trips[trip.ID] = *trip
	return nil
}

func (m *memStore) GetTrip(ctx context.Context, id string) (*models.Trip, error) {
	trip, ok := m.state.trips[id]
	if !ok {
		return nil, apperr.NotFound("trip")
	}
	return &trip, nil
}

func (m *memStore) ListTrips(ctx context.Context, filter models.TripFilter) ([]models.Trip, error) {
	out := []models.Trip{}
	for _, t := range m.state.trips {
		switch {
		case filter.From != "" && !strings.EqualFold(t.From, filter.From):
			continue
		case filter.To != "" && !strings.EqualFold(t.To, filter.To):
			continue
		case filter.Date != "" && t.Date != filter.Date:
			continue
		case filter.BusID != "" && t.BusID != filter.BusID:
			continue
		case filter.AvailableOnly && !t.IsAvailable:
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date+out[i].DepartureTime < out[j].Date+out[j].DepartureTime
	})
	return out, nil
}

func (m *memStore) ListTripsForBusOnDate(ctx context.Context, busID, date string) ([]models.Trip, error) {
	return m.ListTrips(ctx, models.TripFilter{BusID: busID, Date: date})
}

func (m *memStore) UpdateTrip(ctx context.Context, trip *models.Trip) error {
	if _, ok := m.state.trips[trip.ID]; !ok {
		return apperr.NotFound("trip")
	}
	m.state.trips[trip.ID] = *trip
	return nil
}

func (m *memStore) DeleteTrip(ctx context.Context, id string) error {
	if _, ok := m.state.trips[id]; !ok {
		return apperr.NotFound("trip")
	}
	delete(m.state.trips, id)
	for ref, b := range m.state.bookings {
		if b.TripID == id {
			delete(m.state.bookings, ref)
		}
	}
	return nil
}

func (m *memStore) CountTripsForBus(ctx context.Context, busID string) (int, error) {
	count := 0
	for _, t := range m.state.trips {
		if t.BusID == busID {
			count++
		}
	}
	return count, nil
}

// Bookings

func (m *memStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if _, ok := m.state.bookings[booking.Reference]; ok {
		return apperr.Conflict("BOOKING_EXISTS", "booking %s already exists", booking.Reference)
	}
	if booking.PaymentReference != nil {
		if inUse, _ := m.PaymentReferenceInUse(ctx, *booking.PaymentReference, ""); inUse {
			return apperr.Conflict("PAYMENT_REFERENCE_IN_USE", "payment reference has already been used")
		}
	}
	now := time.Now()
	booking.BookingDate = now
	booking.CreatedAt = now
	booking.UpdatedAt = now
	for i := range booking.Passengers {
		booking.Passengers[i].ID = uuid.NewString()
		booking.Passengers[i].BookingReference = booking.Reference
	}
	stored := *booking
	stored.Passengers = append([]models.Passenger(nil), booking.Passengers...)
	m.state.bookings[booking.Reference] = stored
	return nil
}

func (m *memStore) GetBooking(ctx context.Context, reference string) (*models.Booking, error) {
	b, ok := m.state.bookings[reference]
	if !ok {
		return nil, apperr.NotFound("booking")
	}
	b.Passengers = append([]models.Passenger(nil), b.Passengers...)
	return &b, nil
}

func (m *memStore) GetBookingByPaymentReference(ctx context.Context, paymentRef string) (*models.Booking, error) {
	for _, b := range m.state.bookings {
		if b.PaymentReference != nil && *b.PaymentReference == paymentRef {
			return m.GetBooking(ctx, b.Reference)
		}
	}
	return nil, apperr.NotFound("booking")
}

func (m *memStore) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	out := []models.Booking{}
	for _, b := range m.state.bookings {
		switch {
		case filter.Status != "" && b.Status != filter.Status:
			continue
		case filter.TripID != "" && b.TripID != filter.TripID:
			continue
		case filter.Email != "" && !strings.EqualFold(b.Email, filter.Email):
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *memStore) BookingReferenceExists(ctx context.Context, reference string) (bool, error) {
	_, ok := m.state.bookings[reference]
	return ok, nil
}

func (m *memStore) PaymentReferenceInUse(ctx context.Context, paymentRef, excludeReference string) (bool, error) {
	for _, b := range m.state.bookings {
		if b.Reference == excludeReference {
			continue
		}
		if b.PaymentReference != nil && *b.PaymentReference == paymentRef {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	stored, ok := m.state.bookings[booking.Reference]
	if !ok {
		return apperr.NotFound("booking")
	}
	passengers := stored.Passengers
	stored = *booking
	stored.Passengers = passengers
	stored.UpdatedAt = time.Now()
	m.state.bookings[booking.Reference] = stored
	return nil
}

func (m *memStore) ReplacePassengers(ctx context.Context, reference string, passengers []models.Passenger) error {
	stored, ok := m.state.bookings[reference]
	if !ok {
		return apperr.NotFound("booking")
	}
	stored.Passengers = nil
	for _, p := range passengers {
		p.ID = uuid.NewString()
		p.BookingReference = reference
		stored.Passengers = append(stored.Passengers, p)
	}
	m.state.bookings[reference] = stored
	return nil
}

func (m *memStore) DeleteBooking(ctx context.Context, reference string) error {
	if _, ok := m.state.bookings[reference]; !ok {
		return apperr.NotFound("booking")
	}
	delete(m.state.bookings, reference)
	return nil
}

func (m *memStore) CountLiveBookingsForTrip(ctx context.Context, tripID string) (int, error) {
	count := 0
	for _, b := range m.state.bookings {
		if b.TripID == tripID && b.Status.HoldsSeats() {
			count++
		}
	}
	return count, nil
}

// Users

func (m *memStore) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	for _, u := range m.state.users {
		if u.Email == user.Email {
			return apperr.Conflict("EMAIL_IN_USE", "a user with email %s already exists", user.Email)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.state.users[user.ID] = *user
	return nil
}

func (m *memStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.state.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return &u, nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.state.users {
		if u.Email == strings.ToLower(email) {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user")
}

func (m *memStore) ListUsers(ctx context.Context) ([]models.User, error) {
	out := []models.User{}
	for _, u := range m.state.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memStore) UpdateUser(ctx context.Context, user *models.User) error {
	if _, ok := m.state.users[user.ID]; !ok {
		return apperr.NotFound("user")
	}
	user.Email = strings.ToLower(user.Email)
	m.state.users[user.ID] = *user
	return nil
}

func (m *memStore) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	u, ok := m.state.users[id]
	if !ok {
		return apperr.NotFound("user")
	}
	now := time.Now()
	u.LastLoginAt = &now
	m.state.users[id] = u
	return nil
}

func (m *memStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.state.users[id]; !ok {
		return apperr.NotFound("user")
	}
	delete(m.state.users, id)
	_ = m.DeleteUserSessions(ctx, id)
	return nil
}

// Sessions

func (m *memStore) CreateSession(ctx context.Context, session *models.Session) error {
	session.CreatedAt = time.Now()
	m.state.sessions[session.Token] = *session
	return nil
}

func (m *memStore) GetSession(ctx context.Context, token string) (*models.Session, error) {
	s, ok := m.state.sessions[token]
	if !ok {
		return nil, apperr.NotFound("session")
	}
	return &s, nil
}

func (m *memStore) DeleteSession(ctx context.Context, token string) error {
	delete(m.state.sessions, token)
	return nil
}

func (m *memStore) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	for token, s := range m.state.sessions {
		if s.UserID == userID {
			delete(m.state.sessions, token)
		}
	}
	return nil
}

func (m *memStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	var removed int64
	now := time.Now()
	for token, s := range m.state.sessions {
		if s.IsExpired(now) {
			delete(m.state.sessions, token)
			removed++
		}
	}
	return removed, nil
}
