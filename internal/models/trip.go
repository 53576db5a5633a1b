package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the wire and storage format of trip dates
	DateLayout = "2006-01-02"
	// ClockLayout is the wire format of departure and arrival times
	ClockLayout = "15:04"
)

// Trip is one scheduled departure of a bus
type Trip struct {
	ID            string          `json:"id" db:"id"`
	BusID         string          `json:"busId" db:"bus_id"`
	From          string          `json:"from" db:"origin"`
	To            string          `json:"to" db:"destination"`
	Date          string          `json:"date" db:"trip_date"`
	DepartureTime string          `json:"departureTime" db:"departure_time"`
	ArrivalTime   string          `json:"arrivalTime" db:"arrival_time"`
	Duration      string          `json:"duration" db:"duration"`
	Price         decimal.Decimal `json:"price" db:"price"`
	IsAvailable   bool            `json:"isAvailable" db:"is_available"`
	CreatedBy     *string         `json:"createdBy,omitempty" db:"created_by"`
	ModifiedBy    *string         `json:"modifiedBy,omitempty" db:"modified_by"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// TripDetails is the public view of a trip with its bus and seat snapshot
type TripDetails struct {
	Trip           Trip     `json:"trip"`
	Bus            Bus      `json:"bus"`
	Seats          []Seat   `json:"seats"`
	AvailableSeats []string `json:"availableSeats"`
}

// TripFilter narrows trip listings. Empty fields are ignored.
type TripFilter struct {
	From          string
	To            string
	Date          string
	BusID         string
	AvailableOnly bool
}

// CreateTripRequest represents the request to schedule a trip
type CreateTripRequest struct {
	BusID         string          `json:"busId" binding:"required"`
	From          string          `json:"from" binding:"required"`
	To            string          `json:"to" binding:"required"`
	Date          string          `json:"date" binding:"required"`
	DepartureTime string          `json:"departureTime" binding:"required"`
	ArrivalTime   string          `json:"arrivalTime" binding:"required"`
	Price         decimal.Decimal `json:"price" binding:"required"`
	IsAvailable   *bool           `json:"isAvailable"`
}

// UpdateTripRequest represents a partial trip update
type UpdateTripRequest struct {
	BusID         *string          `json:"busId"`
	From          *string          `json:"from"`
	To            *string          `json:"to"`
	Date          *string          `json:"date"`
	DepartureTime *string          `json:"departureTime"`
	ArrivalTime   *string          `json:"arrivalTime"`
	Price         *decimal.Decimal `json:"price"`
	IsAvailable   *bool            `json:"isAvailable"`
}

// Window returns the half-open interval [start, end) the trip occupies its bus.
// An arrival earlier than the departure means the trip ends the next day.
func (t Trip) Window() (start, end time.Time, err error) {
	day, err := time.Parse(DateLayout, t.Date)
	if err != nil {
		return start, end, fmt.Errorf("invalid trip date %q: %w", t.Date, err)
	}
	dep, err := time.Parse(ClockLayout, t.DepartureTime)
	if err != nil {
		return start, end, fmt.Errorf("invalid departure time %q: %w", t.DepartureTime, err)
	}
	arr, err := time.Parse(ClockLayout, t.ArrivalTime)
	if err != nil {
		return start, end, fmt.Errorf("invalid arrival time %q: %w", t.ArrivalTime, err)
	}

	start = day.Add(clockOffset(dep))
	end = day.Add(clockOffset(arr))
	if end.Before(start) {
		end = end.Add(24 * time.Hour)
	}
	return start, end, nil
}

func clockOffset(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}

// Overlaps reports whether two trips share any instant. Touching ends do not overlap.
func (t Trip) Overlaps(other Trip) (bool, error) {
	start, end, err := t.Window()
	if err != nil {
		return false, err
	}
	otherStart, otherEnd, err := other.Window()
	if err != nil {
		return false, err
	}
	return start.Before(otherEnd) && end.After(otherStart), nil
}

// FindOverlap returns the first trip in others that overlaps candidate, or nil.
// The candidate itself (same ID) is skipped so updates do not collide with themselves.
func FindOverlap(candidate Trip, others []Trip) (*Trip, error) {
	for i := range others {
		if candidate.ID != "" && others[i].ID == candidate.ID {
			continue
		}
		overlaps, err := candidate.Overlaps(others[i])
		if err != nil {
			return nil, err
		}
		if overlaps {
			return &others[i], nil
		}
	}
	return nil, nil
}

// TravelDuration renders the time between departure and arrival as "2h 30m", "3h" or "45m"
func TravelDuration(departure, arrival string) (string, error) {
	t := Trip{Date: "2000-01-01", DepartureTime: departure, ArrivalTime: arrival}
	start, end, err := t.Window()
	if err != nil {
		return "", err
	}
	d := end.Sub(start)
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	switch {
	case hours == 0:
		return fmt.Sprintf("%dm", minutes), nil
	case minutes == 0:
		return fmt.Sprintf("%dh", hours), nil
	default:
		return fmt.Sprintf("%dh %dm", hours, minutes), nil
	}
}
