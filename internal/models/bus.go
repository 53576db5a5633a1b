package models

import (
	"database/sql/driver"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/travelease/ticketing-backend/internal/apperr"
)

// SeatLayout is the 2-D seat arrangement of a bus. Empty cells are aisles.
type SeatLayout struct {
	Rows        int        `json:"rows"`
	Columns     int        `json:"columns"`
	Arrangement [][]string `json:"arrangement"`
}

// Value implements the driver.Valuer interface
func (l SeatLayout) Value() (driver.Value, error) {
	return jsonValue(l)
}

// Scan implements the sql.Scanner interface
func (l *SeatLayout) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// SeatNumbers returns the non-empty cells in row-major order
func (l SeatLayout) SeatNumbers() []string {
	numbers := make([]string, 0, l.Rows*l.Columns)
	for _, row := range l.Arrangement {
		for _, cell := range row {
			if cell != "" {
				numbers = append(numbers, cell)
			}
		}
	}
	return numbers
}

// Validate checks the layout shape and that its seat cells match the bus type's seat count
func (l SeatLayout) Validate(expectedSeats int) error {
	if l.Rows <= 0 || l.Columns <= 0 {
		return apperr.Validation("INVALID_SEAT_LAYOUT", "seat layout rows and columns must be positive")
	}
	if len(l.Arrangement) != l.Rows {
		return apperr.Validation("INVALID_SEAT_LAYOUT", "seat layout has %d rows, expected %d", len(l.Arrangement), l.Rows)
	}

	seen := make(map[string]struct{}, expectedSeats)
	for i, row := range l.Arrangement {
		if len(row) != l.Columns {
			return apperr.Validation("INVALID_SEAT_LAYOUT", "row %d has %d columns, expected %d", i+1, len(row), l.Columns)
		}
		for _, cell := range row {
			if cell == "" {
				continue
			}
			if utf8.RuneCountInString(cell) > MaxSeatNumberLength {
				return apperr.Validation("INVALID_SEAT_LAYOUT", "seat number %q is longer than %d characters", cell, MaxSeatNumberLength)
			}
			if _, dup := seen[cell]; dup {
				return apperr.Validation("DUPLICATE_SEAT_NUMBER", "seat %s appears more than once in the layout", cell)
			}
			seen[cell] = struct{}{}
		}
	}

	if len(seen) != expectedSeats {
		return apperr.Validation("SEAT_COUNT_MISMATCH", "seat layout defines %d seats, bus type requires %d", len(seen), expectedSeats)
	}
	return nil
}

// Bus represents a vehicle in the fleet
type Bus struct {
	ID         string          `json:"id" db:"id"`
	Operator   string          `json:"operator" db:"operator"`
	BusType    string          `json:"busType" db:"bus_type"`
	SeatLayout SeatLayout      `json:"seatLayout" db:"seat_layout"`
	Amenities  StringSet       `json:"amenities" db:"amenities"`
	Rating     decimal.Decimal `json:"rating" db:"rating"`
	CreatedBy  *string         `json:"createdBy,omitempty" db:"created_by"`
	ModifiedBy *string         `json:"modifiedBy,omitempty" db:"modified_by"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time       `json:"updatedAt" db:"updated_at"`
}

// BusDetails is a bus together with its seat inventory
type BusDetails struct {
	Bus
	Seats []Seat `json:"seats"`
}

// CreateBusRequest represents the request to register a bus
type CreateBusRequest struct {
	Operator   string           `json:"operator" binding:"required"`
	BusType    string           `json:"busType" binding:"required"`
	SeatLayout SeatLayout       `json:"seatLayout" binding:"required"`
	Amenities  []string         `json:"amenities"`
	Rating     *decimal.Decimal `json:"rating"`
}

// UpdateBusRequest represents a partial bus update. A new seat layout replaces all seats.
type UpdateBusRequest struct {
	Operator   *string          `json:"operator"`
	BusType    *string          `json:"busType"`
	SeatLayout *SeatLayout      `json:"seatLayout"`
	Amenities  []string         `json:"amenities"`
	Rating     *decimal.Decimal `json:"rating"`
}
