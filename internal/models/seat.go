package models

// Seat is one reservable position on a bus
type Seat struct {
	ID          string `json:"id" db:"id"`
	BusID       string `json:"busId" db:"bus_id"`
	Number      string `json:"number" db:"number"`
	IsAvailable bool   `json:"isAvailable" db:"is_available"`
}

// AvailableSeatNumbers filters seats down to the numbers still open for booking
func AvailableSeatNumbers(seats []Seat) []string {
	numbers := make([]string, 0, len(seats))
	for _, s := range seats {
		if s.IsAvailable {
			numbers = append(numbers, s.Number)
		}
	}
	return numbers
}

// SeatIndex maps seat number to seat
func SeatIndex(seats []Seat) map[string]Seat {
	index := make(map[string]Seat, len(seats))
	for _, s := range seats {
		index[s.Number] = s
	}
	return index
}
