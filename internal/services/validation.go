package services

import (
	"strings"
	"unicode/utf8"

	"github.com/travelease/ticketing-backend/internal/apperr"
	"github.com/travelease/ticketing-backend/internal/models"
	"github.com/travelease/ticketing-backend/pkg/validator"
)

// contactValidator normalises customer email and phone
type contactValidator struct {
	email *validator.EmailValidator
	phone *validator.PhoneValidator
}

func newContactValidator() contactValidator {
	return contactValidator{
		email: validator.NewEmailValidator(),
		phone: validator.NewPhoneValidator(),
	}
}

func (v contactValidator) validateEmail(email string) (string, error) {
	normalized, err := v.email.Validate(email)
	if err != nil {
		return "", apperr.Validation("INVALID_EMAIL", "%s", err.Error())
	}
	return normalized, nil
}

func (v contactValidator) validatePhone(phone string) (string, error) {
	normalized, err := v.phone.Validate(phone)
	if err != nil {
		return "", apperr.Validation("INVALID_PHONE", "%s", err.Error())
	}
	return normalized, nil
}

func (v contactValidator) validateContact(email, phone string) (string, string, error) {
	email, err := v.validateEmail(email)
	if err != nil {
		return "", "", err
	}
	phone, err = v.validatePhone(phone)
	if err != nil {
		return "", "", err
	}
	return email, phone, nil
}

// validatePassengers checks every passenger and that no seat is taken twice
func validatePassengers(inputs []models.PassengerInput) ([]models.Passenger, error) {
	if len(inputs) == 0 {
		return nil, apperr.Validation("NO_PASSENGERS", "at least one passenger is required")
	}

	passengers := make([]models.Passenger, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for i, in := range inputs {
		name := strings.TrimSpace(in.Name)
		seat := strings.TrimSpace(in.Seat)

		switch {
		case name == "":
			return nil, apperr.Validation("INVALID_PASSENGER", "passenger %d: name is required", i+1)
		case utf8.RuneCountInString(name) > models.MaxPassengerNameLength:
			return nil, apperr.Validation("INVALID_PASSENGER", "passenger %d: name must be at most %d characters", i+1, models.MaxPassengerNameLength)
		case seat == "":
			return nil, apperr.Validation("INVALID_PASSENGER", "passenger %d: seat is required", i+1)
		case utf8.RuneCountInString(seat) > models.MaxSeatNumberLength:
			return nil, apperr.Validation("INVALID_PASSENGER", "passenger %d: seat must be at most %d characters", i+1, models.MaxSeatNumberLength)
		case in.Age < 1 || in.Age > 120:
			return nil, apperr.Validation("INVALID_PASSENGER", "passenger %d: age must be between 1 and 120", i+1)
		case in.Gender != models.GenderMale && in.Gender != models.GenderFemale:
			return nil, apperr.Validation("INVALID_PASSENGER", "passenger %d: gender must be male or female", i+1)
		}

		if _, dup := seen[seat]; dup {
			return nil, apperr.Validation("DUPLICATE_SEAT", "seat %s is assigned to more than one passenger", seat)
		}
		seen[seat] = struct{}{}

		passengers = append(passengers, models.Passenger{
			Name:   name,
			Seat:   seat,
			Age:    in.Age,
			Gender: in.Gender,
		})
	}
	return passengers, nil
}

// validatePaymentReference rejects references the payment_reference column cannot hold
func validatePaymentReference(ref string) error {
	if !models.ValidPaymentReference(ref) {
		return apperr.Validation("INVALID_PAYMENT_REFERENCE", "payment reference must be at most %d characters", models.MaxPaymentReferenceLength)
	}
	return nil
}

// checkSeatsBookable ensures every seat exists on the bus and is currently free
func checkSeatsBookable(seats []models.Seat, wanted []string) error {
	index := models.SeatIndex(seats)
	for _, number := range wanted {
		seat, ok := index[number]
		if !ok {
			return apperr.Validation("INVALID_SEAT", "seat %s does not exist on this bus", number)
		}
		if !seat.IsAvailable {
			return apperr.Validation("SEAT_UNAVAILABLE", "seat %s is not available", number)
		}
	}
	return nil
}

// seatDiff returns the seats only in before (removed) and only in after (added)
func seatDiff(before, after []string) (removed, added []string) {
	inBefore := make(map[string]struct{}, len(before))
	for _, s := range before {
		inBefore[s] = struct{}{}
	}
	inAfter := make(map[string]struct{}, len(after))
	for _, s := range after {
		inAfter[s] = struct{}{}
		if _, ok := inBefore[s]; !ok {
			added = append(added, s)
		}
	}
	for _, s := range before {
		if _, ok := inAfter[s]; !ok {
			removed = append(removed, s)
		}
	}
	return removed, added
}

func seatNumbers(passengers []models.Passenger) []string {
	numbers := make([]string, len(passengers))
	for i, p := range passengers {
		numbers[i] = p.Seat
	}
	return numbers
}
