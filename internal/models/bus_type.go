package models

import "time"

// BusType names a class of bus and fixes its seat count
type BusType struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Seats     int       `json:"seats" db:"seats"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// BusTypeRequest is used for both create and update
type BusTypeRequest struct {
	Name  string `json:"name" binding:"required"`
	Seats int    `json:"seats" binding:"required,min=1"`
}
