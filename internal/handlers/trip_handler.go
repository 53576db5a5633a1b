package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/travelease/ticketing-backend/internal/models"
)

// TripService is the trip catalog as the HTTP layer uses it
type TripService interface {
	Create(ctx context.Context, req models.CreateTripRequest, actor *string) (*models.Trip, error)
	Update(ctx context.Context, id string, req models.UpdateTripRequest, actor *string) (*models.Trip, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.TripDetails, error)
	Search(ctx context.Context, filter models.TripFilter) ([]models.Trip, error)
	List(ctx context.Context, filter models.TripFilter) ([]models.Trip, error)
}

// TripHandler handles trip HTTP requests
type TripHandler struct {
	trips  TripService
	logger *logrus.Logger
}

// NewTripHandler creates a new trip handler
func NewTripHandler(trips TripService, logger *logrus.Logger) *TripHandler {
	return &TripHandler{trips: trips, logger: logger}
}

// SearchTrips returns bookable trips
// GET /api/v1/trips?from=&to=&date=
func (h *TripHandler) SearchTrips(c *gin.Context) {
	trips, err := h.trips.Search(c.Request.Context(), models.TripFilter{
		From: c.Query("from"),
		To:   c.Query("to"),
		Date: c.Query("date"),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trips": trips, "count": len(trips)})
}

// GetTrip returns a trip with its bus and seat snapshot
// GET /api/v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	details, err := h.trips.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// ListTrips lists every trip, including unavailable ones
// GET /api/v1/admin/trips?busId=&date=&from=&to=&available=
func (h *TripHandler) ListTrips(c *gin.Context) {
	filter := models.TripFilter{
		From:  c.Query("from"),
		To:    c.Query("to"),
		Date:  c.Query("date"),
		BusID: c.Query("busId"),
	}
	if raw := c.Query("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_QUERY", "available must be true or false")
			return
		}
		filter.AvailableOnly = available
	}

	trips, err := h.trips.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trips": trips, "count": len(trips)})
}

// CreateTrip schedules a trip
// POST /api/v1/admin/trips
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req models.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	trip, err := h.trips.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, trip)
}

// UpdateTrip applies a partial update
// PATCH /api/v1/admin/trips/:id
func (h *TripHandler) UpdateTrip(c *gin.Context) {
	var req models.UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	trip, err := h.trips.Update(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, trip)
}

// DeleteTrip deletes a trip without live bookings
// DELETE /api/v1/admin/trips/:id
func (h *TripHandler) DeleteTrip(c *gin.Context) {
	if err := h.trips.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Trip deleted"})
}
