package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/travelease/ticketing-backend/internal/models"
)

// BookingService is the booking lifecycle as the HTTP layer uses it
type BookingService interface {
	Create(ctx context.Context, req models.CreateBookingRequest) (*models.BookingConfirmation, error)
	Quote(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutQuote, error)
	Get(ctx context.Context, reference string) (*models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	Update(ctx context.Context, reference string, req models.UpdateBookingRequest) (*models.Booking, error)
	Delete(ctx context.Context, reference string) error
}

// BookingHandler handles booking HTTP requests
type BookingHandler struct {
	bookings BookingService
	logger   *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// CreateBooking creates a confirmed booking and reserves its seats
// POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	confirmation, err := h.bookings.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, confirmation)
}

// Checkout quotes the reference and amount for a payment without booking anything
// POST /api/v1/payments/checkout
func (h *BookingHandler) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	quote, err := h.bookings.Quote(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// GetBooking looks a booking up by payment reference or booking reference
// GET /api/v1/bookings/:reference
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookings.Get(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ListBookings lists bookings for admins
// GET /api/v1/admin/bookings?status=&tripId=&email=&limit=&offset=
func (h *BookingHandler) ListBookings(c *gin.Context) {
	filter := models.BookingFilter{
		Status: models.BookingStatus(c.Query("status")),
		TripID: c.Query("tripId"),
		Email:  c.Query("email"),
	}
	var err error
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_QUERY", "limit must be a number")
		return
	}
	if filter.Offset, err = queryInt(c, "offset"); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_QUERY", "offset must be a number")
		return
	}

	bookings, err := h.bookings.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// UpdateBooking applies a partial update
// PATCH /api/v1/bookings/:reference (admin session required)
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	var req models.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	booking, err := h.bookings.Update(c.Request.Context(), c.Param("reference"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// DeleteBooking deletes a booking and frees its seats
// DELETE /api/v1/bookings/:reference (admin session required)
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	if err := h.bookings.Delete(c.Request.Context(), c.Param("reference")); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Booking deleted"})
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
