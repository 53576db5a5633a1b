package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/travelease/ticketing-backend/internal/models"
)

// BusService manages buses and their seat inventory
type BusService interface {
	Create(ctx context.Context, req models.CreateBusRequest, actor *string) (*models.BusDetails, error)
	Update(ctx context.Context, id string, req models.UpdateBusRequest, actor *string) (*models.BusDetails, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.BusDetails, error)
	List(ctx context.Context) ([]models.Bus, error)
}

// BusTypeService manages bus types
type BusTypeService interface {
	Create(ctx context.Context, req models.BusTypeRequest) (*models.BusType, error)
	Update(ctx context.Context, id string, req models.BusTypeRequest) (*models.BusType, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.BusType, error)
	List(ctx context.Context) ([]models.BusType, error)
}

// BusHandler handles bus and bus type HTTP requests
type BusHandler struct {
	buses    BusService
	busTypes BusTypeService
	logger   *logrus.Logger
}

// NewBusHandler creates a new bus handler
func NewBusHandler(buses BusService, busTypes BusTypeService, logger *logrus.Logger) *BusHandler {
	return &BusHandler{buses: buses, busTypes: busTypes, logger: logger}
}

// ListBuses lists all buses
// GET /api/v1/admin/buses
func (h *BusHandler) ListBuses(c *gin.Context) {
	buses, err := h.buses.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buses": buses, "count": len(buses)})
}

// GetBus returns a bus with its seats
// GET /api/v1/admin/buses/:id
func (h *BusHandler) GetBus(c *gin.Context) {
	bus, err := h.buses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bus)
}

// CreateBus registers a bus and creates its seats from the layout
// POST /api/v1/admin/buses
func (h *BusHandler) CreateBus(c *gin.Context) {
	var req models.CreateBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	bus, err := h.buses.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"bus_id":   bus.ID,
		"operator": bus.Operator,
		"seats":    len(bus.Seats),
	}).Info("Bus created")

	c.JSON(http.StatusCreated, bus)
}

// UpdateBus applies a partial update; a new seatLayout replaces every seat
// PATCH /api/v1/admin/buses/:id
func (h *BusHandler) UpdateBus(c *gin.Context) {
	var req models.UpdateBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	bus, err := h.buses.Update(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bus)
}

// DeleteBus deletes a bus without trips
// DELETE /api/v1/admin/buses/:id
func (h *BusHandler) DeleteBus(c *gin.Context) {
	if err := h.buses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Bus deleted"})
}

// ListBusTypes lists all bus types
// GET /api/v1/admin/bus-types
func (h *BusHandler) ListBusTypes(c *gin.Context) {
	busTypes, err := h.busTypes.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"busTypes": busTypes, "count": len(busTypes)})
}

// GetBusType returns one bus type
// GET /api/v1/admin/bus-types/:id
func (h *BusHandler) GetBusType(c *gin.Context) {
	busType, err := h.busTypes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, busType)
}

// CreateBusType creates a bus type
// POST /api/v1/admin/bus-types
func (h *BusHandler) CreateBusType(c *gin.Context) {
	var req models.BusTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	busType, err := h.busTypes.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, busType)
}

// UpdateBusType renames or resizes an unused bus type
// PUT /api/v1/admin/bus-types/:id
func (h *BusHandler) UpdateBusType(c *gin.Context) {
	var req models.BusTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	busType, err := h.busTypes.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, busType)
}

// DeleteBusType deletes an unused bus type
// DELETE /api/v1/admin/bus-types/:id
func (h *BusHandler) DeleteBusType(c *gin.Context) {
	if err := h.busTypes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Bus type deleted"})
}
