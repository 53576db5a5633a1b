package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/travelease/ticketing-backend/internal/apperr"
	"github.com/travelease/ticketing-backend/internal/middleware"
	"github.com/travelease/ticketing-backend/internal/models"
	"github.com/travelease/ticketing-backend/internal/services"
	"github.com/travelease/ticketing-backend/internal/utils"
)

// AuthService is the admin session lifecycle
type AuthService interface {
	Login(ctx context.Context, req models.LoginRequest, client services.ClientInfo) (*models.LoginResponse, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// LoginLimiter throttles failed logins
type LoginLimiter interface {
	CheckLogin(ctx context.Context, email, ip string) error
	RecordFailure(ctx context.Context, email, ip string)
	Reset(ctx context.Context, email string)
}

// AdminAuthHandler handles admin authentication HTTP requests
type AdminAuthHandler struct {
	authService AuthService
	limiter     LoginLimiter
	logger      *logrus.Logger
}

// NewAdminAuthHandler creates a new admin auth handler
func NewAdminAuthHandler(authService AuthService, limiter LoginLimiter, logger *logrus.Logger) *AdminAuthHandler {
	return &AdminAuthHandler{
		authService: authService,
		limiter:     limiter,
		logger:      logger,
	}
}

// Login handles admin login requests
// @Summary Admin login
// @Description Authenticate an admin user and open a session
// @Tags Admin Auth
// @Accept json
// @Produce json
// @Param loginRequest body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /admin/auth/login [post]
func (h *AdminAuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	client := services.ClientInfo{
		IPAddress: utils.GetRealIP(c),
		UserAgent: utils.GetUserAgent(c),
	}

	if err := h.limiter.CheckLogin(ctx, req.Email, client.IPAddress); err != nil {
		h.logger.WithFields(logrus.Fields{
			"email": req.Email,
			"ip":    client.IPAddress,
		}).Warn("Admin login throttled")
		respondError(c, h.logger, err)
		return
	}

	response, err := h.authService.Login(ctx, req, client)
	if err != nil {
		if apperr.Is(err, apperr.KindUnauthorized) {
			h.limiter.RecordFailure(ctx, req.Email, client.IPAddress)
		}
		h.logger.WithFields(logrus.Fields{
			"email": req.Email,
			"error": err.Error(),
		}).Warn("Admin login failed")
		respondError(c, h.logger, err)
		return
	}
	h.limiter.Reset(ctx, req.Email)

	h.logger.WithFields(logrus.Fields{
		"user_id": response.User.ID,
		"email":   response.User.Email,
	}).Info("Admin login successful")

	c.JSON(http.StatusOK, response)
}

// Logout ends the current session
// @Summary Admin logout
// @Tags Admin Auth
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse
// @Router /admin/auth/logout [post]
func (h *AdminAuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.GetSessionToken(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Logged out successfully"})
}

// Me returns the authenticated admin
// @Summary Current admin
// @Tags Admin Auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Router /admin/auth/me [get]
func (h *AdminAuthHandler) Me(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	user, err := h.authService.Me(c.Request.Context(), userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
