package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/travelease/ticketing-backend/internal/models"
	"github.com/travelease/ticketing-backend/internal/services"
	"github.com/travelease/ticketing-backend/internal/utils"
)

const (
	// SignatureHeader carries the hex HMAC-SHA512 of the raw body
	SignatureHeader = "X-Signature"

	maxWebhookBody = 1 << 20
)

// WebhookService handles one gateway delivery
type WebhookService interface {
	Handle(ctx context.Context, delivery services.WebhookDelivery) (*models.WebhookResult, error)
}

// PaymentAuditReader exposes the webhook audit trail to admins
type PaymentAuditReader interface {
	ListByGatewayReference(ctx context.Context, gatewayRef string) ([]models.PaymentAudit, error)
	ListAmountMismatches(ctx context.Context, limit int) ([]models.PaymentAudit, error)
}

// ClaimReader looks up the dedup claim of a gateway reference
type ClaimReader interface {
	Get(ctx context.Context, gatewayRef string) (*models.WebhookClaim, error)
}

// PaymentHandler handles the gateway webhook and the payment audit endpoints
type PaymentHandler struct {
	webhooks WebhookService
	audits   PaymentAuditReader
	claims   ClaimReader
	logger   *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(webhooks WebhookService, audits PaymentAuditReader, claims ClaimReader, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{webhooks: webhooks, audits: audits, claims: claims, logger: logger}
}

// Webhook receives charge notifications from the payment gateway.
// The body is read raw because the signature covers the exact bytes sent.
// POST /api/v1/payments/webhook
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "could not read request body")
		return
	}

	result, err := h.webhooks.Handle(c.Request.Context(), services.WebhookDelivery{
		Body:      body,
		Signature: c.GetHeader(SignatureHeader),
		IPAddress: utils.GetRealIP(c),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListAudits returns the audit trail of one gateway reference
// GET /api/v1/admin/payments/audits?reference=
func (h *PaymentHandler) ListAudits(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		writeError(c, http.StatusBadRequest, "INVALID_QUERY", "reference is required")
		return
	}

	audits, err := h.audits.ListByGatewayReference(c.Request.Context(), reference)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audits": audits})
}

const (
	defaultMismatchLimit = 50
	maxMismatchLimit     = 200
)

// ListAmountMismatches returns recent deliveries whose amount disagreed with the quote
// GET /api/v1/admin/payments/mismatches?limit=
func (h *PaymentHandler) ListAmountMismatches(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil || limit < 0 {
		writeError(c, http.StatusBadRequest, "INVALID_QUERY", "limit must be a positive number")
		return
	}
	switch {
	case limit == 0:
		limit = defaultMismatchLimit
	case limit > maxMismatchLimit:
		limit = maxMismatchLimit
	}

	audits, err := h.audits.ListAmountMismatches(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audits": audits})
}

// GetClaim shows whether a gateway reference has been claimed by the webhook guard
// GET /api/v1/admin/payments/claims/:reference
func (h *PaymentHandler) GetClaim(c *gin.Context) {
	claim, err := h.claims.Get(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if claim == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "no claim for this reference")
		return
	}
	c.JSON(http.StatusOK, claim)
}
