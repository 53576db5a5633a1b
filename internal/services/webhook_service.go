package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/travelease/ticketing-backend/internal/apperr"
	"github.com/travelease/ticketing-backend/internal/metrics"
	"github.com/travelease/ticketing-backend/internal/models"
)

// ClaimStore records which webhook deliveries have already been taken
type ClaimStore interface {
	IsClaimed(ctx context.Context, gatewayRef, bookingRef string) (bool, error)
	Claim(ctx context.Context, gatewayRef, bookingRef string, at time.Time) error
}

// AuditLogger persists the audit trail of webhook deliveries
type AuditLogger interface {
	Log(ctx context.Context, audit *models.PaymentAudit) error
}

// WebhookDelivery is one raw call from the payment gateway
type WebhookDelivery struct {
	Body      []byte
	Signature string
	IPAddress string
}

// WebhookService turns verified gateway charge notifications into bookings,
// at most once per payment
type WebhookService struct {
	secret   []byte
	claims   ClaimStore
	audits   AuditLogger
	bookings *BookingService
	logger   *logrus.Logger
	now      func() time.Time
}

// NewWebhookService creates a new webhook service
func NewWebhookService(secret string, claims ClaimStore, audits AuditLogger, bookings *BookingService, logger *logrus.Logger) *WebhookService {
	return &WebhookService{
		secret:   []byte(secret),
		claims:   claims,
		audits:   audits,
		bookings: bookings,
		logger:   logger,
		now:      time.Now,
	}
}

// Sign returns the hex HMAC-SHA512 of body under the webhook secret
func (s *WebhookService) Sign(body []byte) string {
	mac := hmac.New(sha512.New, s.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *WebhookService) verifySignature(body []byte, signature string) bool {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha512.New, s.secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), got)
}

// Handle processes one delivery. The delivery is claimed in the cache before its
// metadata is validated, and claims are never retracted, so a retry of a failed
// delivery is reported as already processed.
func (s *WebhookService) Handle(ctx context.Context, delivery WebhookDelivery) (*models.WebhookResult, error) {
	start := s.now()
	audit := models.NewPaymentAudit().
		SetRawBody(string(delivery.Body)).
		SetIPAddress(delivery.IPAddress)

	defer func() {
		audit.SetProcessingTime(start)
		metrics.RecordWebhook(string(audit.EventType))
		// best-effort: the response must not depend on the audit write
		if err := s.audits.Log(context.WithoutCancel(ctx), audit); err != nil {
			s.logger.WithError(err).Warn("Failed to write payment audit")
		}
	}()

	if !s.verifySignature(delivery.Body, delivery.Signature) {
		audit.SetOutcome(models.PaymentEventInvalidSignature)
		s.logger.WithField("ip", delivery.IPAddress).Warn("Webhook signature mismatch")
		return nil, apperr.Validation("INVALID_SIGNATURE", "invalid webhook signature")
	}

	var event models.GatewayEvent
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		audit.SetOutcome(models.PaymentEventInvalidPayload).SetError(err.Error())
		return nil, apperr.Validation("INVALID_PAYLOAD", "webhook body is not valid JSON")
	}
	audit.SetGatewayState(event.Event, event.Data.Status)

	if event.Event != models.GatewayEventChargeSuccess || event.Data.Status != models.GatewayStatusSuccess {
		audit.SetOutcome(models.PaymentEventIgnored)
		return &models.WebhookResult{
			Outcome: models.WebhookOutcomeIgnored,
			Message: "event ignored",
		}, nil
	}

	data := event.Data
	gatewayRef := strings.TrimSpace(data.Reference)
	bookingRef := strings.TrimSpace(data.Metadata.BookingReference)
	audit.SetReferences(gatewayRef, bookingRef)
	if gatewayRef == "" || bookingRef == "" {
		audit.SetOutcome(models.PaymentEventInvalidPayload).SetError("missing reference")
		return nil, apperr.Validation("INVALID_PAYLOAD", "reference and metadata.bookingReference are required")
	}
	if !models.ValidPaymentReference(gatewayRef) {
		audit.SetOutcome(models.PaymentEventInvalidPayload).SetError("reference too long")
		return nil, apperr.Validation("INVALID_PAYLOAD", "reference must be at most %d characters", models.MaxPaymentReferenceLength)
	}

	logger := s.logger.WithFields(logrus.Fields{
		"gateway_reference": gatewayRef,
		"booking_reference": bookingRef,
	})

	claimed, err := s.claims.IsClaimed(ctx, gatewayRef, bookingRef)
	if err != nil {
		audit.SetOutcome(models.PaymentEventError).SetError(err.Error())
		return nil, apperr.Internal("failed to check webhook claim", err)
	}
	if claimed {
		audit.MarkAsDuplicate()
		logger.Info("Duplicate webhook delivery")
		return &models.WebhookResult{
			Outcome:          models.WebhookOutcomeAlreadyProcessed,
			Message:          "webhook already processed",
			BookingReference: bookingRef,
		}, nil
	}

	if err := s.claims.Claim(ctx, gatewayRef, bookingRef, s.now()); err != nil {
		audit.SetOutcome(models.PaymentEventError).SetError(err.Error())
		return nil, apperr.Internal("failed to claim webhook", err)
	}

	if err := validateWebhookMetadata(data.Metadata); err != nil {
		audit.SetOutcome(models.PaymentEventInvalidPayload).SetError(err.Error())
		return nil, err
	}

	paid := models.FromMinorUnits(data.Amount)
	if !audit.SetAmounts(*data.Metadata.TotalAmount, paid, data.Currency) {
		audit.SetOutcome(models.PaymentEventAmountMismatch)
		logger.WithFields(logrus.Fields{
			"expected": data.Metadata.TotalAmount.String(),
			"paid":     paid.String(),
		}).Warn("Webhook amount does not match quoted total")
		return nil, apperr.Validation("AMOUNT_MISMATCH", "paid amount does not match totalAmount")
	}

	exists, err := s.bookings.Exists(ctx, bookingRef)
	if err != nil {
		audit.SetOutcome(models.PaymentEventError).SetError(err.Error())
		return nil, err
	}
	if exists {
		audit.SetOutcome(models.PaymentEventBookingExists)
		return &models.WebhookResult{
			Outcome:          models.WebhookOutcomeBookingExists,
			Message:          "booking already exists",
			BookingReference: bookingRef,
		}, nil
	}

	confirmation, err := s.bookings.Create(ctx, models.CreateBookingRequest{
		TripID:           data.Metadata.TripID,
		Email:            data.Metadata.Customer.Email,
		Phone:            data.Metadata.Customer.Phone,
		Passengers:       data.Metadata.Passengers,
		PaymentReference: &gatewayRef,
		Reference:        bookingRef,
		ExpectedTotal:    &paid,
	})
	if err != nil {
		audit.SetOutcome(models.PaymentEventBookingFailed).SetError(err.Error())
		logger.WithError(err).Error("Failed to create booking from webhook")
		return nil, apperr.Internal("failed to create booking from webhook", err)
	}

	audit.SetOutcome(models.PaymentEventBookingCreated)
	logger.Info("Booking created from payment webhook")

	return &models.WebhookResult{
		Outcome:          models.WebhookOutcomeBookingCreated,
		Message:          "booking created",
		BookingReference: confirmation.Booking.Reference,
	}, nil
}

// validateWebhookMetadata checks the quote echoed back by the gateway is complete
func validateWebhookMetadata(meta models.WebhookMetadata) error {
	switch {
	case strings.TrimSpace(meta.Customer.Email) == "":
		return apperr.Validation("INVALID_PAYLOAD", "metadata.customer.email is required")
	case strings.TrimSpace(meta.Customer.Phone) == "":
		return apperr.Validation("INVALID_PAYLOAD", "metadata.customer.phone is required")
	case strings.TrimSpace(meta.TripID) == "":
		return apperr.Validation("INVALID_PAYLOAD", "metadata.tripId is required")
	case meta.TotalAmount == nil || !meta.TotalAmount.IsPositive():
		return apperr.Validation("INVALID_PAYLOAD", "metadata.totalAmount must be positive")
	case !models.IsBookingReference(meta.BookingReference):
		return apperr.Validation("INVALID_PAYLOAD", "metadata.bookingReference is malformed")
	}

	if _, err := validatePassengers(meta.Passengers); err != nil {
		return err
	}
	return nil
}
