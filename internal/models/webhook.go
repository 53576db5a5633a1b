package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// GatewayEventChargeSuccess is the only event that creates bookings
	GatewayEventChargeSuccess = "charge.success"
	// GatewayStatusSuccess is the charge status paired with a successful event
	GatewayStatusSuccess = "success"
)

// GatewayEvent is the webhook body posted by the payment gateway
type GatewayEvent struct {
	Event string           `json:"event"`
	Data  GatewayEventData `json:"data"`
}

// GatewayEventData carries the charge. Amount is in minor units (kobo).
type GatewayEventData struct {
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Status    string          `json:"status"`
	Currency  string          `json:"currency"`
	Metadata  WebhookMetadata `json:"metadata"`
}

// WebhookMetadata echoes the checkout quote the client handed to the gateway
type WebhookMetadata struct {
	Customer         WebhookCustomer  `json:"customer"`
	Passengers       []PassengerInput `json:"passengers"`
	TripID           string           `json:"tripId"`
	TotalAmount      *decimal.Decimal `json:"totalAmount"`
	BookingReference string           `json:"bookingReference"`
}

// WebhookCustomer holds the contact details of the payer
type WebhookCustomer struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// WebhookClaim is the value stored under each dedup key
type WebhookClaim struct {
	Processed        bool      `json:"processed"`
	Timestamp        time.Time `json:"timestamp"`
	GatewayReference string    `json:"gatewayReference"`
	BookingReference string    `json:"bookingReference"`
}

// WebhookOutcome classifies how a delivery was handled
type WebhookOutcome string

const (
	WebhookOutcomeIgnored          WebhookOutcome = "ignored"
	WebhookOutcomeAlreadyProcessed WebhookOutcome = "already_processed"
	WebhookOutcomeBookingExists    WebhookOutcome = "booking_exists"
	WebhookOutcomeBookingCreated   WebhookOutcome = "booking_created"
)

// WebhookResult is the 200 response body of the webhook endpoint
type WebhookResult struct {
	Outcome          WebhookOutcome `json:"status"`
	Message          string         `json:"message"`
	BookingReference string         `json:"bookingReference,omitempty"`
}
