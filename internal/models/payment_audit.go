package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentEventType represents the outcome recorded for a webhook delivery
type PaymentEventType string

const (
	PaymentEventWebhookReceived  PaymentEventType = "webhook_received"
	PaymentEventInvalidSignature PaymentEventType = "invalid_signature"
	PaymentEventIgnored          PaymentEventType = "ignored"
	PaymentEventDuplicate        PaymentEventType = "duplicate"
	PaymentEventInvalidPayload   PaymentEventType = "invalid_payload"
	PaymentEventAmountMismatch   PaymentEventType = "amount_mismatch"
	PaymentEventBookingExists    PaymentEventType = "booking_exists"
	PaymentEventBookingCreated   PaymentEventType = "booking_created"
	PaymentEventBookingFailed    PaymentEventType = "booking_failed"
	PaymentEventError            PaymentEventType = "error"
)

// PaymentAudit represents an immutable audit log entry for a payment webhook
type PaymentAudit struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	GatewayReference *string          `json:"gatewayReference,omitempty" db:"gateway_reference"`
	BookingReference *string          `json:"bookingReference,omitempty" db:"booking_reference"`
	EventType        PaymentEventType `json:"eventType" db:"event_type"`
	GatewayEvent     *string          `json:"gatewayEvent,omitempty" db:"gateway_event"`
	GatewayStatus    *string          `json:"gatewayStatus,omitempty" db:"gateway_status"`

	// Amount tracking
	ExpectedAmount decimal.NullDecimal `json:"expectedAmount" db:"expected_amount"`
	ReceivedAmount decimal.NullDecimal `json:"receivedAmount" db:"received_amount"`
	Currency       *string             `json:"currency,omitempty" db:"currency"`
	AmountsMatch   *bool               `json:"amountsMatch,omitempty" db:"amounts_match"`

	RawBody      *string `json:"rawBody,omitempty" db:"raw_body"`
	ErrorMessage *string `json:"errorMessage,omitempty" db:"error_message"`
	IsDuplicate  bool    `json:"isDuplicate" db:"is_duplicate"`

	IPAddress        *string `json:"ipAddress,omitempty" db:"ip_address"`
	ProcessingTimeMs *int    `json:"processingTimeMs,omitempty" db:"processing_time_ms"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// NewPaymentAudit creates a new audit entry for a received webhook
func NewPaymentAudit() *PaymentAudit {
	return &PaymentAudit{
		ID:        uuid.New(),
		EventType: PaymentEventWebhookReceived,
		CreatedAt: time.Now(),
	}
}

// SetOutcome records what the guard decided
func (pa *PaymentAudit) SetOutcome(eventType PaymentEventType) *PaymentAudit {
	pa.EventType = eventType
	return pa
}

// SetReferences sets the gateway and internal booking references
func (pa *PaymentAudit) SetReferences(gatewayRef, bookingRef string) *PaymentAudit {
	if gatewayRef != "" {
		pa.GatewayReference = &gatewayRef
	}
	if bookingRef != "" {
		pa.BookingReference = &bookingRef
	}
	return pa
}

// SetGatewayState records the event name and charge status sent by the gateway
func (pa *PaymentAudit) SetGatewayState(event, status string) *PaymentAudit {
	pa.GatewayEvent = &event
	pa.GatewayStatus = &status
	return pa
}

// SetAmounts sets and verifies amounts - returns whether they match
func (pa *PaymentAudit) SetAmounts(expected, received decimal.Decimal, currency string) bool {
	pa.ExpectedAmount = decimal.NewNullDecimal(expected)
	pa.ReceivedAmount = decimal.NewNullDecimal(received)
	if currency != "" {
		pa.Currency = &currency
	}
	match := expected.Equal(received)
	pa.AmountsMatch = &match
	return match
}

// SetError sets error information
func (pa *PaymentAudit) SetError(message string) *PaymentAudit {
	pa.ErrorMessage = &message
	return pa
}

// SetRawBody stores the raw request body before parsing
func (pa *PaymentAudit) SetRawBody(body string) *PaymentAudit {
	pa.RawBody = &body
	return pa
}

// SetIPAddress records the caller address
func (pa *PaymentAudit) SetIPAddress(ip string) *PaymentAudit {
	if ip != "" {
		pa.IPAddress = &ip
	}
	return pa
}

// SetProcessingTime calculates and sets processing time
func (pa *PaymentAudit) SetProcessingTime(startTime time.Time) *PaymentAudit {
	durationMs := int(time.Since(startTime).Milliseconds())
	pa.ProcessingTimeMs = &durationMs
	return pa
}

// MarkAsDuplicate marks this event as a duplicate
func (pa *PaymentAudit) MarkAsDuplicate() *PaymentAudit {
	pa.IsDuplicate = true
	pa.EventType = PaymentEventDuplicate
	return pa
}
