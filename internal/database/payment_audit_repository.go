package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/travelease/ticketing-backend/internal/models"
)

const paymentAuditColumns = `id, gateway_reference, booking_reference, event_type, gateway_event, gateway_status,
	expected_amount, received_amount, currency, amounts_match, raw_body, error_message,
	is_duplicate, ip_address, processing_time_ms, created_at`

// PaymentAuditRepository handles payment audit operations
type PaymentAuditRepository struct {
	db     sqlx.ExtContext
	logger *logrus.Logger
}

// NewPaymentAuditRepository creates a new payment audit repository
func NewPaymentAuditRepository(db sqlx.ExtContext, logger *logrus.Logger) *PaymentAuditRepository {
	return &PaymentAuditRepository{
		db:     db,
		logger: logger,
	}
}

// Log creates a new payment audit entry
func (r *PaymentAuditRepository) Log(ctx context.Context, audit *models.PaymentAudit) error {
	if audit == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}

	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payment_audits (` + paymentAuditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.db.ExecContext(ctx, query,
		audit.ID, audit.GatewayReference, audit.BookingReference, audit.EventType,
		audit.GatewayEvent, audit.GatewayStatus,
		audit.ExpectedAmount, audit.ReceivedAmount, audit.Currency, audit.AmountsMatch,
		audit.RawBody, audit.ErrorMessage,
		audit.IsDuplicate, audit.IPAddress, audit.ProcessingTimeMs, audit.CreatedAt,
	)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"event_type":        audit.EventType,
			"gateway_reference": audit.GatewayReference,
		}).Error("Failed to log payment audit")
		return fmt.Errorf("failed to log payment audit: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"audit_id":   audit.ID,
		"event_type": audit.EventType,
	}).Debug("Payment audit logged")

	return nil
}

// ListByGatewayReference retrieves all audit entries for a gateway reference
func (r *PaymentAuditRepository) ListByGatewayReference(ctx context.Context, gatewayRef string) ([]models.PaymentAudit, error) {
	audits := []models.PaymentAudit{}
	query := `
		SELECT ` + paymentAuditColumns + `
		FROM payment_audits
		WHERE gateway_reference = $1
		ORDER BY created_at ASC`

	if err := sqlx.SelectContext(ctx, r.db, &audits, query, gatewayRef); err != nil {
		return nil, fmt.Errorf("failed to get audits by gateway reference: %w", err)
	}
	return audits, nil
}

// ListAmountMismatches retrieves the most recent deliveries whose amount disagreed with the quote
func (r *PaymentAuditRepository) ListAmountMismatches(ctx context.Context, limit int) ([]models.PaymentAudit, error) {
	audits := []models.PaymentAudit{}
	query := `
		SELECT ` + paymentAuditColumns + `
		FROM payment_audits
		WHERE amounts_match = FALSE
		ORDER BY created_at DESC
		LIMIT $1`

	if err := sqlx.SelectContext(ctx, r.db, &audits, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get amount mismatches: %w", err)
	}
	return audits, nil
}
