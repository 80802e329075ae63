package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type refundRepository struct {
	db *gorm.DB
}

// NewRefundRepository creates a refund repository over db.
func NewRefundRepository(db *gorm.DB) repository.RefundRepository {
	return &refundRepository{db: db}
}

func (r *refundRepository) Create(ctx context.Context, refund *payment.Refund) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&Refund{
			ID:                   refund.ID,
			TransactionID:        refund.TransactionID,
			TransactionReference: refund.TransactionReference,
			RefundReference:      optional(refund.RefundReference),
			ProviderReference:    optional(refund.ProviderReference),
			Amount:               refund.Amount,
			Reason:               refund.Reason,
			Status:               string(refund.Status),
			ProcessedBy:          refund.ProcessedBy,
			CreatedAt:            refund.CreatedAt,
			UpdatedAt:            refund.UpdatedAt,
		}).Error
	})
}

func (r *refundRepository) SumByTransaction(ctx context.Context, transactionID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&Refund{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("transaction_id = ? AND status <> ?", transactionID, string(payment.StatusFailed)).
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, MapGormErrorToDomain(err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

type webhookLogRepository struct {
	db *gorm.DB
}

// NewWebhookLogRepository creates a webhook log repository over db.
func NewWebhookLogRepository(db *gorm.DB) repository.WebhookLogRepository {
	return &webhookLogRepository{db: db}
}

func (r *webhookLogRepository) Create(ctx context.Context, log *payment.WebhookLog) error {
	payload := datatypes.JSON(log.Payload)
	if !json.Valid(log.Payload) {
		// jsonb only takes JSON; keep other bodies as a JSON string
		quoted, _ := json.Marshal(string(log.Payload))
		payload = datatypes.JSON(quoted)
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&WebhookLog{
			ID:            log.ID,
			PaymentMethod: string(log.Method),
			EventType:     log.EventType,
			Payload:       payload,
			Processed:     log.Processed,
			Status:        log.Status,
			ErrorMessage:  log.ErrorMessage,
			CreatedAt:     log.CreatedAt,
			ProcessedAt:   log.ProcessedAt,
		}).Error
	})
}

func (r *webhookLogRepository) MarkProcessed(ctx context.Context, id uuid.UUID, success bool, errMsg string) error {
	status := payment.WebhookProcessed
	if !success {
		status = payment.WebhookFailed
	}
	res := r.db.WithContext(ctx).
		Model(&WebhookLog{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"processed":     true,
			"status":        status,
			"error_message": errMsg,
			"processed_at":  time.Now(),
		})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return payment.ErrNotFound
	}
	return nil
}
