package repositories

import (
	"context"

	"assofund/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// PaymentRepository provides access to payments. Payment rows are immutable,
// so there is deliberately no Update or Delete here.
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// WithTx returns a copy bound to the given transaction
func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// ListByMember returns the member's payments, newest first
func (r *PaymentRepository) ListByMember(ctx context.Context, memberID uint) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("paid_at DESC, id DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
