package repositories

import (
	"context"

	"assofund/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// CreditRepository provides access to credits (overpayment "avoirs")
type CreditRepository struct {
	db *gorm.DB
}

// NewCreditRepository creates a new credit repository
func NewCreditRepository(db *gorm.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// WithTx returns a copy bound to the given transaction
func (r *CreditRepository) WithTx(tx *gorm.DB) *CreditRepository {
	return &CreditRepository{db: tx}
}

func (r *CreditRepository) Create(ctx context.Context, credit *models.Credit) error {
	return r.db.WithContext(ctx).Create(credit).Error
}

func (r *CreditRepository) GetByID(ctx context.Context, id uint) (*models.Credit, error) {
	var credit models.Credit
	if err := r.db.WithContext(ctx).First(&credit, id).Error; err != nil {
		return nil, err
	}
	return &credit, nil
}

// ListAvailableByMember returns the member's AVAILABLE credits in FIFO order.
// created_at alone can tie when two credits land in the same second, so the
// primary key breaks the tie deterministically.
func (r *CreditRepository) ListAvailableByMember(ctx context.Context, memberID uint) ([]*models.Credit, error) {
	var credits []*models.Credit
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND status = ?", memberID, models.CreditAvailable).
		Order("created_at, id").
		Find(&credits).Error
	if err != nil {
		return nil, err
	}
	return credits, nil
}

// ListByMember returns all credits of a member, oldest first
func (r *CreditRepository) ListByMember(ctx context.Context, memberID uint) ([]*models.Credit, error) {
	var credits []*models.Credit
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("created_at, id").
		Find(&credits).Error
	if err != nil {
		return nil, err
	}
	return credits, nil
}

// Update saves the consumption fields of a credit
func (r *CreditRepository) Update(ctx context.Context, credit *models.Credit) error {
	return r.db.WithContext(ctx).Save(credit).Error
}
