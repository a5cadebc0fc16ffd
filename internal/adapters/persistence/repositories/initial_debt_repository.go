package repositories

import (
	"context"

	"assofund/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// InitialDebtRepository provides access to initial_debts (legacy balances)
type InitialDebtRepository struct {
	db *gorm.DB
}

// NewInitialDebtRepository creates a new initial debt repository
func NewInitialDebtRepository(db *gorm.DB) *InitialDebtRepository {
	return &InitialDebtRepository{db: db}
}

// WithTx returns a copy bound to the given transaction
func (r *InitialDebtRepository) WithTx(tx *gorm.DB) *InitialDebtRepository {
	return &InitialDebtRepository{db: tx}
}

func (r *InitialDebtRepository) Create(ctx context.Context, debt *models.InitialDebt) error {
	return r.db.WithContext(ctx).Create(debt).Error
}

func (r *InitialDebtRepository) GetByID(ctx context.Context, id uint) (*models.InitialDebt, error) {
	var debt models.InitialDebt
	err := r.db.WithContext(ctx).First(&debt, id).Error
	if err != nil {
		return nil, err
	}
	return &debt, nil
}

// ListOpenByMember returns debts with something left to pay, oldest year first
func (r *InitialDebtRepository) ListOpenByMember(ctx context.Context, memberID uint) ([]*models.InitialDebt, error) {
	var debts []*models.InitialDebt
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND amount_remaining > 0", memberID).
		Order("year, id").
		Find(&debts).Error
	if err != nil {
		return nil, err
	}
	return debts, nil
}

// ListByMember returns all initial debts of a member, oldest year first
func (r *InitialDebtRepository) ListByMember(ctx context.Context, memberID uint) ([]*models.InitialDebt, error) {
	var debts []*models.InitialDebt
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("year, id").
		Find(&debts).Error
	if err != nil {
		return nil, err
	}
	return debts, nil
}

// Update saves the paid/remaining fields of a debt
func (r *InitialDebtRepository) Update(ctx context.Context, debt *models.InitialDebt) error {
	return r.db.WithContext(ctx).Save(debt).Error
}
