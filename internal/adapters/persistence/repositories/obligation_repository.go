package repositories

import (
	"context"
	"time"

	"assofund/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// ObligationRepository provides access to dues_obligations. The allocation
// engine rebinds it to a transaction with WithTx so every write of one
// allocation commits or rolls back together.
type ObligationRepository struct {
	db *gorm.DB
}

// NewObligationRepository creates a new obligation repository
func NewObligationRepository(db *gorm.DB) *ObligationRepository {
	return &ObligationRepository{db: db}
}

// WithTx returns a copy bound to the given transaction
func (r *ObligationRepository) WithTx(tx *gorm.DB) *ObligationRepository {
	return &ObligationRepository{db: tx}
}

func (r *ObligationRepository) Create(ctx context.Context, obligation *models.Obligation) error {
	return r.db.WithContext(ctx).Create(obligation).Error
}

func (r *ObligationRepository) GetByID(ctx context.Context, id uint) (*models.Obligation, error) {
	var obligation models.Obligation
	if err := r.db.WithContext(ctx).First(&obligation, id).Error; err != nil {
		return nil, err
	}
	return &obligation, nil
}

// Exists checks for an obligation of the given member + type + period.
// The period generator relies on this for idempotent re-runs.
func (r *ObligationRepository) Exists(ctx context.Context, memberID uint, dueType models.DueType, year, month int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Obligation{}).
		Where("member_id = ? AND due_type = ? AND period_year = ? AND period_month = ?",
			memberID, dueType, year, month).
		Count(&count).Error
	return count > 0, err
}

// OldestOpen returns the earliest-period unpaid obligation of the given type,
// or gorm.ErrRecordNotFound when everything is settled.
func (r *ObligationRepository) OldestOpen(ctx context.Context, memberID uint, dueType models.DueType) (*models.Obligation, error) {
	var obligation models.Obligation
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND due_type = ? AND status <> ?", memberID, dueType, models.ObligationPaid).
		Order("period_year, period_month, id").
		First(&obligation).Error
	if err != nil {
		return nil, err
	}
	return &obligation, nil
}

// ListByMember returns all obligations of a member, oldest period first
func (r *ObligationRepository) ListByMember(ctx context.Context, memberID uint) ([]*models.Obligation, error) {
	var obligations []*models.Obligation
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("period_year, period_month, due_type").
		Find(&obligations).Error
	if err != nil {
		return nil, err
	}
	return obligations, nil
}

// ListOpenByMember returns the member's unpaid obligations, oldest first
func (r *ObligationRepository) ListOpenByMember(ctx context.Context, memberID uint) ([]*models.Obligation, error) {
	var obligations []*models.Obligation
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND status <> ?", memberID, models.ObligationPaid).
		Order("period_year, period_month, due_type").
		Find(&obligations).Error
	if err != nil {
		return nil, err
	}
	return obligations, nil
}

// ListOverdueByMember returns the member's OVERDUE obligations, oldest first
func (r *ObligationRepository) ListOverdueByMember(ctx context.Context, memberID uint) ([]*models.Obligation, error) {
	var obligations []*models.Obligation
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND status = ?", memberID, models.ObligationOverdue).
		Order("period_year, period_month, due_type").
		Find(&obligations).Error
	if err != nil {
		return nil, err
	}
	return obligations, nil
}

// GetForPeriod returns the member's obligation for one type + period, if any
func (r *ObligationRepository) GetForPeriod(ctx context.Context, memberID uint, dueType models.DueType, year, month int) (*models.Obligation, error) {
	var obligation models.Obligation
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND due_type = ? AND period_year = ? AND period_month = ?",
			memberID, dueType, year, month).
		First(&obligation).Error
	if err != nil {
		return nil, err
	}
	return &obligation, nil
}

// Update saves the mutable amount/status fields of an obligation
func (r *ObligationRepository) Update(ctx context.Context, obligation *models.Obligation) error {
	return r.db.WithContext(ctx).Save(obligation).Error
}

// MarkOverdue flips past-due PENDING obligations to OVERDUE. Run before the
// reminder batch so the status reflects the due-date comparison.
func (r *ObligationRepository) MarkOverdue(ctx context.Context, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Obligation{}).
		Where("status = ? AND due_date < ?", models.ObligationPending, now).
		Update("status", models.ObligationOverdue).Error
}
