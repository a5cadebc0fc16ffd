package repositories

import (
	"context"

	"assofund/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// ReminderRepository provides access to dues_reminders
type ReminderRepository struct {
	db *gorm.DB
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	return r.db.WithContext(ctx).Create(reminder).Error
}

// ListByMember returns the member's reminders, newest first
func (r *ReminderRepository) ListByMember(ctx context.Context, memberID uint) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("created_at DESC, id DESC").
		Find(&reminders).Error
	if err != nil {
		return nil, err
	}
	return reminders, nil
}

// UpdateStatus records the delivery outcome of a reminder
func (r *ReminderRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Reminder{}).
		Where("id = ?", id).
		Update("status", status).Error
}
