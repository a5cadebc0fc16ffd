package repositories

import (
	"context"

	"assofund/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// memberRepository implements MemberRepository interface
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

// Create inserts a new member into the roster
func (r *memberRepository) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// GetByID gets a member by primary key
func (r *memberRepository) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByMembNo gets a member by member number
func (r *memberRepository) GetByMembNo(ctx context.Context, membNo string) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Where("memb_no = ?", membNo).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// ExistsByMembNo checks if a member number is already registered
func (r *memberRepository) ExistsByMembNo(ctx context.Context, membNo string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("memb_no = ?", membNo).
		Count(&count).Error
	return count > 0, err
}

// List returns a page of members plus the total count
func (r *memberRepository) List(ctx context.Context, offset, limit int) ([]*models.Member, int64, error) {
	var members []*models.Member
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Member{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("memb_no").
		Offset(offset).
		Limit(limit).
		Find(&members).Error
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

// ListActive returns all active members (the batch-job roster)
func (r *memberRepository) ListActive(ctx context.Context) ([]*models.Member, error) {
	var members []*models.Member
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("memb_no").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// Search searches for members by name or member number
func (r *memberRepository) Search(ctx context.Context, query string, limit int) ([]*models.Member, error) {
	var members []*models.Member
	searchQuery := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("memb_no LIKE ? OR full_name LIKE ?", searchQuery, searchQuery).
		Limit(limit).
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// SetActive flips the active flag
func (r *memberRepository) SetActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
