package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"assofund/internal/adapters/persistence/models"
	"assofund/internal/adapters/persistence/repositories"
	"assofund/internal/core/domain"

	"gorm.io/gorm"
)

// MemberService handles roster management. Members are only ever
// deactivated, never deleted: their ledger history must survive them.
type MemberService struct {
	members repositories.MemberRepository
}

// NewMemberService creates a new member service
func NewMemberService(memberRepo repositories.MemberRepository) *MemberService {
	return &MemberService{members: memberRepo}
}

// CreateMemberInput represents member registration input
type CreateMemberInput struct {
	MembNo   string `json:"memb_no"`
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Create registers a new member
func (s *MemberService) Create(ctx context.Context, input *CreateMemberInput) (*models.Member, error) {
	membNo := strings.TrimSpace(input.MembNo)
	fullName := strings.TrimSpace(input.FullName)
	if membNo == "" || fullName == "" {
		return nil, fmt.Errorf("%w: memb_no and full_name are required", domain.ErrValidation)
	}

	exists, err := s.members.ExistsByMembNo(ctx, membNo)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrMemberAlreadyExists
	}

	member := &models.Member{
		MembNo:   membNo,
		FullName: fullName,
		Email:    strings.TrimSpace(input.Email),
		Phone:    strings.TrimSpace(input.Phone),
		IsActive: true,
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// GetByMembNo fetches a member by member number
func (s *MemberService) GetByMembNo(ctx context.Context, membNo string) (*models.Member, error) {
	member, err := s.members.GetByMembNo(ctx, membNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

// List returns a page of the roster plus the total count
func (s *MemberService) List(ctx context.Context, offset, limit int) ([]*models.Member, int64, error) {
	return s.members.List(ctx, offset, limit)
}

// Search finds members by name or member number
func (s *MemberService) Search(ctx context.Context, query string, limit int) ([]*models.Member, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", domain.ErrValidation)
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	return s.members.Search(ctx, query, limit)
}

// SetActive flips the member's active flag
func (s *MemberService) SetActive(ctx context.Context, membNo string, active bool) (*models.Member, error) {
	member, err := s.GetByMembNo(ctx, membNo)
	if err != nil {
		return nil, err
	}
	if err := s.members.SetActive(ctx, member.ID, active); err != nil {
		return nil, err
	}
	member.IsActive = active
	return member, nil
}
