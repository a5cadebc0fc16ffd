package repositories

import (
	"context"

	"assofund/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

// MemberRepository defines the member roster interface. Members are never
// deleted by the ledger; deactivation flips is_active.
type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	GetByID(ctx context.Context, id uint) (*models.Member, error)
	GetByMembNo(ctx context.Context, membNo string) (*models.Member, error)
	ExistsByMembNo(ctx context.Context, membNo string) (bool, error)
	List(ctx context.Context, offset, limit int) ([]*models.Member, int64, error)
	ListActive(ctx context.Context) ([]*models.Member, error)
	Search(ctx context.Context, query string, limit int) ([]*models.Member, error)
	SetActive(ctx context.Context, id uint, active bool) error
}
