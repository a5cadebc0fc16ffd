package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"assofund/internal/adapters/persistence/models"
	"assofund/internal/adapters/persistence/repositories"
	"assofund/internal/config"
	"assofund/internal/core/domain"
	"assofund/internal/pkg/money"

	"gorm.io/gorm"
)

// PeriodService creates the recurring obligations for a dues month.
type PeriodService struct {
	db          *gorm.DB
	obligations *repositories.ObligationRepository
	members     repositories.MemberRepository
	locks       *LockRegistry
	dues        config.DuesConfig
}

// NewPeriodService creates a new period service
func NewPeriodService(
	db *gorm.DB,
	obligationRepo *repositories.ObligationRepository,
	memberRepo repositories.MemberRepository,
	locks *LockRegistry,
	cfg *config.Config,
) *PeriodService {
	return &PeriodService{
		db:          db,
		obligations: obligationRepo,
		members:     memberRepo,
		locks:       locks,
		dues:        cfg.Dues,
	}
}

// GenerateMonthlyObligations creates one flat-fee and one assistance-fee
// obligation per active member for the period, skipping any that already
// exist. Re-running for the same period never duplicates rows, so the batch
// is safe to resume after a partial failure.
func (s *PeriodService) GenerateMonthlyObligations(ctx context.Context, period domain.Period, flatFee, assistanceFee money.Money) (int, error) {
	if !period.Valid() {
		return 0, fmt.Errorf("%w: invalid period %s", domain.ErrValidation, period)
	}
	if !flatFee.IsPositive() || !assistanceFee.IsPositive() {
		return 0, fmt.Errorf("%w: fee amounts must be positive", domain.ErrValidation)
	}

	members, err := s.members.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	fees := []struct {
		dueType models.DueType
		amount  money.Money
	}{
		{models.DueTypeFlatFee, flatFee},
		{models.DueTypeAssistance, assistanceFee},
	}

	dueDate := period.DueDate(s.dues.DueDay)
	now := time.Now()
	created := 0

	for _, member := range members {
		release, err := s.locks.Acquire(ctx, member.ID, s.dues.LockTimeout)
		if err != nil {
			return created, err
		}

		memberCreated := 0
		txErr := s.db.Transaction(func(tx *gorm.DB) error {
			obligations := s.obligations.WithTx(tx)
			memberCreated = 0
			for _, fee := range fees {
				exists, err := obligations.Exists(ctx, member.ID, fee.dueType, period.Year, int(period.Month))
				if err != nil {
					return err
				}
				if exists {
					continue
				}

				obligation := &models.Obligation{
					MemberID:        member.ID,
					DueType:         fee.dueType,
					PeriodYear:      period.Year,
					PeriodMonth:     int(period.Month),
					AmountExpected:  fee.amount,
					AmountPaid:      money.Zero(),
					AmountRemaining: fee.amount,
					DueDate:         dueDate,
				}
				obligation.RecomputeStatus(now)
				if err := obligations.Create(ctx, obligation); err != nil {
					return err
				}
				memberCreated++
			}
			return nil
		})
		release()

		if txErr != nil {
			return created, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, txErr)
		}
		created += memberCreated
	}

	log.Printf("📅 Generated %d obligations for period %s (%d active members)", created, period, len(members))
	return created, nil
}
