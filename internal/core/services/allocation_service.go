package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"assofund/internal/adapters/persistence/models"
	"assofund/internal/adapters/persistence/repositories"
	"assofund/internal/config"
	"assofund/internal/core/domain"
	"assofund/internal/pkg/money"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AllocationService is the allocation engine: it applies credits and payments
// across the member's debt buckets in priority order. Every public method
// runs as one atomic unit, a member lock around a single gorm transaction,
// so a failed run leaves no partial sweep behind.
type AllocationService struct {
	db          *gorm.DB
	obligations *repositories.ObligationRepository
	credits     *repositories.CreditRepository
	debts       *repositories.InitialDebtRepository
	payments    *repositories.PaymentRepository
	members     repositories.MemberRepository
	notifier    Notifier
	locks       *LockRegistry
	lockTimeout time.Duration
}

// NewAllocationService creates a new allocation service
func NewAllocationService(
	db *gorm.DB,
	obligationRepo *repositories.ObligationRepository,
	creditRepo *repositories.CreditRepository,
	debtRepo *repositories.InitialDebtRepository,
	paymentRepo *repositories.PaymentRepository,
	memberRepo repositories.MemberRepository,
	notifier Notifier,
	locks *LockRegistry,
	cfg *config.Config,
) *AllocationService {
	return &AllocationService{
		db:          db,
		obligations: obligationRepo,
		credits:     creditRepo,
		debts:       debtRepo,
		payments:    paymentRepo,
		members:     memberRepo,
		notifier:    notifier,
		locks:       locks,
		lockTimeout: cfg.Dues.LockTimeout,
	}
}

// PaymentInput describes an incoming settlement to record.
type PaymentInput struct {
	Amount    money.Money
	Method    string
	PaidAt    time.Time
	Reference string
	Note      string
}

// RecordPaymentInput is the manual-payment entry point: the treasurer names
// the member and due type, the engine finds the target obligation.
type RecordPaymentInput struct {
	MemberID  uint
	DueType   models.DueType
	Amount    money.Money
	Method    string
	PaidAt    time.Time
	Reference string
	Note      string
}

// SettlementResult reports how one settlement was distributed. The handler
// turns it into the user-facing confirmation message.
type SettlementResult struct {
	Obligation           *models.Obligation `json:"obligation"`
	Payment              *models.Payment    `json:"payment"`
	CreditsConsumed      money.Money        `json:"credits_consumed"`
	CreditCreated        *models.Credit     `json:"credit_created,omitempty"`
	AppliedToInitialDebt money.Money        `json:"applied_to_initial_debt"`
}

// RecordManualPayment applies a manual settlement to the member's oldest open
// obligation of the given due type.
func (s *AllocationService) RecordManualPayment(ctx context.Context, in RecordPaymentInput) (*SettlementResult, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", domain.ErrValidation)
	}
	if !models.ValidPaymentMethod(in.Method) {
		return nil, fmt.Errorf("%w: unknown payment method %q", domain.ErrValidation, in.Method)
	}

	if _, err := s.members.GetByID(ctx, in.MemberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	obligation, err := s.obligations.OldestOpen(ctx, in.MemberID, in.DueType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNoMatchingObligation
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	return s.SettleObligation(ctx, obligation.ID, PaymentInput{
		Amount:    in.Amount,
		Method:    in.Method,
		PaidAt:    in.PaidAt,
		Reference: in.Reference,
		Note:      in.Note,
	})
}

// SettleObligation records a payment against one obligation:
//
//  1. available credits are swept FIFO into the obligation first,
//  2. the payment amount is applied to what remains,
//  3. any surplus becomes a new credit,
//  4. a fresh credit is immediately swept against initial debts,
//  5. the immutable payment row is persisted.
//
// All of it commits or rolls back together.
func (s *AllocationService) SettleObligation(ctx context.Context, obligationID uint, in PaymentInput) (*SettlementResult, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", domain.ErrValidation)
	}
	if !models.ValidPaymentMethod(in.Method) {
		return nil, fmt.Errorf("%w: unknown payment method %q", domain.ErrValidation, in.Method)
	}
	if in.PaidAt.IsZero() {
		in.PaidAt = time.Now()
	}
	if in.Reference == "" {
		in.Reference = uuid.NewString()
	}

	// First fetch is only to learn which member to lock; the authoritative
	// read happens again inside the transaction.
	obligation, err := s.obligations.GetByID(ctx, obligationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrObligationNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	var result *SettlementResult
	err = s.withMemberLock(ctx, obligation.MemberID, func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			var err error
			result, err = s.settleInTx(ctx, tx, obligationID, in)
			return err
		})
	})
	if err != nil {
		return nil, asAllocationError(err)
	}

	// Courtesy notification, strictly after the commit and outside the lock.
	if s.notifier != nil {
		if member, err := s.members.GetByID(ctx, result.Obligation.MemberID); err == nil {
			if err := s.notifier.PaymentRecorded(member, result); err != nil {
				log.Printf("⚠️ Payment notification failed for member %s: %v", member.MembNo, err)
			}
		}
	}

	return result, nil
}

// withMemberLock runs fn holding the member's exclusive lock. The deferred
// release keeps the lock from leaking when fn panics out of a transaction.
func (s *AllocationService) withMemberLock(ctx context.Context, memberID uint, fn func() error) error {
	release, err := s.locks.Acquire(ctx, memberID, s.lockTimeout)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func (s *AllocationService) settleInTx(ctx context.Context, tx *gorm.DB, obligationID uint, in PaymentInput) (*SettlementResult, error) {
	obligations := s.obligations.WithTx(tx)
	credits := s.credits.WithTx(tx)
	debts := s.debts.WithTx(tx)
	payments := s.payments.WithTx(tx)

	obligation, err := obligations.GetByID(ctx, obligationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrObligationNotFound
		}
		return nil, err
	}
	if obligation.Status == models.ObligationPaid {
		return nil, fmt.Errorf("%w: obligation %d", domain.ErrAlreadySettled, obligationID)
	}

	now := time.Now()

	// Step 1: sweep available credits, oldest first, before the new money.
	consumed, err := s.sweepCreditsIntoObligation(ctx, credits, obligation)
	if err != nil {
		return nil, err
	}

	// Step 2: apply the incoming payment to what the credits left over.
	effective := money.Min(in.Amount, obligation.AmountRemaining)
	if effective.IsPositive() {
		obligation.AmountPaid = obligation.AmountPaid.Add(effective)
		obligation.AmountRemaining = obligation.AmountRemaining.Sub(effective).ClampZero()
	}
	obligation.RecomputeStatus(now)
	if err := obligations.Update(ctx, obligation); err != nil {
		return nil, err
	}

	// Step 3: surplus becomes exactly one credit ("avoir").
	surplus := in.Amount.Sub(effective)
	var created *models.Credit
	appliedToDebt := money.Zero()
	if surplus.IsPositive() {
		created = &models.Credit{
			MemberID:        obligation.MemberID,
			Amount:          surplus,
			AmountUsed:      money.Zero(),
			AmountRemaining: surplus,
			Status:          models.CreditAvailable,
		}
		if err := credits.Create(ctx, created); err != nil {
			return nil, err
		}

		// Step 4: fresh surplus must not sit idle while older debt exists.
		appliedToDebt, err = sweepCreditsIntoInitialDebts(ctx, credits, debts, obligation.MemberID)
		if err != nil {
			return nil, err
		}
		created, err = credits.GetByID(ctx, created.ID)
		if err != nil {
			return nil, err
		}
	}

	// Step 5: the payment row is recorded regardless of how the amount was
	// distributed.
	payment := &models.Payment{
		MemberID:     obligation.MemberID,
		ObligationID: &obligation.ID,
		Amount:       in.Amount,
		Method:       in.Method,
		PaidAt:       in.PaidAt,
		Reference:    in.Reference,
		Note:         in.Note,
	}
	if err := payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	return &SettlementResult{
		Obligation:           obligation,
		Payment:              payment,
		CreditsConsumed:      consumed,
		CreditCreated:        created,
		AppliedToInitialDebt: appliedToDebt,
	}, nil
}

// sweepCreditsIntoObligation consumes the member's available credits FIFO
// against the obligation's remaining amount. Partial consumption is fine; a
// credit may be spent across many obligations over time.
func (s *AllocationService) sweepCreditsIntoObligation(ctx context.Context, credits *repositories.CreditRepository, obligation *models.Obligation) (money.Money, error) {
	consumed := money.Zero()
	if !obligation.AmountRemaining.IsPositive() {
		return consumed, nil
	}

	available, err := credits.ListAvailableByMember(ctx, obligation.MemberID)
	if err != nil {
		return consumed, err
	}

	for _, credit := range available {
		if !obligation.AmountRemaining.IsPositive() {
			break
		}
		take := money.Min(credit.AmountRemaining, obligation.AmountRemaining)
		if !take.IsPositive() {
			continue
		}

		credit.AmountUsed = credit.AmountUsed.Add(take)
		credit.AmountRemaining = credit.AmountRemaining.Sub(take)
		if !credit.AmountRemaining.IsPositive() {
			credit.Status = models.CreditExhausted
		}
		if err := credits.Update(ctx, credit); err != nil {
			return consumed, err
		}

		obligation.AmountPaid = obligation.AmountPaid.Add(take)
		obligation.AmountRemaining = obligation.AmountRemaining.Sub(take)
		consumed = consumed.Add(take)
	}

	return consumed, nil
}

// sweepCreditsIntoInitialDebts walks the member's initial debts oldest year
// first, spending available credits FIFO into each. Returns the total applied.
func sweepCreditsIntoInitialDebts(ctx context.Context, credits *repositories.CreditRepository, debts *repositories.InitialDebtRepository, memberID uint) (money.Money, error) {
	total := money.Zero()

	openDebts, err := debts.ListOpenByMember(ctx, memberID)
	if err != nil || len(openDebts) == 0 {
		return total, err
	}
	available, err := credits.ListAvailableByMember(ctx, memberID)
	if err != nil {
		return total, err
	}

	idx := 0
	for _, debt := range openDebts {
		changed := false
		for idx < len(available) && debt.AmountRemaining.IsPositive() {
			credit := available[idx]
			if !credit.AmountRemaining.IsPositive() {
				idx++
				continue
			}

			take := money.Min(credit.AmountRemaining, debt.AmountRemaining)
			credit.AmountUsed = credit.AmountUsed.Add(take)
			credit.AmountRemaining = credit.AmountRemaining.Sub(take)
			if !credit.AmountRemaining.IsPositive() {
				credit.Status = models.CreditExhausted
			}
			if err := credits.Update(ctx, credit); err != nil {
				return total, err
			}

			debt.AmountPaid = debt.AmountPaid.Add(take)
			debt.AmountRemaining = debt.AmountRemaining.Sub(take)
			total = total.Add(take)
			changed = true
		}
		if changed {
			if err := debts.Update(ctx, debt); err != nil {
				return total, err
			}
		}
		if idx >= len(available) {
			break
		}
	}

	return total, nil
}

// SweepCreditsAgainstInitialDebt applies the member's available credits to
// legacy debts without any incoming payment, e.g. after an administrator
// records a new initial debt for a member who already holds credit.
func (s *AllocationService) SweepCreditsAgainstInitialDebt(ctx context.Context, memberID uint) (money.Money, error) {
	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return money.Zero(), domain.ErrMemberNotFound
		}
		return money.Zero(), fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	applied := money.Zero()
	err := s.withMemberLock(ctx, memberID, func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			var err error
			applied, err = sweepCreditsIntoInitialDebts(ctx, s.credits.WithTx(tx), s.debts.WithTx(tx), memberID)
			return err
		})
	})
	if err != nil {
		return money.Zero(), asAllocationError(err)
	}
	return applied, nil
}

// CreateInitialDebt records a legacy balance for a member and immediately
// sweeps any existing credits into it.
func (s *AllocationService) CreateInitialDebt(ctx context.Context, memberID uint, year int, amount money.Money) (*models.InitialDebt, money.Money, error) {
	if !amount.IsPositive() {
		return nil, money.Zero(), fmt.Errorf("%w: debt amount must be positive", domain.ErrValidation)
	}
	if year < 1970 || year > time.Now().Year() {
		return nil, money.Zero(), fmt.Errorf("%w: invalid debt year %d", domain.ErrValidation, year)
	}
	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, money.Zero(), domain.ErrMemberNotFound
		}
		return nil, money.Zero(), fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	debt := &models.InitialDebt{
		MemberID:        memberID,
		Year:            year,
		Amount:          amount,
		AmountPaid:      money.Zero(),
		AmountRemaining: amount,
	}
	applied := money.Zero()
	err := s.withMemberLock(ctx, memberID, func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			debts := s.debts.WithTx(tx)
			if err := debts.Create(ctx, debt); err != nil {
				return err
			}
			var err error
			applied, err = sweepCreditsIntoInitialDebts(ctx, s.credits.WithTx(tx), debts, memberID)
			if err != nil {
				return err
			}
			// The sweep updated its own copy of the row; re-read so the
			// caller sees the post-sweep amounts.
			if applied.IsPositive() {
				debt, err = debts.GetByID(ctx, debt.ID)
			}
			return err
		})
	})
	if err != nil {
		return nil, money.Zero(), asAllocationError(err)
	}
	return debt, applied, nil
}

// asAllocationError keeps domain sentinels intact and classifies everything
// else as a persistence failure, since a rolled-back transaction is the only
// other way out of an allocation run.
func asAllocationError(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{
		domain.ErrValidation,
		domain.ErrObligationNotFound,
		domain.ErrAlreadySettled,
		domain.ErrNoMatchingObligation,
		domain.ErrMemberNotFound,
		domain.ErrConcurrencyConflict,
		domain.ErrPersistenceFailure,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
}
