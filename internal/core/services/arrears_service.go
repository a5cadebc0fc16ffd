package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"assofund/internal/adapters/persistence/models"
	"assofund/internal/adapters/persistence/repositories"
	"assofund/internal/config"
	"assofund/internal/core/domain"
	"assofund/internal/pkg/money"

	"gorm.io/gorm"
)

// ArrearsService derives per-member debt state. Figures are recomputed from
// the raw ledger rows on every call; there is no cached running balance that
// could drift out of sync with the ledger.
type ArrearsService struct {
	obligations *repositories.ObligationRepository
	debts       *repositories.InitialDebtRepository
	credits     *repositories.CreditRepository
	members     repositories.MemberRepository
	dues        config.DuesConfig
}

// NewArrearsService creates a new arrears service
func NewArrearsService(
	obligationRepo *repositories.ObligationRepository,
	debtRepo *repositories.InitialDebtRepository,
	creditRepo *repositories.CreditRepository,
	memberRepo repositories.MemberRepository,
	cfg *config.Config,
) *ArrearsService {
	return &ArrearsService{
		obligations: obligationRepo,
		debts:       debtRepo,
		credits:     creditRepo,
		members:     memberRepo,
		dues:        cfg.Dues,
	}
}

// DebtSummary is the per-member aggregate the UI displays.
type DebtSummary struct {
	MemberID               uint        `json:"member_id"`
	MembNo                 string      `json:"memb_no"`
	FullName               string      `json:"full_name"`
	OutstandingObligations money.Money `json:"outstanding_obligations"`
	OutstandingInitialDebt money.Money `json:"outstanding_initial_debt"`
	AvailableCredit        money.Money `json:"available_credit"`
	GrossDebt              money.Money `json:"gross_debt"`
	NetDebt                money.Money `json:"net_debt"`
	MonthsInArrears        int         `json:"months_in_arrears"`
	InArrears              bool        `json:"in_arrears"`
	CurrentMonthFlatFee    money.Money `json:"current_month_flat_fee"`
	CurrentMonthAssistance money.Money `json:"current_month_assistance"`
}

// GetMemberDebtSummary aggregates the member's ledger into a debt summary.
func (s *ArrearsService) GetMemberDebtSummary(ctx context.Context, memberID uint) (*DebtSummary, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	open, err := s.obligations.ListOpenByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}
	outstandingObligations := money.Zero()
	for _, obligation := range open {
		outstandingObligations = outstandingObligations.Add(obligation.AmountRemaining)
	}

	openDebts, err := s.debts.ListOpenByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}
	outstandingInitialDebt := money.Zero()
	for _, debt := range openDebts {
		outstandingInitialDebt = outstandingInitialDebt.Add(debt.AmountRemaining)
	}

	availableCredits, err := s.credits.ListAvailableByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}
	availableCredit := money.Zero()
	for _, credit := range availableCredits {
		availableCredit = availableCredit.Add(credit.AmountRemaining)
	}

	grossDebt := outstandingObligations.Add(outstandingInitialDebt)
	netDebt := grossDebt.Sub(availableCredit).ClampZero()

	// DivFloor guards the zero-due configuration itself.
	monthsInArrears := int(netDebt.DivFloor(s.dues.AvgMonthlyDue))

	summary := &DebtSummary{
		MemberID:               member.ID,
		MembNo:                 member.MembNo,
		FullName:               member.FullName,
		OutstandingObligations: outstandingObligations,
		OutstandingInitialDebt: outstandingInitialDebt,
		AvailableCredit:        availableCredit,
		GrossDebt:              grossDebt,
		NetDebt:                netDebt,
		MonthsInArrears:        monthsInArrears,
		InArrears:              monthsInArrears >= s.dues.ArrearsMonths,
	}

	// Current-month figures count only once the period's obligation row
	// actually exists: a member whose monthly batch has not run yet
	// contributes zero here, while historical arrears still count above.
	period := domain.PeriodOf(time.Now())
	if flat, err := s.obligations.GetForPeriod(ctx, memberID, models.DueTypeFlatFee, period.Year, int(period.Month)); err == nil {
		summary.CurrentMonthFlatFee = flat.AmountRemaining
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}
	if assistance, err := s.obligations.GetForPeriod(ctx, memberID, models.DueTypeAssistance, period.Year, int(period.Month)); err == nil {
		summary.CurrentMonthAssistance = assistance.AmountRemaining
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	return summary, nil
}
