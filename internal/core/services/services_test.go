package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"assofund/internal/adapters/persistence/models"
	"assofund/internal/adapters/persistence/repositories"
	"assofund/internal/config"
	"assofund/internal/core/domain"
	"assofund/internal/pkg/money"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the full service stack onto an in-memory database.
type testEnv struct {
	db *gorm.DB

	members     repositories.MemberRepository
	obligations *repositories.ObligationRepository
	credits     *repositories.CreditRepository
	debts       *repositories.InitialDebtRepository
	payments    *repositories.PaymentRepository
	reminders   *repositories.ReminderRepository

	notifier *fakeNotifier

	allocation  *AllocationService
	arrears     *ArrearsService
	periods     *PeriodService
	reminderSvc *ReminderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// A unique shared-cache DSN per test keeps tests isolated while all
	// pooled connections see the same database.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	cfg := &config.Config{
		Dues: config.DuesConfig{
			FlatFee:       money.MustParse("50.00"),
			AssistanceFee: money.MustParse("25.00"),
			AvgMonthlyDue: money.MustParse("75.00"),
			ArrearsMonths: 3,
			DueDay:        10,
			LockTimeout:   2 * time.Second,
		},
		Notify: config.NotifyConfig{Channel: "log"},
	}

	env := &testEnv{
		db:          db,
		members:     repositories.NewMemberRepository(db),
		obligations: repositories.NewObligationRepository(db),
		credits:     repositories.NewCreditRepository(db),
		debts:       repositories.NewInitialDebtRepository(db),
		payments:    repositories.NewPaymentRepository(db),
		reminders:   repositories.NewReminderRepository(db),
		notifier:    &fakeNotifier{},
	}

	locks := NewLockRegistry()
	env.allocation = NewAllocationService(
		db, env.obligations, env.credits, env.debts, env.payments,
		env.members, env.notifier, locks, cfg,
	)
	env.arrears = NewArrearsService(env.obligations, env.debts, env.credits, env.members, cfg)
	env.periods = NewPeriodService(db, env.obligations, env.members, locks, cfg)
	env.reminderSvc = NewReminderService(
		env.obligations, env.reminders, env.members, env.arrears,
		env.notifier, locks, cfg,
	)

	return env
}

// fakeNotifier records deliveries instead of calling a webhook.
type fakeNotifier struct {
	paymentCalls  int
	reminderCalls int
	fail          bool
}

func (f *fakeNotifier) PaymentRecorded(member *models.Member, result *SettlementResult) error {
	f.paymentCalls++
	if f.fail {
		return fmt.Errorf("delivery refused")
	}
	return nil
}

func (f *fakeNotifier) ReminderIssued(member *models.Member, reminder *models.Reminder) error {
	f.reminderCalls++
	if f.fail {
		return fmt.Errorf("delivery refused")
	}
	return nil
}

func (e *testEnv) createMember(t *testing.T, membNo string, active bool) *models.Member {
	t.Helper()
	member := &models.Member{
		MembNo:   membNo,
		FullName: "Member " + membNo,
		IsActive: active,
	}
	require.NoError(t, e.members.Create(context.Background(), member))
	return member
}

// createObligation seeds an unpaid obligation for the given period. The due
// date is derived from the period so past periods come out overdue-eligible.
func (e *testEnv) createObligation(t *testing.T, memberID uint, dueType models.DueType, period domain.Period, expected money.Money) *models.Obligation {
	t.Helper()
	obligation := &models.Obligation{
		MemberID:        memberID,
		DueType:         dueType,
		PeriodYear:      period.Year,
		PeriodMonth:     int(period.Month),
		AmountExpected:  expected,
		AmountPaid:      money.Zero(),
		AmountRemaining: expected,
		DueDate:         period.DueDate(10),
	}
	obligation.RecomputeStatus(time.Now())
	require.NoError(t, e.obligations.Create(context.Background(), obligation))
	return obligation
}

func (e *testEnv) createCredit(t *testing.T, memberID uint, amount money.Money) *models.Credit {
	t.Helper()
	credit := &models.Credit{
		MemberID:        memberID,
		Amount:          amount,
		AmountUsed:      money.Zero(),
		AmountRemaining: amount,
		Status:          models.CreditAvailable,
	}
	require.NoError(t, e.credits.Create(context.Background(), credit))
	return credit
}

func pastPeriod(monthsAgo int) domain.Period {
	p := domain.PeriodOf(time.Now())
	y, m := p.Year, int(p.Month)
	m -= monthsAgo
	for m < 1 {
		m += 12
		y--
	}
	return domain.Period{Year: y, Month: time.Month(m)}
}
