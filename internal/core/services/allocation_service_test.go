package services

import (
	"context"
	"testing"

	"assofund/internal/adapters/persistence/models"
	"assofund/internal/core/domain"
	"assofund/internal/pkg/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettleExactPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.createMember(t, "M001", true)
	obligation := env.createObligation(t, member.ID, models.DueTypeFlatFee, pastPeriod(1), money.MustParse("50.00"))

	result, err := env.allocation.SettleObligation(ctx, obligation.ID, PaymentInput{
		Amount: money.MustParse("50.00"),
		Method: models.PaymentMethodCash,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ObligationPaid, result.Obligation.Status)
	assert.True(t, result.Obligation.AmountRemaining.IsZero())
	assert.True(t, result.CreditsConsumed.IsZero())
	assert.Nil(t, result.CreditCreated)
	assert.True(t, result.AppliedToInitialDebt.IsZero())

	payments, err := env.payments.ListByMember(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, money.MustParse("50.00"), payments[0].Amount)
	assert.NotEmpty(t, payments[0].Reference)
	assert.Equal(t, 1, env.notifier.paymentCalls)
}

func TestOverpaymentCreatesCredit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.createMember(t, "M002", true)
	obligation := env.createObligation(t, member.ID, models.DueTypeAssistance, pastPeriod(1), money.MustParse("20.00"))

	result, err := env.allocation.SettleObligation(ctx, obligation.ID, PaymentInput{
		Amount: money.MustParse("35.00"),
		Method: models.PaymentMethodTransfer,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ObligationPaid, result.Obligation.Status)
	require.NotNil(t, result.CreditCreated)
	assert.Equal(t, money.MustParse("15.00"), result.CreditCreated.Amount)
	assert.Equal(t, money.MustParse("15.00"), result.CreditCreated.AmountRemaining)
	assert.Equal(t, models.CreditAvailable, result.CreditCreated.Status)

	// The full tendered amount is recorded, not just the effective part.
	payments, err := env.payments.ListByMember(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, money.MustParse("35.00"), payments[0].Amount)
}

func TestCreditsSweptBeforePayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.createMember(t, "M003", true)
	env.createCredit(t, member.ID, money.MustParse("10.00"))
	env.createCredit(t, member.ID, money.MustParse("15.00"))
	obligation := env.createObligation(t, member.ID, models.DueTypeFlatFee, pastPeriod(1), money.MustParse("50.00"))

	result, err := env.allocation.SettleObligation(ctx, obligation.ID, PaymentInput{
		Amount: money.MustParse("10.00"),
		Method: models.PaymentMethodCash,
	})
	require.NoError(t, err)

	// 25.00 of credit lands first, then the 10.00 payment: 15.00 stays open.
	assert.Equal(t, money.MustParse("25.00"), result.CreditsConsumed)
	assert.Equal(t, money.MustParse("15.00"), result.Obligation.AmountRemaining)
	assert.Equal(t, models.ObligationPartiallyPaid, result.Obligation.Status)

	credits, err := env.credits.ListByMember(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, credits, 2)
	for _, credit := range credits {
		assert.Equal(t, models.CreditExhausted, credit.Status)
		assert.True(t, credit.AmountRemaining.IsZero())
	}
}

func TestCreditConsumedOldestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.createMember(t, "M004", true)
	first := env.createCredit(t, member.ID, money.MustParse("10.00"))
	second := env.createCredit(t, member.ID, money.MustParse("10.00"))
	obligation := env.createObligation(t, member.ID, models.DueTypeFlatFee, pastPeriod(1), money.MustParse("50.00"))

	_, err := env.allocation.SettleObligation(ctx, obligation.ID, PaymentInput{
		Amount: money.MustParse("0.01"),
		Method: models.PaymentMethodCash,
	})
	require.NoError(t, err)

	gotFirst, err := env.credits.GetByID(ctx, first.ID)
	require.NoError(t, err)
	gotSecond, err := env.credits.GetByID(ctx, second.ID)
	require.NoError(t, err)

	assert.Equal(t, models.CreditExhausted, gotFirst.Status)
	assert.Equal(t, models.CreditExhausted, gotSecond.Status)

	// Partial consumption keeps the younger credit open.
	env.createCredit(t, member.ID, money.MustParse("40.00"))
	younger := env.createCredit(t, member.ID, money.MustParse("40.00"))
	next := env.createObligation(t, member.ID, models.DueTypeAssistance, pastPeriod(1), money.MustParse("25.00"))
	result, err := env.allocation.SettleObligation(ctx, next.ID, PaymentInput{
		Amount: money.MustParse("1.00"),
		Method: models.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("25.00"), result.CreditsConsumed)

	gotYounger, err := env.credits.GetByID(ctx, younger.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CreditAvailable, gotYounger.Status)
	assert.Equal(t, money.MustParse("40.00"), gotYounger.AmountRemaining)
}

func TestSurplusCascadesIntoInitialDebt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.createMember(t, "M005", true)

	debt, swept, err := env.allocation.CreateInitialDebt(ctx, member.ID, 2023, money.MustParse("40.00"))
	require.NoError(t, err)
	assert.True(t, swept.IsZero())

	obligation := env.createObligation(t, member.ID, models.DueTypeFlatFee, pastPeriod(1), money.MustParse("20.00"))
	result, err := env.allocation.SettleObligation(ctx, obligation.ID, PaymentInput{
		Amount: money.MustParse("45.00"),
		Method: models.PaymentMethodCheque,
	})
	require.NoError(t, err)

	// 20.00 settles the obligation, the 25.00 surplus chases the old debt.
	assert.Equal(t, models.ObligationPaid, result.Obligation.Status)
	assert.Equal(t, money.MustParse("25.00"), result.AppliedToInitialDebt)
	require.NotNil(t, result.CreditCreated)
	assert.Equal(t, models.CreditExhausted, result.CreditCreated.Status)
	assert.Equal(t, money.MustParse("25.00"), result.CreditCreated.AmountUsed)

	debts, err := env.debts.ListByMember(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, debts, 1)
	assert.Equal(t, debt.ID, debts[0].ID)
	assert.Equal(t, money.MustParse("15.00"), debts[0].AmountRemaining)
	assert.Equal(t, money.MustParse("25.00"), debts[0].AmountPaid)
}

func TestCreateInitialDebtSweepsExistingCredit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.createMember(t, "M006", true)
	env.createCredit(t, member.ID, money.MustParse("30.00"))

	debt, swept, err := env.allocation.CreateInitialDebt(ctx, member.ID, 2022, money.MustParse("100.00"))
	require.NoError(t, err)

	assert.Equal(t, money.MustParse("30.00"), swept)

	// The returned snapshot must reflect the sweep, not the pre-sweep row.
	assert.Equal(t, money.MustParse("70.00"), debt.AmountRemaining)
	assert.Equal(t, money.MustParse("30.00"), debt.AmountPaid)

	stored, err := env.debts.GetByID(ctx, debt.ID)
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("70.00"), stored.AmountRemaining)

	credits, err := env.credits.ListAvailableByMember(ctx, member.ID)
	require.NoError(t, err)
	assert.Empty(t, credits)
}

func TestSettleAlreadySettled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.createMember(t, "M007", true)
	obligation := env.createObligation(t, member.ID, models.DueTypeFlatFee, pastPeriod(1), money.MustParse("50.00"))

	_, err := env.allocation.SettleObligation(ctx, obligation.ID, PaymentInput{
		Amount: money.MustParse("50.00"),
		Method: models.PaymentMethodCash,
	})
	require.NoError(t, err)

	_, err = env.allocation.SettleObligation(ctx, obligation.ID, PaymentInput{
		Amount: money.MustParse("10.00"),
		Method: models.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, domain.ErrAlreadySettled)

	// The rejected attempt must leave no payment row behind.
	payments, err := env.payments.ListByMember(ctx, member.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestSettleValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.createMember(t, "M008", true)
	obligation := env.createObligation(t, member.ID, models.DueTypeFlatFee, pastPeriod(1), money.MustParse("50.00"))

	_, err := env.allocation.SettleObligation(ctx, obligation.ID, PaymentInput{
		Amount: money.Zero(),
		Method: models.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.allocation.SettleObligation(ctx, obligation.ID, PaymentInput{
		Amount: money.MustParse("10.00"),
		Method: "barter",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.allocation.SettleObligation(ctx, 99999, PaymentInput{
		Amount: money.MustParse("10.00"),
		Method: models.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, domain.ErrObligationNotFound)
}

func TestRecordManualPaymentTargetsOldestOpen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.createMember(t, "M009", true)
	older := env.createObligation(t, member.ID, models.DueTypeFlatFee, pastPeriod(3), money.MustParse("50.00"))
	env.createObligation(t, member.ID, models.DueTypeFlatFee, pastPeriod(1), money.MustParse("50.00"))

	result, err := env.allocation.RecordManualPayment(ctx, RecordPaymentInput{
		MemberID: member.ID,
		DueType:  models.DueTypeFlatFee,
		Amount:   money.MustParse("50.00"),
		Method:   models.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, older.ID, result.Obligation.ID)
}

func TestRecordManualPaymentNoOpenObligation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.createMember(t, "M010", true)

	_, err := env.allocation.RecordManualPayment(ctx, RecordPaymentInput{
		MemberID: member.ID,
		DueType:  models.DueTypeAssistance,
		Amount:   money.MustParse("25.00"),
		Method:   models.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, domain.ErrNoMatchingObligation)

	_, err = env.allocation.RecordManualPayment(ctx, RecordPaymentInput{
		MemberID: 99999,
		DueType:  models.DueTypeAssistance,
		Amount:   money.MustParse("25.00"),
		Method:   models.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
}

func TestMemberLockSurvivesPanic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.createMember(t, "M012", true)

	assert.Panics(t, func() {
		_ = env.allocation.withMemberLock(ctx, member.ID, func() error {
			panic("rollback escape")
		})
	})

	// The lock must not leak: the next settlement for the same member
	// acquires it normally instead of timing out.
	obligation := env.createObligation(t, member.ID, models.DueTypeFlatFee, pastPeriod(1), money.MustParse("50.00"))
	_, err := env.allocation.SettleObligation(ctx, obligation.ID, PaymentInput{
		Amount: money.MustParse("50.00"),
		Method: models.PaymentMethodCash,
	})
	require.NoError(t, err)
}

// Money never leaks or appears across a settlement: expected stays equal to
// paid plus remaining, and credit amount stays equal to used plus remaining.
func TestSettlementConservesAmounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.createMember(t, "M011", true)
	env.createCredit(t, member.ID, money.MustParse("12.34"))
	obligation := env.createObligation(t, member.ID, models.DueTypeFlatFee, pastPeriod(1), money.MustParse("50.00"))

	result, err := env.allocation.SettleObligation(ctx, obligation.ID, PaymentInput{
		Amount: money.MustParse("41.00"),
		Method: models.PaymentMethodCash,
	})
	require.NoError(t, err)

	got := result.Obligation
	assert.Equal(t, got.AmountExpected, got.AmountPaid.Add(got.AmountRemaining))

	credits, err := env.credits.ListByMember(ctx, member.ID)
	require.NoError(t, err)
	for _, credit := range credits {
		assert.Equal(t, credit.Amount, credit.AmountUsed.Add(credit.AmountRemaining))
	}

	// 12.34 credit + 41.00 payment against 50.00: 3.34 surplus credit.
	assert.Equal(t, models.ObligationPaid, got.Status)
	require.NotNil(t, result.CreditCreated)
	assert.Equal(t, money.MustParse("3.34"), result.CreditCreated.Amount)
}
