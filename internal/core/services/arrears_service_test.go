package services

import (
	"context"
	"testing"
	"time"

	"assofund/internal/adapters/persistence/models"
	"assofund/internal/core/domain"
	"assofund/internal/pkg/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebtSummaryAggregates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.createMember(t, "A001", true)

	env.createObligation(t, member.ID, models.DueTypeFlatFee, pastPeriod(2), money.MustParse("50.00"))
	env.createObligation(t, member.ID, models.DueTypeAssistance, pastPeriod(2), money.MustParse("25.00"))
	_, _, err := env.allocation.CreateInitialDebt(ctx, member.ID, 2023, money.MustParse("100.00"))
	require.NoError(t, err)
	env.createCredit(t, member.ID, money.MustParse("30.00"))

	summary, err := env.arrears.GetMemberDebtSummary(ctx, member.ID)
	require.NoError(t, err)

	assert.Equal(t, member.MembNo, summary.MembNo)
	assert.Equal(t, money.MustParse("75.00"), summary.OutstandingObligations)
	assert.Equal(t, money.MustParse("100.00"), summary.OutstandingInitialDebt)
	assert.Equal(t, money.MustParse("30.00"), summary.AvailableCredit)
	assert.Equal(t, money.MustParse("175.00"), summary.GrossDebt)
	assert.Equal(t, money.MustParse("145.00"), summary.NetDebt)
	assert.Equal(t, 1, summary.MonthsInArrears)
	assert.False(t, summary.InArrears)
}

func TestDebtSummaryArrearsThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Exactly three average months of net debt crosses the line.
	atLine := env.createMember(t, "A002", true)
	env.createObligation(t, atLine.ID, models.DueTypeFlatFee, pastPeriod(2), money.MustParse("225.00"))

	summary, err := env.arrears.GetMemberDebtSummary(ctx, atLine.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.MonthsInArrears)
	assert.True(t, summary.InArrears)

	// One cent short stays at two months.
	below := env.createMember(t, "A003", true)
	env.createObligation(t, below.ID, models.DueTypeFlatFee, pastPeriod(2), money.MustParse("224.99"))

	summary, err = env.arrears.GetMemberDebtSummary(ctx, below.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.MonthsInArrears)
	assert.False(t, summary.InArrears)
}

func TestDebtSummaryCreditCoversEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.createMember(t, "A004", true)
	env.createObligation(t, member.ID, models.DueTypeFlatFee, pastPeriod(1), money.MustParse("50.00"))
	env.createCredit(t, member.ID, money.MustParse("500.00"))

	summary, err := env.arrears.GetMemberDebtSummary(ctx, member.ID)
	require.NoError(t, err)

	// Net debt clamps at zero, it never goes negative.
	assert.True(t, summary.NetDebt.IsZero())
	assert.Equal(t, 0, summary.MonthsInArrears)
	assert.False(t, summary.InArrears)
}

func TestDebtSummaryCurrentMonth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.createMember(t, "A005", true)

	// Before the monthly batch runs, the current-month figures stay zero.
	summary, err := env.arrears.GetMemberDebtSummary(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, summary.CurrentMonthFlatFee.IsZero())
	assert.True(t, summary.CurrentMonthAssistance.IsZero())

	now := domain.PeriodOf(time.Now())
	env.createObligation(t, member.ID, models.DueTypeFlatFee, now, money.MustParse("50.00"))
	env.createObligation(t, member.ID, models.DueTypeAssistance, now, money.MustParse("25.00"))

	summary, err = env.arrears.GetMemberDebtSummary(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("50.00"), summary.CurrentMonthFlatFee)
	assert.Equal(t, money.MustParse("25.00"), summary.CurrentMonthAssistance)
}

func TestDebtSummaryUnknownMember(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.arrears.GetMemberDebtSummary(context.Background(), 99999)
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
}
