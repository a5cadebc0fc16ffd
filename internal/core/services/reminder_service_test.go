package services

import (
	"context"
	"testing"

	"assofund/internal/adapters/persistence/models"
	"assofund/internal/pkg/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedArrears gives the member three months of unpaid dues, enough to cross
// the arrears threshold of the test configuration.
func seedArrears(t *testing.T, env *testEnv, memberID uint) {
	t.Helper()
	for i := 1; i <= 3; i++ {
		env.createObligation(t, memberID, models.DueTypeFlatFee, pastPeriod(i), money.MustParse("50.00"))
		env.createObligation(t, memberID, models.DueTypeAssistance, pastPeriod(i), money.MustParse("25.00"))
	}
}

func TestGenerateRemindersOnlyForArrears(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	flagged := env.createMember(t, "R001", true)
	seedArrears(t, env, flagged.ID)

	// One unpaid month is open but well under the threshold.
	current := env.createMember(t, "R002", true)
	env.createObligation(t, current.ID, models.DueTypeFlatFee, pastPeriod(1), money.MustParse("50.00"))

	created, err := env.reminderSvc.GenerateReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, created)

	reminders, err := env.reminders.ListByMember(ctx, flagged.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 6)
	for _, reminder := range reminders {
		assert.Equal(t, models.ReminderSent, reminder.Status)
		assert.Contains(t, reminder.Message, flagged.FullName)
		assert.Contains(t, reminder.Message, "3 month(s)")
	}
	assert.Equal(t, 6, env.notifier.reminderCalls)

	none, err := env.reminders.ListByMember(ctx, current.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGenerateRemindersSkipsInactiveMembers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	gone := env.createMember(t, "R003", false)
	seedArrears(t, env, gone.ID)

	created, err := env.reminderSvc.GenerateReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestGenerateRemindersMarksFailedDeliveries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.notifier.fail = true

	flagged := env.createMember(t, "R004", true)
	seedArrears(t, env, flagged.ID)

	created, err := env.reminderSvc.GenerateReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, created)

	reminders, err := env.reminders.ListByMember(ctx, flagged.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 6)
	for _, reminder := range reminders {
		assert.Equal(t, models.ReminderFailed, reminder.Status)
	}
}

func TestGenerateRemindersSettledMemberIsQuiet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	member := env.createMember(t, "R005", true)
	seedArrears(t, env, member.ID)

	// A credit large enough to cover everything clears the arrears flag
	// even though the obligations themselves are still open.
	env.createCredit(t, member.ID, money.MustParse("225.00"))

	created, err := env.reminderSvc.GenerateReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}
