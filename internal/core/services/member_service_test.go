package services

import (
	"context"
	"testing"

	"assofund/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInactiveMemberStaysOutOfBatchRoster(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createMember(t, "S001", true)
	dormant := env.createMember(t, "S002", false)

	// The inactive flag must survive the insert as stored, not be
	// overwritten by a column default.
	stored, err := env.members.GetByID(ctx, dormant.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	active, err := env.members.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "S001", active[0].MembNo)
}

func TestSetActiveRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewMemberService(env.members)

	member, err := svc.Create(ctx, &CreateMemberInput{MembNo: "S003", FullName: "Roster Test"})
	require.NoError(t, err)
	assert.True(t, member.IsActive)

	_, err = svc.SetActive(ctx, "S003", false)
	require.NoError(t, err)

	active, err := env.members.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = svc.SetActive(ctx, "S003", true)
	require.NoError(t, err)

	active, err = env.members.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestMemberServiceValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewMemberService(env.members)

	_, err := svc.Create(ctx, &CreateMemberInput{MembNo: "", FullName: "No Number"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, &CreateMemberInput{MembNo: "S004", FullName: "First"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &CreateMemberInput{MembNo: "S004", FullName: "Second"})
	assert.ErrorIs(t, err, domain.ErrMemberAlreadyExists)
}
