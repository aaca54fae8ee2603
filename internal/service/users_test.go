package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertFromIdentityEventCreatesUser(t *testing.T) {
	users := newFakeUserStore()
	events := &fakeEvents{}
	svc := NewUserService(users, events)

	user, err := svc.UpsertFromIdentityEvent(context.Background(), "subj_1", "alice@example.com", "Alice Smith")

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "subj_1", user.SubjectID)
	assert.Len(t, events.registered, 1)
}

func TestUpsertFromIdentityEventDuplicateIsNoOp(t *testing.T) {
	users := newFakeUserStore()
	events := &fakeEvents{}
	svc := NewUserService(users, events)
	ctx := context.Background()

	first, err := svc.UpsertFromIdentityEvent(ctx, "subj_1", "alice@example.com", "Alice Smith")
	require.NoError(t, err)

	second, err := svc.UpsertFromIdentityEvent(ctx, "subj_1", "other@example.com", "Someone Else")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "alice@example.com", second.Email, "existing record wins")
	assert.Len(t, events.registered, 1, "redelivery publishes no second event")
}
