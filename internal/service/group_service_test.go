package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equinex/backend/internal/models"
	"github.com/equinex/backend/internal/notify"
)

type recordingDispatcher struct {
	invites []notify.Invite
}

func (r *recordingDispatcher) Enqueue(invite notify.Invite) {
	r.invites = append(r.invites, invite)
}

func TestCreateGroup(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewGroupService(store, nil)

	alice := createUser(t, store, "Alice", "alice@example.com")
	bob := createUser(t, store, "Bob", "bob@example.com")

	t.Run("creator becomes admin", func(t *testing.T) {
		group, err := svc.Create(ctx, alice.ID, "Roommates", "", []string{bob.ID, bob.ID, alice.ID})
		require.NoError(t, err)
		require.Len(t, group.Members, 2)
		assert.True(t, group.IsAdmin(alice.ID))
		assert.True(t, group.IsMember(bob.ID))
		requireSingleAdmin(t, store, group.ID)

		log, err := svc.ActivityLog(ctx, alice.ID, group.ID, 10)
		require.NoError(t, err)
		require.Len(t, log, 1)
		assert.Equal(t, models.ActivityGroupCreated, log[0].Type)
	})

	t.Run("unknown initial member rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, alice.ID, "Bad", "", []string{"missing"})
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("name required", func(t *testing.T) {
		_, err := svc.Create(ctx, alice.ID, "", "", nil)
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})
}

func TestAddMembers(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	dispatcher := &recordingDispatcher{}
	svc := NewGroupService(store, dispatcher)

	alice := createUser(t, store, "Alice", "alice@example.com")
	bob := createUser(t, store, "Bob", "bob@example.com")
	carol := createUser(t, store, "Carol", "carol@example.com")
	dave := createUser(t, store, "Dave", "dave@example.com")
	group := createGroup(t, store, "Trip", alice, bob)

	t.Run("admin only", func(t *testing.T) {
		_, err := svc.AddMembers(ctx, bob.ID, group.ID, []string{carol.ID})
		require.Error(t, err)
		assert.Equal(t, KindUnauthorized, KindOf(err))
	})

	t.Run("all already members", func(t *testing.T) {
		_, err := svc.AddMembers(ctx, alice.ID, group.ID, []string{bob.ID})
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.AddMembers(ctx, alice.ID, group.ID, []string{"missing"})
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("bulk add logs one entry and queues invites", func(t *testing.T) {
		added, err := svc.AddMembers(ctx, alice.ID, group.ID, []string{carol.ID, dave.ID, bob.ID})
		require.NoError(t, err)
		assert.Equal(t, 2, added)

		log, err := svc.ActivityLog(ctx, alice.ID, group.ID, 10)
		require.NoError(t, err)
		require.NotEmpty(t, log)
		assert.Equal(t, models.ActivityMembersAddedBulk, log[0].Type)
		assert.Equal(t, 2, log[0].Metadata.AddedCount)
		assert.Equal(t, 4, log[0].Metadata.MemberCount)

		require.Len(t, dispatcher.invites, 2)
		assert.Equal(t, "carol@example.com", dispatcher.invites[0].RecipientEmail)
		assert.Equal(t, "Trip", dispatcher.invites[0].GroupName)
		assert.Equal(t, "Alice", dispatcher.invites[0].InviterName)

		requireSingleAdmin(t, store, group.ID)
	})
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewGroupService(store, nil)
	settlements := NewSettlementService(store)

	alice := createUser(t, store, "Alice", "alice@example.com")
	bob := createUser(t, store, "Bob", "bob@example.com")
	carol := createUser(t, store, "Carol", "carol@example.com")
	group := createGroup(t, store, "Trip", alice, bob, carol)

	// Bob paid 60 split three ways, and settled 30 of what he owed Alice
	// on her 90 expense.
	expByAlice := addExpense(t, store, group.ID, alice, 90, alice, bob, carol)
	expByBob := addExpense(t, store, group.ID, bob, 60, alice, bob, carol)
	_, err := settlements.Create(ctx, bob.ID, CreateSettlementInput{
		Amount: 10, PaidByUserID: bob.ID, ReceivedByUserID: alice.ID, GroupID: group.ID,
	})
	require.NoError(t, err)

	t.Run("self-removal rejected", func(t *testing.T) {
		err := svc.RemoveMember(ctx, alice.ID, group.ID, alice.ID)
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("admin only", func(t *testing.T) {
		err := svc.RemoveMember(ctx, bob.ID, group.ID, carol.ID)
		require.Error(t, err)
		assert.Equal(t, KindUnauthorized, KindOf(err))
	})

	t.Run("non-member rejected", func(t *testing.T) {
		dave := createUser(t, store, "Dave", "dave@example.com")
		err := svc.RemoveMember(ctx, alice.ID, group.ID, dave.ID)
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("removal cascades splits, payer and settlements", func(t *testing.T) {
		require.NoError(t, svc.RemoveMember(ctx, alice.ID, group.ID, bob.ID))

		updated, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.False(t, updated.IsMember(bob.ID))
		requireSingleAdmin(t, store, group.ID)

		// Bob's split is gone from Alice's expense.
		got, err := store.GetExpense(ctx, expByAlice.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Nil(t, got.SplitFor(bob.ID))
		assert.Len(t, got.Splits, 2)

		// Bob's own expense gets a new payer whose split is marked paid.
		got, err = store.GetExpense(ctx, expByBob.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.NotEqual(t, bob.ID, got.PaidByUserID)
		newPayerSplit := got.SplitFor(got.PaidByUserID)
		require.NotNil(t, newPayerSplit)
		assert.True(t, newPayerSplit.Paid)

		// Bob's settlements are void.
		left, err := store.SettlementsByGroup(ctx, group.ID)
		require.NoError(t, err)
		for _, st := range left {
			assert.False(t, st.Involves(bob.ID))
		}

		log, err := svc.ActivityLog(ctx, alice.ID, group.ID, 10)
		require.NoError(t, err)
		require.NotEmpty(t, log)
		assert.Equal(t, models.ActivityMemberRemoved, log[0].Type)
		assert.Equal(t, bob.ID, log[0].TargetUserID)
	})

	t.Run("sole-split expense is deleted with the member", func(t *testing.T) {
		soloGroup := createGroup(t, store, "Solo", alice, carol)
		exp := addExpense(t, store, soloGroup.ID, alice, 25, carol)

		require.NoError(t, svc.RemoveMember(ctx, alice.ID, soloGroup.ID, carol.ID))

		got, err := store.GetExpense(ctx, exp.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestTransferAdmin(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewGroupService(store, nil)

	alice := createUser(t, store, "Alice", "alice@example.com")
	bob := createUser(t, store, "Bob", "bob@example.com")
	group := createGroup(t, store, "Trip", alice, bob)

	t.Run("self-transfer rejected", func(t *testing.T) {
		err := svc.TransferAdmin(ctx, alice.ID, group.ID, alice.ID)
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("target must be a member", func(t *testing.T) {
		err := svc.TransferAdmin(ctx, alice.ID, group.ID, "missing")
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("transfers the role", func(t *testing.T) {
		require.NoError(t, svc.TransferAdmin(ctx, alice.ID, group.ID, bob.ID))

		updated, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.True(t, updated.IsAdmin(bob.ID))
		assert.False(t, updated.IsAdmin(alice.ID))
		requireSingleAdmin(t, store, group.ID)

		log, err := svc.ActivityLog(ctx, alice.ID, group.ID, 10)
		require.NoError(t, err)
		require.NotEmpty(t, log)
		assert.Equal(t, models.ActivityAdminTransferred, log[0].Type)
	})
}

func TestLeaveGroup(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewGroupService(store, nil)

	alice := createUser(t, store, "Alice", "alice@example.com")
	bob := createUser(t, store, "Bob", "bob@example.com")
	carol := createUser(t, store, "Carol", "carol@example.com")

	t.Run("admin must name a successor", func(t *testing.T) {
		group := createGroup(t, store, "Trip", alice, bob, carol)

		err := svc.Leave(ctx, alice.ID, group.ID, "")
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))

		require.NoError(t, svc.Leave(ctx, alice.ID, group.ID, carol.ID))

		updated, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.False(t, updated.IsMember(alice.ID))
		assert.True(t, updated.IsAdmin(carol.ID))
		requireSingleAdmin(t, store, group.ID)
	})

	t.Run("non-member cannot leave", func(t *testing.T) {
		group := createGroup(t, store, "Duo", alice, bob)
		err := svc.Leave(ctx, carol.ID, group.ID, "")
		require.Error(t, err)
		assert.Equal(t, KindUnauthorized, KindOf(err))
	})

	t.Run("last member leaving deletes the group", func(t *testing.T) {
		group := createGroup(t, store, "Lonely", alice)
		addExpense(t, store, group.ID, alice, 10, alice)

		require.NoError(t, svc.Leave(ctx, alice.ID, group.ID, ""))

		gone, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)

		expenses, err := store.ExpensesByGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Empty(t, expenses)
	})
}

func TestDeleteGroup(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewGroupService(store, nil)

	alice := createUser(t, store, "Alice", "alice@example.com")
	bob := createUser(t, store, "Bob", "bob@example.com")
	group := createGroup(t, store, "Trip", alice, bob)
	addExpense(t, store, group.ID, alice, 50, alice, bob)

	t.Run("admin only", func(t *testing.T) {
		err := svc.Delete(ctx, bob.ID, group.ID)
		require.Error(t, err)
		assert.Equal(t, KindUnauthorized, KindOf(err))
	})

	t.Run("deletes the group and its records", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, alice.ID, group.ID))

		gone, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)

		expenses, err := store.ExpensesByGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Empty(t, expenses)
	})

	t.Run("activity log of a deleted group reads empty", func(t *testing.T) {
		log, err := svc.ActivityLog(ctx, alice.ID, group.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, log)
	})
}
