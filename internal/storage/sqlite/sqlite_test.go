package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equinex/backend/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestUser(t *testing.T, store *SQLiteStore, name, email string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: email, PasswordHash: "x"}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "Alice", "alice@example.com")
	assert.NotEmpty(t, alice.ID)
	assert.NotZero(t, alice.CreatedAt)

	t.Run("GetUserByID", func(t *testing.T) {
		got, err := store.GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Alice", got.Name)
	})

	t.Run("GetUserByID missing returns nil", func(t *testing.T) {
		got, err := store.GetUserByID(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("GetUserByEmail", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, alice.ID, got.ID)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		err := store.CreateUser(ctx, &models.User{Name: "Dup", Email: "alice@example.com", PasswordHash: "x"})
		assert.Error(t, err)
	})

	t.Run("GetUsersByIDs omits missing", func(t *testing.T) {
		bob := createTestUser(t, store, "Bob", "bob@example.com")
		got, err := store.GetUsersByIDs(ctx, []string{alice.ID, bob.ID, "missing"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("SearchUsers", func(t *testing.T) {
		got, err := store.SearchUsers(ctx, "ali", 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, alice.ID, got[0].ID)
	})
}

func TestGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "Alice", "alice@example.com")
	bob := createTestUser(t, store, "Bob", "bob@example.com")

	group := &models.Group{
		Name:      "Roommates",
		CreatedBy: alice.ID,
		Members: []models.Membership{
			{UserID: alice.ID, Role: models.RoleAdmin, JoinedAt: 1},
			{UserID: bob.ID, Role: models.RoleMember, JoinedAt: 2, AddedBy: alice.ID},
		},
	}
	require.NoError(t, store.CreateGroup(ctx, group))
	require.NotEmpty(t, group.ID)

	t.Run("GetGroup returns members in order", func(t *testing.T) {
		got, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Len(t, got.Members, 2)
		assert.Equal(t, alice.ID, got.Members[0].UserID)
		assert.Equal(t, models.RoleAdmin, got.Members[0].Role)
		assert.Equal(t, alice.ID, got.Members[1].AddedBy)
	})

	t.Run("ReplaceGroupMembers", func(t *testing.T) {
		require.NoError(t, store.ReplaceGroupMembers(ctx, group.ID, []models.Membership{
			{UserID: bob.ID, Role: models.RoleAdmin, JoinedAt: 2},
		}))
		got, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		require.Len(t, got.Members, 1)
		assert.Equal(t, bob.ID, got.Members[0].UserID)
	})

	t.Run("ListGroupsByMember", func(t *testing.T) {
		groups, err := store.ListGroupsByMember(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, group.ID, groups[0].ID)

		groups, err = store.ListGroupsByMember(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, groups)
	})

	t.Run("DeleteGroup cascades", func(t *testing.T) {
		expense := &models.Expense{
			Description: "Rent", Amount: 100, Date: 1,
			PaidByUserID: bob.ID, SplitType: models.SplitEqual,
			GroupID: group.ID, CreatedBy: bob.ID,
			Splits: []models.Split{{UserID: bob.ID, Amount: 100, Paid: true}},
		}
		require.NoError(t, store.CreateExpense(ctx, expense))
		require.NoError(t, store.AppendActivity(ctx, &models.ActivityEntry{
			GroupID: group.ID, Type: models.ActivityGroupCreated, PerformedBy: bob.ID,
		}))

		require.NoError(t, store.DeleteGroup(ctx, group.ID))

		got, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		gone, err := store.GetExpense(ctx, expense.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)

		entries, err := store.ActivityByGroup(ctx, group.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "Alice", "alice@example.com")
	bob := createTestUser(t, store, "Bob", "bob@example.com")
	carol := createTestUser(t, store, "Carol", "carol@example.com")

	expense := &models.Expense{
		Description:  "Dinner",
		Amount:       60,
		Date:         1000,
		PaidByUserID: alice.ID,
		SplitType:    models.SplitEqual,
		CreatedBy:    alice.ID,
		Splits: []models.Split{
			{UserID: alice.ID, Amount: 30, Paid: true},
			{UserID: bob.ID, Amount: 30},
		},
	}
	require.NoError(t, store.CreateExpense(ctx, expense))
	assert.NotEmpty(t, expense.ID)
	assert.Equal(t, "Other", expense.Category)

	t.Run("GetExpense round-trips splits", func(t *testing.T) {
		got, err := store.GetExpense(ctx, expense.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Len(t, got.Splits, 2)
		assert.True(t, got.Splits[0].Paid)
		assert.Equal(t, bob.ID, got.Splits[1].UserID)
		assert.InDelta(t, 30, got.Splits[1].Amount, 1e-9)
	})

	t.Run("ExpensesByPayer", func(t *testing.T) {
		got, err := store.ExpensesByPayer(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, got, 1)

		got, err = store.ExpensesByPayer(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ExpensesInvolving covers split holders", func(t *testing.T) {
		got, err := store.ExpensesInvolving(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, expense.ID, got[0].ID)

		got, err = store.ExpensesInvolving(ctx, carol.ID)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ExpensesInvolvingSince filters by date", func(t *testing.T) {
		got, err := store.ExpensesInvolvingSince(ctx, alice.ID, 500)
		require.NoError(t, err)
		assert.Len(t, got, 1)

		got, err = store.ExpensesInvolvingSince(ctx, alice.ID, 2000)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("UpdateExpense rewrites payer and splits", func(t *testing.T) {
		expense.PaidByUserID = bob.ID
		expense.Splits = []models.Split{{UserID: bob.ID, Amount: 60, Paid: true}}
		require.NoError(t, store.UpdateExpense(ctx, expense))

		got, err := store.GetExpense(ctx, expense.ID)
		require.NoError(t, err)
		assert.Equal(t, bob.ID, got.PaidByUserID)
		require.Len(t, got.Splits, 1)
	})

	t.Run("DeleteExpense", func(t *testing.T) {
		require.NoError(t, store.DeleteExpense(ctx, expense.ID))
		got, err := store.GetExpense(ctx, expense.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Error(t, store.DeleteExpense(ctx, expense.ID))
	})
}

func TestSettlements(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "Alice", "alice@example.com")
	bob := createTestUser(t, store, "Bob", "bob@example.com")
	carol := createTestUser(t, store, "Carol", "carol@example.com")

	st := &models.Settlement{
		Amount:           25,
		Note:             "lunch payback",
		PaidByUserID:     bob.ID,
		ReceivedByUserID: alice.ID,
		CreatedBy:        bob.ID,
	}
	require.NoError(t, store.CreateSettlement(ctx, st))
	assert.NotEmpty(t, st.ID)
	assert.NotZero(t, st.Date)

	t.Run("SettlementsBetween both directions", func(t *testing.T) {
		got, err := store.SettlementsBetween(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "lunch payback", got[0].Note)

		got, err = store.SettlementsBetween(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.Len(t, got, 1)

		got, err = store.SettlementsBetween(ctx, alice.ID, carol.ID)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("SettlementsInvolving", func(t *testing.T) {
		got, err := store.SettlementsInvolving(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, got, 1)

		got, err = store.SettlementsInvolving(ctx, carol.ID)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("DeleteSettlement", func(t *testing.T) {
		require.NoError(t, store.DeleteSettlement(ctx, st.ID))
		assert.Error(t, store.DeleteSettlement(ctx, st.ID))
	})
}

func TestActivityLog(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "Alice", "alice@example.com")
	group := &models.Group{
		Name: "Trip", CreatedBy: alice.ID,
		Members: []models.Membership{{UserID: alice.ID, Role: models.RoleAdmin, JoinedAt: 1}},
	}
	require.NoError(t, store.CreateGroup(ctx, group))

	require.NoError(t, store.AppendActivity(ctx, &models.ActivityEntry{
		GroupID: group.ID, Type: models.ActivityGroupCreated,
		PerformedBy: alice.ID, Timestamp: 100,
		Metadata: models.ActivityMetadata{MemberCount: 1},
	}))
	require.NoError(t, store.AppendActivity(ctx, &models.ActivityEntry{
		GroupID: group.ID, Type: models.ActivityMembersAddedBulk,
		PerformedBy: alice.ID, Timestamp: 200,
		TargetUserIDs: []string{"u1", "u2"},
		Metadata:      models.ActivityMetadata{MemberCount: 3, AddedCount: 2},
	}))

	entries, err := store.ActivityByGroup(ctx, group.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActivityMembersAddedBulk, entries[0].Type) // newest first
	assert.Equal(t, []string{"u1", "u2"}, entries[0].TargetUserIDs)
	assert.Equal(t, 2, entries[0].Metadata.AddedCount)
	assert.Equal(t, models.ActivityGroupCreated, entries[1].Type)

	limited, err := store.ActivityByGroup(ctx, group.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
