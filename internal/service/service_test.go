package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/equinex/backend/internal/models"
	"github.com/equinex/backend/internal/storage"
	"github.com/equinex/backend/internal/storage/sqlite"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func createUser(t *testing.T, store storage.Store, name, email string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: email, PasswordHash: "x"}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

// createGroup persists a group with the first user as admin.
func createGroup(t *testing.T, store storage.Store, name string, users ...*models.User) *models.Group {
	t.Helper()
	members := make([]models.Membership, len(users))
	for i, u := range users {
		role := models.RoleMember
		if i == 0 {
			role = models.RoleAdmin
		}
		members[i] = models.Membership{UserID: u.ID, Role: role, JoinedAt: 1}
	}
	group := &models.Group{Name: name, CreatedBy: users[0].ID, Members: members}
	require.NoError(t, store.CreateGroup(context.Background(), group))
	return group
}

// addExpense persists an equal-split expense paid by payer, with the
// payer's own share marked paid.
func addExpense(t *testing.T, store storage.Store, groupID string, payer *models.User, amount float64, participants ...*models.User) *models.Expense {
	t.Helper()
	share := amount / float64(len(participants))
	splits := make([]models.Split, len(participants))
	for i, p := range participants {
		splits[i] = models.Split{UserID: p.ID, Amount: share, Paid: p.ID == payer.ID}
	}
	expense := &models.Expense{
		Description:  "test expense",
		Amount:       amount,
		Category:     "Other",
		Date:         1000,
		PaidByUserID: payer.ID,
		SplitType:    models.SplitEqual,
		Splits:       splits,
		GroupID:      groupID,
		CreatedBy:    payer.ID,
	}
	require.NoError(t, store.CreateExpense(context.Background(), expense))
	return expense
}

// requireSingleAdmin asserts the exactly-one-admin invariant.
func requireSingleAdmin(t *testing.T, store storage.Store, groupID string) {
	t.Helper()
	group, err := store.GetGroup(context.Background(), groupID)
	require.NoError(t, err)
	require.NotNil(t, group)
	admins := 0
	for _, m := range group.Members {
		if m.Role == models.RoleAdmin {
			admins++
		}
	}
	require.Equal(t, 1, admins, "group must have exactly one admin")
}
