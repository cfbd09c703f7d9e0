// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/equinex/backend/internal/models"
)

// Store defines the persistence interface for the core services.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
//
// Lookup methods marked "indexed" must be backed by real secondary
// indexes: the services narrow by payer/receiver/group/date here and only
// filter the already-narrowed result in memory.
type Store interface {
	UserStore
	GroupStore
	ExpenseStore
	SettlementStore
	ActivityStore

	// Close releases any resources held by the store.
	Close() error
}

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser persists a new user. The user.ID and CreatedAt fields
	// are populated by the store when unset.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID returns the user, or (nil, nil) when absent.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUserByEmail returns the user, or (nil, nil) when absent.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUsersByIDs returns the found users keyed by ID; missing IDs are
	// simply omitted.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// SearchUsers matches name or email by case-insensitive substring.
	SearchUsers(ctx context.Context, query string, limit int) ([]*models.User, error)
}

// GroupStore persists groups and their membership lists.
type GroupStore interface {
	// CreateGroup persists a new group with its members. ID and
	// CreatedAt are populated by the store when unset.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup returns the group with members, or (nil, nil) when absent.
	GetGroup(ctx context.Context, id string) (*models.Group, error)

	// ReplaceGroupMembers atomically rewrites the group's membership list.
	ReplaceGroupMembers(ctx context.Context, groupID string, members []models.Membership) error

	// DeleteGroup removes the group, its memberships, its expenses, its
	// settlements and its activity log in one transaction.
	DeleteGroup(ctx context.Context, groupID string) error

	// ListGroupsByMember returns every group userID belongs to (indexed).
	ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error)
}

// ExpenseStore persists expenses and their splits.
type ExpenseStore interface {
	// CreateExpense persists a new expense with its splits. ID and
	// CreatedAt are populated by the store when unset.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense returns the expense with splits, or (nil, nil) when absent.
	GetExpense(ctx context.Context, id string) (*models.Expense, error)

	// UpdateExpense rewrites an existing expense and its splits.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes an expense and its splits.
	DeleteExpense(ctx context.Context, id string) error

	// ExpensesByPayer returns expenses paid by userID (indexed).
	ExpensesByPayer(ctx context.Context, userID string) ([]models.Expense, error)

	// ExpensesByGroup returns the group's expenses, newest first (indexed).
	ExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error)

	// ExpensesInvolving returns expenses where userID is the payer or
	// holds a split (indexed on both sides, deduplicated).
	ExpensesInvolving(ctx context.Context, userID string) ([]models.Expense, error)

	// ExpensesInvolvingSince is ExpensesInvolving restricted to expenses
	// dated at or after the given Unix millisecond timestamp (indexed).
	ExpensesInvolvingSince(ctx context.Context, userID string, since int64) ([]models.Expense, error)
}

// SettlementStore persists settlements.
type SettlementStore interface {
	// CreateSettlement persists a new settlement. The ID is populated by
	// the store when unset.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// DeleteSettlement removes a settlement.
	DeleteSettlement(ctx context.Context, id string) error

	// SettlementsBetween returns settlements in either direction between
	// the two users, newest first (indexed).
	SettlementsBetween(ctx context.Context, userA, userB string) ([]models.Settlement, error)

	// SettlementsByGroup returns the group's settlements, newest first (indexed).
	SettlementsByGroup(ctx context.Context, groupID string) ([]models.Settlement, error)

	// SettlementsInvolving returns settlements where userID is payer or
	// receiver (indexed on both sides).
	SettlementsInvolving(ctx context.Context, userID string) ([]models.Settlement, error)
}

// ActivityStore persists the append-only group audit trail.
type ActivityStore interface {
	// AppendActivity writes one activity entry. Entries are immutable;
	// they disappear only when DeleteGroup cascades.
	AppendActivity(ctx context.Context, entry *models.ActivityEntry) error

	// ActivityByGroup returns up to limit entries, newest first (indexed).
	ActivityByGroup(ctx context.Context, groupID string, limit int) ([]models.ActivityEntry, error)
}
