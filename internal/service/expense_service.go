package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/equinex/backend/internal/ledger"
	"github.com/equinex/backend/internal/models"
	"github.com/equinex/backend/internal/storage"
)

// ExpenseService creates and deletes expenses and keeps settlements
// consistent when the expenses backing them go away.
type ExpenseService struct {
	store storage.Store
}

// NewExpenseService creates an ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

// CreateExpenseInput carries the caller-supplied expense fields. Splits
// arrive pre-computed regardless of split type and must sum to Amount.
type CreateExpenseInput struct {
	Description  string
	Amount       float64
	Category     string
	Date         int64
	PaidByUserID string
	SplitType    string
	Splits       []models.Split
	GroupID      string
}

// Create validates and persists a new expense, returning its ID.
func (s *ExpenseService) Create(ctx context.Context, callerID string, in CreateExpenseInput) (string, error) {
	if in.Amount <= 0 {
		return "", validationf("amount must be positive")
	}
	if len(in.Splits) == 0 {
		return "", validationf("expense needs at least one split")
	}
	if !ledger.SplitsSumToAmount(in.Splits, in.Amount) {
		return "", validationf("split amounts do not sum to the expense amount")
	}

	participants := map[string]bool{in.PaidByUserID: true}
	for _, split := range in.Splits {
		if split.Amount < 0 {
			return "", validationf("split amounts cannot be negative")
		}
		if participants[split.UserID] && split.UserID != in.PaidByUserID {
			return "", validationf("duplicate split for user %s", split.UserID)
		}
		participants[split.UserID] = true
	}
	if !participants[callerID] {
		return "", unauthorizedf("you must participate in the expense")
	}

	if in.GroupID != "" {
		group, err := s.store.GetGroup(ctx, in.GroupID)
		if err != nil {
			return "", internal("failed to load group", err)
		}
		if group == nil {
			return "", notFoundf("group not found")
		}
		if !group.IsMember(in.PaidByUserID) {
			return "", validationf("payer is not a group member")
		}
		for id := range participants {
			if !group.IsMember(id) {
				return "", validationf("user %s is not a group member", id)
			}
		}
	} else {
		ids := make([]string, 0, len(participants))
		for id := range participants {
			ids = append(ids, id)
		}
		users, err := s.store.GetUsersByIDs(ctx, ids)
		if err != nil {
			return "", internal("failed to load users", err)
		}
		for _, id := range ids {
			if users[id] == nil {
				return "", notFoundf("user %s not found", id)
			}
		}
	}

	expense := &models.Expense{
		Description:  in.Description,
		Amount:       in.Amount,
		Category:     in.Category,
		Date:         in.Date,
		PaidByUserID: in.PaidByUserID,
		SplitType:    in.SplitType,
		Splits:       in.Splits,
		GroupID:      in.GroupID,
		CreatedBy:    callerID,
	}
	if expense.Category == "" {
		expense.Category = "Other"
	}
	if expense.Date == 0 {
		expense.Date = time.Now().UnixMilli()
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return "", internal("failed to create expense", err)
	}

	slog.Info("expense created",
		"expense_id", expense.ID,
		"amount", expense.Amount,
		"group_id", expense.GroupID,
		"created_by", callerID,
	)
	return expense.ID, nil
}

// Delete removes an expense. Only the creator or the payer may delete.
// When the deleted expense was the last one backing a settlement
// relationship (same group, or same one-to-one pair), the now-baseless
// settlements are deleted too so balances cannot go negative out of
// nowhere.
func (s *ExpenseService) Delete(ctx context.Context, callerID, expenseID string) error {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return internal("failed to load expense", err)
	}
	if expense == nil {
		return notFoundf("expense not found")
	}
	if expense.CreatedBy != callerID && expense.PaidByUserID != callerID {
		return unauthorizedf("only the creator or the payer can delete an expense")
	}

	if err := s.store.DeleteExpense(ctx, expenseID); err != nil {
		return internal("failed to delete expense", err)
	}
	slog.Info("expense deleted", "expense_id", expenseID, "deleted_by", callerID)

	// Best effort: the expense itself is already gone.
	if err := s.cascadeSettlements(ctx, expense); err != nil {
		slog.Warn("settlement cascade after expense deletion failed",
			"expense_id", expenseID,
			"error", err,
		)
	}
	return nil
}

// cascadeSettlements deletes the settlements of the deleted expense's
// relationship when no expenses remain to back them.
func (s *ExpenseService) cascadeSettlements(ctx context.Context, deleted *models.Expense) error {
	if deleted.GroupID != "" {
		remaining, err := s.store.ExpensesByGroup(ctx, deleted.GroupID)
		if err != nil {
			return err
		}
		if len(remaining) > 0 {
			return nil
		}
		settlements, err := s.store.SettlementsByGroup(ctx, deleted.GroupID)
		if err != nil {
			return err
		}
		return s.deleteSettlements(ctx, settlements)
	}

	// One-to-one: check each counterpart pair separately.
	for _, counterpartID := range counterparts(deleted) {
		shared, err := s.pairExpenseCount(ctx, deleted.PaidByUserID, counterpartID)
		if err != nil {
			return err
		}
		if shared > 0 {
			continue
		}
		settlements, err := s.store.SettlementsBetween(ctx, deleted.PaidByUserID, counterpartID)
		if err != nil {
			return err
		}
		var orphaned []models.Settlement
		for _, st := range settlements {
			if st.GroupID == "" {
				orphaned = append(orphaned, st)
			}
		}
		if err := s.deleteSettlements(ctx, orphaned); err != nil {
			return err
		}
	}
	return nil
}

func (s *ExpenseService) pairExpenseCount(ctx context.Context, userA, userB string) (int, error) {
	paidByA, err := s.store.ExpensesByPayer(ctx, userA)
	if err != nil {
		return 0, err
	}
	paidByB, err := s.store.ExpensesByPayer(ctx, userB)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, exp := range append(paidByA, paidByB...) {
		if exp.GroupID == "" && exp.Involves(userA) && exp.Involves(userB) {
			count++
		}
	}
	return count, nil
}

func (s *ExpenseService) deleteSettlements(ctx context.Context, settlements []models.Settlement) error {
	for _, st := range settlements {
		if err := s.store.DeleteSettlement(ctx, st.ID); err != nil {
			return err
		}
		slog.Info("orphaned settlement deleted", "settlement_id", st.ID)
	}
	return nil
}

// counterparts returns the expense participants other than the payer.
func counterparts(expense *models.Expense) []string {
	var ids []string
	for _, split := range expense.Splits {
		if split.UserID != expense.PaidByUserID {
			ids = append(ids, split.UserID)
		}
	}
	return ids
}
