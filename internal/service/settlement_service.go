package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/equinex/backend/internal/ledger"
	"github.com/equinex/backend/internal/models"
	"github.com/equinex/backend/internal/storage"
)

// SettlementService validates and records settlements. Every settlement
// is checked against the freshly recomputed balance; caller-supplied
// balance figures are never trusted.
type SettlementService struct {
	store storage.Store
}

// NewSettlementService creates a SettlementService with the given storage backend.
func NewSettlementService(store storage.Store) *SettlementService {
	return &SettlementService{store: store}
}

// CreateSettlementInput carries the caller-supplied settlement fields.
type CreateSettlementInput struct {
	Amount            float64
	Note              string
	PaidByUserID      string
	ReceivedByUserID  string
	GroupID           string
	RelatedExpenseIDs []string
}

// Create validates a proposed settlement against the current ledger and
// persists it with a server-assigned timestamp. The checks run in a
// fixed order so each failure surfaces its own reason.
func (s *SettlementService) Create(ctx context.Context, callerID string, in CreateSettlementInput) (string, error) {
	if in.Amount <= 0 {
		return "", validationf("amount must be positive")
	}
	if in.PaidByUserID == in.ReceivedByUserID {
		return "", validationf("payer and receiver cannot be the same")
	}
	if callerID != in.PaidByUserID && callerID != in.ReceivedByUserID {
		return "", unauthorizedf("you must be either the payer or the receiver")
	}

	expenses, settlements, err := s.relationshipRecords(ctx, in)
	if err != nil {
		return "", err
	}

	owed := ledger.SettlementOwed(in.PaidByUserID, in.ReceivedByUserID, expenses, settlements)
	switch {
	case ledger.Settled(owed):
		return "", conflictf("nothing to settle, the balance is already zero")
	case owed < 0:
		return "", conflictf("balance is reversed, the receiver owes the payer")
	case in.Amount > owed+ledger.Epsilon:
		return "", conflictf("settlement of %.2f exceeds actual balance of %.2f", in.Amount, owed)
	}

	settlement := &models.Settlement{
		Amount:            in.Amount,
		Note:              in.Note,
		Date:              time.Now().UnixMilli(),
		PaidByUserID:      in.PaidByUserID,
		ReceivedByUserID:  in.ReceivedByUserID,
		GroupID:           in.GroupID,
		RelatedExpenseIDs: in.RelatedExpenseIDs,
		CreatedBy:         callerID,
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		return "", internal("failed to create settlement", err)
	}

	slog.Info("settlement created",
		"settlement_id", settlement.ID,
		"amount", settlement.Amount,
		"payer", settlement.PaidByUserID,
		"receiver", settlement.ReceivedByUserID,
		"group_id", settlement.GroupID,
	)
	return settlement.ID, nil
}

// relationshipRecords loads the records the proposed settlement nets
// against: the group's records for a group settlement, the pair's
// one-to-one records otherwise.
func (s *SettlementService) relationshipRecords(ctx context.Context, in CreateSettlementInput) ([]models.Expense, []models.Settlement, error) {
	if in.GroupID != "" {
		group, err := s.store.GetGroup(ctx, in.GroupID)
		if err != nil {
			return nil, nil, internal("failed to load group", err)
		}
		if group == nil {
			return nil, nil, notFoundf("group not found")
		}
		if !group.IsMember(in.PaidByUserID) || !group.IsMember(in.ReceivedByUserID) {
			return nil, nil, validationf("both parties must be group members")
		}
		expenses, err := s.store.ExpensesByGroup(ctx, in.GroupID)
		if err != nil {
			return nil, nil, internal("failed to load group expenses", err)
		}
		settlements, err := s.store.SettlementsByGroup(ctx, in.GroupID)
		if err != nil {
			return nil, nil, internal("failed to load group settlements", err)
		}
		return expenses, settlements, nil
	}

	users, err := s.store.GetUsersByIDs(ctx, []string{in.PaidByUserID, in.ReceivedByUserID})
	if err != nil {
		return nil, nil, internal("failed to load users", err)
	}
	for _, id := range []string{in.PaidByUserID, in.ReceivedByUserID} {
		if users[id] == nil {
			return nil, nil, notFoundf("user %s not found", id)
		}
	}

	paidByPayer, err := s.store.ExpensesByPayer(ctx, in.PaidByUserID)
	if err != nil {
		return nil, nil, internal("failed to load expenses", err)
	}
	paidByReceiver, err := s.store.ExpensesByPayer(ctx, in.ReceivedByUserID)
	if err != nil {
		return nil, nil, internal("failed to load expenses", err)
	}
	var expenses []models.Expense
	for _, exp := range append(paidByPayer, paidByReceiver...) {
		if exp.GroupID == "" && exp.Involves(in.PaidByUserID) && exp.Involves(in.ReceivedByUserID) {
			expenses = append(expenses, exp)
		}
	}

	between, err := s.store.SettlementsBetween(ctx, in.PaidByUserID, in.ReceivedByUserID)
	if err != nil {
		return nil, nil, internal("failed to load settlements", err)
	}
	var settlements []models.Settlement
	for _, st := range between {
		if st.GroupID == "" {
			settlements = append(settlements, st)
		}
	}
	return expenses, settlements, nil
}

// CleanupOrphaned scans the caller's settlements and deletes every one
// whose relationship (group, or one-to-one pair) no longer has any
// expense backing it. Idempotent: a second run right after the first
// deletes nothing.
func (s *SettlementService) CleanupOrphaned(ctx context.Context, callerID string) (int, error) {
	settlements, err := s.store.SettlementsInvolving(ctx, callerID)
	if err != nil {
		return 0, internal("failed to load settlements", err)
	}

	// Each group or pair is checked once per run.
	hasExpenses := make(map[string]bool)

	deleted := 0
	for _, st := range settlements {
		key := relationshipKey(&st)
		backed, known := hasExpenses[key]
		if !known {
			backed, err = s.relationshipHasExpenses(ctx, &st)
			if err != nil {
				return deleted, err
			}
			hasExpenses[key] = backed
		}
		if backed {
			continue
		}
		if err := s.store.DeleteSettlement(ctx, st.ID); err != nil {
			return deleted, internal("failed to delete orphaned settlement", err)
		}
		deleted++
	}

	if deleted > 0 {
		slog.Info("orphaned settlements cleaned up", "count", deleted, "user_id", callerID)
	}
	return deleted, nil
}

func relationshipKey(st *models.Settlement) string {
	if st.GroupID != "" {
		return "g:" + st.GroupID
	}
	a, b := st.PaidByUserID, st.ReceivedByUserID
	if a > b {
		a, b = b, a
	}
	return "p:" + a + ":" + b
}

func (s *SettlementService) relationshipHasExpenses(ctx context.Context, st *models.Settlement) (bool, error) {
	if st.GroupID != "" {
		expenses, err := s.store.ExpensesByGroup(ctx, st.GroupID)
		if err != nil {
			return false, internal("failed to load group expenses", err)
		}
		return len(expenses) > 0, nil
	}

	paidByPayer, err := s.store.ExpensesByPayer(ctx, st.PaidByUserID)
	if err != nil {
		return false, internal("failed to load expenses", err)
	}
	paidByReceiver, err := s.store.ExpensesByPayer(ctx, st.ReceivedByUserID)
	if err != nil {
		return false, internal("failed to load expenses", err)
	}
	for _, exp := range append(paidByPayer, paidByReceiver...) {
		if exp.GroupID == "" && exp.Involves(st.PaidByUserID) && exp.Involves(st.ReceivedByUserID) {
			return true, nil
		}
	}
	return false, nil
}
