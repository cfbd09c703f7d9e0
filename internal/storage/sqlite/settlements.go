package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/equinex/backend/internal/models"
)

const settlementColumns = "id, amount, note, date, paid_by, received_by, group_id, created_by"

// CreateSettlement persists a new settlement to the database.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.Date == 0 {
		settlement.Date = nowMillis()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var note any
	if settlement.Note != "" {
		note = settlement.Note
	}
	var groupID any
	if settlement.GroupID != "" {
		groupID = settlement.GroupID
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO settlements ("+settlementColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		settlement.ID, settlement.Amount, note, settlement.Date,
		settlement.PaidByUserID, settlement.ReceivedByUserID, groupID, settlement.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	for _, expenseID := range settlement.RelatedExpenseIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO settlement_expenses (settlement_id, expense_id) VALUES (?, ?)",
			settlement.ID, expenseID,
		)
		if err != nil {
			return fmt.Errorf("failed to link settlement expense: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteSettlement removes a settlement by ID.
func (s *SQLiteStore) DeleteSettlement(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM settlements WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("settlement not found: %s", id)
	}
	return nil
}

// SettlementsBetween returns settlements in either direction between two users.
func (s *SQLiteStore) SettlementsBetween(ctx context.Context, userA, userB string) ([]models.Settlement, error) {
	return s.querySettlements(ctx,
		`SELECT `+settlementColumns+` FROM settlements
		 WHERE (paid_by = ? AND received_by = ?) OR (paid_by = ? AND received_by = ?)
		 ORDER BY date DESC`,
		userA, userB, userB, userA)
}

// SettlementsByGroup returns the group's settlements, newest first.
func (s *SQLiteStore) SettlementsByGroup(ctx context.Context, groupID string) ([]models.Settlement, error) {
	return s.querySettlements(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE group_id = ? ORDER BY date DESC", groupID)
}

// SettlementsInvolving returns settlements where userID is payer or receiver.
func (s *SQLiteStore) SettlementsInvolving(ctx context.Context, userID string) ([]models.Settlement, error) {
	return s.querySettlements(ctx,
		`SELECT `+settlementColumns+` FROM settlements
		 WHERE paid_by = ? OR received_by = ?
		 ORDER BY date DESC`,
		userID, userID)
}

func (s *SQLiteStore) querySettlements(ctx context.Context, query string, args ...any) ([]models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements: %w", err)
	}
	defer rows.Close()

	var settlements []models.Settlement
	for rows.Next() {
		var st models.Settlement
		var note, groupID sql.NullString
		if err := rows.Scan(&st.ID, &st.Amount, &note, &st.Date,
			&st.PaidByUserID, &st.ReceivedByUserID, &groupID, &st.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		st.Note = note.String
		st.GroupID = groupID.String
		settlements = append(settlements, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	for i := range settlements {
		related, err := s.relatedExpenseIDs(ctx, settlements[i].ID)
		if err != nil {
			return nil, err
		}
		settlements[i].RelatedExpenseIDs = related
	}
	return settlements, nil
}

func (s *SQLiteStore) relatedExpenseIDs(ctx context.Context, settlementID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT expense_id FROM settlement_expenses WHERE settlement_id = ?", settlementID)
	if err != nil {
		return nil, fmt.Errorf("failed to get related expenses: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan related expense: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate related expenses: %w", err)
	}
	return ids, nil
}
