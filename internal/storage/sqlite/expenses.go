package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/equinex/backend/internal/models"
)

const expenseColumns = "id, description, amount, category, date, paid_by, split_type, group_id, created_by, created_at"

// CreateExpense persists a new expense with its splits.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = nowMillis()
	}
	if expense.Category == "" {
		expense.Category = "Other"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var groupID any
	if expense.GroupID != "" {
		groupID = expense.GroupID
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		expense.ID, expense.Description, expense.Amount, expense.Category, expense.Date,
		expense.PaidByUserID, expense.SplitType, groupID, expense.CreatedBy, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertSplits(ctx, tx, expense.ID, expense.Splits); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertSplits(ctx context.Context, tx *sql.Tx, expenseID string, splits []models.Split) error {
	for i, split := range splits {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, user_id, amount, paid, position) VALUES (?, ?, ?, ?, ?)",
			expenseID, split.UserID, split.Amount, split.Paid, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

// GetExpense retrieves an expense by ID including its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	expenses, err := s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, nil // Expense not found
	}
	return &expenses[0], nil
}

// UpdateExpense rewrites an existing expense and its splits.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var groupID any
	if expense.GroupID != "" {
		groupID = expense.GroupID
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET description = ?, amount = ?, category = ?, date = ?,
		 paid_by = ?, split_type = ?, group_id = ? WHERE id = ?`,
		expense.Description, expense.Amount, expense.Category, expense.Date,
		expense.PaidByUserID, expense.SplitType, groupID, expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("expense not found: %s", expense.ID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_splits WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to clear splits: %w", err)
	}
	if err := insertSplits(ctx, tx, expense.ID, expense.Splits); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense; splits go via ON DELETE CASCADE.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("expense not found: %s", id)
	}
	return nil
}

// ExpensesByPayer returns expenses paid by userID.
func (s *SQLiteStore) ExpensesByPayer(ctx context.Context, userID string) ([]models.Expense, error) {
	return s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE paid_by = ? ORDER BY date DESC", userID)
}

// ExpensesByGroup returns the group's expenses, newest first.
func (s *SQLiteStore) ExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error) {
	return s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = ? ORDER BY date DESC", groupID)
}

// ExpensesInvolving returns expenses where userID is payer or split holder.
func (s *SQLiteStore) ExpensesInvolving(ctx context.Context, userID string) ([]models.Expense, error) {
	return s.queryExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE paid_by = ?
		 UNION
		 SELECT `+expenseColumns+` FROM expenses
		 WHERE id IN (SELECT expense_id FROM expense_splits WHERE user_id = ?)
		 ORDER BY date DESC`,
		userID, userID)
}

// ExpensesInvolvingSince restricts ExpensesInvolving to expenses dated at
// or after the given Unix millisecond timestamp.
func (s *SQLiteStore) ExpensesInvolvingSince(ctx context.Context, userID string, since int64) ([]models.Expense, error) {
	return s.queryExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE paid_by = ? AND date >= ?
		 UNION
		 SELECT `+expenseColumns+` FROM expenses
		 WHERE date >= ? AND id IN (SELECT expense_id FROM expense_splits WHERE user_id = ?)
		 ORDER BY date DESC`,
		userID, since, since, userID)
}

// queryExpenses runs an expense query and loads splits for each row.
func (s *SQLiteStore) queryExpenses(ctx context.Context, query string, args ...any) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		var groupID sql.NullString
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount, &e.Category, &e.Date,
			&e.PaidByUserID, &e.SplitType, &groupID, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.GroupID = groupID.String
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for i := range expenses {
		splits, err := s.expenseSplits(ctx, expenses[i].ID)
		if err != nil {
			return nil, err
		}
		expenses[i].Splits = splits
	}
	return expenses, nil
}

func (s *SQLiteStore) expenseSplits(ctx context.Context, expenseID string) ([]models.Split, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, amount, paid FROM expense_splits WHERE expense_id = ? ORDER BY position",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	var splits []models.Split
	for rows.Next() {
		var split models.Split
		if err := rows.Scan(&split.UserID, &split.Amount, &split.Paid); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return splits, nil
}
