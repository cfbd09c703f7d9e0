package models

// Split types.
const (
	SplitEqual      = "equal"
	SplitPercentage = "percentage"
	SplitExact      = "exact"
)

// Split is one participant's owed share of an expense.
type Split struct {
	// UserID references the participant.
	UserID string `json:"userId"`

	// Amount is this participant's share of the expense.
	Amount float64 `json:"amount"`

	// Paid marks the share as settled at creation time (typically the
	// payer's own split). Paid splits never accrue into balances.
	Paid bool `json:"paid"`
}

// Expense represents a shared cost paid by one user and split among several.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// Description is the human-readable label (e.g., "Dinner at Roma").
	Description string `json:"description"`

	// Amount is the total expense amount. Always > 0.
	Amount float64 `json:"amount"`

	// Category is an optional label; defaults to "Other".
	Category string `json:"category"`

	// Date is the Unix millisecond timestamp of the expense itself
	// (user-supplied, distinct from CreatedAt).
	Date int64 `json:"date"`

	// PaidByUserID references the user who paid the whole amount.
	PaidByUserID string `json:"paidByUserId"`

	// SplitType is "equal", "percentage" or "exact". Informational:
	// splits arrive pre-computed and must sum to Amount within tolerance.
	SplitType string `json:"splitType"`

	// Splits is the ordered list of per-user shares.
	Splits []Split `json:"splits"`

	// GroupID is empty for one-to-one expenses.
	GroupID string `json:"groupId,omitempty"`

	// CreatedBy references the user who recorded the expense.
	CreatedBy string `json:"createdBy"`

	// CreatedAt is the Unix millisecond timestamp when the record was written.
	CreatedAt int64 `json:"createdAt"`
}

// SplitFor returns userID's split, or nil if the user is not a participant.
func (e *Expense) SplitFor(userID string) *Split {
	for i := range e.Splits {
		if e.Splits[i].UserID == userID {
			return &e.Splits[i]
		}
	}
	return nil
}

// Involves reports whether userID paid the expense or holds a split.
func (e *Expense) Involves(userID string) bool {
	return e.PaidByUserID == userID || e.SplitFor(userID) != nil
}
