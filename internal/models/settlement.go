package models

// Settlement represents a real-world payment recorded after the fact.
// It reduces the payer's net debt to the receiver.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string `json:"id"`

	// Amount is the payment amount. Always > 0.
	Amount float64 `json:"amount"`

	// Note is an optional description.
	Note string `json:"note,omitempty"`

	// Date is the server-assigned Unix millisecond timestamp.
	Date int64 `json:"date"`

	// PaidByUserID references the user who paid (debtor settling up).
	PaidByUserID string `json:"paidByUserId"`

	// ReceivedByUserID references the user who received the payment.
	// Always differs from PaidByUserID.
	ReceivedByUserID string `json:"receivedByUserId"`

	// GroupID is empty for one-to-one settlements.
	GroupID string `json:"groupId,omitempty"`

	// RelatedExpenseIDs optionally links the expenses this payment covers.
	RelatedExpenseIDs []string `json:"relatedExpenseIds,omitempty"`

	// CreatedBy references the user who recorded the settlement.
	CreatedBy string `json:"createdBy"`
}

// Involves reports whether userID is the payer or the receiver.
func (s *Settlement) Involves(userID string) bool {
	return s.PaidByUserID == userID || s.ReceivedByUserID == userID
}
