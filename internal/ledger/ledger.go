// Package ledger implements the balance engine: pure computation over
// expense and settlement snapshots. Nothing in this package reads or
// writes storage; callers pass in the records and get numbers back.
package ledger

import (
	"math"

	"github.com/equinex/backend/internal/models"
)

// Epsilon is the monetary tolerance used by every comparison in this
// package and by the settlement validator. Any |amount| below it is
// treated as exactly zero.
const Epsilon = 0.01

// Settled reports whether amount is zero within tolerance.
func Settled(amount float64) bool {
	return math.Abs(amount) < Epsilon
}

// zeroIfSettled collapses floating-point noise to an exact zero.
func zeroIfSettled(amount float64) float64 {
	if Settled(amount) {
		return 0
	}
	return amount
}

// PairBalance computes the net balance between viewer and counterpart.
// Positive means the counterpart owes the viewer; negative means the
// viewer owes the counterpart.
//
// Expenses where neither side paid, splits already marked paid, and
// settlements not strictly between the two users are ignored, so callers
// may pass supersets (e.g., everything either user paid).
func PairBalance(viewerID, counterpartID string, expenses []models.Expense, settlements []models.Settlement) float64 {
	var net float64

	for i := range expenses {
		exp := &expenses[i]
		switch exp.PaidByUserID {
		case viewerID:
			if s := exp.SplitFor(counterpartID); s != nil && !s.Paid {
				net += s.Amount // they owe the viewer
			}
		case counterpartID:
			if s := exp.SplitFor(viewerID); s != nil && !s.Paid {
				net -= s.Amount // the viewer owes them
			}
		}
	}

	for i := range settlements {
		st := &settlements[i]
		switch {
		case st.PaidByUserID == viewerID && st.ReceivedByUserID == counterpartID:
			net += st.Amount // viewer already paid them back
		case st.PaidByUserID == counterpartID && st.ReceivedByUserID == viewerID:
			net -= st.Amount // they already paid the viewer back
		}
	}

	return zeroIfSettled(net)
}

// SettlementOwed returns how much payer currently owes receiver.
// Positive means the payer owes the receiver; zero or negative means
// there is nothing for the payer to settle in that direction.
func SettlementOwed(payerID, receiverID string, expenses []models.Expense, settlements []models.Settlement) float64 {
	return -PairBalance(payerID, receiverID, expenses, settlements)
}

// AggregateBalances accrues the viewer's net position against every
// counterpart across all supplied records. Positive entries mean that
// counterpart owes the viewer. Records not involving the viewer are
// ignored; tolerance-zeroing is the caller's concern (entries near zero
// are typically dropped when shaping results).
func AggregateBalances(viewerID string, expenses []models.Expense, settlements []models.Settlement) map[string]float64 {
	balances := make(map[string]float64)

	for i := range expenses {
		exp := &expenses[i]
		if exp.PaidByUserID == viewerID {
			for j := range exp.Splits {
				s := &exp.Splits[j]
				if s.UserID == viewerID || s.Paid {
					continue
				}
				balances[s.UserID] += s.Amount
			}
			continue
		}
		if s := exp.SplitFor(viewerID); s != nil && !s.Paid {
			balances[exp.PaidByUserID] -= s.Amount
		}
	}

	for i := range settlements {
		st := &settlements[i]
		switch viewerID {
		case st.PaidByUserID:
			balances[st.ReceivedByUserID] += st.Amount
		case st.ReceivedByUserID:
			balances[st.PaidByUserID] -= st.Amount
		}
	}

	return balances
}

// NetForUser sums the viewer's aggregate position over the supplied
// records, e.g. the viewer's overall balance inside one group.
func NetForUser(viewerID string, expenses []models.Expense, settlements []models.Settlement) float64 {
	var net float64
	for _, v := range AggregateBalances(viewerID, expenses, settlements) {
		net += v
	}
	return zeroIfSettled(net)
}

// SplitsSumToAmount verifies the expense-creation invariant: the split
// amounts must add up to the expense amount within tolerance.
func SplitsSumToAmount(splits []models.Split, amount float64) bool {
	var sum float64
	for i := range splits {
		sum += splits[i].Amount
	}
	return math.Abs(sum-amount) <= Epsilon
}
