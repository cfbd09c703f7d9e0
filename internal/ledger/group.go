package ledger

import (
	"sort"

	"github.com/equinex/backend/internal/models"
)

// Debt is one directional amount in a group's netted pairwise matrix.
type Debt struct {
	UserID string
	Amount float64
}

// GroupBalances is the result of accruing a group's expenses and
// settlements into a pairwise ledger.
type GroupBalances struct {
	// Totals maps each member to their overall position: positive means
	// the group owes them, negative means they owe the group.
	Totals map[string]float64

	// Matrix is the netted debtor -> creditor amount table. For every
	// unordered pair at most one direction carries a positive remainder.
	Matrix map[string]map[string]float64

	memberIDs []string
}

// GroupLedger builds the pairwise ledger for a group.
//
// Accrual rule (one pass feeding both the matrix and the totals): every
// unpaid split held by someone other than the payer adds
// raw[debtor][payer]; every settlement subtracts raw[payer][receiver].
// Per-member totals are derived from the raw matrix before pair-netting,
// so a fully settled pair reads zero on both views. Records referencing
// users outside memberIDs are skipped.
func GroupLedger(memberIDs []string, expenses []models.Expense, settlements []models.Settlement) *GroupBalances {
	members := make(map[string]bool, len(memberIDs))
	raw := make(map[string]map[string]float64, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = true
		raw[id] = make(map[string]float64, len(memberIDs)-1)
	}

	for i := range expenses {
		exp := &expenses[i]
		payer := exp.PaidByUserID
		if !members[payer] {
			continue
		}
		for j := range exp.Splits {
			s := &exp.Splits[j]
			if s.UserID == payer || s.Paid || !members[s.UserID] {
				continue
			}
			raw[s.UserID][payer] += s.Amount // debtor owes payer
		}
	}

	for i := range settlements {
		st := &settlements[i]
		if !members[st.PaidByUserID] || !members[st.ReceivedByUserID] {
			continue
		}
		raw[st.PaidByUserID][st.ReceivedByUserID] -= st.Amount // paid back
	}

	totals := make(map[string]float64, len(memberIDs))
	for _, m := range memberIDs {
		var owedToMe, iOwe float64
		for _, other := range memberIDs {
			if other == m {
				continue
			}
			owedToMe += raw[other][m]
			iOwe += raw[m][other]
		}
		totals[m] = zeroIfSettled(owedToMe - iOwe)
	}

	// Net each unordered pair into a single direction.
	matrix := make(map[string]map[string]float64, len(memberIDs))
	for _, id := range memberIDs {
		matrix[id] = make(map[string]float64, len(memberIDs)-1)
	}
	for i, a := range memberIDs {
		for _, b := range memberIDs[i+1:] {
			diff := raw[a][b] - raw[b][a]
			switch {
			case Settled(diff):
				// settled pair, both directions stay zero
			case diff > 0:
				matrix[a][b] = diff
			default:
				matrix[b][a] = -diff
			}
		}
	}

	return &GroupBalances{Totals: totals, Matrix: matrix, memberIDs: memberIDs}
}

// Owes lists who userID owes money to, largest first.
func (g *GroupBalances) Owes(userID string) []Debt {
	return g.debts(func(other string) float64 { return g.Matrix[userID][other] })
}

// OwedBy lists who owes money to userID, largest first.
func (g *GroupBalances) OwedBy(userID string) []Debt {
	return g.debts(func(other string) float64 { return g.Matrix[other][userID] })
}

func (g *GroupBalances) debts(amount func(other string) float64) []Debt {
	var debts []Debt
	for _, other := range g.memberIDs {
		if amt := amount(other); amt > Epsilon {
			debts = append(debts, Debt{UserID: other, Amount: amt})
		}
	}
	sort.Slice(debts, func(i, j int) bool {
		if debts[i].Amount != debts[j].Amount {
			return debts[i].Amount > debts[j].Amount
		}
		return debts[i].UserID < debts[j].UserID
	})
	return debts
}
