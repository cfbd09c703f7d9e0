package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equinex/backend/internal/models"
)

func expense(payer string, amount float64, splits ...models.Split) models.Expense {
	return models.Expense{
		Description:  "test",
		Amount:       amount,
		PaidByUserID: payer,
		SplitType:    models.SplitEqual,
		Splits:       splits,
	}
}

func settlement(payer, receiver string, amount float64) models.Settlement {
	return models.Settlement{
		Amount:           amount,
		PaidByUserID:     payer,
		ReceivedByUserID: receiver,
	}
}

func TestPairBalance(t *testing.T) {
	tests := []struct {
		name        string
		expenses    []models.Expense
		settlements []models.Settlement
		want        float64 // from A's viewpoint against B
	}{
		{
			name: "equal split, B owes half",
			expenses: []models.Expense{
				expense("A", 100,
					models.Split{UserID: "A", Amount: 50, Paid: true},
					models.Split{UserID: "B", Amount: 50},
				),
			},
			want: 50,
		},
		{
			name: "paid split does not accrue",
			expenses: []models.Expense{
				expense("A", 100,
					models.Split{UserID: "A", Amount: 50, Paid: true},
					models.Split{UserID: "B", Amount: 50, Paid: true},
				),
			},
			want: 0,
		},
		{
			name: "settlement clears the debt",
			expenses: []models.Expense{
				expense("A", 100,
					models.Split{UserID: "A", Amount: 50, Paid: true},
					models.Split{UserID: "B", Amount: 50},
				),
			},
			settlements: []models.Settlement{settlement("B", "A", 50)},
			want:        0,
		},
		{
			name: "opposing expenses net",
			expenses: []models.Expense{
				expense("A", 60,
					models.Split{UserID: "A", Amount: 30, Paid: true},
					models.Split{UserID: "B", Amount: 30},
				),
				expense("B", 40,
					models.Split{UserID: "B", Amount: 20, Paid: true},
					models.Split{UserID: "A", Amount: 20},
				),
			},
			want: 10,
		},
		{
			name: "settlement from A reduces A's debt",
			expenses: []models.Expense{
				expense("B", 40,
					models.Split{UserID: "B", Amount: 20, Paid: true},
					models.Split{UserID: "A", Amount: 20},
				),
			},
			settlements: []models.Settlement{settlement("A", "B", 15)},
			want:        -5,
		},
		{
			name: "sub-epsilon residue reads as settled",
			expenses: []models.Expense{
				expense("A", 10,
					models.Split{UserID: "A", Amount: 4.995, Paid: true},
					models.Split{UserID: "B", Amount: 5.005},
				),
			},
			settlements: []models.Settlement{settlement("B", "A", 5.00)},
			want:        0,
		},
		{
			name: "third-party records are ignored",
			expenses: []models.Expense{
				expense("C", 90,
					models.Split{UserID: "C", Amount: 30, Paid: true},
					models.Split{UserID: "D", Amount: 60},
				),
			},
			settlements: []models.Settlement{settlement("C", "D", 10)},
			want:        0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PairBalance("A", "B", tt.expenses, tt.settlements)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestPairBalanceAntisymmetry(t *testing.T) {
	expenses := []models.Expense{
		expense("A", 100,
			models.Split{UserID: "A", Amount: 40, Paid: true},
			models.Split{UserID: "B", Amount: 60},
		),
		expense("B", 30,
			models.Split{UserID: "B", Amount: 10, Paid: true},
			models.Split{UserID: "A", Amount: 20},
		),
	}
	settlements := []models.Settlement{settlement("B", "A", 25)}

	ab := PairBalance("A", "B", expenses, settlements)
	ba := PairBalance("B", "A", expenses, settlements)
	assert.InDelta(t, -ba, ab, 1e-9)
}

func TestSettlementOwed(t *testing.T) {
	expenses := []models.Expense{
		expense("A", 100,
			models.Split{UserID: "A", Amount: 50, Paid: true},
			models.Split{UserID: "B", Amount: 50},
		),
	}

	// B owes A 50, so from B's side there is 50 to settle.
	assert.InDelta(t, 50, SettlementOwed("B", "A", expenses, nil), 1e-9)
	// From A's side the balance is reversed.
	assert.InDelta(t, -50, SettlementOwed("A", "B", expenses, nil), 1e-9)
}

func TestAggregateBalances(t *testing.T) {
	expenses := []models.Expense{
		expense("A", 90,
			models.Split{UserID: "A", Amount: 30, Paid: true},
			models.Split{UserID: "B", Amount: 30},
			models.Split{UserID: "C", Amount: 30},
		),
		expense("C", 20,
			models.Split{UserID: "C", Amount: 10, Paid: true},
			models.Split{UserID: "A", Amount: 10},
		),
	}
	settlements := []models.Settlement{settlement("B", "A", 30)}

	got := AggregateBalances("A", expenses, settlements)
	require.Len(t, got, 2)
	assert.InDelta(t, 0, got["B"], 1e-9)  // settled via payment
	assert.InDelta(t, 20, got["C"], 1e-9) // owes 30, A owes 10 back
}

func TestNetForUser(t *testing.T) {
	expenses := []models.Expense{
		expense("A", 90,
			models.Split{UserID: "A", Amount: 30, Paid: true},
			models.Split{UserID: "B", Amount: 30},
			models.Split{UserID: "C", Amount: 30},
		),
	}

	assert.InDelta(t, 60, NetForUser("A", expenses, nil), 1e-9)
	assert.InDelta(t, -30, NetForUser("B", expenses, nil), 1e-9)
}

func TestSplitsSumToAmount(t *testing.T) {
	splits := []models.Split{
		{UserID: "A", Amount: 33.33},
		{UserID: "B", Amount: 33.33},
		{UserID: "C", Amount: 33.34},
	}

	assert.True(t, SplitsSumToAmount(splits, 100))
	assert.True(t, SplitsSumToAmount(splits, 100.005))
	assert.False(t, SplitsSumToAmount(splits, 100.5))
	assert.False(t, SplitsSumToAmount(nil, 1))
}
