package service

import (
	"context"
	"sort"
	"time"

	"github.com/equinex/backend/internal/ledger"
	"github.com/equinex/backend/internal/models"
	"github.com/equinex/backend/internal/storage"
)

// BalanceService answers the read-side questions: who owes whom, how
// much, and what records back the numbers. Everything is recomputed from
// the stored expenses and settlements on every call; nothing is cached.
type BalanceService struct {
	store storage.Store
}

// NewBalanceService creates a BalanceService with the given storage backend.
func NewBalanceService(store storage.Store) *BalanceService {
	return &BalanceService{store: store}
}

// BalanceEntry is one counterpart's position against the viewer.
type BalanceEntry struct {
	User   *models.User `json:"user"`
	Amount float64      `json:"amount"`
}

// UserBalances is the dashboard aggregate across every counterpart.
type UserBalances struct {
	YouOwe       float64 `json:"youOwe"`
	YouAreOwed   float64 `json:"youAreOwed"`
	TotalBalance float64 `json:"totalBalance"`
	OweDetails   struct {
		YouOwe       []BalanceEntry `json:"youOwe"`
		YouAreOwedBy []BalanceEntry `json:"youAreOwedBy"`
	} `json:"oweDetails"`
}

// UserBalances computes the viewer's aggregate position across all
// one-to-one and group records. Counterparts whose user record no longer
// exists are dropped rather than reported with a dangling ID.
func (s *BalanceService) UserBalances(ctx context.Context, viewerID string) (*UserBalances, error) {
	expenses, err := s.store.ExpensesInvolving(ctx, viewerID)
	if err != nil {
		return nil, internal("failed to load expenses", err)
	}
	settlements, err := s.store.SettlementsInvolving(ctx, viewerID)
	if err != nil {
		return nil, internal("failed to load settlements", err)
	}

	balances := ledger.AggregateBalances(viewerID, expenses, settlements)

	counterpartIDs := make([]string, 0, len(balances))
	for id, amount := range balances {
		if !ledger.Settled(amount) {
			counterpartIDs = append(counterpartIDs, id)
		}
	}
	users, err := s.store.GetUsersByIDs(ctx, counterpartIDs)
	if err != nil {
		return nil, internal("failed to load counterpart users", err)
	}

	result := &UserBalances{}
	for _, id := range counterpartIDs {
		user, ok := users[id]
		if !ok {
			continue // deleted counterpart, drop the entry
		}
		amount := balances[id]
		if amount > 0 {
			result.YouAreOwed += amount
			result.OweDetails.YouAreOwedBy = append(result.OweDetails.YouAreOwedBy, BalanceEntry{User: user, Amount: amount})
		} else {
			result.YouOwe += -amount
			result.OweDetails.YouOwe = append(result.OweDetails.YouOwe, BalanceEntry{User: user, Amount: -amount})
		}
	}
	sortEntriesDesc(result.OweDetails.YouAreOwedBy)
	sortEntriesDesc(result.OweDetails.YouOwe)
	result.TotalBalance = result.YouAreOwed - result.YouOwe

	return result, nil
}

func sortEntriesDesc(entries []BalanceEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Amount != entries[j].Amount {
			return entries[i].Amount > entries[j].Amount
		}
		return entries[i].User.ID < entries[j].User.ID
	})
}

// PairBalance is the one-to-one view between the viewer and one counterpart.
type PairBalance struct {
	Expenses    []models.Expense    `json:"expenses"`
	Settlements []models.Settlement `json:"settlements"`
	OtherUser   *models.User        `json:"otherUser"`
	Balance     float64             `json:"balance"`
}

// PairBalance returns the shared records and net balance between the
// viewer and counterpart. Positive balance means the counterpart owes
// the viewer. Only one-to-one records count; group debts surface through
// the group ledger instead.
func (s *BalanceService) PairBalance(ctx context.Context, viewerID, counterpartID string) (*PairBalance, error) {
	other, err := s.store.GetUserByID(ctx, counterpartID)
	if err != nil {
		return nil, internal("failed to load user", err)
	}
	if other == nil {
		return nil, notFoundf("user not found")
	}

	expenses, err := s.pairExpenses(ctx, viewerID, counterpartID)
	if err != nil {
		return nil, err
	}
	allSettlements, err := s.store.SettlementsBetween(ctx, viewerID, counterpartID)
	if err != nil {
		return nil, internal("failed to load settlements", err)
	}
	settlements := make([]models.Settlement, 0, len(allSettlements))
	for _, st := range allSettlements {
		if st.GroupID == "" {
			settlements = append(settlements, st)
		}
	}

	return &PairBalance{
		Expenses:    expenses,
		Settlements: settlements,
		OtherUser:   other,
		Balance:     ledger.PairBalance(viewerID, counterpartID, expenses, settlements),
	}, nil
}

// pairExpenses loads the one-to-one expenses shared by the two users,
// newest first.
func (s *BalanceService) pairExpenses(ctx context.Context, userA, userB string) ([]models.Expense, error) {
	paidByA, err := s.store.ExpensesByPayer(ctx, userA)
	if err != nil {
		return nil, internal("failed to load expenses", err)
	}
	paidByB, err := s.store.ExpensesByPayer(ctx, userB)
	if err != nil {
		return nil, internal("failed to load expenses", err)
	}

	var shared []models.Expense
	for _, exp := range append(paidByA, paidByB...) {
		if exp.GroupID == "" && exp.Involves(userA) && exp.Involves(userB) {
			shared = append(shared, exp)
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i].Date > shared[j].Date })
	return shared, nil
}

// MemberBalance is one member's position inside a group ledger.
type MemberBalance struct {
	User         *models.User  `json:"user"`
	TotalBalance float64       `json:"totalBalance"`
	Owes         []ledger.Debt `json:"owes"`
	OwedBy       []ledger.Debt `json:"owedBy"`
}

// GroupLedgerView is the full per-group view: members, records and the
// netted pairwise balances.
type GroupLedgerView struct {
	Group       *models.Group       `json:"group"`
	Members     []*models.User      `json:"members"`
	Expenses    []models.Expense    `json:"expenses"`
	Settlements []models.Settlement `json:"settlements"`
	Balances    []MemberBalance     `json:"balances"`
}

// GroupLedger builds the group view for a member. Non-members are
// rejected so balances never leak outside the group.
func (s *BalanceService) GroupLedger(ctx context.Context, groupID, viewerID string) (*GroupLedgerView, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, internal("failed to load group", err)
	}
	if group == nil {
		return nil, notFoundf("group not found")
	}
	if !group.IsMember(viewerID) {
		return nil, unauthorizedf("you are not a member of this group")
	}

	expenses, err := s.store.ExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, internal("failed to load group expenses", err)
	}
	settlements, err := s.store.SettlementsByGroup(ctx, groupID)
	if err != nil {
		return nil, internal("failed to load group settlements", err)
	}
	users, err := s.store.GetUsersByIDs(ctx, group.MemberIDs())
	if err != nil {
		return nil, internal("failed to load group members", err)
	}

	balances := ledger.GroupLedger(group.MemberIDs(), expenses, settlements)

	view := &GroupLedgerView{
		Group:       group,
		Expenses:    expenses,
		Settlements: settlements,
	}
	for _, id := range group.MemberIDs() {
		user, ok := users[id]
		if !ok {
			continue
		}
		view.Members = append(view.Members, user)
		view.Balances = append(view.Balances, MemberBalance{
			User:         user,
			TotalBalance: balances.Totals[id],
			Owes:         balances.Owes(id),
			OwedBy:       balances.OwedBy(id),
		})
	}
	return view, nil
}

// GroupSummary is one group in the viewer's group list, with the
// viewer's net position inside it.
type GroupSummary struct {
	Group   *models.Group `json:"group"`
	Balance float64       `json:"balance"`
}

// UserGroups lists the viewer's groups with their net balance in each.
func (s *BalanceService) UserGroups(ctx context.Context, viewerID string) ([]GroupSummary, error) {
	groups, err := s.store.ListGroupsByMember(ctx, viewerID)
	if err != nil {
		return nil, internal("failed to list groups", err)
	}

	summaries := make([]GroupSummary, 0, len(groups))
	for _, group := range groups {
		expenses, err := s.store.ExpensesByGroup(ctx, group.ID)
		if err != nil {
			return nil, internal("failed to load group expenses", err)
		}
		settlements, err := s.store.SettlementsByGroup(ctx, group.ID)
		if err != nil {
			return nil, internal("failed to load group settlements", err)
		}
		summaries = append(summaries, GroupSummary{
			Group:   group,
			Balance: ledger.NetForUser(viewerID, expenses, settlements),
		})
	}
	return summaries, nil
}

// Contacts lists everyone the viewer shares records with.
type Contacts struct {
	Users  []*models.User  `json:"users"`
	Groups []*models.Group `json:"groups"`
}

// Contacts collects the viewer's counterparts from all their expenses
// plus the co-members of their groups, sorted by name.
func (s *BalanceService) Contacts(ctx context.Context, viewerID string) (*Contacts, error) {
	expenses, err := s.store.ExpensesInvolving(ctx, viewerID)
	if err != nil {
		return nil, internal("failed to load expenses", err)
	}
	groups, err := s.store.ListGroupsByMember(ctx, viewerID)
	if err != nil {
		return nil, internal("failed to list groups", err)
	}

	contactIDs := make(map[string]bool)
	for i := range expenses {
		exp := &expenses[i]
		if exp.PaidByUserID != viewerID {
			contactIDs[exp.PaidByUserID] = true
		}
		for _, split := range exp.Splits {
			if split.UserID != viewerID {
				contactIDs[split.UserID] = true
			}
		}
	}
	for _, group := range groups {
		for _, id := range group.MemberIDs() {
			if id != viewerID {
				contactIDs[id] = true
			}
		}
	}

	ids := make([]string, 0, len(contactIDs))
	for id := range contactIDs {
		ids = append(ids, id)
	}
	usersByID, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, internal("failed to load contacts", err)
	}

	users := make([]*models.User, 0, len(usersByID))
	for _, user := range usersByID {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })

	return &Contacts{Users: users, Groups: groups}, nil
}

// MonthlyTotal is one month's personal spending.
type MonthlyTotal struct {
	Month int64   `json:"month"` // Unix ms of the first of the month
	Total float64 `json:"total"`
}

// TotalSpent sums the viewer's own shares across all expenses dated in
// the current year.
func (s *BalanceService) TotalSpent(ctx context.Context, viewerID string) (float64, error) {
	expenses, err := s.yearExpenses(ctx, viewerID)
	if err != nil {
		return 0, err
	}
	var total float64
	for i := range expenses {
		if split := expenses[i].SplitFor(viewerID); split != nil {
			total += split.Amount
		}
	}
	return total, nil
}

// MonthlySpending breaks the viewer's current-year spending down by
// month, January through the current month, zero-filled.
func (s *BalanceService) MonthlySpending(ctx context.Context, viewerID string) ([]MonthlyTotal, error) {
	expenses, err := s.yearExpenses(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	totals := make([]MonthlyTotal, now.Month())
	for m := range totals {
		totals[m].Month = time.Date(now.Year(), time.Month(m+1), 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	}
	for i := range expenses {
		split := expenses[i].SplitFor(viewerID)
		if split == nil {
			continue
		}
		m := time.UnixMilli(expenses[i].Date).UTC().Month() - 1
		if int(m) < len(totals) {
			totals[m].Total += split.Amount
		}
	}
	return totals, nil
}

func (s *BalanceService) yearExpenses(ctx context.Context, viewerID string) ([]models.Expense, error) {
	startOfYear := time.Date(time.Now().Year(), time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	expenses, err := s.store.ExpensesInvolvingSince(ctx, viewerID, startOfYear)
	if err != nil {
		return nil, internal("failed to load expenses", err)
	}
	return expenses, nil
}
