package ledger

// RawBalances folds all expenses into a net balance map in minor units.
// Positive means the member is owed money, negative means they owe.
// Every known member appears in the result even when their balance is zero;
// stale references from historical records show up as extra entries rather
// than errors.
func RawBalances(members []MemberRef, expenses []ExpenseForBalance) map[string]int64 {
	balances := make(map[string]int64, len(members))
	for _, m := range members {
		balances[m.ID] = 0
	}
	for _, exp := range expenses {
		for id, delta := range NormalizeExpense(exp, members) {
			balances[id] += delta
		}
	}
	return balances
}

// OpenBalances applies confirmed settlements on top of the raw balances:
// the payer's balance improves by the amount, the payee's decreases.
// Pending settlements are ignored here: optimistic zeroing is never applied
// before the payee confirms. Surface them with PendingSent.
func OpenBalances(members []MemberRef, expenses []ExpenseForBalance, settlements []SettlementForBalance) map[string]int64 {
	balances := RawBalances(members, expenses)
	for _, s := range settlements {
		if s.Pending {
			continue
		}
		balances[s.PayerID] += s.AmountMinor
		balances[s.PayeeID] -= s.AmountMinor
	}
	return balances
}

// PendingSent sums the in-flight (unconfirmed) amounts each payer has
// recorded. The UI uses this for the "payment awaiting confirmation" state:
// effective owe = max(0, owe - pending sent), never a change to the
// confirmed balance map.
func PendingSent(settlements []SettlementForBalance) map[string]int64 {
	pending := make(map[string]int64)
	for _, s := range settlements {
		if s.Pending {
			pending[s.PayerID] += s.AmountMinor
		}
	}
	return pending
}
