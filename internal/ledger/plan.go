package ledger

import "sort"

// Transfer is one suggested payment in a settlement plan.
type Transfer struct {
	From        string `json:"from"`
	To          string `json:"to"`
	AmountMinor int64  `json:"amountMinor"`
}

// OweLeg is an outgoing obligation in a member's view of the plan.
type OweLeg struct {
	To          string `json:"to"`
	AmountMinor int64  `json:"amountMinor"`
}

// ReceiveLeg is an incoming payment in a member's view of the plan.
type ReceiveLeg struct {
	From        string `json:"from"`
	AmountMinor int64  `json:"amountMinor"`
}

// MemberPlan is the settlement plan filtered down to one observing member.
type MemberPlan struct {
	Owes     []OweLeg     `json:"owes"`
	Receives []ReceiveLeg `json:"receives"`
}

// SettlementPlan produces transfers that zero every balance, greedily
// matching the largest creditor with the largest debtor. Creditors and
// debtors are sorted by amount descending with member ID ascending as the
// tie-break, so identical balance maps always yield the identical transfer
// list. The greedy matching is the standard practical heuristic, not a
// proven global minimum of transfer count.
func SettlementPlan(balances map[string]int64) []Transfer {
	type party struct {
		id     string
		amount int64 // positive for both lists
	}
	var creditors, debtors []party
	for id, bal := range balances {
		switch {
		case bal > 0:
			creditors = append(creditors, party{id: id, amount: bal})
		case bal < 0:
			debtors = append(debtors, party{id: id, amount: -bal})
		}
	}
	byAmountDesc := func(ps []party) func(i, j int) bool {
		return func(i, j int) bool {
			if ps[i].amount != ps[j].amount {
				return ps[i].amount > ps[j].amount
			}
			return ps[i].id < ps[j].id
		}
	}
	sort.Slice(creditors, byAmountDesc(creditors))
	sort.Slice(debtors, byAmountDesc(debtors))

	var transfers []Transfer
	ci, di := 0, 0
	for ci < len(creditors) && di < len(debtors) {
		creditor, debtor := &creditors[ci], &debtors[di]

		amount := creditor.amount
		if debtor.amount < amount {
			amount = debtor.amount
		}
		if amount > 0 {
			transfers = append(transfers, Transfer{
				From:        debtor.id,
				To:          creditor.id,
				AmountMinor: amount,
			})
		}

		creditor.amount -= amount
		debtor.amount -= amount
		if creditor.amount == 0 {
			ci++
		}
		if debtor.amount == 0 {
			di++
		}
	}
	return transfers
}

// MemberView filters the full transfer list to the transfers touching one
// member, split into outgoing and incoming legs.
func MemberView(transfers []Transfer, memberID string) MemberPlan {
	plan := MemberPlan{Owes: []OweLeg{}, Receives: []ReceiveLeg{}}
	for _, t := range transfers {
		if t.From == memberID {
			plan.Owes = append(plan.Owes, OweLeg{To: t.To, AmountMinor: t.AmountMinor})
		}
		if t.To == memberID {
			plan.Receives = append(plan.Receives, ReceiveLeg{From: t.From, AmountMinor: t.AmountMinor})
		}
	}
	return plan
}

// ApplyTransfers returns the balances after executing every transfer.
// Running it over a SettlementPlan output must zero all balances, which is
// how the planner's correctness is tested.
func ApplyTransfers(balances map[string]int64, transfers []Transfer) map[string]int64 {
	out := make(map[string]int64, len(balances))
	for id, bal := range balances {
		out[id] = bal
	}
	for _, t := range transfers {
		out[t.From] += t.AmountMinor
		out[t.To] -= t.AmountMinor
	}
	return out
}
