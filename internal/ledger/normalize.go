// Package ledger computes group balances and settlement plans.
//
// Everything here is pure arithmetic over minor-unit integers: no storage,
// no ambient state, no floating-point money. Callers convert their domain
// records into the *ForBalance input types and get plain data back, so the
// engine can be re-run on every request without side effects.
package ledger

import (
	"fmt"
	"math"
	"sort"
)

// MemberRef carries the minimal member information the engine needs.
type MemberRef struct {
	ID        string
	FirstName string
}

// ExpenseForBalance is an expense reduced to what balance computation needs.
type ExpenseForBalance struct {
	AmountMinor int64

	// PaidBy is normally a member ID. Historical records sometimes carry a
	// first name instead; NormalizeExpense resolves those against members.
	PaidBy string

	// Splits maps member ID to percentage share (0-100).
	Splits map[string]float64
}

// SettlementForBalance is a settlement reduced to what the engine needs.
type SettlementForBalance struct {
	PayerID     string
	PayeeID     string
	AmountMinor int64
	Pending     bool
}

// ResolvePayer maps a payer reference to a member ID. IDs pass through;
// otherwise a unique first-name match wins; anything else is returned as-is
// and treated as a stale reference downstream.
func ResolvePayer(paidBy string, members []MemberRef) string {
	for _, m := range members {
		if m.ID == paidBy {
			return paidBy
		}
	}
	matched := ""
	for _, m := range members {
		if m.FirstName == paidBy {
			if matched != "" {
				return paidBy // ambiguous name, keep the raw value
			}
			matched = m.ID
		}
	}
	if matched != "" {
		return matched
	}
	return paidBy
}

// NormalizeExpense converts one expense into signed minor-unit deltas per
// member. The payer is credited the full amount; each split participant is
// debited round-half-up(amount * pct / 100). Any rounding residual is
// debited to the payer so the deltas of a single expense always sum to
// exactly zero.
func NormalizeExpense(exp ExpenseForBalance, members []MemberRef) map[string]int64 {
	deltas := make(map[string]int64)

	payer := ResolvePayer(exp.PaidBy, members)
	deltas[payer] += exp.AmountMinor

	var debited int64
	for _, id := range sortedKeys(exp.Splits) {
		share := roundHalfUp(float64(exp.AmountMinor) * exp.Splits[id] / 100)
		deltas[id] -= share
		debited += share
	}

	// Residual from rounding goes to the payer.
	deltas[payer] -= exp.AmountMinor - debited
	return deltas
}

// ValidateSplits rejects a split map at write time: every key must be a
// current member and percentages must sum to 100 within epsilon.
func ValidateSplits(splits map[string]float64, members []MemberRef) error {
	if len(splits) == 0 {
		return fmt.Errorf("splits must not be empty")
	}
	known := make(map[string]bool, len(members))
	for _, m := range members {
		known[m.ID] = true
	}
	total := 0.0
	for id, pct := range splits {
		if !known[id] {
			return fmt.Errorf("split references unknown member %q", id)
		}
		if pct < 0 {
			return fmt.Errorf("split for member %q is negative", id)
		}
		total += pct
	}
	if math.Abs(total-100) > 0.01 {
		return fmt.Errorf("splits must add up to 100%%, got %.2f", total)
	}
	return nil
}

// WeightsToPercents normalizes arbitrary non-negative weights to percentages
// summing to exactly 100.00. Shares are computed in basis points with
// largest-remainder distribution, ties broken by member ID ascending, so the
// result is deterministic.
func WeightsToPercents(weights map[string]int64) (map[string]float64, error) {
	var total int64
	for id, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("weight for member %q is negative", id)
		}
		total += w
	}
	if total == 0 {
		return nil, fmt.Errorf("weights must not all be zero")
	}

	ids := make([]string, 0, len(weights))
	for id := range weights {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Work in basis points (1% == 100 bp) so two-decimal percentages are exact.
	const scale = 10000
	type rem struct {
		id   string
		frac float64
	}
	bps := make(map[string]int64, len(weights))
	var assigned int64
	rems := make([]rem, 0, len(ids))
	for _, id := range ids {
		exact := float64(weights[id]) * scale / float64(total)
		floor := int64(math.Floor(exact))
		bps[id] = floor
		assigned += floor
		rems = append(rems, rem{id: id, frac: exact - float64(floor)})
	}
	sort.SliceStable(rems, func(i, j int) bool {
		if rems[i].frac != rems[j].frac {
			return rems[i].frac > rems[j].frac
		}
		return rems[i].id < rems[j].id
	})
	for i := int64(0); i < scale-assigned; i++ {
		bps[rems[i%int64(len(rems))].id]++
	}

	pcts := make(map[string]float64, len(bps))
	for id, bp := range bps {
		pcts[id] = float64(bp) / 100
	}
	return pcts, nil
}

// roundHalfUp rounds to the nearest integer with .5 going up.
func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
