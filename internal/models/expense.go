package models

// Expense represents a shared cost within a group. Once saved an expense is
// immutable except through an explicit edit that replaces it wholesale.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// GroupID is the group this expense belongs to.
	GroupID string `json:"groupId"`

	// Description is the human-readable label ("Groceries", "Taxi").
	Description string `json:"description"`

	// Amount is the major-unit amount as entered by the user.
	// AmountMinor is authoritative; Amount exists for display round-trips.
	Amount float64 `json:"amount"`

	// AmountMinor is the amount in the group currency's minor unit.
	AmountMinor int64 `json:"amountMinor"`

	// PaidBy is the member ID of the payer. Historical records may carry a
	// first name here instead; the ledger resolves those at read time.
	PaidBy string `json:"paidBy"`

	// Splits maps member ID to that member's share as a percentage of the
	// amount. Percentages must sum to 100 ± 0.01 at creation time. Weight
	// splits are normalized to percentages before persistence.
	Splits map[string]float64 `json:"splits"`

	// CreatedAt is the Unix timestamp when the expense was created.
	CreatedAt int64 `json:"createdAt"`
}
