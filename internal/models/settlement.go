package models

// SettlementStatus tracks whether the payee has acknowledged a payment.
type SettlementStatus string

const (
	// SettlementPending means the payer recorded the payment but the payee
	// has not confirmed receiving it. Pending settlements never change the
	// confirmed balance map.
	SettlementPending SettlementStatus = "pending"

	// SettlementConfirmed means the payee acknowledged the payment.
	SettlementConfirmed SettlementStatus = "confirmed"
)

// SettlementMethod is how the payment was made, for display only.
type SettlementMethod string

const (
	MethodPayPal SettlementMethod = "paypal"
	MethodZelle  SettlementMethod = "zelle"
	MethodCash   SettlementMethod = "cash"
	MethodVenmo  SettlementMethod = "venmo"
	MethodOther  SettlementMethod = "other"
)

// Settlement represents a payment between two members intended to reduce or
// zero an outstanding balance. It transitions pending -> confirmed only via
// the payee's explicit acknowledgement, never automatically by the payer.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string `json:"id"`

	// GroupID is the group this settlement belongs to.
	GroupID string `json:"groupId"`

	// PayerID is the member who paid (debtor settling up).
	PayerID string `json:"payerId"`

	// PayeeID is the member who received payment (creditor being paid).
	PayeeID string `json:"payeeId"`

	// Amount is the major-unit payment amount; AmountMinor is authoritative.
	Amount      float64 `json:"amount"`
	AmountMinor int64   `json:"amountMinor"`

	// Method records how the payment was made.
	Method SettlementMethod `json:"method,omitempty"`

	// Note is an optional free-form description.
	Note string `json:"note,omitempty"`

	// Status is pending until the payee confirms.
	Status SettlementStatus `json:"status"`

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64 `json:"createdAt"`

	// ConfirmedAt is the Unix timestamp of the payee's confirmation,
	// zero while pending.
	ConfirmedAt int64 `json:"confirmedAt,omitempty"`

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string `json:"createdBy,omitempty"`
}
