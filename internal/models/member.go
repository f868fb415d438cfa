package models

// Member represents an identity within a group. Members can be created
// without a user account so that a group works before everyone signs up.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string `json:"id"`

	// FirstName is the display name shown in balances and plans.
	FirstName string `json:"firstName"`

	// Email is optional; empty when the member has no account yet.
	Email string `json:"email,omitempty"`

	// AuthProvider tags how the member was created:
	// "google", "microsoft", "facebook", "anon" or "manual".
	AuthProvider string `json:"authProvider,omitempty"`

	// PayPalMeLink is an optional payment link surfaced next to
	// settlement suggestions.
	PayPalMeLink string `json:"paypalMeLink,omitempty"`
}
