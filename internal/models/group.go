package models

// Group owns a set of members, expenses and settlements, plus the currency
// every amount in the group is denominated in.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g. "Roommates").
	Name string `json:"name"`

	// CreatedBy is the user ID that created the group.
	CreatedBy string `json:"createdBy,omitempty"`

	// Members is the current membership. Every expense split key and every
	// settlement payer/payee must reference one of these IDs.
	Members []Member `json:"members"`

	// Currency is the 3-letter code all group amounts are denominated in.
	Currency string `json:"currency"`

	// CreatedAt and LastUpdated are Unix timestamps.
	CreatedAt   int64 `json:"createdAt"`
	LastUpdated int64 `json:"lastUpdated"`
}

// MemberByID returns the member with the given ID, or nil.
func (g *Group) MemberByID(id string) *Member {
	for i := range g.Members {
		if g.Members[i].ID == id {
			return &g.Members[i]
		}
	}
	return nil
}

// HasMember reports whether id is a current member of the group.
func (g *Group) HasMember(id string) bool {
	return g.MemberByID(id) != nil
}
