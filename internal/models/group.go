package models

// Membership roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Membership records one user's participation in a group.
type Membership struct {
	// UserID references the member's user record.
	UserID string `json:"userId"`

	// Role is "admin" or "member". A non-empty group has exactly one admin;
	// the group service enforces this, not storage.
	Role string `json:"role"`

	// JoinedAt is the Unix millisecond timestamp when the member joined.
	JoinedAt int64 `json:"joinedAt"`

	// AddedBy references the user who added this member (empty for the creator).
	AddedBy string `json:"addedBy,omitempty"`
}

// Group represents a set of users who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Roommates").
	Name string `json:"name"`

	// Description is an optional free-form description.
	Description string `json:"description,omitempty"`

	// CreatedBy references the user who created the group.
	CreatedBy string `json:"createdBy"`

	// Members is the ordered membership list. At most one entry per user.
	Members []Membership `json:"members"`

	// CreatedAt is the Unix millisecond timestamp when the group was created.
	CreatedAt int64 `json:"createdAt"`
}

// Member returns the membership record for userID, or nil if absent.
func (g *Group) Member(userID string) *Membership {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			return &g.Members[i]
		}
	}
	return nil
}

// IsMember reports whether userID belongs to the group.
func (g *Group) IsMember(userID string) bool {
	return g.Member(userID) != nil
}

// IsAdmin reports whether userID is the group's admin.
func (g *Group) IsAdmin(userID string) bool {
	m := g.Member(userID)
	return m != nil && m.Role == RoleAdmin
}

// MemberIDs returns the member user IDs in membership order.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UserID
	}
	return ids
}
