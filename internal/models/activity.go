package models

// Activity entry types.
const (
	ActivityGroupCreated     = "group_created"
	ActivityMemberAdded      = "member_added"
	ActivityMembersAddedBulk = "members_added_bulk"
	ActivityMemberRemoved    = "member_removed"
	ActivityAdminTransferred = "admin_transferred"
)

// ActivityMetadata carries optional counters attached to an activity entry.
type ActivityMetadata struct {
	// MemberCount is the group's member count after the action.
	MemberCount int `json:"memberCount,omitempty"`

	// AddedCount is how many members a bulk addition added.
	AddedCount int `json:"addedCount,omitempty"`
}

// ActivityEntry is one append-only audit record for a group.
// Entries are never mutated; they are deleted only when the group itself is.
type ActivityEntry struct {
	// ID is the unique identifier for the entry (UUID format).
	ID string `json:"id"`

	// GroupID references the group the action happened in.
	GroupID string `json:"groupId"`

	// Type is one of the Activity* constants.
	Type string `json:"type"`

	// PerformedBy references the acting user.
	PerformedBy string `json:"performedBy"`

	// TargetUserID is the affected user for single-target actions.
	TargetUserID string `json:"targetUserId,omitempty"`

	// TargetUserIDs lists the affected users for bulk actions.
	TargetUserIDs []string `json:"targetUserIds,omitempty"`

	// Timestamp is the Unix millisecond timestamp of the action.
	Timestamp int64 `json:"timestamp"`

	// Metadata carries optional counters.
	Metadata ActivityMetadata `json:"metadata"`
}
