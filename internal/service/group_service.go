package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/equinex/backend/internal/models"
	"github.com/equinex/backend/internal/notify"
	"github.com/equinex/backend/internal/storage"
)

// InviteDispatcher queues group invites for asynchronous delivery.
// Implemented by notify.Dispatcher; nil disables invites.
type InviteDispatcher interface {
	Enqueue(invite notify.Invite)
}

// GroupService manages groups and their memberships, including the
// cascades that keep expenses and settlements consistent when members
// leave or are removed. Membership mutations are serialized per group
// so concurrent edits cannot lose updates to the members list.
type GroupService struct {
	store   storage.Store
	locks   *groupLocks
	invites InviteDispatcher
}

// NewGroupService creates a GroupService with the given storage backend
// and invite dispatcher (nil to disable invites).
func NewGroupService(store storage.Store, invites InviteDispatcher) *GroupService {
	return &GroupService{store: store, locks: newGroupLocks(), invites: invites}
}

// Create creates a group with the caller as admin plus the given
// initial members, and logs the creation.
func (s *GroupService) Create(ctx context.Context, callerID, name, description string, memberIDs []string) (*models.Group, error) {
	if name == "" {
		return nil, validationf("group name is required")
	}

	now := time.Now().UnixMilli()
	members := []models.Membership{{UserID: callerID, Role: models.RoleAdmin, JoinedAt: now}}
	seen := map[string]bool{callerID: true}

	var initialIDs []string
	for _, id := range memberIDs {
		if !seen[id] {
			seen[id] = true
			initialIDs = append(initialIDs, id)
		}
	}
	if len(initialIDs) > 0 {
		users, err := s.store.GetUsersByIDs(ctx, initialIDs)
		if err != nil {
			return nil, internal("failed to load users", err)
		}
		for _, id := range initialIDs {
			if users[id] == nil {
				return nil, notFoundf("user %s not found", id)
			}
			members = append(members, models.Membership{UserID: id, Role: models.RoleMember, JoinedAt: now, AddedBy: callerID})
		}
	}

	group := &models.Group{
		Name:        name,
		Description: description,
		CreatedBy:   callerID,
		Members:     members,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, internal("failed to create group", err)
	}

	s.appendActivity(ctx, &models.ActivityEntry{
		GroupID:     group.ID,
		Type:        models.ActivityGroupCreated,
		PerformedBy: callerID,
		Metadata:    models.ActivityMetadata{MemberCount: len(members)},
	})

	slog.Info("group created", "group_id", group.ID, "name", name, "members", len(members))
	return group, nil
}

// Get returns the group with its member user records. Members only.
func (s *GroupService) Get(ctx context.Context, callerID, groupID string) (*models.Group, []*models.User, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, nil, internal("failed to load group", err)
	}
	if group == nil {
		return nil, nil, notFoundf("group not found")
	}
	if !group.IsMember(callerID) {
		return nil, nil, unauthorizedf("you are not a member of this group")
	}

	usersByID, err := s.store.GetUsersByIDs(ctx, group.MemberIDs())
	if err != nil {
		return nil, nil, internal("failed to load group members", err)
	}
	users := make([]*models.User, 0, len(group.Members))
	for _, id := range group.MemberIDs() {
		if user, ok := usersByID[id]; ok {
			users = append(users, user)
		}
	}
	return group, users, nil
}

// AddMembers adds new members to a group, logs one entry for the whole
// addition and queues an invite per added member. Admin only. Returns
// how many members were actually added.
func (s *GroupService) AddMembers(ctx context.Context, callerID, groupID string, newMemberIDs []string) (int, error) {
	defer s.locks.acquire(groupID)()

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return 0, internal("failed to load group", err)
	}
	if group == nil {
		return 0, notFoundf("group not found")
	}
	if !group.IsAdmin(callerID) {
		return 0, unauthorizedf("only the group admin can add members")
	}

	var toAdd []string
	seen := make(map[string]bool)
	for _, id := range newMemberIDs {
		if !seen[id] && !group.IsMember(id) {
			seen[id] = true
			toAdd = append(toAdd, id)
		}
	}
	if len(toAdd) == 0 {
		return 0, validationf("all requested users are already members")
	}

	users, err := s.store.GetUsersByIDs(ctx, toAdd)
	if err != nil {
		return 0, internal("failed to load users", err)
	}
	for _, id := range toAdd {
		if users[id] == nil {
			return 0, notFoundf("user %s not found", id)
		}
	}

	now := time.Now().UnixMilli()
	members := append([]models.Membership(nil), group.Members...)
	for _, id := range toAdd {
		members = append(members, models.Membership{UserID: id, Role: models.RoleMember, JoinedAt: now, AddedBy: callerID})
	}
	if err := s.store.ReplaceGroupMembers(ctx, groupID, members); err != nil {
		return 0, internal("failed to update group members", err)
	}

	entry := &models.ActivityEntry{
		GroupID:     groupID,
		Type:        models.ActivityMembersAddedBulk,
		PerformedBy: callerID,
		Metadata:    models.ActivityMetadata{MemberCount: len(members), AddedCount: len(toAdd)},
	}
	if len(toAdd) == 1 {
		entry.Type = models.ActivityMemberAdded
		entry.TargetUserID = toAdd[0]
	} else {
		entry.TargetUserIDs = toAdd
	}
	s.appendActivity(ctx, entry)

	s.dispatchInvites(ctx, callerID, group, users, toAdd)

	slog.Info("members added", "group_id", groupID, "added", len(toAdd), "by", callerID)
	return len(toAdd), nil
}

// dispatchInvites queues one invite per added member. Fire and forget:
// failures here never affect the membership change.
func (s *GroupService) dispatchInvites(ctx context.Context, callerID string, group *models.Group, users map[string]*models.User, addedIDs []string) {
	if s.invites == nil {
		return
	}
	inviterName := ""
	if inviter, err := s.store.GetUserByID(ctx, callerID); err == nil && inviter != nil {
		inviterName = inviter.Name
	}
	for _, id := range addedIDs {
		user := users[id]
		if user == nil || user.Email == "" {
			continue
		}
		s.invites.Enqueue(notify.Invite{
			RecipientEmail: user.Email,
			RecipientName:  user.Name,
			GroupName:      group.Name,
			InviterName:    inviterName,
		})
	}
}

// RemoveMember removes a member from a group and cascades their
// expenses and settlements. Admin only; admins leave via Leave instead
// of removing themselves.
func (s *GroupService) RemoveMember(ctx context.Context, callerID, groupID, memberID string) error {
	defer s.locks.acquire(groupID)()

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return internal("failed to load group", err)
	}
	if group == nil {
		return notFoundf("group not found")
	}
	if !group.IsAdmin(callerID) {
		return unauthorizedf("only the group admin can remove members")
	}
	if memberID == callerID {
		return validationf("use leave group to remove yourself")
	}
	if !group.IsMember(memberID) {
		return validationf("user is not a member of this group")
	}

	members := withoutMember(group.Members, memberID)
	if err := s.store.ReplaceGroupMembers(ctx, groupID, members); err != nil {
		return internal("failed to update group members", err)
	}

	s.appendActivity(ctx, &models.ActivityEntry{
		GroupID:      groupID,
		Type:         models.ActivityMemberRemoved,
		PerformedBy:  callerID,
		TargetUserID: memberID,
		Metadata:     models.ActivityMetadata{MemberCount: len(members)},
	})

	s.cascadeMemberRemoval(ctx, groupID, memberID)

	slog.Info("member removed", "group_id", groupID, "member_id", memberID, "by", callerID)
	return nil
}

// TransferAdmin hands the admin role to another member. Exactly one
// member is admin afterwards.
func (s *GroupService) TransferAdmin(ctx context.Context, callerID, groupID, newAdminID string) error {
	defer s.locks.acquire(groupID)()

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return internal("failed to load group", err)
	}
	if group == nil {
		return notFoundf("group not found")
	}
	if !group.IsAdmin(callerID) {
		return unauthorizedf("only the group admin can transfer the admin role")
	}
	if newAdminID == callerID {
		return validationf("you are already the admin")
	}
	if !group.IsMember(newAdminID) {
		return validationf("new admin must be a group member")
	}

	members := reassignAdmin(group.Members, newAdminID)
	if err := s.store.ReplaceGroupMembers(ctx, groupID, members); err != nil {
		return internal("failed to update group members", err)
	}

	s.appendActivity(ctx, &models.ActivityEntry{
		GroupID:      groupID,
		Type:         models.ActivityAdminTransferred,
		PerformedBy:  callerID,
		TargetUserID: newAdminID,
	})

	slog.Info("admin transferred", "group_id", groupID, "new_admin", newAdminID, "by", callerID)
	return nil
}

// Leave removes the caller from the group. An admin must hand the role
// to another member first via newAdminID. When the last member leaves,
// the group and all its records are hard deleted.
func (s *GroupService) Leave(ctx context.Context, callerID, groupID, newAdminID string) error {
	defer s.locks.acquire(groupID)()

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return internal("failed to load group", err)
	}
	if group == nil {
		return notFoundf("group not found")
	}
	if !group.IsMember(callerID) {
		return unauthorizedf("you are not a member of this group")
	}

	members := group.Members
	if group.IsAdmin(callerID) && len(members) > 1 {
		if newAdminID == "" {
			return validationf("admin must name a new admin before leaving")
		}
		if newAdminID == callerID || !group.IsMember(newAdminID) {
			return validationf("new admin must be another group member")
		}
		members = reassignAdmin(members, newAdminID)
	}

	members = withoutMember(members, callerID)
	if len(members) == 0 {
		// Last member out: the group ceases to exist, records and all.
		if err := s.store.DeleteGroup(ctx, groupID); err != nil {
			return internal("failed to delete empty group", err)
		}
		slog.Info("group deleted after last member left", "group_id", groupID, "member_id", callerID)
		return nil
	}

	if err := s.store.ReplaceGroupMembers(ctx, groupID, members); err != nil {
		return internal("failed to update group members", err)
	}

	s.appendActivity(ctx, &models.ActivityEntry{
		GroupID:      groupID,
		Type:         models.ActivityMemberRemoved,
		PerformedBy:  callerID,
		TargetUserID: callerID,
		Metadata:     models.ActivityMetadata{MemberCount: len(members)},
	})

	s.cascadeMemberRemoval(ctx, groupID, callerID)

	slog.Info("member left group", "group_id", groupID, "member_id", callerID)
	return nil
}

// Delete removes a group and everything in it. Admin only, irreversible.
func (s *GroupService) Delete(ctx context.Context, callerID, groupID string) error {
	defer s.locks.acquire(groupID)()

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return internal("failed to load group", err)
	}
	if group == nil {
		return notFoundf("group not found")
	}
	if !group.IsAdmin(callerID) {
		return unauthorizedf("only the group admin can delete the group")
	}

	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		return internal("failed to delete group", err)
	}
	slog.Info("group deleted", "group_id", groupID, "by", callerID)
	return nil
}

// ActivityLog returns the group's audit trail, newest first. A missing
// group or a non-member caller yields an empty log rather than an
// error, so clients of since-deleted groups can redirect cleanly.
func (s *GroupService) ActivityLog(ctx context.Context, callerID, groupID string, limit int) ([]models.ActivityEntry, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, internal("failed to load group", err)
	}
	if group == nil || !group.IsMember(callerID) {
		return []models.ActivityEntry{}, nil
	}

	if limit <= 0 {
		limit = 50
	}
	entries, err := s.store.ActivityByGroup(ctx, groupID, limit)
	if err != nil {
		return nil, internal("failed to load activity log", err)
	}
	return entries, nil
}

// cascadeMemberRemoval edits the group's expenses and settlements after
// a member is gone: their splits are dropped, expenses with no splits
// left are deleted, expenses they paid get the first remaining split
// holder as payer (with that split marked paid so the new payer does
// not owe themselves), and every settlement they were part of is
// deleted. Best effort: the membership change is authoritative and is
// never rolled back; CleanupOrphaned can reconcile later drift.
func (s *GroupService) cascadeMemberRemoval(ctx context.Context, groupID, memberID string) {
	expenses, err := s.store.ExpensesByGroup(ctx, groupID)
	if err != nil {
		slog.Warn("removal cascade: failed to load group expenses",
			"group_id", groupID, "member_id", memberID, "error", err)
		return
	}

	for i := range expenses {
		exp := &expenses[i]
		if !exp.Involves(memberID) {
			continue
		}

		remaining := make([]models.Split, 0, len(exp.Splits))
		for _, split := range exp.Splits {
			if split.UserID != memberID {
				remaining = append(remaining, split)
			}
		}
		if len(remaining) == 0 {
			if err := s.store.DeleteExpense(ctx, exp.ID); err != nil {
				slog.Warn("removal cascade: failed to delete expense",
					"expense_id", exp.ID, "error", err)
			}
			continue
		}

		exp.Splits = remaining
		if exp.PaidByUserID == memberID {
			exp.PaidByUserID = remaining[0].UserID
			exp.Splits[0].Paid = true
		}
		if err := s.store.UpdateExpense(ctx, exp); err != nil {
			slog.Warn("removal cascade: failed to update expense",
				"expense_id", exp.ID, "error", err)
		}
	}

	settlements, err := s.store.SettlementsByGroup(ctx, groupID)
	if err != nil {
		slog.Warn("removal cascade: failed to load group settlements",
			"group_id", groupID, "member_id", memberID, "error", err)
		return
	}
	for _, st := range settlements {
		if !st.Involves(memberID) {
			continue
		}
		if err := s.store.DeleteSettlement(ctx, st.ID); err != nil {
			slog.Warn("removal cascade: failed to delete settlement",
				"settlement_id", st.ID, "error", err)
		}
	}
}

// appendActivity writes an audit entry; log failures are not surfaced
// because the primary mutation already committed.
func (s *GroupService) appendActivity(ctx context.Context, entry *models.ActivityEntry) {
	entry.Timestamp = time.Now().UnixMilli()
	if err := s.store.AppendActivity(ctx, entry); err != nil {
		slog.Warn("failed to append activity entry",
			"group_id", entry.GroupID, "type", entry.Type, "error", err)
	}
}

func withoutMember(members []models.Membership, userID string) []models.Membership {
	out := make([]models.Membership, 0, len(members))
	for _, m := range members {
		if m.UserID != userID {
			out = append(out, m)
		}
	}
	return out
}

// reassignAdmin makes newAdminID the only admin.
func reassignAdmin(members []models.Membership, newAdminID string) []models.Membership {
	out := make([]models.Membership, len(members))
	for i, m := range members {
		if m.UserID == newAdminID {
			m.Role = models.RoleAdmin
		} else {
			m.Role = models.RoleMember
		}
		out[i] = m
	}
	return out
}
