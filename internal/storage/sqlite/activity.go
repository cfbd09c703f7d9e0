package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/equinex/backend/internal/models"
)

// AppendActivity writes one activity entry.
func (s *SQLiteStore) AppendActivity(ctx context.Context, entry *models.ActivityEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = nowMillis()
	}

	var targetUserID any
	if entry.TargetUserID != "" {
		targetUserID = entry.TargetUserID
	}
	var targetUserIDs any
	if len(entry.TargetUserIDs) > 0 {
		encoded, err := json.Marshal(entry.TargetUserIDs)
		if err != nil {
			return fmt.Errorf("failed to encode target user ids: %w", err)
		}
		targetUserIDs = string(encoded)
	}
	var memberCount, addedCount any
	if entry.Metadata.MemberCount > 0 {
		memberCount = entry.Metadata.MemberCount
	}
	if entry.Metadata.AddedCount > 0 {
		addedCount = entry.Metadata.AddedCount
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_log (id, group_id, type, performed_by, target_user_id, target_user_ids, timestamp, member_count, added_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.GroupID, entry.Type, entry.PerformedBy,
		targetUserID, targetUserIDs, entry.Timestamp, memberCount, addedCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity entry: %w", err)
	}
	return nil
}

// ActivityByGroup returns up to limit entries for a group, newest first.
func (s *SQLiteStore) ActivityByGroup(ctx context.Context, groupID string, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, type, performed_by, target_user_id, target_user_ids, timestamp, member_count, added_count
		 FROM activity_log WHERE group_id = ? ORDER BY timestamp DESC LIMIT ?`,
		groupID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer rows.Close()

	var entries []models.ActivityEntry
	for rows.Next() {
		var e models.ActivityEntry
		var targetUserID, targetUserIDs sql.NullString
		var memberCount, addedCount sql.NullInt64
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Type, &e.PerformedBy,
			&targetUserID, &targetUserIDs, &e.Timestamp, &memberCount, &addedCount); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		e.TargetUserID = targetUserID.String
		if targetUserIDs.Valid {
			if err := json.Unmarshal([]byte(targetUserIDs.String), &e.TargetUserIDs); err != nil {
				return nil, fmt.Errorf("failed to decode target user ids: %w", err)
			}
		}
		e.Metadata.MemberCount = int(memberCount.Int64)
		e.Metadata.AddedCount = int(addedCount.Int64)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity log: %w", err)
	}
	return entries, nil
}
