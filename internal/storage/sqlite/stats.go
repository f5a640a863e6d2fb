package sqlite

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sandevgo/teambot/internal/core"
)

func (s *Storage) RecordUpload(ctx context.Context, upload core.Upload) error {
	if upload.CreatedAt.IsZero() {
		upload.CreatedAt = time.Now()
	}

	query := `INSERT INTO uploads (user_id, group_id, is_group, file_name, file_type, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		upload.Key.UserID, upload.Key.GroupID, upload.Key.IsGroup(),
		upload.FileName, upload.FileType, upload.CreatedAt.UTC().UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}
	return nil
}

// dayBounds returns the UTC calendar day containing day as unix micros.
func dayBounds(day time.Time) (int64, int64) {
	y, m, d := day.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start.UnixMicro(), start.AddDate(0, 0, 1).UnixMicro()
}

func (s *Storage) RequestsByDate(ctx context.Context, day time.Time) ([]core.Message, error) {
	from, to := dayBounds(day)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, group_id, role, content, created_at
		FROM messages
		WHERE role = 'user' AND created_at >= ? AND created_at < ?
		ORDER BY created_at ASC, id ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (s *Storage) UserStatsByDate(ctx context.Context, day time.Time) ([]core.UserStats, error) {
	from, to := dayBounds(day)

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, SUM(requests), SUM(files) FROM (
			SELECT user_id, COUNT(*) AS requests, 0 AS files
			FROM messages
			WHERE role = 'user' AND created_at >= ? AND created_at < ?
			GROUP BY user_id
			UNION ALL
			SELECT user_id, 0 AS requests, COUNT(*) AS files
			FROM uploads
			WHERE created_at >= ? AND created_at < ?
			GROUP BY user_id
		)
		GROUP BY user_id`, from, to, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query user stats: %w", err)
	}
	defer rows.Close()

	var stats []core.UserStats
	for rows.Next() {
		var st core.UserStats
		if err := rows.Scan(&st.UserID, &st.RequestCount, &st.FileCount); err != nil {
			return nil, fmt.Errorf("failed to scan user stats: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].UserID < stats[j].UserID
	})
	return stats, nil
}
