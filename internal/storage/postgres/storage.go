package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sandevgo/teambot/internal/core"
	"github.com/sandevgo/teambot/pkg/log"
)

type Storage struct {
	pool         *pgxpool.Pool
	historyLimit int
}

func NewStorage(pool *pgxpool.Pool, historyLimit int) *Storage {
	return &Storage{
		pool:         pool,
		historyLimit: historyLimit,
	}
}

func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

func (s *Storage) Append(ctx context.Context, msg core.Message) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return insertMessage(ctx, tx, msg)
	})
}

func (s *Storage) AppendExchange(ctx context.Context, user, assistant core.Message) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := insertMessage(ctx, tx, user); err != nil {
			return err
		}
		return insertMessage(ctx, tx, assistant)
	})
}

func insertMessage(ctx context.Context, tx pgx.Tx, msg core.Message) error {
	if !msg.Role.Valid() {
		return fmt.Errorf("invalid message role: %s", msg.Role)
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	query := `INSERT INTO messages (user_id, group_id, is_group, role, content, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := tx.Exec(ctx, query,
		msg.Key.UserID, msg.Key.GroupID, msg.Key.IsGroup(),
		msg.Role.String(), msg.Content, msg.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (s *Storage) ReadOrdered(ctx context.Context, key core.ConversationKey) ([]core.Message, error) {
	var (
		where string
		arg   int64
	)
	if key.IsGroup() {
		where, arg = `is_group AND group_id = $1`, key.GroupID
	} else {
		where, arg = `NOT is_group AND user_id = $1`, key.UserID
	}

	cols := `SELECT id, user_id, group_id, role, content, created_at FROM messages WHERE ` + where

	var (
		rows pgx.Rows
		err  error
	)
	if s.historyLimit > 0 {
		rows, err = s.pool.Query(ctx, cols+` ORDER BY created_at DESC, id DESC LIMIT $2`, arg, s.historyLimit)
	} else {
		rows, err = s.pool.Query(ctx, cols+` ORDER BY created_at ASC, id ASC`, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	messages, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}

	if s.historyLimit > 0 {
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}

	log.FromCtx(ctx).Debug().Str("conversation", key.String()).Int("count", len(messages)).Msg("loaded history messages")
	return messages, nil
}

func collectMessages(rows pgx.Rows) ([]core.Message, error) {
	defer rows.Close()

	var messages []core.Message
	for rows.Next() {
		var (
			msg  core.Message
			role string
		)
		if err := rows.Scan(&msg.ID, &msg.Key.UserID, &msg.Key.GroupID, &role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		r, err := core.ParseRole(role)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", msg.ID, err)
		}
		msg.Role = r
		msg.CreatedAt = msg.CreatedAt.UTC()

		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *Storage) RecordUpload(ctx context.Context, upload core.Upload) error {
	if upload.CreatedAt.IsZero() {
		upload.CreatedAt = time.Now()
	}

	query := `INSERT INTO uploads (user_id, group_id, is_group, file_name, file_type, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.pool.Exec(ctx, query,
		upload.Key.UserID, upload.Key.GroupID, upload.Key.IsGroup(),
		upload.FileName, upload.FileType, upload.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}
	return nil
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	y, m, d := day.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func (s *Storage) RequestsByDate(ctx context.Context, day time.Time) ([]core.Message, error) {
	from, to := dayBounds(day)

	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, group_id, role, content, created_at
		FROM messages
		WHERE role = 'user' AND created_at >= $1 AND created_at < $2
		ORDER BY created_at ASC, id ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	return collectMessages(rows)
}

func (s *Storage) UserStatsByDate(ctx context.Context, day time.Time) ([]core.UserStats, error) {
	from, to := dayBounds(day)

	rows, err := s.pool.Query(ctx, `
		SELECT user_id, SUM(requests)::int, SUM(files)::int FROM (
			SELECT user_id, COUNT(*) AS requests, 0 AS files
			FROM messages
			WHERE role = 'user' AND created_at >= $1 AND created_at < $2
			GROUP BY user_id
			UNION ALL
			SELECT user_id, 0 AS requests, COUNT(*) AS files
			FROM uploads
			WHERE created_at >= $1 AND created_at < $2
			GROUP BY user_id
		) t
		GROUP BY user_id
		ORDER BY user_id`, from, to)
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
	return stats, rows.Err()
}
