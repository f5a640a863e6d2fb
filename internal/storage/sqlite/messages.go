package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sandevgo/teambot/internal/core"
	"github.com/sandevgo/teambot/pkg/log"
)

// Storage keeps conversations, uploads and the statistics built from them.
type Storage struct {
	db           *sql.DB
	historyLimit int
}

// NewStorage returns a store whose ReadOrdered returns at most historyLimit
// most recent turns. Zero means the whole log.
func NewStorage(db *sql.DB, historyLimit int) *Storage {
	return &Storage{
		db:           db,
		historyLimit: historyLimit,
	}
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Append(ctx context.Context, msg core.Message) error {
	if err := insertMessage(ctx, s.db, msg); err != nil {
		return err
	}
	return nil
}

func (s *Storage) AppendExchange(ctx context.Context, user, assistant core.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertMessage(ctx, tx, user); err != nil {
		return err
	}
	if err := insertMessage(ctx, tx, assistant); err != nil {
		return err
	}

	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertMessage(ctx context.Context, db execer, msg core.Message) error {
	if !msg.Role.Valid() {
		return fmt.Errorf("invalid message role: %s", msg.Role)
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	query := `INSERT INTO messages (user_id, group_id, is_group, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		msg.Key.UserID, msg.Key.GroupID, msg.Key.IsGroup(),
		msg.Role.String(), msg.Content, msg.CreatedAt.UTC().UnixMicro(),
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
		where, arg = `is_group = 1 AND group_id = ?`, key.GroupID
	} else {
		where, arg = `is_group = 0 AND user_id = ?`, key.UserID
	}

	cols := `SELECT id, user_id, group_id, role, content, created_at FROM messages WHERE ` + where

	var (
		rows *sql.Rows
		err  error
	)
	if s.historyLimit > 0 {
		// Fetch the newest rows and flip them below.
		rows, err = s.db.QueryContext(ctx, cols+` ORDER BY created_at DESC, id DESC LIMIT ?`, arg, s.historyLimit)
	} else {
		rows, err = s.db.QueryContext(ctx, cols+` ORDER BY created_at ASC, id ASC`, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
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

func scanMessages(rows *sql.Rows) ([]core.Message, error) {
	var messages []core.Message
	for rows.Next() {
		var (
			msg     core.Message
			role    string
			created int64
		)
		if err := rows.Scan(&msg.ID, &msg.Key.UserID, &msg.Key.GroupID, &role, &msg.Content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		r, err := core.ParseRole(role)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", msg.ID, err)
		}
		msg.Role = r
		msg.CreatedAt = time.UnixMicro(created).UTC()

		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
