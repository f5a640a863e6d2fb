package core

import (
	"context"
	"time"
)

type ConversationStore interface {
	Append(ctx context.Context, msg Message) error
	// AppendExchange stores a user turn and its reply atomically.
	AppendExchange(ctx context.Context, user, assistant Message) error
	// ReadOrdered returns the conversation oldest first.
	ReadOrdered(ctx context.Context, key ConversationKey) ([]Message, error)
}

type UploadsRepository interface {
	RecordUpload(ctx context.Context, upload Upload) error
}

type StatsRepository interface {
	RequestsByDate(ctx context.Context, day time.Time) ([]Message, error)
	UserStatsByDate(ctx context.Context, day time.Time) ([]UserStats, error)
}

// Storage is everything a database backend provides.
type Storage interface {
	ConversationStore
	UploadsRepository
	StatsRepository
	Close() error
}
