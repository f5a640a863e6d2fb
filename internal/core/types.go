package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	BotName          = "TeamBot"
	BotUserAgent     = "TeamBot/0.2"
	BotRepositoryURL = "https://github.com/sandevgo/teambot"
	BotVersion       = "0.2.0"
)

// Role tags the author of a stored conversation turn.
type Role uint8

const (
	RoleUser Role = iota + 1
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "human":
		return RoleUser, nil
	case "assistant", "ai", "bot":
		return RoleAssistant, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// ConversationKey identifies a thread: a group when GroupID is set, otherwise
// the direct chat with UserID.
type ConversationKey struct {
	UserID  int64
	GroupID int64
}

func DirectKey(userID int64) ConversationKey {
	return ConversationKey{UserID: userID}
}

func GroupKey(userID, groupID int64) ConversationKey {
	return ConversationKey{UserID: userID, GroupID: groupID}
}

func (k ConversationKey) IsGroup() bool {
	return k.GroupID != 0
}

func (k ConversationKey) String() string {
	if k.IsGroup() {
		return fmt.Sprintf("group:%d", k.GroupID)
	}
	return fmt.Sprintf("user:%d", k.UserID)
}

// Message is one immutable conversation turn.
type Message struct {
	ID        int64
	Key       ConversationKey
	Role      Role
	Content   string
	CreatedAt time.Time
}

// Snippet is a single similarity search hit.
type Snippet struct {
	Text     string
	Score    float32
	Metadata map[string]any
}

// Document is a unit of knowledge handed to a vector store.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Upload records a file sent to the bot.
type Upload struct {
	Key       ConversationKey
	FileName  string
	FileType  string
	CreatedAt time.Time
}

type UserStats struct {
	UserID       int64 `json:"user_id"`
	RequestCount int   `json:"request_count"`
	FileCount    int   `json:"file_count"`
}

// Query is one inbound question.
type Query struct {
	Key  ConversationKey
	Text string
	At   time.Time
}

// Answer is the outcome of a successful orchestration.
type Answer struct {
	Text         string
	PromptTokens int
	Evicted      int
	Snippets     int
}
