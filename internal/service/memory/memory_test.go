package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/teambot/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordCounter counts whitespace separated words, one token each.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func turn(i int, role core.Role, content string) core.Message {
	return core.Message{
		ID:        int64(i + 1),
		Role:      role,
		Content:   content,
		CreatedAt: t0.Add(time.Duration(i) * time.Second),
	}
}

// conversation builds n exchanges, each turn holding words words.
func conversation(n, words int) []core.Message {
	text := strings.TrimSpace(strings.Repeat("w ", words))
	msgs := make([]core.Message, 0, n*2)
	for i := 0; i < n; i++ {
		msgs = append(msgs,
			turn(len(msgs), core.RoleUser, text),
			turn(len(msgs)+1, core.RoleAssistant, text),
		)
	}
	return msgs
}

func countRoles(msgs []core.Message) (users, assistants int) {
	for _, m := range msgs {
		if m.Role == core.RoleUser {
			users++
		} else {
			assistants++
		}
	}
	return
}

func TestFitWindow_EmptyHistory(t *testing.T) {
	w, err := FitWindow(nil, time.Time{}, 5, 100, wordCounter{})
	require.NoError(t, err)
	assert.Empty(t, w.Messages)
	assert.Equal(t, 0, w.Tokens)
	assert.Equal(t, 0, w.Evicted)
}

func TestFitWindow_NoEviction(t *testing.T) {
	history := []core.Message{
		turn(0, core.RoleUser, "Hi"),
		turn(1, core.RoleAssistant, "Hello"),
	}

	w, err := FitWindow(history, time.Time{}, 200, 10000, wordCounter{})
	require.NoError(t, err)
	assert.Equal(t, history, w.Messages)
	assert.Equal(t, 2, w.Tokens)
	assert.Equal(t, 0, w.Evicted)
}

func TestFitWindow_EvictsOldestPairs(t *testing.T) {
	history := conversation(50, 10)

	// Only the latest exchange (20 words) fits next to 10 reserved tokens.
	w, err := FitWindow(history, time.Time{}, 10, 50, wordCounter{})
	require.NoError(t, err)
	assert.Equal(t, 49, w.Evicted)
	assert.Equal(t, history[98:], w.Messages)
	assert.Equal(t, 20, w.Tokens)
}

func TestFitWindow_IrreducibleOverflow(t *testing.T) {
	history := conversation(50, 20)

	_, err := FitWindow(history, time.Time{}, 15, 50, wordCounter{})
	assert.ErrorIs(t, err, core.ErrTokenBudgetExceeded)
}

func TestFitWindow_QueryAloneOverBudget(t *testing.T) {
	_, err := FitWindow(nil, time.Time{}, 51, 50, wordCounter{})
	assert.ErrorIs(t, err, core.ErrTokenBudgetExceeded)
}

func TestFitWindow_BudgetAndSymmetryProperty(t *testing.T) {
	for n := 0; n <= 12; n++ {
		for budget := 0; budget <= 120; budget += 7 {
			for reserved := 0; reserved <= 10; reserved += 5 {
				name := fmt.Sprintf("n=%d/budget=%d/reserved=%d", n, budget, reserved)
				history := conversation(n, 3)

				w, err := FitWindow(history, time.Time{}, reserved, budget, wordCounter{})
				if err != nil {
					require.ErrorIs(t, err, core.ErrTokenBudgetExceeded, name)
					continue
				}

				assert.LessOrEqual(t, w.Tokens+reserved, budget, name)

				users, assistants := countRoles(w.Messages)
				assert.Equal(t, users, assistants, name)
				assert.Equal(t, n-users, w.Evicted, name)

				// Survivors are a contiguous suffix.
				assert.Equal(t, history[len(history)-len(w.Messages):], w.Messages, name)
			}
		}
	}
}

func TestFitWindow_TrailingUserTurnKept(t *testing.T) {
	history := append(conversation(3, 5), turn(6, core.RoleUser, "still waiting"))

	w, err := FitWindow(history, time.Time{}, 0, 14, wordCounter{})
	require.NoError(t, err)
	require.Len(t, w.Messages, 3)
	assert.Equal(t, "still waiting", w.Messages[2].Content)
	assert.Equal(t, core.RoleUser, w.Messages[2].Role)
	assert.Equal(t, 2, w.Evicted)
}

func TestFitWindow_SkipsMidLogOrphans(t *testing.T) {
	history := []core.Message{
		turn(0, core.RoleAssistant, "stray reply"),
		turn(1, core.RoleUser, "lost question"),
		turn(2, core.RoleUser, "q1"),
		turn(3, core.RoleAssistant, "a1"),
		turn(4, core.RoleUser, "q2"),
		turn(5, core.RoleAssistant, "a2"),
	}

	w, err := FitWindow(history, time.Time{}, 0, 100, wordCounter{})
	require.NoError(t, err)
	assert.Equal(t, history[2:], w.Messages)
}

func TestFitWindow_ContiguousOverExchanges(t *testing.T) {
	history := []core.Message{
		turn(0, core.RoleUser, "u1"),
		turn(1, core.RoleAssistant, "a1"),
		turn(2, core.RoleUser, "u2"),
		turn(3, core.RoleUser, "u3"),
		turn(4, core.RoleAssistant, "a3"),
	}

	w, err := FitWindow(history, time.Time{}, 0, 100, wordCounter{})
	require.NoError(t, err)
	assert.Equal(t, []core.Message{history[0], history[1], history[3], history[4]}, w.Messages)

	w, err = FitWindow(history, time.Time{}, 0, 2, wordCounter{})
	require.NoError(t, err)
	assert.Equal(t, []core.Message{history[3], history[4]}, w.Messages)
	assert.Equal(t, 1, w.Evicted)
}

func TestFitWindow_OnlyTurnsBeforeQuery(t *testing.T) {
	history := conversation(3, 1)
	at := history[4].CreatedAt

	w, err := FitWindow(history, at, 0, 100, wordCounter{})
	require.NoError(t, err)
	require.Len(t, w.Messages, 4)
	for i, m := range w.Messages {
		assert.True(t, m.CreatedAt.Before(at))
		if i > 0 {
			assert.False(t, m.CreatedAt.Before(w.Messages[i-1].CreatedAt))
		}
	}
}

type fakeStore struct {
	snippets []core.Snippet
	err      error
	calls    int
	lastK    int
}

func (f *fakeStore) SimilaritySearch(_ context.Context, _ string, k int) ([]core.Snippet, error) {
	f.calls++
	f.lastK = k
	return f.snippets, f.err
}

func (f *fakeStore) Upsert(context.Context, []core.Document) error {
	return errors.New("read only")
}

func TestContextAssembler_Augment(t *testing.T) {
	store := &fakeStore{snippets: []core.Snippet{
		{Text: "X is a letter.", Score: 0.9},
		{Text: "X follows W.", Score: 0.8},
	}}
	a := NewContextAssembler(store, 0)

	got, snippets, err := a.Augment(context.Background(), "What is X?")
	require.NoError(t, err)
	assert.Len(t, snippets, 2)
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, DefaultRetrievalK, store.lastK)
	assert.Equal(t,
		"Using the context below, answer the query.\n\nContext:\nX is a letter.\nX follows W.\n\nQuery: What is X?",
		got)
}

func TestContextAssembler_ZeroSnippets(t *testing.T) {
	a := NewContextAssembler(&fakeStore{}, 3)

	got, snippets, err := a.Augment(context.Background(), "What is X?")
	require.NoError(t, err)
	assert.Empty(t, snippets)
	assert.Equal(t, "What is X?", got)
}

func TestContextAssembler_RetrievalFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	a := NewContextAssembler(store, 3)

	got, snippets, err := a.Augment(context.Background(), "What is X?")
	assert.ErrorIs(t, err, core.ErrRetrievalFailed)
	assert.Nil(t, snippets)
	assert.Equal(t, "What is X?", got)
	assert.Equal(t, 1, store.calls)
}

type promptPath string

func (p promptPath) GetSystemPath() string {
	return string(p)
}

func TestSysPrompt_Build(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "SYSTEM.md")
	p := NewSysPrompt(promptPath(path))

	assert.Equal(t, DefaultInstruction, p.Build())

	require.NoError(t, os.WriteFile(path, []byte("  Answer like a pirate.\n"), 0o644))
	assert.Equal(t, "Answer like a pirate.", p.Build())

	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o644))
	assert.Equal(t, DefaultInstruction, p.Build())
}
