package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sandevgo/teambot/internal/core"
	"github.com/sandevgo/teambot/internal/service/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

type fakeHistory struct {
	msgs []core.Message
	err  error
}

func (f *fakeHistory) ReadOrdered(context.Context, core.ConversationKey) ([]core.Message, error) {
	return f.msgs, f.err
}

type fakeVectorStore struct {
	snippets []core.Snippet
	err      error
}

func (f *fakeVectorStore) SimilaritySearch(context.Context, string, int) ([]core.Snippet, error) {
	return f.snippets, f.err
}

func (f *fakeVectorStore) Upsert(context.Context, []core.Document) error {
	return nil
}

type staticPrompt string

func (p staticPrompt) Build() string {
	return string(p)
}

type fakeModel struct {
	reply   string
	err     error
	calls   int
	prompts []core.PromptSequence
}

func (m *fakeModel) Invoke(_ context.Context, p core.PromptSequence) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, p)
	return m.reply, m.err
}

func (m *fakeModel) Model() string {
	return "fake"
}

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func pairs(n, words int) []core.Message {
	text := strings.TrimSpace(strings.Repeat("w ", words))
	var msgs []core.Message
	for i := 0; i < n; i++ {
		msgs = append(msgs,
			core.Message{ID: int64(2*i + 1), Role: core.RoleUser, Content: text, CreatedAt: base.Add(time.Duration(2*i) * time.Second)},
			core.Message{ID: int64(2*i + 2), Role: core.RoleAssistant, Content: text, CreatedAt: base.Add(time.Duration(2*i+1) * time.Second)},
		)
	}
	return msgs
}

func newTestAgent(history *fakeHistory, store *fakeVectorStore, model *fakeModel, instruction string, budget int) *Agent {
	a := NewAgent(history, memory.NewContextAssembler(store, 3), staticPrompt(instruction), model, budget)
	a.counter = func(string) (core.TokenCounter, error) {
		return wordCounter{}, nil
	}
	return a
}

func TestAgent_Answer_NoEviction(t *testing.T) {
	history := &fakeHistory{msgs: []core.Message{
		{ID: 1, Role: core.RoleUser, Content: "Hi", CreatedAt: base},
		{ID: 2, Role: core.RoleAssistant, Content: "Hello", CreatedAt: base.Add(time.Second)},
	}}
	snippet := strings.TrimSpace(strings.Repeat("fact ", 66))
	store := &fakeVectorStore{snippets: []core.Snippet{{Text: snippet}, {Text: snippet}, {Text: snippet}}}
	model := &fakeModel{reply: "X is a letter."}

	a := newTestAgent(history, store, model, "", 10000)
	answer, err := a.Answer(context.Background(), core.Query{Text: "What is X?", At: base.Add(time.Minute)})
	require.NoError(t, err)

	assert.Equal(t, "X is a letter.", answer.Text)
	assert.Equal(t, 0, answer.Evicted)
	assert.Equal(t, 3, answer.Snippets)
	require.Equal(t, 1, model.calls)

	msgs := model.prompts[0].Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "Hi", msgs[0].Content)
	assert.Equal(t, "Hello", msgs[1].Content)
	assert.Equal(t, core.ChatRoleUser, msgs[2].Role)
	assert.True(t, strings.HasSuffix(msgs[2].Content, "Query: What is X?"))
	assert.Equal(t, 3, strings.Count(msgs[2].Content, snippet))
}

func TestAgent_Answer_EvictsDownToLatestPair(t *testing.T) {
	history := &fakeHistory{msgs: pairs(50, 10)}
	model := &fakeModel{reply: "ok"}

	a := newTestAgent(history, &fakeVectorStore{}, model, "", 50)
	answer, err := a.Answer(context.Background(), core.Query{Text: "short question", At: base.Add(time.Hour)})
	require.NoError(t, err)

	assert.Equal(t, 49, answer.Evicted)
	assert.LessOrEqual(t, answer.PromptTokens, 50)
	require.Len(t, model.prompts[0].History, 2)
	assert.Equal(t, int64(99), model.prompts[0].History[0].ID)
	assert.Equal(t, int64(100), model.prompts[0].History[1].ID)
}

func TestAgent_Answer_TokenBudgetExceeded(t *testing.T) {
	history := &fakeHistory{msgs: pairs(50, 30)}
	model := &fakeModel{reply: "never"}

	a := newTestAgent(history, &fakeVectorStore{}, model, "be nice", 50)
	_, err := a.Answer(context.Background(), core.Query{Text: "q", At: base.Add(time.Hour)})

	var aerr *core.AnswerError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, core.CodeTokenBudgetExceeded, aerr.Code)
	assert.ErrorIs(t, err, core.ErrTokenBudgetExceeded)
	assert.Equal(t, 0, model.calls)
}

func TestAgent_Answer_RetrievalFailureDegrades(t *testing.T) {
	store := &fakeVectorStore{err: errors.New("pinecone unavailable")}
	model := &fakeModel{reply: "best effort"}

	a := newTestAgent(&fakeHistory{}, store, model, "", 1000)
	answer, err := a.Answer(context.Background(), core.Query{Text: "What is X?"})
	require.NoError(t, err)

	assert.Equal(t, "best effort", answer.Text)
	assert.Equal(t, 0, answer.Snippets)
	assert.Equal(t, "What is X?", model.prompts[0].Query)
}

func TestAgent_Answer_GenerationFailure(t *testing.T) {
	cause := errors.New("503 from upstream")
	model := &fakeModel{err: cause}

	a := newTestAgent(&fakeHistory{}, &fakeVectorStore{}, model, "", 1000)
	_, err := a.Answer(context.Background(), core.Query{Text: "q"})

	var aerr *core.AnswerError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, core.CodeAnswerGenerationFailed, aerr.Code)
	assert.ErrorIs(t, err, core.ErrAnswerGenerationFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, model.calls)
}

func TestAgent_Answer_HistoryReadFailure(t *testing.T) {
	model := &fakeModel{}
	a := newTestAgent(&fakeHistory{err: errors.New("db locked")}, &fakeVectorStore{}, model, "", 1000)

	_, err := a.Answer(context.Background(), core.Query{Text: "q"})
	assert.Error(t, err)
	assert.Equal(t, 0, model.calls)
}

func TestAgent_Answer_OrderingInvariant(t *testing.T) {
	msgs := pairs(4, 1)
	at := msgs[6].CreatedAt
	model := &fakeModel{reply: "ok"}

	a := newTestAgent(&fakeHistory{msgs: msgs}, &fakeVectorStore{}, model, "sys", 1000)
	_, err := a.Answer(context.Background(), core.Query{Text: "q", At: at})
	require.NoError(t, err)

	prompt := model.prompts[0]
	require.Len(t, prompt.History, 6)
	for i, m := range prompt.History {
		assert.True(t, m.CreatedAt.Before(at))
		if i > 0 {
			assert.False(t, m.CreatedAt.Before(prompt.History[i-1].CreatedAt))
		}
	}

	chat := prompt.Messages()
	assert.Equal(t, core.ChatRoleSystem, chat[0].Role)
	assert.Equal(t, "q", chat[len(chat)-1].Content)
}

type fakeConversationStore struct {
	mu        sync.Mutex
	exchanges [][2]core.Message
	err       error
}

func (s *fakeConversationStore) Append(context.Context, core.Message) error {
	return nil
}

func (s *fakeConversationStore) AppendExchange(_ context.Context, user, assistant core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges = append(s.exchanges, [2]core.Message{user, assistant})
	return s.err
}

func (s *fakeConversationStore) ReadOrdered(context.Context, core.ConversationKey) ([]core.Message, error) {
	return nil, nil
}

type answerFunc func(ctx context.Context, q core.Query) (core.Answer, error)

func (f answerFunc) Answer(ctx context.Context, q core.Query) (core.Answer, error) {
	return f(ctx, q)
}

func TestResponder_PersistsExchange(t *testing.T) {
	store := &fakeConversationStore{}
	r := NewResponder(answerFunc(func(context.Context, core.Query) (core.Answer, error) {
		return core.Answer{Text: "42"}, nil
	}), store)

	key := core.GroupKey(7, -100)
	got, err := r.Respond(context.Background(), key, "meaning of life?")
	require.NoError(t, err)
	assert.Equal(t, "42", got)

	require.Len(t, store.exchanges, 1)
	user, reply := store.exchanges[0][0], store.exchanges[0][1]
	assert.Equal(t, core.RoleUser, user.Role)
	assert.Equal(t, "meaning of life?", user.Content)
	assert.Equal(t, key, user.Key)
	assert.Equal(t, core.RoleAssistant, reply.Role)
	assert.Equal(t, "42", reply.Content)
	assert.True(t, reply.CreatedAt.After(user.CreatedAt))
}

func TestResponder_AnswerErrorNotPersisted(t *testing.T) {
	store := &fakeConversationStore{}
	r := NewResponder(answerFunc(func(context.Context, core.Query) (core.Answer, error) {
		return core.Answer{}, core.NewTokenBudgetError(core.ErrTokenBudgetExceeded)
	}), store)

	got, err := r.Respond(context.Background(), core.DirectKey(1), "long story")
	require.NoError(t, err)
	assert.Contains(t, got, core.CodeTokenBudgetExceeded)
	assert.Empty(t, store.exchanges)
}

func TestResponder_CancelledNotPersisted(t *testing.T) {
	store := &fakeConversationStore{}
	ctx, cancel := context.WithCancel(context.Background())

	r := NewResponder(answerFunc(func(context.Context, core.Query) (core.Answer, error) {
		cancel()
		return core.Answer{Text: "too late"}, nil
	}), store)

	_, err := r.Respond(ctx, core.DirectKey(1), "hello")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.exchanges)
}

func TestResponder_UnexpectedError(t *testing.T) {
	store := &fakeConversationStore{}
	r := NewResponder(answerFunc(func(context.Context, core.Query) (core.Answer, error) {
		return core.Answer{}, errors.New("db gone")
	}), store)

	_, err := r.Respond(context.Background(), core.DirectKey(1), "hello")
	assert.Error(t, err)
	assert.Empty(t, store.exchanges)
}
