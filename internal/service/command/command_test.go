package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/teambot/internal/core"
)

type fakeConfig struct {
	provider string
}

func (f *fakeConfig) GetModel() string           { return "" }
func (f *fakeConfig) SetModel(model string) error { return nil }
func (f *fakeConfig) GetProvider() string         { return f.provider }

type fakeState struct {
	model string
	err   error
}

func (f *fakeState) ChangeModel(ctx context.Context, model string) error {
	if f.err != nil {
		return f.err
	}
	f.model = model
	return nil
}

func (f *fakeState) CurrentModel() string { return f.model }

type fakeStats struct {
	day   time.Time
	stats []core.UserStats
}

func (f *fakeStats) RequestsByDate(ctx context.Context, day time.Time) ([]core.Message, error) {
	return nil, nil
}

func (f *fakeStats) UserStatsByDate(ctx context.Context, day time.Time) ([]core.UserStats, error) {
	f.day = day
	return f.stats, nil
}

type fakeKB struct {
	text   string
	source string
	url    string
}

func (f *fakeKB) ImportURL(ctx context.Context, rawURL string) (int, error) {
	f.url = rawURL
	return 5, nil
}

func (f *fakeKB) AddText(ctx context.Context, text, source string) (int, error) {
	f.text, f.source = text, source
	return 2, nil
}

var (
	admin = core.Caller{Key: core.DirectKey(1), Username: "boss", IsAdmin: true}
	guest = core.Caller{Key: core.DirectKey(2), Username: "guest"}
)

func newTestRouter() (*Router, *fakeState, *fakeStats, *fakeKB) {
	st := &fakeState{model: "gpt-4o"}
	stats := &fakeStats{}
	kb := &fakeKB{}
	return New(NewCommands(&fakeConfig{provider: "openai"}, st, stats, kb)), st, stats, kb
}

func TestRouter_NotACommand(t *testing.T) {
	r, _, _, _ := newTestRouter()

	out, handled := r.Execute(context.Background(), admin, "hello there")
	assert.False(t, handled)
	assert.Empty(t, out)
}

func TestRouter_Unknown(t *testing.T) {
	r, _, _, _ := newTestRouter()

	out, handled := r.Execute(context.Background(), admin, "/nope")
	assert.True(t, handled)
	assert.Contains(t, out, "Unknown command: /nope")
}

func TestRouter_AdminGuard(t *testing.T) {
	r, st, _, kb := newTestRouter()

	for _, input := range []string{"/model gpt-3.5", "/stats", "/upd secret"} {
		out, handled := r.Execute(context.Background(), guest, input)
		assert.True(t, handled)
		assert.Equal(t, adminOnlyMessage, out, input)
	}
	assert.Equal(t, "gpt-4o", st.model)
	assert.Empty(t, kb.text)
}

func TestRouter_BotSuffixAndCase(t *testing.T) {
	r, st, _, _ := newTestRouter()

	out, _ := r.Execute(context.Background(), admin, "/MODEL@teambot gpt-4o-mini")
	assert.Contains(t, out, "Model changed to: `openai/gpt-4o-mini`")
	assert.Equal(t, "gpt-4o-mini", st.model)
}

func TestRouter_CommandError(t *testing.T) {
	r, st, _, _ := newTestRouter()
	st.err = errors.New("unknown model")

	out, handled := r.Execute(context.Background(), admin, "/model bogus")
	assert.True(t, handled)
	assert.Contains(t, out, "Command Error")
	assert.Contains(t, out, "unknown model")
}

func TestHelp_HidesAdminCommands(t *testing.T) {
	r, _, _, _ := newTestRouter()

	out, _ := r.Execute(context.Background(), guest, "/help")
	assert.Contains(t, out, core.BotName)
	assert.Contains(t, out, "/help")
	assert.NotContains(t, out, "/stats")

	out, _ = r.Execute(context.Background(), admin, "/help")
	assert.Contains(t, out, "/stats")
	assert.Contains(t, out, "/upd")
}

func TestListCommands_Sorted(t *testing.T) {
	r, _, _, _ := newTestRouter()

	var names []string
	for _, c := range r.ListCommands() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"help", "model", "stats", "upd"}, names)
}

func TestModel_Show(t *testing.T) {
	r, _, _, _ := newTestRouter()

	out, _ := r.Execute(context.Background(), admin, "/model")
	assert.Contains(t, out, "`openai`")
	assert.Contains(t, out, "`gpt-4o`")
}

func TestStats(t *testing.T) {
	r, _, stats, _ := newTestRouter()
	stats.stats = []core.UserStats{
		{UserID: 10, RequestCount: 3, FileCount: 1},
		{UserID: 20, RequestCount: 2},
	}

	out, _ := r.Execute(context.Background(), admin, "/stats 2024-05-01")
	assert.Equal(t, "2024-05-01", stats.day.Format(core.DayLayout))
	assert.Contains(t, out, "user `10`: 3 requests, 1 files")
	assert.Contains(t, out, "5 requests, 1 files")
}

func TestStats_DefaultsToToday(t *testing.T) {
	stats := &fakeStats{}
	cmd := NewStatsCommand(stats)
	cmd.now = func() time.Time { return time.Date(2024, 6, 2, 23, 30, 0, 0, time.UTC) }

	out, err := cmd.Execute(context.Background(), admin, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "No activity.")
	assert.Equal(t, "2024-06-02", stats.day.Format(core.DayLayout))
}

func TestStats_BadDate(t *testing.T) {
	r, _, _, _ := newTestRouter()

	out, _ := r.Execute(context.Background(), admin, "/stats yesterday")
	assert.Contains(t, out, "expected YYYY-MM-DD")
}

func TestUpd_KeepsRawText(t *testing.T) {
	r, _, _, kb := newTestRouter()

	out, _ := r.Execute(context.Background(), admin, "/upd Line one.\n\nLine two.")
	assert.Contains(t, out, "2 chunks")
	assert.Equal(t, "Line one.\n\nLine two.", kb.text)
	assert.Equal(t, "upd:user:1", kb.source)
}

func TestUpd_Usage(t *testing.T) {
	r, _, _, kb := newTestRouter()

	out, _ := r.Execute(context.Background(), admin, "/upd   ")
	assert.Contains(t, out, "Usage")
	assert.Empty(t, kb.text)
}

func TestUpd_URL(t *testing.T) {
	r, _, _, kb := newTestRouter()

	out, _ := r.Execute(context.Background(), admin, "/upd https://wiki.example.com/onboarding")
	assert.Contains(t, out, "5 chunks")
	assert.Equal(t, "https://wiki.example.com/onboarding", kb.url)
	assert.Empty(t, kb.text)
}
