package rag

import (
	"strings"
	"testing"

	"github.com/sandevgo/teambot/pkg/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChunker(t *testing.T, cfg ChunkerConfig) *Chunker {
	t.Helper()
	counter, err := tokens.NewCounter("")
	require.NoError(t, err)
	return NewChunker(cfg, counter)
}

func chunkTexts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func TestChunker_Split(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		cfg      ChunkerConfig
		expected []string
	}{
		{
			name:     "empty input",
			text:     "",
			cfg:      DefaultChunkerConfig(),
			expected: nil,
		},
		{
			name:     "whitespace only",
			text:     "   \n\t   ",
			cfg:      DefaultChunkerConfig(),
			expected: nil,
		},
		{
			name:     "single sentence fits",
			text:     "Hello world.",
			cfg:      ChunkerConfig{MaxTokens: 10},
			expected: []string{"Hello world."},
		},
		{
			name:     "two sentences fit in one chunk",
			text:     "Hello world. How are you?",
			cfg:      ChunkerConfig{MaxTokens: 20},
			expected: []string{"Hello world. How are you?"},
		},
		{
			name:     "paragraphs are joined",
			text:     "Para one.\n\nPara two.",
			cfg:      ChunkerConfig{MaxTokens: 20},
			expected: []string{"Para one. Para two."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := newTestChunker(t, tt.cfg).Split(tt.text)
			if tt.expected == nil {
				assert.Empty(t, chunks)
				return
			}
			assert.Equal(t, tt.expected, chunkTexts(chunks))
		})
	}
}

func TestChunker_RespectsMaxTokens(t *testing.T) {
	text := strings.Repeat("The vacation policy allows twenty days per year. ", 40) +
		strings.Repeat("x", 3000)

	cfg := ChunkerConfig{MaxTokens: 50, OverlapTokens: 10}
	c := newTestChunker(t, cfg)
	chunks := c.Split(text)

	require.Greater(t, len(chunks), 5)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.NotEmpty(t, ch.Text)
		// Overlap may push a chunk over by at most one sentence.
		assert.LessOrEqual(t, ch.TokenSize, cfg.MaxTokens+cfg.OverlapTokens+12, "chunk %d", i)
	}
}

func TestChunker_OverlapRepeatsPreviousSentence(t *testing.T) {
	c := newTestChunker(t, ChunkerConfig{MaxTokens: 12, OverlapTokens: 1})
	chunks := c.Split("Alpha beta gamma. Delta epsilon zeta. Eta theta iota.")

	require.GreaterOrEqual(t, len(chunks), 2)
	for i := 1; i < len(chunks); i++ {
		prevLast := splitSentences(chunks[i-1].Text)
		assert.True(t, strings.HasPrefix(chunks[i].Text, prevLast[len(prevLast)-1]),
			"chunk %d should start with the tail of chunk %d", i, i-1)
	}
}

func TestChunker_LongSentenceIsSliced(t *testing.T) {
	c := newTestChunker(t, ChunkerConfig{MaxTokens: 5})
	chunks := c.Split("http://very.long.url/that/exceeds/max/tokens/by/a/wide/margin")

	require.Greater(t, len(chunks), 1)
	var joined strings.Builder
	for _, ch := range chunks {
		assert.LessOrEqual(t, ch.TokenSize, 5)
		joined.WriteString(ch.Text)
	}
	assert.Equal(t, "http://very.long.url/that/exceeds/max/tokens/by/a/wide/margin", joined.String())
}

func TestSplitSentences(t *testing.T) {
	assert.Equal(t,
		[]string{"Hello world.", "How are you?", "I am fine."},
		splitSentences("Hello world. How are you? I am fine."))

	assert.Equal(t,
		[]string{"你好世界。", "这是一个测试。"},
		splitSentences("你好世界。这是一个测试。"))

	assert.Equal(t, []string{"no terminator"}, splitSentences("no terminator"))
}
