package rag

import (
	"strings"
	"unicode"

	"github.com/sandevgo/teambot/pkg/tokens"
)

type Chunk struct {
	Text      string
	TokenSize int
	Index     int
}

type ChunkerConfig struct {
	MaxTokens     int
	OverlapTokens int
}

// DefaultChunkerConfig keeps chunks small enough that three of them plus
// history fit the default prompt budget comfortably.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxTokens:     400,
		OverlapTokens: 50,
	}
}

// Chunker splits text on sentence boundaries into token-bounded pieces.
type Chunker struct {
	cfg     ChunkerConfig
	counter *tokens.Counter
}

func NewChunker(cfg ChunkerConfig, counter *tokens.Counter) *Chunker {
	return &Chunker{
		cfg:     cfg,
		counter: counter,
	}
}

func (c *Chunker) Split(text string) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sentences := splitSentences(text)

	var (
		chunks        []Chunk
		current       strings.Builder
		currentTokens int
	)

	flush := func(s string, size int) {
		chunks = append(chunks, Chunk{
			Text:      strings.TrimSpace(s),
			TokenSize: size,
			Index:     len(chunks),
		})
	}

	for i, sentence := range sentences {
		sentenceTokens := c.counter.Count(sentence)

		// A sentence that alone exceeds the limit is cut by raw token slices.
		if sentenceTokens > c.cfg.MaxTokens {
			if current.Len() > 0 {
				flush(current.String(), currentTokens)
				current.Reset()
				currentTokens = 0
			}
			for _, piece := range c.sliceTokens(sentence) {
				flush(piece.Text, piece.TokenSize)
			}
			continue
		}

		if currentTokens+sentenceTokens > c.cfg.MaxTokens && current.Len() > 0 {
			flush(current.String(), currentTokens)

			overlap := c.overlapBefore(sentences, i)
			current.Reset()
			current.WriteString(overlap)
			currentTokens = c.counter.Count(overlap)
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
		currentTokens += sentenceTokens
	}

	if current.Len() > 0 {
		flush(current.String(), currentTokens)
	}

	return chunks
}

func (c *Chunker) sliceTokens(text string) []Chunk {
	ids := c.counter.Encode(text)

	var pieces []Chunk
	for i := 0; i < len(ids); i += c.cfg.MaxTokens {
		end := min(i+c.cfg.MaxTokens, len(ids))
		pieces = append(pieces, Chunk{
			Text:      c.counter.Decode(ids[i:end]),
			TokenSize: end - i,
		})
	}
	return pieces
}

// overlapBefore collects whole sentences preceding idx until the overlap
// target is reached.
func (c *Chunker) overlapBefore(sentences []string, idx int) string {
	if idx == 0 || c.cfg.OverlapTokens <= 0 {
		return ""
	}

	var overlap []string
	total := 0
	for i := idx - 1; i >= 0 && total < c.cfg.OverlapTokens; i-- {
		overlap = append([]string{sentences[i]}, overlap...)
		total += c.counter.Count(sentences[i])
	}
	return strings.Join(overlap, " ")
}

var sentenceEnders = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true, '．': true, '…': true,
}

func splitSentences(text string) []string {
	var sentences []string

	for _, para := range splitParagraphs(text) {
		var current strings.Builder
		runes := []rune(para)

		for i, r := range runes {
			current.WriteRune(r)

			if !sentenceEnders[r] {
				continue
			}
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) || isCJK(runes[i+1]) {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}

		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) == 0 && text != "" {
		return []string{text}
	}
	return sentences
}

// splitParagraphs splits on blank lines and unwraps soft line breaks.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var result []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(strings.ReplaceAll(p, "\n", " "))
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
