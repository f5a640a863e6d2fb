// Package tokens counts text in the units of an OpenAI-style tokenizer.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const DefaultEncoding = "cl100k_base"

var (
	mu    sync.Mutex
	cache = map[string]*tiktoken.Tiktoken{}
)

// Counter counts tokens with the encoding of one model.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// NewCounter resolves the encoding for model, falling back to cl100k_base
// for models tiktoken does not know about.
func NewCounter(model string) (*Counter, error) {
	enc, err := encodingFor(model)
	if err != nil {
		return nil, err
	}
	return &Counter{enc: enc}, nil
}

func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}

func (c *Counter) Encode(text string) []int {
	return c.enc.Encode(text, nil, nil)
}

func (c *Counter) Decode(tokens []int) string {
	return c.enc.Decode(tokens)
}

func encodingFor(model string) (*tiktoken.Tiktoken, error) {
	mu.Lock()
	defer mu.Unlock()

	if enc, ok := cache[model]; ok {
		return enc, nil
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			return nil, err
		}
	}
	cache[model] = enc
	return enc, nil
}
