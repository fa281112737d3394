package tts

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Budget caps synthesis input by token count so one oversized submission
// cannot monopolize the speech API.
type Budget struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
}

// NewBudget creates a token budget. maxTokens <= 0 disables truncation.
func NewBudget(maxTokens int) (*Budget, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("get tokenizer: %w", err)
	}
	return &Budget{tokenizer: enc, maxTokens: maxTokens}, nil
}

// Truncate returns text cut to the token budget, at a token boundary. A nil
// or unlimited budget returns the text unchanged.
func (b *Budget) Truncate(text string) string {
	if b == nil || b.maxTokens <= 0 {
		return text
	}
	tokens := b.tokenizer.Encode(text, nil, nil)
	if len(tokens) <= b.maxTokens {
		return text
	}
	return b.tokenizer.Decode(tokens[:b.maxTokens])
}

// Count returns the token count of text.
func (b *Budget) Count(text string) int {
	if b == nil {
		return 0
	}
	return len(b.tokenizer.Encode(text, nil, nil))
}
