// Package token provides centralized token counting backed by tiktoken-go.
// The cl100k_base encoding is initialized once; when unavailable the package
// falls back to a character-based heuristic so prompt budgeting keeps working
// offline (the encoding download requires network on first use).
package token

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	once     sync.Once
	encoding *tiktoken.Tiktoken
)

func initEncoding() {
	once.Do(func() {
		if enc, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
			encoding = enc
		}
	})
}

// Count returns the token count of text, heuristic when tiktoken is unavailable.
func Count(text string) int {
	initEncoding()
	if encoding != nil {
		return len(encoding.Encode(text, nil, nil))
	}
	return Estimate(text)
}

// Estimate returns a fast heuristic count: max(runes/4, word count).
func Estimate(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	runes := len([]rune(trimmed))
	words := len(strings.Fields(trimmed))
	estimate := runes / 4
	if estimate < words {
		estimate = words
	}
	if estimate == 0 {
		estimate = 1
	}
	return estimate
}

// Truncate trims text to approximately maxTokens, appending an ellipsis when
// content was dropped.
func Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	initEncoding()
	if encoding != nil {
		tokens := encoding.Encode(text, nil, nil)
		if len(tokens) <= maxTokens {
			return text
		}
		return encoding.Decode(tokens[:maxTokens]) + "..."
	}
	runes := []rune(text)
	limit := maxTokens * 4
	if limit >= len(runes) {
		return text
	}
	return string(runes[:limit]) + "..."
}
