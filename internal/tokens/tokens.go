package tokens

import (
	"fmt"
	"math"
	"unicode/utf8"
)

const charsPerToken = 4

// Tokenizer names a counting method for the prompt budget.
type Tokenizer string

const (
	// TokenizerChars counts characters (runes).
	TokenizerChars Tokenizer = "chars"
	// TokenizerEstimate approximates model tokens as ~4 bytes per token.
	TokenizerEstimate Tokenizer = "estimate"
)

// Counter counts tokens in text.
type Counter interface {
	Count(text string) int
}

// NewCounter returns the counter for the given method. An empty method means
// TokenizerEstimate.
func NewCounter(t Tokenizer) (Counter, error) {
	switch t {
	case TokenizerEstimate, "":
		return &estimatingCounter{}, nil
	case TokenizerChars:
		return &charCounter{}, nil
	default:
		return nil, fmt.Errorf("unknown token counter %q (supported: %s, %s)", t, TokenizerChars, TokenizerEstimate)
	}
}

// estimatingCounter approximates token count as ~4 characters per token.
type estimatingCounter struct{}

func (*estimatingCounter) Count(text string) int {
	return Estimate(text)
}

type charCounter struct{}

func (*charCounter) Count(text string) int {
	return utf8.RuneCountInString(text)
}

// Estimate approximates the token count of text as its byte length divided by
// charsPerToken, rounded up.
func Estimate(text string) int {
	return int(math.Ceil(float64(len(text)) / float64(charsPerToken)))
}
