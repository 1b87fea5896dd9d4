// Package tokens approximates token counts for providers that do not report
// usage.
package tokens

import (
	"math"
	"unicode/utf8"
)

const charsPerToken = 4

// Counter counts tokens in text.
type Counter interface {
	Count(text string) int
}

// EstimatingCounter approximates token count as ~4 characters per token.
type EstimatingCounter struct{}

func NewEstimatingCounter() *EstimatingCounter {
	return &EstimatingCounter{}
}

func (*EstimatingCounter) Count(text string) int {
	return Estimate(text)
}

// Estimate counts characters, not bytes, so non-Latin text is not inflated.
func Estimate(text string) int {
	return int(math.Ceil(float64(utf8.RuneCountInString(text)) / float64(charsPerToken)))
}

// Exchange estimates the tokens of a prompt and its completion.
func Exchange(c Counter, prompt, completion string) int {
	return c.Count(prompt) + c.Count(completion)
}
