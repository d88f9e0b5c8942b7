package chunker

import "unicode/utf8"

// Tokenizer estimates the model token cost of a piece of text.
type Tokenizer interface {
	Count(text string) int
}

// CharTokenizer uses the ~4 chars/token heuristic. It is crude but stable,
// which is all bin-packing needs.
type CharTokenizer struct {
	CharsPerToken int
}

func (t CharTokenizer) Count(text string) int {
	per := t.CharsPerToken
	if per <= 0 {
		per = 4
	}
	n := utf8.RuneCountInString(text)
	return (n + per - 1) / per
}

// EstimateTokens returns ceil(len(text)/4) in runes.
func EstimateTokens(text string) int {
	return CharTokenizer{}.Count(text)
}
