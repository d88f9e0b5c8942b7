package chunker

import "github.com/dgallion1/lexgest/internal/legal"

// Batcher packs paragraphs into token-budgeted batches.
type Batcher struct {
	tokenizer Tokenizer
}

func NewBatcher(t Tokenizer) *Batcher {
	if t == nil {
		t = CharTokenizer{}
	}
	return &Batcher{tokenizer: t}
}

// Batch greedily packs paragraphs in order. A batch closes when the next
// paragraph would push it over ceiling; a paragraph that alone exceeds the
// ceiling gets its own batch. Every paragraph lands in exactly one batch.
func (b *Batcher) Batch(paragraphs []legal.Paragraph, ceiling int) []legal.Batch {
	if ceiling <= 0 {
		ceiling = legal.DefaultTokenCeiling
	}

	var batches []legal.Batch
	var current []legal.Paragraph
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		batches = append(batches, legal.Batch{
			Index:      len(batches),
			Paragraphs: current,
			Tokens:     currentTokens,
		})
		current = nil
		currentTokens = 0
	}

	for _, p := range paragraphs {
		tokens := b.tokenizer.Count(p.Text)
		if currentTokens+tokens > ceiling && len(current) > 0 {
			flush()
		}
		current = append(current, p)
		currentTokens += tokens
	}
	flush()

	return batches
}
