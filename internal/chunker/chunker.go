// Package chunker splits raw text into addressable paragraphs and packs
// paragraphs into token-budgeted batches.
package chunker

import (
	"strings"
	"sync/atomic"

	"github.com/dgallion1/lexgest/internal/legal"
)

// Config controls segmentation behavior.
type Config struct {
	MaxWords         int // Word budget per paragraph.
	HeadingScanChars int // Leading characters scanned for a section heading.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxWords:         200,
		HeadingScanChars: 200,
	}
}

// Segmenter turns raw text into ordered paragraphs.
type Segmenter struct {
	cfg Config
}

func NewSegmenter(cfg Config) *Segmenter {
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = 200
	}
	if cfg.HeadingScanChars <= 0 {
		cfg.HeadingScanChars = 200
	}
	return &Segmenter{cfg: cfg}
}

// Segment splits text into paragraphs addressed d{docIndex}.p{n}. Sentences
// are never split; a paragraph only exceeds MaxWords when a single sentence
// does. Whitespace is collapsed to single spaces.
func (s *Segmenter) Segment(text string, docIndex int) []legal.Paragraph {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}
	title := DetectSectionTitle(text, s.cfg.HeadingScanChars)

	var paragraphs []legal.Paragraph
	var buf []string
	bufWords := 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		paragraphs = append(paragraphs, legal.Paragraph{
			ID:           legal.ParagraphID(docIndex, len(paragraphs)+1),
			Text:         strings.Join(buf, " "),
			SectionTitle: title,
		})
		buf = buf[:0]
		bufWords = 0
	}

	for _, sent := range SplitSentences(normalized) {
		words := len(strings.Fields(sent))
		if bufWords+words > s.cfg.MaxWords && len(buf) > 0 {
			flush()
		}
		buf = append(buf, sent)
		bufWords += words
	}
	flush()

	return paragraphs
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// DocCounter hands out document indexes for a session. Indexes start at 1
// and are never reused.
type DocCounter struct {
	n atomic.Int64
}

// Next returns the next document index.
func (c *DocCounter) Next() int {
	return int(c.n.Add(1))
}

// Last returns the most recently issued index, or 0.
func (c *DocCounter) Last() int {
	return int(c.n.Load())
}
