// Package legal holds the data model shared by the summarization pipeline:
// paragraphs, batches, extractions, the legal ontology and the final
// aggregated summary.
package legal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Paragraph is a bounded, addressable unit of source text.
type Paragraph struct {
	ID           string `json:"id" yaml:"id"`
	Text         string `json:"text" yaml:"text"`
	SectionTitle string `json:"sectionTitle,omitempty" yaml:"sectionTitle,omitempty"`
}

// ParagraphID formats the stable address d{doc}.p{para}.
func ParagraphID(docIndex, paraIndex int) string {
	return fmt.Sprintf("d%d.p%d", docIndex, paraIndex)
}

// ParseParagraphID splits an address produced by ParagraphID.
func ParseParagraphID(id string) (docIndex, paraIndex int, err error) {
	d, p, ok := strings.Cut(id, ".")
	if !ok || !strings.HasPrefix(d, "d") || !strings.HasPrefix(p, "p") {
		return 0, 0, fmt.Errorf("malformed paragraph id %q", id)
	}
	docIndex, err = strconv.Atoi(d[1:])
	if err != nil || docIndex < 1 {
		return 0, 0, fmt.Errorf("malformed document index in %q", id)
	}
	paraIndex, err = strconv.Atoi(p[1:])
	if err != nil || paraIndex < 1 {
		return 0, 0, fmt.Errorf("malformed paragraph index in %q", id)
	}
	return docIndex, paraIndex, nil
}

// Batch is a token-budgeted, order-preserving group of paragraphs.
type Batch struct {
	Index      int         `json:"index"`
	Paragraphs []Paragraph `json:"paragraphs"`
	Tokens     int         `json:"tokens"`
}

// IDs returns the paragraph IDs of the batch in order.
func (b Batch) IDs() []string {
	ids := make([]string, len(b.Paragraphs))
	for i, p := range b.Paragraphs {
		ids[i] = p.ID
	}
	return ids
}

// SectionTitle returns the first non-empty section title in the batch.
func (b Batch) SectionTitle() string {
	for _, p := range b.Paragraphs {
		if p.SectionTitle != "" {
			return p.SectionTitle
		}
	}
	return ""
}

// Extraction is one atomic legal point with its supporting paragraphs.
type Extraction struct {
	Text             string   `json:"text" yaml:"text"`
	SourceParagraphs []string `json:"sourceParagraphs" yaml:"sourceParagraphs"`
}

// BatchResult is the extractor's output for a single batch.
type BatchResult struct {
	BatchIndex  int          `json:"batchIndex"`
	Extractions []Extraction `json:"extractions"`
	Ontology    Ontology     `json:"legalOntology"`
	Model       string       `json:"model,omitempty"`
	Fallback    bool         `json:"fallback,omitempty"`
	Cached      bool         `json:"cached,omitempty"`
}

// Coverage reports how much of the input reached the final summary.
type Coverage struct {
	TotalBatches      int      `json:"totalBatches" yaml:"totalBatches"`
	SucceededBatches  int      `json:"succeededBatches" yaml:"succeededBatches"`
	DroppedBatches    int      `json:"droppedBatches" yaml:"droppedBatches"`
	FallbackBatches   int      `json:"fallbackBatches" yaml:"fallbackBatches"`
	CachedBatches     int      `json:"cachedBatches" yaml:"cachedBatches"`
	ParagraphsTotal   int      `json:"paragraphsTotal" yaml:"paragraphsTotal"`
	ParagraphsCovered int      `json:"paragraphsCovered" yaml:"paragraphsCovered"`
	DroppedParagraphs []string `json:"droppedParagraphs,omitempty" yaml:"droppedParagraphs,omitempty"`
}

// Complete reports whether every batch contributed to the summary.
func (c Coverage) Complete() bool {
	return c.DroppedBatches == 0
}

// SummaryItem is the aggregated result of one processing run. It is never
// mutated after the pipeline returns it.
type SummaryItem struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Extractions []Extraction `json:"summary" yaml:"summary"`
	Ontology    Ontology     `json:"legalOntology" yaml:"legalOntology"`
	Skim        string       `json:"skim,omitempty" yaml:"skim,omitempty"`
	Coverage    Coverage     `json:"coverage" yaml:"coverage"`
	Options     Options      `json:"options" yaml:"options"`
	CreatedAt   time.Time    `json:"createdAt" yaml:"createdAt"`
}

// Document is one input source within a session: an uploaded file or a
// block of pasted text, segmented under its own document index.
type Document struct {
	Index      int         `json:"index" yaml:"index"`
	Name       string      `json:"name" yaml:"name"`
	Hash       string      `json:"contentHash,omitempty" yaml:"contentHash,omitempty"`
	Paragraphs []Paragraph `json:"paragraphs" yaml:"paragraphs"`
	AddedAt    time.Time   `json:"addedAt" yaml:"addedAt"`
}
