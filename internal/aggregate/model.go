package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dgallion1/lexgest/internal/extract"
	"github.com/dgallion1/lexgest/internal/legal"
)

// ErrEmptyAggregate is returned when the model's merged output has no usable
// points although the input had some.
var ErrEmptyAggregate = errors.New("aggregation returned no supported extractions")

const (
	aggregateMaxTokens = 8192
	maxTitleChars      = 200
)

// Model delegates merging to the reasoning service. Failures are returned to
// the caller; there is no retry at this level.
type Model struct {
	completer extract.Completer
	log       *zap.Logger
}

func NewModel(c extract.Completer, log *zap.Logger) *Model {
	if log == nil {
		log = zap.NewNop()
	}
	return &Model{completer: c, log: log}
}

func (m *Model) Name() string { return NameModel }

func (m *Model) Aggregate(ctx context.Context, in Input) (Result, error) {
	var input extract.AggregateInput
	for _, r := range in.Results {
		input.Extractions = append(input.Extractions, r.Extractions...)
		for _, name := range legal.AllCategories() {
			dst := input.Ontology.Category(name)
			*dst = append(*dst, *r.Ontology.Category(name)...)
		}
		input.Ontology.Conflicts = append(input.Ontology.Conflicts, r.Ontology.Conflicts...)
	}
	return m.merge(ctx, input, in)
}

type aggregateResponse struct {
	Title       string             `json:"title"`
	Summary     []legal.Extraction `json:"summary"`
	Extractions []legal.Extraction `json:"extractions"`
	Ontology    legal.Ontology     `json:"legalOntology"`
}

// merge runs one aggregation call over input and checks the answer against
// the run's paragraphs.
func (m *Model) merge(ctx context.Context, input extract.AggregateInput, in Input) (Result, error) {
	if len(input.Extractions) == 0 && input.Ontology.Len() == 0 && len(input.Ontology.Conflicts) == 0 {
		return Result{Title: defaultTitle(in)}, nil
	}
	ids := make([]string, len(in.Paragraphs))
	for i, p := range in.Paragraphs {
		ids[i] = p.ID
	}
	system, prompt, err := extract.BuildAggregatePrompt(input, ids, in.Options)
	if err != nil {
		return Result{}, err
	}
	out, err := m.completer.Complete(ctx, extract.Request{
		System:    system,
		Prompt:    prompt,
		JSON:      true,
		MaxTokens: aggregateMaxTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("aggregate with %s: %w", m.completer.Model(), err)
	}

	var resp aggregateResponse
	if err := extract.ParseJSON(out.Text, &resp); err != nil {
		return Result{}, fmt.Errorf("aggregate with %s: %w", m.completer.Model(), err)
	}
	points := resp.Summary
	if len(points) == 0 {
		points = resp.Extractions
	}
	clean, rej := extract.Sanitize(points, resp.Ontology, in.Paragraphs, in.Options)
	if rej.Extractions+rej.Items+rej.Sources > 0 {
		m.log.Warn("aggregation output rejected entries",
			zap.Int("extractions", rej.Extractions),
			zap.Int("items", rej.Items),
			zap.Int("unknown_sources", rej.Sources),
		)
	}
	if len(clean.Extractions) == 0 && len(input.Extractions) > 0 {
		return Result{}, ErrEmptyAggregate
	}

	title := strings.TrimSpace(resp.Title)
	if !extract.ValidText(title, maxTitleChars) {
		title = defaultTitle(in)
	}
	return Result{Title: title, Extractions: clean.Extractions, Ontology: clean.Ontology}, nil
}
