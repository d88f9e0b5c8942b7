// Package aggregate merges per-batch extraction results into one summary.
//
// Three strategies are available. Deterministic merges by normalized text
// and edit-distance similarity and never calls a model. Model hands every
// batch result to the reasoning service in a single aggregation prompt.
// Hybrid runs the deterministic pass first, asks the model to merge and
// rephrase the smaller result, then repairs the model output so no cited
// point or detected conflict is lost.
package aggregate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dgallion1/lexgest/internal/extract"
	"github.com/dgallion1/lexgest/internal/legal"
)

// Strategy names accepted by New.
const (
	NameDeterministic = "deterministic"
	NameModel         = "model"
	NameHybrid        = "hybrid"
)

// DefaultSimilarity is the minimum normalized edit similarity for two points
// to be treated as the same fact.
const DefaultSimilarity = 0.9

// Input is everything an aggregation needs. Results holds only successful
// batches.
type Input struct {
	DocTitle   string
	Results    []legal.BatchResult
	Paragraphs []legal.Paragraph
	Options    legal.Options
}

// Result is the merged content of a run. The pipeline adds identity,
// coverage and skim to form a SummaryItem.
type Result struct {
	Title       string
	Extractions []legal.Extraction
	Ontology    legal.Ontology
}

// Strategy merges batch results into one Result.
type Strategy interface {
	Name() string
	Aggregate(ctx context.Context, in Input) (Result, error)
}

// New builds the named strategy. Model and Hybrid need a completer.
func New(name string, c extract.Completer, log *zap.Logger) (Strategy, error) {
	switch name {
	case NameDeterministic:
		return NewDeterministic(DefaultSimilarity), nil
	case NameModel, NameHybrid, "":
		if c == nil {
			return nil, fmt.Errorf("merge strategy %q needs a model", name)
		}
		if name == NameModel {
			return NewModel(c, log), nil
		}
		return NewHybrid(c, log), nil
	}
	return nil, fmt.Errorf("unknown merge strategy %q", name)
}

func defaultTitle(in Input) string {
	if in.DocTitle != "" {
		return in.DocTitle
	}
	for _, p := range in.Paragraphs {
		if p.SectionTitle != "" {
			return p.SectionTitle
		}
	}
	return "Legal Document Summary"
}
