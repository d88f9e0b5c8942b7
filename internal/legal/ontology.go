package legal

import (
	"encoding/json"
	"fmt"
)

// Category names as they appear on the wire.
const (
	CategoryDefinitions            = "definitions"
	CategoryObligations            = "obligations"
	CategoryRights                 = "rights"
	CategoryConditions             = "conditions"
	CategoryClauses                = "clauses"
	CategoryDates                  = "dates"
	CategoryParties                = "parties"
	CategoryProceduralPosture      = "proceduralPosture"
	CategoryCourtAndJudges         = "courtAndJudges"
	CategoryImplications           = "implications"
	CategoryCitationsAndPrecedents = "citationsAndPrecedents"
)

// BaseCategories are always requested from the model.
var BaseCategories = []string{
	CategoryDefinitions,
	CategoryObligations,
	CategoryRights,
	CategoryConditions,
	CategoryClauses,
	CategoryDates,
	CategoryParties,
}

// ExtendedCategories are requested only for advanced complexity.
var ExtendedCategories = []string{
	CategoryProceduralPosture,
	CategoryCourtAndJudges,
	CategoryImplications,
	CategoryCitationsAndPrecedents,
}

// Item is one ontology entry. Key is an optional label whose meaning depends
// on the category (defined term, party role, date event).
type Item struct {
	Key     string   `json:"key,omitempty" yaml:"key,omitempty"`
	Value   string   `json:"value" yaml:"value"`
	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// UnmarshalJSON accepts either a bare string or an object. Models are not
// consistent about which they emit.
func (it *Item) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*it = Item{Value: s}
		return nil
	}
	var aux struct {
		Key              string   `json:"key"`
		Term             string   `json:"term"`
		Role             string   `json:"role"`
		Event            string   `json:"event"`
		Value            string   `json:"value"`
		Text             string   `json:"text"`
		Name             string   `json:"name"`
		Sources          []string `json:"sources"`
		SourceParagraphs []string `json:"sourceParagraphs"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("ontology item: %w", err)
	}
	it.Key = firstNonEmpty(aux.Key, aux.Term, aux.Role, aux.Event)
	it.Value = firstNonEmpty(aux.Value, aux.Text, aux.Name)
	it.Sources = append(aux.Sources, aux.SourceParagraphs...)
	return nil
}

// ConflictValue is one of several disagreeing values, with its provenance.
type ConflictValue struct {
	Value   string   `json:"value" yaml:"value"`
	Sources []string `json:"sources" yaml:"sources"`
}

// Conflict records contradictory values asserted for the same fact.
type Conflict struct {
	Category string          `json:"category,omitempty" yaml:"category,omitempty"`
	Fact     string          `json:"fact" yaml:"fact"`
	Values   []ConflictValue `json:"values" yaml:"values"`
}

// Ontology is the categorized set of legal entities derived from text.
type Ontology struct {
	Definitions            []Item     `json:"definitions" yaml:"definitions"`
	Obligations            []Item     `json:"obligations" yaml:"obligations"`
	Rights                 []Item     `json:"rights" yaml:"rights"`
	Conditions             []Item     `json:"conditions" yaml:"conditions"`
	Clauses                []Item     `json:"clauses" yaml:"clauses"`
	Dates                  []Item     `json:"dates" yaml:"dates"`
	Parties                []Item     `json:"parties" yaml:"parties"`
	ProceduralPosture      []Item     `json:"proceduralPosture,omitempty" yaml:"proceduralPosture,omitempty"`
	CourtAndJudges         []Item     `json:"courtAndJudges,omitempty" yaml:"courtAndJudges,omitempty"`
	Implications           []Item     `json:"implications,omitempty" yaml:"implications,omitempty"`
	CitationsAndPrecedents []Item     `json:"citationsAndPrecedents,omitempty" yaml:"citationsAndPrecedents,omitempty"`
	Conflicts              []Conflict `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
}

// Category returns a pointer to the named item list, or nil if the name is
// not an item category.
func (o *Ontology) Category(name string) *[]Item {
	switch name {
	case CategoryDefinitions:
		return &o.Definitions
	case CategoryObligations:
		return &o.Obligations
	case CategoryRights:
		return &o.Rights
	case CategoryConditions:
		return &o.Conditions
	case CategoryClauses:
		return &o.Clauses
	case CategoryDates:
		return &o.Dates
	case CategoryParties:
		return &o.Parties
	case CategoryProceduralPosture:
		return &o.ProceduralPosture
	case CategoryCourtAndJudges:
		return &o.CourtAndJudges
	case CategoryImplications:
		return &o.Implications
	case CategoryCitationsAndPrecedents:
		return &o.CitationsAndPrecedents
	}
	return nil
}

// AllCategories lists every item category in display order.
func AllCategories() []string {
	out := make([]string, 0, len(BaseCategories)+len(ExtendedCategories))
	out = append(out, BaseCategories...)
	return append(out, ExtendedCategories...)
}

// Len counts items across all categories, excluding conflicts.
func (o *Ontology) Len() int {
	n := 0
	for _, name := range AllCategories() {
		n += len(*o.Category(name))
	}
	return n
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
