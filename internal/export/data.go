package export

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/lexgest/internal/citation"
	"github.com/dgallion1/lexgest/internal/legal"
)

// Bundle is the structured export: the summary plus everything needed to
// render its citations.
type Bundle struct {
	Summary    legal.SummaryItem            `json:"summaryItem" yaml:"summaryItem"`
	Citations  map[string]citation.Citation `json:"citations" yaml:"citations"`
	References []citation.Reference         `json:"references" yaml:"references"`
}

// NewBundle resolves every citation in item.
func NewBundle(item legal.SummaryItem, r *citation.Resolver) Bundle {
	return Bundle{
		Summary:    item,
		Citations:  r.Map(item),
		References: r.References(item),
	}
}

func WriteJSON(w io.Writer, item legal.SummaryItem, r *citation.Resolver) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewBundle(item, r)); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func WriteYAML(w io.Writer, item legal.SummaryItem, r *citation.Resolver) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewBundle(item, r)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
