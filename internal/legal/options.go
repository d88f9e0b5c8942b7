package legal

import "fmt"

// Length controls how much detail the summary carries.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// Complexity controls vocabulary and whether the extended ontology is used.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityBalanced Complexity = "balanced"
	ComplexityAdvanced Complexity = "advanced"
)

// Tone of the generated prose.
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneFormal       Tone = "formal"
	ToneCasual       Tone = "casual"
)

// Style of the generated prose.
type Style string

const (
	StyleDetailed  Style = "detailed"
	StyleConcise   Style = "concise"
	StyleNarrative Style = "narrative"
)

const (
	DefaultTokenCeiling = 10000
	DefaultConcurrency  = 5
	MaxConcurrency      = 16
)

// Options is the per-run configuration threaded through prompt construction.
type Options struct {
	Length       Length     `json:"length" yaml:"length"`
	Complexity   Complexity `json:"complexity" yaml:"complexity"`
	Tone         Tone       `json:"tone" yaml:"tone"`
	Style        Style      `json:"style" yaml:"style"`
	Jurisdiction string     `json:"jurisdiction,omitempty" yaml:"jurisdiction,omitempty"`
	TokenCeiling int        `json:"tokenCeiling" yaml:"tokenCeiling"`
	Concurrency  int        `json:"concurrency" yaml:"concurrency"`
}

// Normalize returns a copy with zero values replaced by defaults.
func (o Options) Normalize() Options {
	if o.Length == "" {
		o.Length = LengthMedium
	}
	if o.Complexity == "" {
		o.Complexity = ComplexityBalanced
	}
	if o.Tone == "" {
		o.Tone = ToneProfessional
	}
	if o.Style == "" {
		o.Style = StyleDetailed
	}
	if o.TokenCeiling <= 0 {
		o.TokenCeiling = DefaultTokenCeiling
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Concurrency > MaxConcurrency {
		o.Concurrency = MaxConcurrency
	}
	return o
}

// Validate rejects unknown enum values. Call after Normalize.
func (o Options) Validate() error {
	switch o.Length {
	case LengthShort, LengthMedium, LengthLong:
	default:
		return fmt.Errorf("invalid length %q", o.Length)
	}
	switch o.Complexity {
	case ComplexitySimple, ComplexityBalanced, ComplexityAdvanced:
	default:
		return fmt.Errorf("invalid complexity %q", o.Complexity)
	}
	switch o.Tone {
	case ToneProfessional, ToneFormal, ToneCasual:
	default:
		return fmt.Errorf("invalid tone %q", o.Tone)
	}
	switch o.Style {
	case StyleDetailed, StyleConcise, StyleNarrative:
	default:
		return fmt.Errorf("invalid style %q", o.Style)
	}
	if len(o.Jurisdiction) > 100 {
		return fmt.Errorf("jurisdiction too long")
	}
	return nil
}

// Extended reports whether the extended ontology categories apply.
func (o Options) Extended() bool {
	return o.Complexity == ComplexityAdvanced
}
