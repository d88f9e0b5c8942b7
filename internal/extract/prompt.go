package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dgallion1/lexgest/internal/legal"
)

// PromptVersion changes whenever prompt wording or the response schema
// changes, invalidating cached batch results.
const PromptVersion = "2"

const batchSystemPrompt = `You are a meticulous legal analyst. You read numbered paragraphs of a legal document and extract what they say. You never invent facts, parties, amounts or dates. Every point you return cites the paragraph IDs that support it. You respond with a single JSON object and nothing else.`

const batchInstructions = `Extract the legal content of the paragraphs below.

Rules:
- Each extraction is ONE atomic legal point: a fact, obligation, right, condition, ruling, deadline or definition.
- You may rephrase for clarity but must not add anything the paragraphs do not say.
- "sourceParagraphs" must list only IDs shown in square brackets below, and at least one.
- Populate an ontology category only when the paragraphs contain evidence for it. Leave it as [] otherwise.
- Every ontology item carries "sources" with the supporting paragraph IDs.
- For definitions use "key" for the defined term; for parties use "key" for the role; for dates use "key" for the event.
- If two paragraphs state different values for the same fact, list it under "conflicts" with each value and its sources.

Respond with ONLY this JSON object:
{
  "extractions": [{"text": "...", "sourceParagraphs": ["d1.p1"]}],
  "legalOntology": {
%s    "conflicts": [{"fact": "...", "values": [{"value": "...", "sources": ["d1.p2"]}]}]
  }
}`

// BuildBatchPrompt renders the system and user prompt for one batch.
func BuildBatchPrompt(docTitle string, batch legal.Batch, opts legal.Options) (system, prompt string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(batchInstructions, ontologySchema(opts)))
	sb.WriteString("\n\n")
	sb.WriteString(styleGuidance(opts))
	sb.WriteString("\n---\n")
	if docTitle != "" {
		sb.WriteString(fmt.Sprintf("Document: %q\n", docTitle))
	}
	if title := batch.SectionTitle(); title != "" {
		sb.WriteString(fmt.Sprintf("Section: %s\n", title))
	}
	sb.WriteString("---\n")
	for _, p := range batch.Paragraphs {
		sb.WriteString("[")
		sb.WriteString(p.ID)
		sb.WriteString("] ")
		if p.SectionTitle != "" {
			sb.WriteString("(")
			sb.WriteString(p.SectionTitle)
			sb.WriteString(") ")
		}
		sb.WriteString(p.Text)
		sb.WriteString("\n\n")
	}
	return batchSystemPrompt, strings.TrimRight(sb.String(), "\n")
}

func ontologySchema(opts legal.Options) string {
	cats := legal.BaseCategories
	if opts.Extended() {
		cats = legal.AllCategories()
	}
	var sb strings.Builder
	for _, c := range cats {
		sb.WriteString(fmt.Sprintf("    %q: [{\"key\": \"...\", \"value\": \"...\", \"sources\": [\"d1.p1\"]}],\n", c))
	}
	return sb.String()
}

// styleGuidance threads user output preferences into the prompt. It affects
// phrasing and detail only, never which facts are included.
func styleGuidance(opts legal.Options) string {
	var lines []string
	switch opts.Length {
	case legal.LengthShort:
		lines = append(lines, "Keep each point to one short sentence.")
	case legal.LengthLong:
		lines = append(lines, "Give each point in full detail, including qualifications and exceptions.")
	default:
		lines = append(lines, "Keep each point to one or two sentences.")
	}
	switch opts.Complexity {
	case legal.ComplexitySimple:
		lines = append(lines, "Use plain language a non-lawyer understands.")
	case legal.ComplexityAdvanced:
		lines = append(lines, "Use precise legal terminology and fill the procedural and precedent categories where evidence exists.")
	}
	lines = append(lines, fmt.Sprintf("Tone: %s. Style: %s.", opts.Tone, opts.Style))
	if opts.Jurisdiction != "" {
		lines = append(lines, fmt.Sprintf("Interpret terms under the law of %s where relevant.", opts.Jurisdiction))
	}
	lines = append(lines, "These preferences change wording only. Do not drop or add facts because of them.")
	return "Output preferences:\n- " + strings.Join(lines, "\n- ")
}

const aggregateSystemPrompt = `You are a senior legal editor. You merge partial analyses of one document into a single coherent summary without losing or inventing anything. You respond with a single JSON object and nothing else.`

const aggregateInstructions = `Below are extractions and ontology entries produced from different parts of the same document(s), as JSON.

Merge them into one final summary:
- Combine points that state the same underlying fact into one, and union their "sourceParagraphs".
- Keep every distinct point. Do not drop a point because it seems minor.
- Use only paragraph IDs from this list: %s
- Deduplicate ontology items that mean the same thing, unioning their sources.
- When the same fact has different values (for example two payment amounts), do NOT pick one. Keep every value with its own sources under "conflicts".
- Entries already listed under "conflicts" must stay there.
- Write a short descriptive "title" for the whole document.

Respond with ONLY this JSON object:
{
  "title": "...",
  "summary": [{"text": "...", "sourceParagraphs": ["d1.p1"]}],
  "legalOntology": {
%s    "conflicts": [{"category": "...", "fact": "...", "values": [{"value": "...", "sources": ["d1.p2"]}]}]
  }
}`

// AggregateInput is the structured payload handed to the aggregation model.
type AggregateInput struct {
	Extractions []legal.Extraction `json:"extractions"`
	Ontology    legal.Ontology     `json:"legalOntology"`
}

// BuildAggregatePrompt renders the aggregation prompt.
func BuildAggregatePrompt(input AggregateInput, knownIDs []string, opts legal.Options) (system, prompt string, err error) {
	payload, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal aggregate input: %w", err)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(aggregateInstructions, strings.Join(knownIDs, ", "), ontologySchema(opts)))
	sb.WriteString("\n\n")
	sb.WriteString(styleGuidance(opts))
	sb.WriteString("\n---\n")
	sb.Write(payload)
	return aggregateSystemPrompt, sb.String(), nil
}

const skimSystemPrompt = `You are a legal assistant giving a first impression of a document from its opening paragraphs.`

// BuildSkimPrompt renders the quick-skim prompt over the opening paragraphs.
func BuildSkimPrompt(paragraphs []legal.Paragraph, opts legal.Options) (system, prompt string) {
	var sb strings.Builder
	sb.WriteString("In three to five sentences of plain prose, say what kind of document this is, who the parties are and what it is mainly about. Do not speculate beyond the text.")
	if opts.Jurisdiction != "" {
		sb.WriteString(fmt.Sprintf(" Jurisdiction: %s.", opts.Jurisdiction))
	}
	sb.WriteString("\n---\n")
	for _, p := range paragraphs {
		sb.WriteString(p.Text)
		sb.WriteString("\n\n")
	}
	return skimSystemPrompt, strings.TrimRight(sb.String(), "\n")
}
