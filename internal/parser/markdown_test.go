package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := `# Master Services Agreement

Intro text.

## Article 1 Definitions

"Services" means the work described in Exhibit A.

### 1.1 Interpretation

Headings are for convenience only.

## Article 2 Fees

Customer pays *monthly* in arrears.
`
	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "msa.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tree.Title != "msa" {
		t.Errorf("expected title %q, got %q", "msa", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 top-level child (h1), got %d", len(tree.Children))
	}

	h1 := tree.Children[0]
	if h1.Title != "Master Services Agreement" {
		t.Errorf("unexpected h1 title %q", h1.Title)
	}
	if h1.Text != "Intro text." {
		t.Errorf("expected h1 text %q, got %q", "Intro text.", h1.Text)
	}
	if len(h1.Children) != 2 {
		t.Fatalf("expected 2 h2 children, got %d", len(h1.Children))
	}

	defs := h1.Children[0]
	if defs.Title != "Article 1 Definitions" {
		t.Errorf("unexpected title %q", defs.Title)
	}
	if !strings.Contains(defs.Text, `"Services" means the work`) {
		t.Errorf("unexpected definitions text %q", defs.Text)
	}
	if len(defs.Children) != 1 || defs.Children[0].Title != "1.1 Interpretation" {
		t.Fatalf("expected 1.1 Interpretation under definitions, got %+v", defs.Children)
	}

	fees := h1.Children[1]
	if fees.Text != "Customer pays monthly in arrears." {
		t.Errorf("emphasis should be flattened, got %q", fees.Text)
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	input := "Just some plain text.\n\nAnother paragraph here."

	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 child for headingless markdown, got %d", len(tree.Children))
	}
	if got := tree.Children[0].Text; got != "Just some plain text.\n\nAnother paragraph here." {
		t.Errorf("unexpected text %q", got)
	}
}

func TestMarkdownParser_CodeBlocksAndLists(t *testing.T) {
	input := "# Schedule\n\nPayments:\n\n- Deposit of $5,000\n- Balance of $45,000\n\n```\nWIRE REF 1234\n```\n\nAfter the block.\n"

	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "schedule.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 top-level child, got %d", len(tree.Children))
	}
	text := tree.Children[0].Text
	for _, want := range []string{"Deposit of $5,000", "Balance of $45,000", "WIRE REF 1234", "After the block."} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in %q", want, text)
		}
	}
	if strings.Count(text, "Deposit of $5,000") != 1 {
		t.Errorf("list text duplicated: %q", text)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected 0 children for empty input, got %d", len(tree.Children))
	}
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"uploads/brief.md", "brief"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		tree, err := p.Parse(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if tree.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, tree.Title)
		}
	}
}
