package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestForFile_Registry(t *testing.T) {
	for _, name := range []string{"a.txt", "b.MD", "c.markdown", "d.csv", "e.htm", "f.PDF", "g.docx", "h.xlsx"} {
		if !IsSupportedExtension(name) {
			t.Errorf("%s should be supported", name)
		}
		if _, err := ForFile(name, Options{}); err != nil {
			t.Errorf("ForFile(%s): %v", name, err)
		}
	}
	if IsSupportedExtension("virus.exe") {
		t.Error("exe must not be supported")
	}
	if _, err := ForFile("archive.zip", Options{}); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestExtractText_FlattensHeadings(t *testing.T) {
	input := "Intro.\n\nSECTION 3 Confidentiality\n\nRecipient shall not disclose."
	title, text, err := ExtractText([]byte(input), "nda.txt", Options{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title != "nda" {
		t.Errorf("expected title %q, got %q", "nda", title)
	}
	want := "Intro.\n\nSECTION 3 Confidentiality\n\nRecipient shall not disclose."
	if text != want {
		t.Errorf("expected %q, got %q", want, text)
	}
}

func TestCSVParser_RowsAsLabelledLines(t *testing.T) {
	input := "Installment,Amount,Due\n1,$5000,2024-01-01\n2,$45000,2024-06-01\n"
	p := &CSVParser{}
	tree, err := p.Parse(strings.NewReader(input), "schedule.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "schedule" {
		t.Errorf("expected title %q, got %q", "schedule", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 section, got %d", len(tree.Children))
	}
	want := "Installment: 1, Amount: $5000, Due: 2024-01-01.\nInstallment: 2, Amount: $45000, Due: 2024-06-01."
	if tree.Children[0].Text != want {
		t.Errorf("expected %q, got %q", want, tree.Children[0].Text)
	}
	if tree.Children[0].Title != "Rows 2-3" {
		t.Errorf("unexpected title %q", tree.Children[0].Title)
	}
}

func TestCSVParser_SplitsLargeTables(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("n\n")
	for i := 0; i < 45; i++ {
		sb.WriteString("x\n")
	}
	tree, err := (&CSVParser{}).Parse(strings.NewReader(sb.String()), "big.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(tree.Children))
	}
}

func TestHTMLParser_SectionsAndBoilerplate(t *testing.T) {
	input := `<html><head><title>Smith v. Jones</title><style>p{}</style></head>
<body><nav>Home | About</nav>
<p>Opinion of the court.</p>
<h2>Background</h2><p>The plaintiff   sued.</p>
<table><tr><th>Party</th><th>Role</th></tr><tr><td>Smith</td><td>Plaintiff</td></tr></table>
<script>var x = 1;</script>
</body></html>`
	tree, err := (&HTMLParser{}).Parse(strings.NewReader(input), "opinion.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "Smith v. Jones" {
		t.Errorf("expected <title> to win, got %q", tree.Title)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(tree.Children))
	}
	if tree.Children[0].Text != "Opinion of the court." {
		t.Errorf("unexpected leading text %q", tree.Children[0].Text)
	}
	bg := tree.Children[1]
	if bg.Title != "Background" {
		t.Errorf("unexpected heading %q", bg.Title)
	}
	want := "The plaintiff sued.\n\nParty | Role\n\nSmith | Plaintiff"
	if bg.Text != want {
		t.Errorf("expected %q, got %q", want, bg.Text)
	}
}

func TestXLSXParser_SheetsAndProgress(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetSheetRow("Sheet1", "A1", &[]any{"Party", "Obligation"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]any{"Seller", "Deliver goods"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewSheet("Fees"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Fees", "A1", &[]any{"Item", "Amount"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Fees", "A2", &[]any{"Deposit", "5000"}); err != nil {
		t.Fatal(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	var calls [][2]int
	title, text, err := ExtractText(buf.Bytes(), "terms.xlsx", Options{}, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title != "terms" {
		t.Errorf("unexpected title %q", title)
	}
	for _, want := range []string{"Sheet1", "Party: Seller, Obligation: Deliver goods.", "Fees", "Item: Deposit, Amount: 5000."} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in %q", want, text)
		}
	}
	if len(calls) != 2 || calls[1] != [2]int{2, 2} {
		t.Errorf("unexpected progress calls %v", calls)
	}
}

func TestPDFParser_RejectsGarbage(t *testing.T) {
	if _, err := (&PDFParser{}).Parse(bytes.NewReader([]byte("not a pdf")), "x.pdf"); err == nil {
		t.Fatal("expected error for invalid pdf")
	}
}
