package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dgallion1/lexgest/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

const pdftotextTimeout = 2 * time.Minute

// PDFParser handles PDF files. It tries the Go library first, then falls
// back to pdftotext if enabled and installed.
type PDFParser struct {
	FallbackPdftotext bool

	progress ProgressFunc
}

// SetProgress reports (pagesDone, pagesTotal) while the Go extractor runs.
func (p *PDFParser) SetProgress(fn ProgressFunc) { p.progress = fn }

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	pages, err := p.extractPages(data)
	if (err != nil || strings.TrimSpace(strings.Join(pages, "")) == "") && p.FallbackPdftotext {
		pages, err = extractPdftotext(data)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		tree.Children = append(tree.Children, &doctree.DocNode{
			Title: fmt.Sprintf("Page %d", i+1),
			Text:  page,
			Page:  i + 1,
		})
	}
	return tree, nil
}

func (p *PDFParser) extractPages(data []byte) ([]string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	pages := make([]string, numPages)
	fonts := make(map[string]*pdflib.Font)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if !page.V.IsNull() {
			for _, name := range page.Fonts() {
				if _, ok := fonts[name]; !ok {
					f := page.Font(name)
					fonts[name] = &f
				}
			}
			if text, err := page.GetPlainText(fonts); err == nil {
				pages[i-1] = text
			}
		}
		if p.progress != nil {
			p.progress(i, numPages)
		}
	}
	return pages, nil
}

func extractPdftotext(data []byte) ([]string, error) {
	// pdftotext needs a real path.
	tmp, err := os.CreateTemp("", "lexgest-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pdftotextTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "pdftotext", "-layout", tmp.Name(), "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return strings.Split(string(out), "\f"), nil
}
