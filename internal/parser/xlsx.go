package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/lexgest/internal/doctree"
	"github.com/xuri/excelize/v2"
)

// XLSXParser handles spreadsheet exhibits. Each sheet becomes a section
// whose rows are rendered the same way as CSV.
type XLSXParser struct {
	progress ProgressFunc
}

// SetProgress reports (sheetsDone, sheetsTotal).
func (p *XLSXParser) SetProgress(fn ProgressFunc) { p.progress = fn }

func (p *XLSXParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	sheets := f.GetSheetList()
	for i, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if sections := tableSections(rows, ""); len(sections) > 0 {
			tree.Children = append(tree.Children, &doctree.DocNode{
				Title:    sheet,
				Children: sections,
			})
		}
		if p.progress != nil {
			p.progress(i+1, len(sheets))
		}
	}
	return tree, nil
}
