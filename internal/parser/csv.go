package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/lexgest/internal/doctree"
)

// rowsPerSection groups tabular rows so a schedule of hundreds of rows does
// not become one enormous paragraph.
const rowsPerSection = 20

// CSVParser handles CSV exhibits such as payment schedules.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	tree.Children = tableSections(records, "")
	return tree, nil
}

// tableSections renders a header row plus data rows as "Header: value"
// lines, one section per rowsPerSection rows.
func tableSections(records [][]string, prefix string) []*doctree.DocNode {
	if len(records) == 0 {
		return nil
	}
	headers := records[0]
	dataRows := records[1:]

	var nodes []*doctree.DocNode
	for i := 0; i < len(dataRows); i += rowsPerSection {
		end := min(i+rowsPerSection, len(dataRows))

		var text strings.Builder
		for _, row := range dataRows[i:end] {
			var cells []string
			for j, cell := range row {
				cell = strings.TrimSpace(cell)
				if cell == "" {
					continue
				}
				if j < len(headers) && strings.TrimSpace(headers[j]) != "" {
					cells = append(cells, strings.TrimSpace(headers[j])+": "+cell)
				} else {
					cells = append(cells, cell)
				}
			}
			if len(cells) == 0 {
				continue
			}
			text.WriteString(strings.Join(cells, ", "))
			text.WriteString(".\n")
		}
		if text.Len() == 0 {
			continue
		}
		nodes = append(nodes, &doctree.DocNode{
			Title: fmt.Sprintf("%sRows %d-%d", prefix, i+2, end+1), // 1-indexed, skip header
			Text:  strings.TrimSpace(text.String()),
		})
	}
	return nodes
}
