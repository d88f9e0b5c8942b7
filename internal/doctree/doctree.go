// Package doctree is the structural form of an uploaded document before it
// is flattened to plain text for segmentation.
package doctree

import "strings"

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page/line (0 if N/A)
	Children []*DocNode // Subsections
}

// Flatten returns the document text in reading order. Section headings are
// emitted on their own line ahead of their text so heading detection still
// sees them.
func Flatten(tree *DocTree) string {
	if tree == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(nodes []*DocNode)
	walk = func(nodes []*DocNode) {
		for _, n := range nodes {
			if n.Title != "" && !isPageLabel(n) {
				writeBlock(&sb, n.Title)
			}
			if n.Text != "" {
				writeBlock(&sb, n.Text)
			}
			walk(n.Children)
		}
	}
	walk(tree.Children)
	return sb.String()
}

func writeBlock(sb *strings.Builder, s string) {
	if sb.Len() > 0 {
		sb.WriteString("\n\n")
	}
	sb.WriteString(s)
}

// isPageLabel reports synthetic "Page N" titles added by the PDF parser.
func isPageLabel(n *DocNode) bool {
	return n.Page > 0 && strings.HasPrefix(n.Title, "Page ")
}
