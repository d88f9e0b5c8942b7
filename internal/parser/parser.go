// Package parser converts uploaded files into a DocTree whose flattened text
// feeds the segmenter.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/lexgest/internal/doctree"
)

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// ProgressFunc receives (done, total) units of work, e.g. PDF pages.
type ProgressFunc func(done, total int)

// progressReporter is implemented by parsers that can report progress.
type progressReporter interface {
	SetProgress(fn ProgressFunc)
}

// Options tune parser construction.
type Options struct {
	PDFFallbackPdftotext bool
}

var constructors = map[string]func(Options) Parser{
	".txt":      func(Options) Parser { return &TextParser{} },
	".text":     func(Options) Parser { return &TextParser{} },
	".md":       func(Options) Parser { return &MarkdownParser{} },
	".markdown": func(Options) Parser { return &MarkdownParser{} },
	".csv":      func(Options) Parser { return &CSVParser{} },
	".html":     func(Options) Parser { return &HTMLParser{} },
	".htm":      func(Options) Parser { return &HTMLParser{} },
	".pdf":      func(o Options) Parser { return &PDFParser{FallbackPdftotext: o.PDFFallbackPdftotext} },
	".docx":     func(Options) Parser { return &DOCXParser{} },
	".xlsx":     func(Options) Parser { return &XLSXParser{} },
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	ctor, ok := constructors[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
	return ctor(opts), nil
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	_, ok := constructors[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// ExtractText parses data and returns the document title and its flattened
// plain text.
func ExtractText(data []byte, filename string, opts Options, progress ProgressFunc) (string, string, error) {
	p, err := ForFile(filename, opts)
	if err != nil {
		return "", "", err
	}
	if pr, ok := p.(progressReporter); ok && progress != nil {
		pr.SetProgress(progress)
	}
	tree, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return "", "", fmt.Errorf("parse %s: %w", filename, err)
	}
	return tree.Title, doctree.Flatten(tree), nil
}

func baseTitle(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}

// sectionBuilder nests headed sections by level while collecting body text.
type sectionBuilder struct {
	root  *doctree.DocNode
	stack []sectionEntry
	text  strings.Builder
}

type sectionEntry struct {
	node  *doctree.DocNode
	level int
}

func newSectionBuilder() *sectionBuilder {
	root := &doctree.DocNode{}
	return &sectionBuilder{root: root, stack: []sectionEntry{{node: root}}}
}

func (b *sectionBuilder) heading(level int, title string) {
	b.flush()
	node := &doctree.DocNode{Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, node)
	b.stack = append(b.stack, sectionEntry{node: node, level: level})
}

func (b *sectionBuilder) paragraph(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(text)
}

func (b *sectionBuilder) flush() {
	t := strings.TrimSpace(b.text.String())
	b.text.Reset()
	if t == "" {
		return
	}
	top := b.stack[len(b.stack)-1].node
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

// tree finalizes the builder. Text that appeared before any heading becomes
// a leading untitled node.
func (b *sectionBuilder) tree(title string) *doctree.DocTree {
	b.flush()
	t := &doctree.DocTree{Title: title}
	if b.root.Text != "" {
		t.Children = append(t.Children, &doctree.DocNode{Text: b.root.Text})
	}
	t.Children = append(t.Children, b.root.Children...)
	return t
}
