// Package parser turns raw markdown into the document's structural form
// using goldmark. Only heading structure is extracted here; section bodies
// are sliced from the raw text by byte span.
package parser

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/Blakeem/mdstore/internal/doctree"
)

// Parse produces the ordered heading list plus its TOC projection. It is a
// pure function: parsing the same bytes twice yields structurally equal
// heading lists (same slugs, depths, parent indices), which is what makes
// slugs usable as durable identifiers.
func Parse(src []byte) (*doctree.Document, error) {
	md := goldmark.New()
	reader := text.NewReader(src)
	root := md.Parser().Parse(reader)

	var headings []doctree.Heading
	seen := make(map[string]int)

	// Stack of indices into headings, used to assign parent links the same
	// way heading levels nest sections.
	var stack []int

	line := 1
	lineOffset := 0 // how far into src the line counter has advanced

	// Only top-level blocks delimit document structure; headings nested in
	// lists or blockquotes do not section the document.
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		if h.Lines().Len() == 0 {
			// A bare "#" with no text has no addressable identity.
			continue
		}
		seg := h.Lines().At(0)
		last := h.Lines().At(h.Lines().Len() - 1)
		start := lineStart(src, seg.Start)
		bodyStart := headingEnd(src, last.Stop, start)

		line += bytes.Count(src[lineOffset:start], []byte{'\n'})
		lineOffset = start

		title := string(bytes.TrimSpace(headingText(h, src)))
		idx := len(headings)

		for len(stack) > 0 && headings[stack[len(stack)-1]].Depth >= h.Level {
			stack = stack[:len(stack)-1]
		}
		parent := -1
		if len(stack) > 0 {
			parent = stack[len(stack)-1]
		}

		headings = append(headings, doctree.Heading{
			Index:       idx,
			Depth:       h.Level,
			Title:       title,
			Slug:        doctree.UniqueSlug(title, seen),
			ParentIndex: parent,
			Line:        line,
			Start:       start,
			BodyStart:   bodyStart,
		})
		stack = append(stack, idx)
	}

	return &doctree.Document{
		Headings: headings,
		Toc:      doctree.BuildToc(headings),
	}, nil
}

// headingText collects the inline text of a heading node.
func headingText(n ast.Node, src []byte) []byte {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		} else {
			buf.Write(headingText(c, src))
		}
	}
	return buf.Bytes()
}

// lineStart walks back from off to the start of its line.
func lineStart(src []byte, off int) int {
	if i := bytes.LastIndexByte(src[:off], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

// headingEnd returns the offset just past the heading's source line(s). For a
// setext heading the underline line belongs to the heading and is skipped too.
func headingEnd(src []byte, textStop, start int) int {
	end := lineEnd(src, textStop)
	if isATX(src, start) {
		return end
	}
	if end < len(src) && isSetextUnderline(src[end:lineEnd(src, end)]) {
		return lineEnd(src, end)
	}
	return end
}

// lineEnd returns the offset just past the newline terminating the line that
// contains (or starts at) off.
func lineEnd(src []byte, off int) int {
	if i := bytes.IndexByte(src[off:], '\n'); i >= 0 {
		return off + i + 1
	}
	return len(src)
}

func isATX(src []byte, lineStart int) bool {
	i := lineStart
	for i < len(src) && src[i] == ' ' {
		i++
	}
	return i < len(src) && src[i] == '#'
}

func isSetextUnderline(line []byte) bool {
	line = bytes.TrimRight(line, " \t\r\n")
	if len(line) == 0 {
		return false
	}
	c := line[0]
	if c != '=' && c != '-' {
		return false
	}
	for _, b := range line {
		if b != c {
			return false
		}
	}
	return true
}
