// Package mutate applies structural edits to a document's heading tree. The
// engine works on the in-memory record only: it returns the edited text and
// the reparsed structure, and the caller decides how to persist it.
//
// Every operation validates its preconditions first and then performs a
// single splice on a copy of the text, so a failure can never publish a
// half-mutated tree (validate-then-mutate rather than snapshot-and-restore).
package mutate

import (
	"fmt"
	"strings"

	"github.com/Blakeem/mdstore/internal/docstore"
	"github.com/Blakeem/mdstore/internal/doctree"
	mderrors "github.com/Blakeem/mdstore/internal/errors"
	"github.com/Blakeem/mdstore/internal/parser"
)

// Operation names one structural edit.
type Operation string

const (
	OpReplace      Operation = "replace"
	OpAppend       Operation = "append"
	OpPrepend      Operation = "prepend"
	OpInsertBefore Operation = "insert_before"
	OpInsertAfter  Operation = "insert_after"
	OpAppendChild  Operation = "append_child"
	OpRemove       Operation = "remove"
)

// Payload carries the new content for an operation. Title is required for
// the three insertion operations and ignored otherwise.
type Payload struct {
	Title string
	Body  string
}

// Result is the outcome of a successful mutation: the full edited document
// text, its reparsed headings, and where the affected heading landed.
type Result struct {
	Text         string
	Headings     []doctree.Heading
	HeadingIndex int // -1 after remove
	Depth        int
}

// Engine applies operations. maxHeadings bounds the post-edit document the
// same way the document cache bounds parses; <= 0 disables the bound.
type Engine struct {
	maxHeadings int
}

// NewEngine creates a mutation engine.
func NewEngine(maxHeadings int) *Engine {
	return &Engine{maxHeadings: maxHeadings}
}

// Apply resolves ref within rec and performs op. A target that cannot be
// resolved propagates the matcher's structured failure untouched.
func (e *Engine) Apply(rec *docstore.Record, ref string, op Operation, p Payload) (*Result, error) {
	target, fail := rec.ResolveRef(ref)
	if fail != nil {
		return nil, fail.Err(rec.Path, ref)
	}

	switch op {
	case OpReplace, OpAppend, OpPrepend:
		return e.editBody(rec, target, op, p.Body)
	case OpInsertBefore, OpInsertAfter, OpAppendChild:
		strat, ok := insertions[op]
		if !ok {
			// Unreachable while the case list and strategy table agree.
			return nil, fmt.Errorf("no insertion strategy for %s", op)
		}
		return e.insert(rec, target, op, strat, p)
	case OpRemove:
		return e.remove(rec, target)
	default:
		return nil, &mderrors.StructuralConflictError{
			Path:      rec.Path,
			Ref:       ref,
			Operation: string(op),
			Message:   "unknown operation",
		}
	}
}

// editBody rewrites the target's immediate body: the span between the
// heading line and the next heading of any depth. Child sections are out of
// the span and therefore untouched; heading count and order never change.
func (e *Engine) editBody(rec *docstore.Record, target int, op Operation, body string) (*Result, error) {
	h := rec.Headings[target]
	start := h.BodyStart
	end := doctree.BodyEnd(rec.Headings, target, len(rec.Text))
	current := strings.TrimSpace(rec.Text[start:end])

	var next string
	switch op {
	case OpReplace:
		next = strings.TrimSpace(body)
	case OpAppend:
		next = joinBlocks(current, strings.TrimSpace(body))
	case OpPrepend:
		next = joinBlocks(strings.TrimSpace(body), current)
	}

	text := rec.Text[:start] + renderBody(next) + rec.Text[end:]
	headings, err := e.reparse(rec.Path, text)
	if err != nil {
		return nil, err
	}
	return &Result{Text: text, Headings: headings, HeadingIndex: target, Depth: h.Depth}, nil
}

// insert adds a new heading at the point the strategy picks.
func (e *Engine) insert(rec *docstore.Record, target int, op Operation, strat insertionStrategy, p Payload) (*Result, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, &mderrors.StructuralConflictError{
			Path:      rec.Path,
			Ref:       rec.Headings[target].Slug,
			Operation: string(op),
			Message:   "insertion requires a title",
		}
	}
	at, depth, err := strat.locate(rec.Headings, target, len(rec.Text), rec.Path)
	if err != nil {
		return nil, err
	}

	// The insertion point is a line start except when the document lacks a
	// trailing newline; repair that before splicing.
	prefix := ""
	if at > 0 && rec.Text[at-1] != '\n' {
		prefix = "\n"
	}
	text := rec.Text[:at] + prefix + renderSection(depth, title, p.Body) + rec.Text[at:]
	headings, err := e.reparse(rec.Path, text)
	if err != nil {
		return nil, err
	}
	idx := headingAt(headings, at+len(prefix))
	if idx < 0 {
		return nil, &mderrors.StructuralConflictError{
			Path:      rec.Path,
			Ref:       title,
			Operation: string(op),
			Message:   "inserted heading did not survive the reparse",
		}
	}
	return &Result{Text: text, Headings: headings, HeadingIndex: idx, Depth: depth}, nil
}

// remove deletes the target heading and its full subtree: every heading of
// strictly greater depth up to the next heading of equal-or-lesser depth.
// That boundary heading opens the next section and is re-emitted untouched —
// the deleted span ends exactly where the boundary heading's line starts.
func (e *Engine) remove(rec *docstore.Record, target int) (*Result, error) {
	h := rec.Headings[target]
	start := h.Start
	end := doctree.SubtreeEnd(rec.Headings, target, len(rec.Text))

	text := rec.Text[:start] + rec.Text[end:]
	headings, err := e.reparse(rec.Path, text)
	if err != nil {
		return nil, err
	}
	return &Result{Text: text, Headings: headings, HeadingIndex: -1, Depth: h.Depth}, nil
}

func (e *Engine) reparse(path, text string) ([]doctree.Heading, error) {
	doc, err := parser.Parse([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("reparsing %s after edit: %w", path, err)
	}
	if e.maxHeadings > 0 && len(doc.Headings) > e.maxHeadings {
		return nil, &mderrors.TooManyHeadingsError{Path: path, Count: len(doc.Headings), Limit: e.maxHeadings}
	}
	return doc.Headings, nil
}

// headingAt finds the heading whose line starts at offset at.
func headingAt(headings []doctree.Heading, at int) int {
	for i := range headings {
		if headings[i].Start == at {
			return i
		}
	}
	return -1
}

// joinBlocks joins two markdown fragments with a blank line, tolerating
// either being empty.
func joinBlocks(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "\n\n" + b
	}
}

// renderBody formats an immediate body so the heading line above and
// whatever follows stay separated by exactly one blank line.
func renderBody(body string) string {
	if body == "" {
		return "\n"
	}
	return "\n" + body + "\n\n"
}

// renderSection formats a new heading block for insertion at a line start.
func renderSection(depth int, title, body string) string {
	s := strings.Repeat("#", depth) + " " + title + "\n"
	if b := strings.TrimSpace(body); b != "" {
		s += "\n" + b + "\n"
	}
	return s + "\n"
}
